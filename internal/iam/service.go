// Copyright (c) 2026 Keyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package iam

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/keyra/internal/platform/apperr"
	"github.com/taibuivan/keyra/internal/platform/constants"
	"github.com/taibuivan/keyra/internal/platform/sec"
	"github.com/taibuivan/keyra/pkg/pagination"
)

// # Contracts & Types

// TokenProvider defines the contract for issuing signed access tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed token string for the given subject.
	// A non-positive timeToLive selects the configured default.
	GenerateAccessToken(subject string, timeToLive time.Duration) (string, error)

	// AccessTokenTTL returns the default token lifetime.
	AccessTokenTTL() time.Duration
}

// Service implements the IAM use cases: token issuance and the user record
// operations that sit behind the access gate.
//
// The service is stateless between requests; the only shared mutable
// resource it touches is the injected [UserStore].
type Service struct {
	store    UserStore
	verifier *CredentialVerifier
	tokens   TokenProvider
	logger   *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(store UserStore, verifier *CredentialVerifier, tokens TokenProvider, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		verifier: verifier,
		tokens:   tokens,
		logger:   logger,
	}
}

// # Token Issuance

/*
IssueToken authenticates a combined login secret and issues an access token.

Description: This is the public composition of the credential verifier and
the token service — the only operation reachable without a token.

Parameters:
  - context: context.Context
  - username: string
  - combinedSecret: string

Returns:
  - *AccessGrant: Signed bearer token plus lifetime metadata
  - error: apperr.Unauthorized or signing failures
*/
func (service *Service) IssueToken(context context.Context, username, combinedSecret string) (*AccessGrant, error) {
	user, err := service.verifier.Authenticate(context, username, combinedSecret)
	if err != nil {
		return nil, err
	}

	timeToLive := service.tokens.AccessTokenTTL()
	accessToken, err := service.tokens.GenerateAccessToken(user.Username, timeToLive)
	if err != nil {
		return nil, fmt.Errorf("iam_service_token_generation_failed: %w", err)
	}

	service.logger.Info("access_token_issued", slog.String("username", user.Username))

	return &AccessGrant{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(timeToLive / time.Second),
	}, nil
}

// # Registration

// NewUserInput holds the data required to enroll a new account.
type NewUserInput struct {
	Username string
	Email    string
	FullName string
	Password string
	Role     sec.UserRole
}

/*
CreateUser validates, hashes, and persists a brand new account.

Description: Admin-only enrollment. Hashes the supplied password, generates
the one-time-code shared secret (exactly once — it is never rotated by this
service), and persists the record with an active status.

Parameters:
  - context: context.Context
  - input: NewUserInput

Returns:
  - *User: Created entity
  - error: Conflict (if identity exists) or storage errors
*/
func (service *Service) CreateUser(context context.Context, input NewUserInput) (*User, error) {

	// Verify username uniqueness. Return a client-safe Conflict err.
	_, err := service.store.FindByUsername(context, input.Username)
	if err == nil {
		return nil, apperr.Conflict("Username is already taken")
	}

	// Verify email uniqueness. Return a client-safe Conflict err.
	_, err = service.store.FindByEmail(context, input.Email)
	if err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}

	// Prevent storing plain-text passwords.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("iam_service_hash_failed: %w", err)
	}

	// The shared secret is generated here and nowhere else.
	otpSecret, err := sec.GenerateOTPSecret(constants.AuthIssuer, input.Username)
	if err != nil {
		return nil, fmt.Errorf("iam_service_otp_secret_failed: %w", err)
	}

	role := input.Role
	if role == "" {
		role = sec.RoleUser
	}

	user := &User{
		Username:     input.Username,
		Email:        input.Email,
		FullName:     input.FullName,
		PasswordHash: hashedPassword,
		OTPSecret:    otpSecret,
		Disabled:     false,
		Role:         role,
	}

	// Persist the user; the store assigns the numeric ID.
	if err := service.store.Create(context, user); err != nil {
		return nil, fmt.Errorf("iam_service_create_failed: %w", err)
	}

	service.logger.Info("user_created",
		slog.Int64("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)

	return user, nil
}

// # Record Retrieval

/*
GetUserByID retrieves an arbitrary account by its numeric ID.

Description: Admin-only lookup, used after the access gate has already
authorized the caller. A missing record is NOT_FOUND, distinct from the
gate's UNAUTHORIZED/FORBIDDEN outcomes.

Returns:
  - *User: Hydrated entity
  - error: apperr.NotFound or storage failures
*/
func (service *Service) GetUserByID(context context.Context, id int64) (*User, error) {
	return service.store.FindByID(context, id)
}

/*
ListUsers returns one page of accounts plus pagination metadata.

Returns:
  - []*User: Page of records
  - pagination.Meta: Page/total metadata for the response envelope
  - error: Storage failures
*/
func (service *Service) ListUsers(context context.Context, params pagination.Params) ([]*User, pagination.Meta, error) {
	users, total, err := service.store.List(context, params)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("iam_service_list_failed: %w", err)
	}
	return users, pagination.NewMeta(params.Page, params.PerPage, total), nil
}

// # Self Update

// UpdateSelfInput defines the full-replacement payload for a self-update.
// Every field is required — including the password, which is re-hashed on
// each update. There is no partial-update mode.
type UpdateSelfInput struct {
	Username string
	Email    string
	FullName string
	Password string
}

/*
UpdateSelf replaces the mutable fields of the calling user's own record.

Description: The acting identity is always the record resolved from the
token by the access gate — never an ID taken from the payload — so a caller
cannot redirect the update at another account. Role, disabled flag, and the
one-time-code secret are deliberately untouchable through this path.

Parameters:
  - context: context.Context
  - acting: *User (gate-resolved caller record)
  - input: UpdateSelfInput

Returns:
  - *User: The updated record
  - error: Conflict, hashing, or storage failures
*/
func (service *Service) UpdateSelf(context context.Context, acting *User, input UpdateSelfInput) (*User, error) {

	// Uniqueness checks only apply when the value actually changes,
	// otherwise the caller's own record would collide with itself.
	if input.Username != acting.Username {
		if _, err := service.store.FindByUsername(context, input.Username); err == nil {
			return nil, apperr.Conflict("Username is already taken")
		}
	}

	if input.Email != acting.Email {
		if _, err := service.store.FindByEmail(context, input.Email); err == nil {
			return nil, apperr.Conflict("Email is already registered")
		}
	}

	// The password accompanies every update and is always re-hashed.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("iam_service_update_hash_failed: %w", err)
	}

	updated := *acting
	updated.Username = input.Username
	updated.Email = input.Email
	updated.FullName = input.FullName
	updated.PasswordHash = hashedPassword

	if err := service.store.Replace(context, &updated); err != nil {
		return nil, fmt.Errorf("iam_service_update_failed: %w", err)
	}

	service.logger.Info("user_profile_updated", slog.Int64("user_id", updated.ID))

	return &updated, nil
}
