// Copyright (c) 2026 Keyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package iam_test

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/keyra/internal/iam"
	"github.com/taibuivan/keyra/internal/platform/apperr"
	"github.com/taibuivan/keyra/internal/platform/sec"
)

// seedAccount creates an account directly in the store with a known password
// and returns it. The one-time secret is readable off the returned record.
func seedAccount(t *testing.T, store iam.UserStore, username, password string, role sec.UserRole, disabled bool) *iam.User {
	t.Helper()

	hash, err := sec.HashPassword(password)
	require.NoError(t, err)

	secret, err := sec.GenerateOTPSecret("keyra.test", username)
	require.NoError(t, err)

	user := &iam.User{
		Username:     username,
		Email:        username + "@keyra.test",
		FullName:     "Test " + username,
		PasswordHash: hash,
		OTPSecret:    secret,
		Disabled:     disabled,
		Role:         role,
	}
	require.NoError(t, store.Create(context.Background(), user))

	return user
}

// currentCode computes the code a client authenticator would show right now.
func currentCode(t *testing.T, secret string) string {
	t.Helper()

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	return code
}

/*
TestCredentialVerifier_Success verifies a correct password+code combination
authenticates and returns the full record.
*/
func TestCredentialVerifier_Success(t *testing.T) {
	store := iam.NewMemoryUserStore()
	seeded := seedAccount(t, store, "alice", "s3cret-pass", sec.RoleUser, false)
	verifier := iam.NewCredentialVerifier(store)

	user, err := verifier.Authenticate(context.Background(), "alice", "s3cret-pass"+currentCode(t, seeded.OTPSecret))

	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)
	assert.Equal(t, "alice", user.Username)
}

/*
TestCredentialVerifier_Rejections verifies every failure mode produces the
same generic unauthorized error.
*/
func TestCredentialVerifier_Rejections(t *testing.T) {
	store := iam.NewMemoryUserStore()
	alice := seedAccount(t, store, "alice", "s3cret-pass", sec.RoleUser, false)
	ghost := seedAccount(t, store, "ghost", "s3cret-pass", sec.RoleUser, true)
	verifier := iam.NewCredentialVerifier(store)

	tests := []struct {
		name           string
		username       string
		combinedSecret string
	}{
		{"wrong_password", "alice", "wrong-pass" + currentCode(t, alice.OTPSecret)},
		{"wrong_code", "alice", "s3cret-pass000000"},
		{"code_only_no_password", "alice", currentCode(t, alice.OTPSecret)},
		{"secret_shorter_than_code", "alice", "12345"},
		{"empty_secret", "alice", ""},
		{"unknown_username", "nobody", "s3cret-pass" + currentCode(t, alice.OTPSecret)},
		{"disabled_account_correct_factors", "ghost", "s3cret-pass" + currentCode(t, ghost.OTPSecret)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := verifier.Authenticate(context.Background(), tt.username, tt.combinedSecret)

			assert.Nil(t, user)
			require.Error(t, err)

			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, "UNAUTHORIZED", ae.Code)

			// Every rejection reads identically to the caller.
			assert.Equal(t, "Incorrect username or password", ae.Message)
		})
	}
}

/*
TestCredentialVerifier_CodeNotReusableAsPassword verifies the fixed-width
split: the trailing six characters are always treated as the code, never as
part of the password.
*/
func TestCredentialVerifier_CodeNotReusableAsPassword(t *testing.T) {
	store := iam.NewMemoryUserStore()

	// A password that itself ends in six digits still splits at length-6.
	seeded := seedAccount(t, store, "bob", "pass123456", sec.RoleUser, false)
	verifier := iam.NewCredentialVerifier(store)

	// Correct: full password plus a fresh code.
	_, err := verifier.Authenticate(context.Background(), "bob", "pass123456"+currentCode(t, seeded.OTPSecret))
	assert.NoError(t, err)

	// Wrong: the password alone, whose digit suffix is not a valid code.
	_, err = verifier.Authenticate(context.Background(), "bob", "pass123456")
	assert.Error(t, err)
}
