// Copyright (c) 2026 Keyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package iam

import (
	"context"

	"github.com/taibuivan/keyra/internal/platform/apperr"
	"github.com/taibuivan/keyra/internal/platform/constants"
	"github.com/taibuivan/keyra/internal/platform/sec"
)

// # Credential Verification

// dummyPasswordHash is compared against when the username does not resolve,
// so the unknown-username path costs a full bcrypt comparison like every
// other rejection. Entropy failure at init is unrecoverable.
var dummyPasswordHash = func() string {
	hash, err := sec.HashPassword("keyra.dummy.credential")
	if err != nil {
		panic("iam: failed to initialize dummy hash: " + err.Error())
	}
	return hash
}()

// CredentialVerifier authenticates a user from a combined login secret:
// a password immediately followed by a six-digit one-time code, with no
// separator. Codes are fixed-width, so the last six characters are always
// the code and everything before them is the password.
//
// # Review Process
//
// This type is critical for security. Any changes to the comparison order or
// the failure messages must be reviewed by the security team.
type CredentialVerifier struct {
	store UserStore
}

// NewCredentialVerifier constructs a verifier over the given user store.
func NewCredentialVerifier(store UserStore) *CredentialVerifier {
	return &CredentialVerifier{store: store}
}

/*
Authenticate validates a username and combined secret against the store.

Description: Splits the combined secret, verifies the password hash and the
one-time code, and checks that the account is active. Every rejection —
unknown username, wrong password, wrong code, disabled account — produces the
same generic UNAUTHORIZED result so callers cannot enumerate accounts or tell
which factor failed.

Parameters:
  - context: context.Context
  - username: string
  - combinedSecret: string (password + 6-digit code)

Returns:
  - *User: The full authenticated record
  - error: apperr.Unauthorized or storage failures
*/
func (verifier *CredentialVerifier) Authenticate(context context.Context, username, combinedSecret string) (*User, error) {

	// A combined secret shorter than one code cannot contain a code at all.
	if len(combinedSecret) < constants.OTPCodeLength {
		return nil, errInvalidCredentials()
	}

	// Fixed-width split: trailing six characters are the one-time code.
	split := len(combinedSecret) - constants.OTPCodeLength
	password := combinedSecret[:split]
	code := combinedSecret[split:]

	user, err := verifier.store.FindByUsername(context, username)
	if err != nil {
		// Burn a hash comparison so this path is not measurably faster
		// than a wrong-password rejection.
		sec.CheckPasswordHash(password, dummyPasswordHash)
		return nil, errInvalidCredentials()
	}

	if !sec.CheckPasswordHash(password, user.PasswordHash) {
		return nil, errInvalidCredentials()
	}

	if !sec.VerifyOTPCode(code, user.OTPSecret) {
		return nil, errInvalidCredentials()
	}

	// A disabled account fails authentication even with correct factors,
	// and indistinguishably from them.
	if user.Disabled {
		return nil, errInvalidCredentials()
	}

	return user, nil
}

// errInvalidCredentials is the single outward failure for every
// authentication rejection. Never specialize this message.
func errInvalidCredentials() error {
	return apperr.Unauthorized("Incorrect username or password")
}
