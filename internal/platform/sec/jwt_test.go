// Copyright (c) 2026 Keyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/keyra/internal/platform/sec"
)

const testSigningSecret = "test-signing-secret-keep-out-of-prod"

func newTestTokenService(t *testing.T) *sec.TokenService {
	t.Helper()

	service, err := sec.NewTokenService(sec.TokenConfig{
		Secret:     testSigningSecret,
		Algorithm:  "HS256",
		Issuer:     "keyra.test",
		DefaultTTL: 15 * time.Minute,
	})
	require.NoError(t, err)

	return service
}

/*
TestNewTokenService_Config verifies startup validation of the signing config.
*/
func TestNewTokenService_Config(t *testing.T) {
	tests := []struct {
		name      string
		secret    string
		algorithm string
		wantError bool
	}{
		{"valid_hs256", "secret", "HS256", false},
		{"valid_hs384", "secret", "HS384", false},
		{"valid_hs512", "secret", "HS512", false},
		{"empty_algorithm_defaults", "secret", "", false},
		{"empty_secret", "", "HS256", true},
		{"unknown_algorithm", "secret", "RS256", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sec.NewTokenService(sec.TokenConfig{
				Secret:    tt.secret,
				Algorithm: tt.algorithm,
			})

			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

/*
TestTokenService_RoundTrip verifies that an issued token verifies back to the
same subject and issuer.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service := newTestTokenService(t)

	tokenString, err := service.GenerateAccessToken("alice", 0)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := service.VerifyToken(tokenString)
	require.NoError(t, err)

	assert.Equal(t, "alice", claims.Username())
	assert.Equal(t, "keyra.test", claims.Issuer)

	// Zero TTL must fall back to the configured default.
	remaining := time.Until(claims.ExpiresAt.Time)
	assert.Greater(t, remaining, 14*time.Minute)
	assert.LessOrEqual(t, remaining, 15*time.Minute)
}

/*
TestTokenService_Expired verifies that a token past its expiry is rejected
with the dedicated sentinel.
*/
func TestTokenService_Expired(t *testing.T) {
	service := newTestTokenService(t)

	// Hand-sign a token that expired an hour ago with the same key.
	pastTime := time.Now().Add(-2 * time.Hour)
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		IssuedAt:  jwt.NewNumericDate(pastTime),
		ExpiresAt: jwt.NewNumericDate(pastTime.Add(time.Hour)),
	})
	tokenString, err := expired.SignedString([]byte(testSigningSecret))
	require.NoError(t, err)

	_, err = service.VerifyToken(tokenString)
	assert.ErrorIs(t, err, sec.ErrTokenExpired)
}

/*
TestTokenService_Invalid covers forged, malformed, and mis-signed tokens.
*/
func TestTokenService_Invalid(t *testing.T) {
	service := newTestTokenService(t)

	validToken, err := service.GenerateAccessToken("alice", time.Minute)
	require.NoError(t, err)

	wrongKeyToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	wrongKeyString, err := wrongKeyToken.SignedString([]byte("a-different-secret"))
	require.NoError(t, err)

	// Same key, different HMAC variant than the service is pinned to.
	hs512Token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	hs512String, err := hs512Token.SignedString([]byte(testSigningSecret))
	require.NoError(t, err)

	// Signed correctly but missing the subject claim.
	noSubjectToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	noSubjectString, err := noSubjectToken.SignedString([]byte(testSigningSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"tampered_payload", validToken + "x"},
		{"garbage", "not.a.token"},
		{"empty", ""},
		{"wrong_key", wrongKeyString},
		{"wrong_signing_method", hs512String},
		{"missing_subject", noSubjectString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.VerifyToken(tt.token)
			assert.ErrorIs(t, err, sec.ErrTokenInvalid)
		})
	}
}

/*
TestTokenService_ExplicitTTL verifies that an explicit lifetime overrides the
default.
*/
func TestTokenService_ExplicitTTL(t *testing.T) {
	service := newTestTokenService(t)

	tokenString, err := service.GenerateAccessToken("bob", 2*time.Minute)
	require.NoError(t, err)

	claims, err := service.VerifyToken(tokenString)
	require.NoError(t, err)

	remaining := time.Until(claims.ExpiresAt.Time)
	assert.Greater(t, remaining, time.Minute)
	assert.LessOrEqual(t, remaining, 2*time.Minute)
}
