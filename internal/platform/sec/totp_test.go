// Copyright (c) 2026 Keyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/keyra/internal/platform/sec"
)

/*
TestGenerateOTPSecret verifies secret generation produces distinct, non-empty
base32 secrets.
*/
func TestGenerateOTPSecret(t *testing.T) {
	first, err := sec.GenerateOTPSecret("keyra.test", "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := sec.GenerateOTPSecret("keyra.test", "alice")
	require.NoError(t, err)

	// Two enrollments must never share a secret.
	assert.NotEqual(t, first, second)
}

/*
TestVerifyOTPCodeAt pins verification behavior to a fixed instant so the
window arithmetic is deterministic.
*/
func TestVerifyOTPCodeAt(t *testing.T) {
	secret, err := sec.GenerateOTPSecret("keyra.test", "alice")
	require.NoError(t, err)

	// Fixed instant in the middle of a 30-second window.
	at := time.Date(2026, 3, 14, 15, 9, 15, 0, time.UTC)

	currentCode, err := totp.GenerateCode(secret, at)
	require.NoError(t, err)

	previousCode, err := totp.GenerateCode(secret, at.Add(-30*time.Second))
	require.NoError(t, err)

	nextCode, err := totp.GenerateCode(secret, at.Add(30*time.Second))
	require.NoError(t, err)

	staleCode, err := totp.GenerateCode(secret, at.Add(-90*time.Second))
	require.NoError(t, err)

	tests := []struct {
		name  string
		code  string
		valid bool
	}{
		{"current_window", currentCode, true},
		{"previous_window_within_skew", previousCode, true},
		{"next_window_within_skew", nextCode, true},
		{"three_windows_old", staleCode, false},
		{"wrong_code", "000001", false},
		{"too_short", "123", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, sec.VerifyOTPCodeAt(tt.code, secret, at))
		})
	}
}

/*
TestVerifyOTPCode_WrongSecret verifies a code never validates against another
account's secret.
*/
func TestVerifyOTPCode_WrongSecret(t *testing.T) {
	secretA, err := sec.GenerateOTPSecret("keyra.test", "alice")
	require.NoError(t, err)
	secretB, err := sec.GenerateOTPSecret("keyra.test", "bob")
	require.NoError(t, err)

	at := time.Date(2026, 3, 14, 15, 9, 15, 0, time.UTC)
	code, err := totp.GenerateCode(secretA, at)
	require.NoError(t, err)

	assert.True(t, sec.VerifyOTPCodeAt(code, secretA, at))
	assert.False(t, sec.VerifyOTPCodeAt(code, secretB, at))
}
