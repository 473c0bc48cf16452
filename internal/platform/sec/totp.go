// Copyright (c) 2026 Keyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// RFC 6238 parameters for the platform. These are fixed for the whole fleet:
// a stored secret must verify identically on every node.
const (
	// otpPeriod is the length of one time window in seconds.
	otpPeriod = 30

	// otpSkew is how many adjacent windows are accepted on either side of
	// the current one, tolerating client clock drift.
	otpSkew = 1

	// otpSecretSize is the byte length of a generated shared secret
	// (base32-encoded for storage).
	otpSecretSize = 20
)

// GenerateOTPSecret creates a new base32 shared secret for an account.
//
// The secret is generated exactly once, at account creation, and is never
// rotated or exposed afterwards.
func GenerateOTPSecret(issuer, accountName string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
		SecretSize:  otpSecretSize,
		Digits:      otp.DigitsSix,
		Period:      otpPeriod,
	})
	if err != nil {
		return "", fmt.Errorf("sec: failed to generate otp secret: %w", err)
	}
	return key.Secret(), nil
}

// VerifyOTPCode checks a six-digit code against the shared secret for the
// current time window, accepting one window of drift on either side.
func VerifyOTPCode(code, secret string) bool {
	return VerifyOTPCodeAt(code, secret, time.Now())
}

// VerifyOTPCodeAt checks a six-digit code against the shared secret for the
// window containing the given instant.
func VerifyOTPCodeAt(code, secret string, at time.Time) bool {
	valid, err := totp.ValidateCustom(code, secret, at.UTC(), totp.ValidateOpts{
		Period:    otpPeriod,
		Skew:      otpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && valid
}
