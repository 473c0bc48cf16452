// Copyright (c) 2026 Keyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, Token Signing,
// One-Time Codes) from the domain logic. It acts as an Infrastructure service
// injected into the Application layer via small interfaces.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Sentinel errors for token verification outcomes.
//
// # Why two errors?
//
// Internally the service distinguishes an expired token from a forged or
// malformed one so the two can be logged differently. The access gate
// collapses both into a single 401 before anything reaches a client.
var (
	// ErrTokenExpired is returned when the token's signature is fine but its
	// expiry timestamp is in the past.
	ErrTokenExpired = errors.New("sec: token expired")

	// ErrTokenInvalid is returned for every other verification failure:
	// bad signature, malformed payload, wrong signing method, missing subject.
	ErrTokenInvalid = errors.New("sec: token invalid")
)

// AuthClaims represents the payload embedded inside an access token.
//
// # Why only registered claims?
//
// The token proves possession, nothing more. Role and account status are
// re-resolved from the user store on every request, so embedding them here
// would only create a stale copy an attacker could try to keep alive.
type AuthClaims struct {
	jwt.RegisteredClaims
}

// Username returns the token subject, which is always the account username.
func (claims *AuthClaims) Username() string {
	return claims.Subject
}

// TokenConfig is the process-wide signing configuration.
//
// It is constructed exactly once at startup from environment values and
// passed into [NewTokenService]. No package-level signing state exists.
type TokenConfig struct {
	// Secret is the shared HMAC signing key.
	Secret string

	// Algorithm is the signing algorithm identifier: HS256, HS384 or HS512.
	Algorithm string

	// Issuer is written into the 'iss' claim of every issued token.
	Issuer string

	// DefaultTTL is used when a caller issues a token without an explicit TTL.
	DefaultTTL time.Duration
}

// TokenService handles generation and verification of signed access tokens
// using an HMAC signing method.
//
// Verification is a pure function of the token string, the key, and the wall
// clock; a single instance is safe for concurrent use across requests.
type TokenService struct {
	secret     []byte
	method     *jwt.SigningMethodHMAC
	issuer     string
	defaultTTL time.Duration
}

// NewTokenService creates a new TokenService from the startup configuration.
// It rejects an empty secret and unknown algorithm identifiers.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("sec: signing secret must not be empty")
	}

	var method *jwt.SigningMethodHMAC
	switch cfg.Algorithm {
	case "HS256", "":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("sec: unsupported signing algorithm %q", cfg.Algorithm)
	}

	defaultTTL := cfg.DefaultTTL
	if defaultTTL <= 0 {
		defaultTTL = 15 * time.Minute
	}

	return &TokenService{
		secret:     []byte(cfg.Secret),
		method:     method,
		issuer:     cfg.Issuer,
		defaultTTL: defaultTTL,
	}, nil
}

// AccessTokenTTL returns the configured default token lifetime.
func (service *TokenService) AccessTokenTTL() time.Duration {
	return service.defaultTTL
}

// GenerateAccessToken creates a new signed access token for the given subject.
//
// # Parameters
//   - subject: The username the token attests to.
//   - timeToLive: Token lifetime. Zero or negative falls back to the
//     configured default TTL.
//
// # Returns
//   - A signed compact token string, or an error if signing fails.
func (service *TokenService) GenerateAccessToken(subject string, timeToLive time.Duration) (string, error) {
	if timeToLive <= 0 {
		timeToLive = service.defaultTTL
	}

	currentTime := time.Now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
	}

	token := jwt.NewWithClaims(service.method, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifyToken checks the signature and validity of a token string.
//
// # Returns
//   - The decoded [*AuthClaims] on success.
//   - [ErrTokenExpired] when the token is past its expiry.
//   - [ErrTokenInvalid] for every other failure mode.
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Pin the exact configured algorithm. Accepting any HMAC variant
		// would let a token signed under a different method through.
		if token.Method.Alg() != service.method.Alg() {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
