// Copyright (c) 2026 Keyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package iam implements the identity and access management core.

It defines the user record, the credential verifier for the combined
password+one-time-code login secret, the access gate that turns a bearer token
back into a live identity, and the service operations exposed over HTTP.

# Architecture

This layer is the "Truth" of the system. The entities defined here have no
transport dependencies and encapsulate all business rules related to identity:
who may obtain a token, and what a token holder may do.
*/
package iam

import (
	"time"

	"github.com/taibuivan/keyra/internal/platform/sec"
)

// # Domain Entities

// User represents a registered account.
//
// A record with Disabled set can still be looked up (an admin may fetch it),
// but it must never pass the credential verifier or the access gate's
// liveness check.
type User struct {
	ID           int64        `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	FullName     string       `json:"full_name"`
	PasswordHash string       `json:"-"` // Explicitly omitted from JSON for security.
	OTPSecret    string       `json:"-"` // Base32 shared secret, set once at creation, never exposed.
	Disabled     bool         `json:"disabled"`
	Role         sec.UserRole `json:"role"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// AccessGrant is the transport-ready result of a successful token issuance.
type AccessGrant struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"` // seconds
}

// # Field Identifiers

// Global field names for validation and identity mapping in the IAM domain.
const (
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldFullName = "full_name"
	FieldRole     = "role"
	FieldID       = "id"
)
