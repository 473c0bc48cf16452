// Copyright (c) 2026 Keyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: Token issuer, default TTL, and one-time-code geometry.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "keyra-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in access tokens and the issuer
	// label embedded in provisioned one-time-code secrets.
	AuthIssuer = "keyra.app"

	// DefaultAccessTokenTTL is the access token lifetime used when no explicit
	// TTL is configured.
	DefaultAccessTokenTTL = 15 * time.Minute

	// OTPCodeLength is the number of digits in a time-based one-time code.
	// Codes are always exactly six digits, which is why the combined login
	// secret needs no delimiter between password and code.
	OTPCodeLength = 6
)

// # Storage Engines

const (
	// EnginePostgres selects the relational UserStore backed by pgx.
	EnginePostgres = "postgres"

	// EngineRedis selects the key-value UserStore backed by go-redis.
	EngineRedis = "redis"

	// EngineMemory selects the in-process UserStore (tests, local runs).
	EngineMemory = "memory"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldMessage = "message"
	FieldStatus  = "status"
)

// # Database Schemas

const (
	SchemaIAM = "iam"
)

// # Redis Key Taxonomy

const (
	RedisPrefixUserRecord    = "iam:user:id:"
	RedisPrefixUsernameIndex = "iam:user:username:"
	RedisPrefixEmailIndex    = "iam:user:email:"
	RedisKeyUserIDCounter    = "iam:user:next_id"
	RedisKeyUserIDIndex      = "iam:user:ids"
)
