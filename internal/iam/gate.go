// Copyright (c) 2026 Keyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package iam

import (
	"context"
	"net/http"

	"github.com/taibuivan/keyra/internal/platform/apperr"
	"github.com/taibuivan/keyra/internal/platform/ctxkey"
	"github.com/taibuivan/keyra/internal/platform/ctxutil"
	"github.com/taibuivan/keyra/internal/platform/respond"
	"github.com/taibuivan/keyra/internal/platform/sec"
)

// # Access Gate

// Gate is the per-request authorization pipeline that stands between the
// router and the protected handlers.
//
// Token verification happens earlier, in the platform middleware; the gate
// picks up the verified claims and turns them back into a live identity.
// Stages compose in a fixed order:
//
//  1. ResolveIdentity: claims subject -> current user record
//  2. RequireActive: reject disabled accounts
//  3. RequireRole: enforce a minimum role
//
// Each stage either attaches state to the request context or terminates the
// request with the appropriate 401/403. Revoking or disabling an account
// takes effect on the very next request, even for tokens that are still
// cryptographically valid, because the record is re-read from the store
// every time.
type Gate struct {
	store UserStore
}

// NewGate constructs a [Gate] over the given user store.
func NewGate(store UserStore) *Gate {
	return &Gate{store: store}
}

/*
ResolveIdentity maps the verified token claims to a live user record.

Description: Requires claims to be present (anonymous requests are rejected
with 401). The subject is looked up in the store on every request; a token
whose subject no longer exists is rejected exactly like an invalid token.

Returns:
  - func(http.Handler) http.Handler: Chi-compatible middleware
*/
func (gate *Gate) ResolveIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := ctxutil.GetClaims(request.Context())
		if claims == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}

		user, err := gate.store.FindByUsername(request.Context(), claims.Username())
		if err != nil {
			// Same message as a signature failure; the caller learns
			// nothing about whether the account ever existed.
			respond.Error(writer, request, apperr.Unauthorized("Could not validate credentials"))
			return
		}

		ctx := context.WithValue(request.Context(), ctxkey.KeyIdentity, user)
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

/*
RequireActive rejects requests whose resolved identity is disabled.

Description: Must run after [Gate.ResolveIdentity]. A disabled account is a
policy rejection (403), not an authentication failure: the token and the
identity are both valid, the account just may not act.

Returns:
  - func(http.Handler) http.Handler: Chi-compatible middleware
*/
func (gate *Gate) RequireActive(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		user := IdentityFrom(request.Context())
		if user == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}

		if user.Disabled {
			respond.Error(writer, request, apperr.Forbidden("Inactive account"))
			return
		}

		next.ServeHTTP(writer, request)
	})
}

/*
RequireRole enforces a minimum role on the resolved identity.

Description: Must run after [Gate.ResolveIdentity]. Roles are strictly
ordered (admin > user); an admin passes every check a user passes.

Parameters:
  - role: sec.UserRole (minimum role required)

Returns:
  - func(http.Handler) http.Handler: Chi-compatible middleware
*/
func (gate *Gate) RequireRole(role sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			user := IdentityFrom(request.Context())
			if user == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			if !user.Role.AtLeast(role) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// IdentityFrom retrieves the gate-resolved [*User] from the context.
// Returns nil if no identity has been resolved on this request.
func IdentityFrom(ctx context.Context) *User {
	user, ok := ctx.Value(ctxkey.KeyIdentity).(*User)
	if !ok {
		return nil
	}
	return user
}
