// Copyright (c) 2026 Keyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package iam_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/keyra/internal/iam"
	"github.com/taibuivan/keyra/internal/platform/middleware"
	"github.com/taibuivan/keyra/internal/platform/sec"
)

// gateTestEnv wires the full request path: token verification middleware,
// the access gate, and the IAM handlers over an in-memory store.
type gateTestEnv struct {
	store  *iam.MemoryUserStore
	tokens *sec.TokenService
	router chi.Router

	admin    *iam.User
	alice    *iam.User
	disabled *iam.User
}

func newGateTestEnv(t *testing.T) *gateTestEnv {
	t.Helper()

	store := iam.NewMemoryUserStore()

	tokens, err := sec.NewTokenService(sec.TokenConfig{
		Secret:     "gate-test-secret",
		Algorithm:  "HS256",
		Issuer:     "keyra.test",
		DefaultTTL: 15 * time.Minute,
	})
	require.NoError(t, err)

	service := iam.NewService(store, iam.NewCredentialVerifier(store), tokens, slog.Default())
	handler := iam.NewHandler(service, iam.NewGate(store))

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(tokens))
	router.Mount("/auth", handler.AuthRoutes())
	router.Mount("/users", handler.UserRoutes())

	return &gateTestEnv{
		store:    store,
		tokens:   tokens,
		router:   router,
		admin:    seedAccount(t, store, "root", "admin-pass", sec.RoleAdmin, false),
		alice:    seedAccount(t, store, "alice", "alice-pass", sec.RoleUser, false),
		disabled: seedAccount(t, store, "ghost", "ghost-pass", sec.RoleUser, true),
	}
}

// tokenFor issues a valid token for a username, bypassing the login flow.
func (env *gateTestEnv) tokenFor(t *testing.T, username string) string {
	t.Helper()

	token, err := env.tokens.GenerateAccessToken(username, 0)
	require.NoError(t, err)

	return token
}

// do executes a request against the wired router and returns the recorder.
func (env *gateTestEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var payload bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&payload).Encode(body)
	}

	request := httptest.NewRequest(method, path, &payload)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, request)

	return recorder
}

/*
TestGate_LoginFlow verifies the public token endpoint end to end, including
the generic failure message.
*/
func TestGate_LoginFlow(t *testing.T) {
	env := newGateTestEnv(t)

	// Successful login with password + current code.
	response := env.do(http.MethodPost, "/auth/token", "", map[string]string{
		"username": "alice",
		"password": "alice-pass" + currentCode(t, env.alice.OTPSecret),
	})
	require.Equal(t, http.StatusOK, response.Code)

	var grantEnvelope struct {
		Data iam.AccessGrant `json:"data"`
	}
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &grantEnvelope))
	assert.NotEmpty(t, grantEnvelope.Data.AccessToken)
	assert.Equal(t, "bearer", grantEnvelope.Data.TokenType)
	assert.Equal(t, int64(900), grantEnvelope.Data.ExpiresIn)

	// The issued token is immediately usable.
	response = env.do(http.MethodGet, "/users/me", grantEnvelope.Data.AccessToken, nil)
	assert.Equal(t, http.StatusOK, response.Code)

	// Wrong password: generic message, no hint which factor failed.
	response = env.do(http.MethodPost, "/auth/token", "", map[string]string{
		"username": "alice",
		"password": "wrong-pass" + currentCode(t, env.alice.OTPSecret),
	})
	assert.Equal(t, http.StatusUnauthorized, response.Code)
	assert.Contains(t, response.Body.String(), "Incorrect username or password")

	// Missing fields: validation error before any credential work.
	response = env.do(http.MethodPost, "/auth/token", "", map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, response.Code)
}

/*
TestGate_TokenRejections verifies every bad-token shape is rejected with the
same 401 message.
*/
func TestGate_TokenRejections(t *testing.T) {
	env := newGateTestEnv(t)

	// Hand-sign a token for alice that expired an hour ago with the same key.
	pastTime := time.Now().Add(-2 * time.Hour)
	expiredToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		IssuedAt:  jwt.NewNumericDate(pastTime),
		ExpiresAt: jwt.NewNumericDate(pastTime.Add(time.Hour)),
	})
	expiredString, err := expiredToken.SignedString([]byte("gate-test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{"no_token", "", http.StatusUnauthorized},
		{"expired_token", expiredString, http.StatusUnauthorized},
		{"tampered_token", env.tokenFor(t, "alice") + "x", http.StatusUnauthorized},
		{"garbage_token", "not.a.token", http.StatusUnauthorized},
		{"subject_does_not_exist", env.tokenFor(t, "deleted-user"), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := env.do(http.MethodGet, "/users/me", tt.token, nil)
			assert.Equal(t, tt.wantStatus, response.Code)
		})
	}
}

/*
TestGate_DisabledAccount verifies a valid token stops working the moment the
account is disabled.
*/
func TestGate_DisabledAccount(t *testing.T) {
	env := newGateTestEnv(t)

	token := env.tokenFor(t, "alice")

	// Works while the account is active.
	response := env.do(http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, response.Code)

	// Disable the account behind the token's back.
	deactivated := *env.alice
	deactivated.Disabled = true
	require.NoError(t, env.store.Replace(context.Background(), &deactivated))

	// Same token, next request: policy rejection, not a token failure.
	response = env.do(http.MethodGet, "/users/me", token, nil)
	assert.Equal(t, http.StatusForbidden, response.Code)
	assert.Contains(t, response.Body.String(), "Inactive account")

	// A pre-disabled account behaves the same way.
	response = env.do(http.MethodGet, "/users/me", env.tokenFor(t, "ghost"), nil)
	assert.Equal(t, http.StatusForbidden, response.Code)
}

/*
TestGate_RoleEnforcement verifies the admin-only surface against both roles.
*/
func TestGate_RoleEnforcement(t *testing.T) {
	env := newGateTestEnv(t)

	userToken := env.tokenFor(t, "alice")
	adminToken := env.tokenFor(t, "root")

	newAccount := map[string]string{
		"username": "carol",
		"email":    "carol@keyra.test",
		"password": "long-enough-pass",
	}

	// A regular user is shut out of every admin route.
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/users/", userToken, newAccount).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/users/", userToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/users/1", userToken, nil).Code)

	// An admin passes the same checks.
	created := env.do(http.MethodPost, "/users/", adminToken, newAccount)
	require.Equal(t, http.StatusCreated, created.Code)

	// The new record never leaks credential material.
	assert.NotContains(t, created.Body.String(), "password")
	assert.NotContains(t, created.Body.String(), "otp")

	// Duplicate enrollment conflicts.
	assert.Equal(t, http.StatusConflict, env.do(http.MethodPost, "/users/", adminToken, newAccount).Code)

	// Lookup of an existing and a missing record.
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/users/1", adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/users/9999", adminToken, nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/users/abc", adminToken, nil).Code)

	// Listing returns the paginated envelope.
	listing := env.do(http.MethodGet, "/users/?page=1&per_page=2", adminToken, nil)
	require.Equal(t, http.StatusOK, listing.Code)

	var listEnvelope struct {
		Data []iam.User `json:"data"`
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(listing.Body.Bytes(), &listEnvelope))
	assert.Len(t, listEnvelope.Data, 2)
	assert.Equal(t, 4, listEnvelope.Meta.Total)
}

/*
TestGate_SelfUpdateTargetsCaller verifies a self-update can never be aimed at
another account, even with a foreign id in the payload.
*/
func TestGate_SelfUpdateTargetsCaller(t *testing.T) {
	env := newGateTestEnv(t)

	// Alice submits an update carrying the admin's id. The id is ignored;
	// the target is always the record resolved from her token.
	response := env.do(http.MethodPut, "/users/me", env.tokenFor(t, "alice"), map[string]interface{}{
		"id":        env.admin.ID,
		"username":  "alice-renamed",
		"email":     "alice-renamed@keyra.test",
		"full_name": "Alice Renamed",
		"password":  "fresh-long-pass",
	})
	require.Equal(t, http.StatusOK, response.Code)

	var updatedEnvelope struct {
		Data iam.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &updatedEnvelope))
	assert.Equal(t, env.alice.ID, updatedEnvelope.Data.ID)
	assert.Equal(t, "alice-renamed", updatedEnvelope.Data.Username)

	// The admin record is untouched.
	admin, err := env.store.FindByID(context.Background(), env.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "root", admin.Username)

	// Missing required fields are rejected before the service runs.
	response = env.do(http.MethodPut, "/users/me", env.tokenFor(t, "alice-renamed"), map[string]string{
		"username": "x",
	})
	assert.Equal(t, http.StatusBadRequest, response.Code)
}
