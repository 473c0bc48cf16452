// Copyright (c) 2026 Keyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package iam

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/keyra/internal/platform/request"
	"github.com/taibuivan/keyra/internal/platform/respond"
	"github.com/taibuivan/keyra/internal/platform/sec"
	"github.com/taibuivan/keyra/internal/platform/validate"
	"github.com/taibuivan/keyra/pkg/pagination"
)

// # HTTP Transport

// Handler exposes the IAM service over HTTP.
type Handler struct {
	service *Service
	gate    *Gate
}

// NewHandler constructs a new IAM HTTP handler.
func NewHandler(service *Service, gate *Gate) *Handler {
	return &Handler{service: service, gate: gate}
}

// AuthRoutes returns the router for the public authentication endpoints.
// Nothing under this router requires a token.
func (handler *Handler) AuthRoutes() chi.Router {
	router := chi.NewRouter()
	router.Post("/token", handler.handleIssueToken)
	return router
}

// UserRoutes returns the router for the user record endpoints.
//
// Every route runs behind the access gate; the admin-only routes add a role
// stage on top of the shared identity and liveness stages.
func (handler *Handler) UserRoutes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(protected chi.Router) {
		protected.Use(handler.gate.ResolveIdentity)
		protected.Use(handler.gate.RequireActive)

		protected.Get("/me", handler.handleGetSelf)
		protected.Put("/me", handler.handleUpdateSelf)

		protected.Group(func(admin chi.Router) {
			admin.Use(handler.gate.RequireRole(sec.RoleAdmin))

			admin.Post("/", handler.handleCreateUser)
			admin.Get("/", handler.handleListUsers)
			admin.Get("/{id}", handler.handleGetUser)
		})
	})

	return router
}

// # Authentication Endpoint

// tokenRequest is the JSON payload for POST /auth/token. The password field
// carries the combined secret: password immediately followed by the
// six-digit one-time code.
type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleIssueToken handles POST /api/v1/auth/token.
func (handler *Handler) handleIssueToken(writer http.ResponseWriter, request *http.Request) {
	var payload tokenRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.
		Required(FieldUsername, payload.Username).
		Required(FieldPassword, payload.Password)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	grant, err := handler.service.IssueToken(request.Context(), payload.Username, payload.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, grant)
}

// # Self-Service Endpoints

// handleGetSelf handles GET /api/v1/users/me.
func (handler *Handler) handleGetSelf(writer http.ResponseWriter, request *http.Request) {
	// The gate has already resolved the record; no extra store read.
	respond.OK(writer, IdentityFrom(request.Context()))
}

// updateSelfRequest is the full-replacement JSON payload for PUT /users/me.
// Any "id" or "role" keys in the body are ignored; the target record is
// always the caller's own, resolved from the token.
type updateSelfRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// handleUpdateSelf handles PUT /api/v1/users/me.
func (handler *Handler) handleUpdateSelf(writer http.ResponseWriter, request *http.Request) {
	var payload updateSelfRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := validateProfileFields(payload.Username, payload.Email, payload.Password, payload.FullName); err != nil {
		respond.Error(writer, request, err)
		return
	}

	acting := IdentityFrom(request.Context())

	updated, err := handler.service.UpdateSelf(request.Context(), acting, UpdateSelfInput{
		Username: payload.Username,
		Email:    payload.Email,
		FullName: payload.FullName,
		Password: payload.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

// # Administration Endpoints

// createUserRequest is the JSON payload for POST /users. Role is optional
// and defaults to "user".
type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// handleCreateUser handles POST /api/v1/users.
func (handler *Handler) handleCreateUser(writer http.ResponseWriter, request *http.Request) {
	var payload createUserRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := validateProfileFields(payload.Username, payload.Email, payload.Password, payload.FullName); err != nil {
		respond.Error(writer, request, err)
		return
	}

	role := sec.UserRole(payload.Role)
	if payload.Role != "" && !role.IsValid() {
		respond.Error(writer, request, validate.RequiredError(FieldRole, "Must be one of: admin, user"))
		return
	}

	user, err := handler.service.CreateUser(request.Context(), NewUserInput{
		Username: payload.Username,
		Email:    payload.Email,
		FullName: payload.FullName,
		Password: payload.Password,
		Role:     role,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

// handleGetUser handles GET /api/v1/users/{id}.
func (handler *Handler) handleGetUser(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.IntParam(request, FieldID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.GetUserByID(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// handleListUsers handles GET /api/v1/users.
func (handler *Handler) handleListUsers(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	users, meta, err := handler.service.ListUsers(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, meta)
}

// validateProfileFields applies the shared rules for account payloads.
// The password minimum is enforced on the raw password; at login the
// six-digit code is appended on top of it.
func validateProfileFields(username, email, password, fullName string) error {
	validator := &validate.Validator{}
	validator.
		Required(FieldUsername, username).
		MinLen(FieldUsername, username, 3).
		MaxLen(FieldUsername, username, 64).
		Required(FieldEmail, email).
		Email(FieldEmail, email).
		Required(FieldPassword, password).
		MinLen(FieldPassword, password, 8).
		MaxLen(FieldFullName, fullName, 128)
	return validator.Err()
}
