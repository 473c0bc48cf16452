// Copyright (c) 2026 Keyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/taibuivan/keyra/internal/platform/constants"
	"github.com/taibuivan/keyra/internal/platform/respond"
)

// DependencyCheck probes one backing service. A nil check is skipped, which
// is how the memory engine runs with no external dependencies at all.
type DependencyCheck func(ctx context.Context) error

// HealthHandler serves the operational probe endpoints.
type HealthHandler struct {
	checkDatabase DependencyCheck
	checkCache    DependencyCheck
}

// NewHealthHandler constructs the probe handler. Pass nil for any dependency
// the selected storage engine does not use.
func NewHealthHandler(checkDatabase, checkCache DependencyCheck) *HealthHandler {
	return &HealthHandler{
		checkDatabase: checkDatabase,
		checkCache:    checkCache,
	}
}

// Liveness handles GET /health. It only proves the process is serving;
// dependency failures must not flip liveness or the orchestrator will
// restart a perfectly healthy process.
func (handler *HealthHandler) Liveness(writer http.ResponseWriter, request *http.Request) {
	respond.JSON(writer, http.StatusOK, map[string]string{
		constants.FieldStatus: "ok",
		"version":             constants.AppVersion,
	})
}

// Readiness handles GET /ready. It probes every configured dependency and
// returns 503 when any of them is unreachable, taking the instance out of
// the load balancer rotation.
func (handler *HealthHandler) Readiness(writer http.ResponseWriter, request *http.Request) {
	probeCtx, cancel := context.WithTimeout(request.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	report := map[string]string{constants.FieldStatus: "ready"}

	if handler.checkDatabase != nil {
		if err := handler.checkDatabase(probeCtx); err != nil {
			status = http.StatusServiceUnavailable
			report[constants.FieldStatus] = "degraded"
			report["database"] = "unreachable"
		} else {
			report["database"] = "ok"
		}
	}

	if handler.checkCache != nil {
		if err := handler.checkCache(probeCtx); err != nil {
			status = http.StatusServiceUnavailable
			report[constants.FieldStatus] = "degraded"
			report["key_value_store"] = "unreachable"
		} else {
			report["key_value_store"] = "ok"
		}
	}

	respond.JSON(writer, status, report)
}
