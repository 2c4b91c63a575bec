// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/olegiv/folio-go/internal/analytics"
	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/model"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	db         *sql.DB
	aggregator *analytics.Aggregator
	startTime  time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *sql.DB, aggregator *analytics.Aggregator) *HealthHandler {
	return &HealthHandler{db: db, aggregator: aggregator, startTime: time.Now()}
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Health handles GET /health. Unauthenticated callers get a minimal
// status; admins get per-check details.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase()

	status := "healthy"
	code := http.StatusOK
	if dbCheck.Status != "healthy" {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	subject, ok := middleware.GetSubject(r)
	if !ok || subject.Role != model.RoleAdmin {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).Round(time.Second).String(),
		"visits":    h.aggregator.Len(),
		"checks":    map[string]Check{"database": dbCheck},
	})
}

// checkDatabase verifies database connectivity.
func (h *HealthHandler) checkDatabase() Check {
	start := time.Now()
	err := h.db.Ping()
	latency := time.Since(start)

	if err != nil {
		return Check{Status: "unhealthy", Message: err.Error(), Latency: latency.String()}
	}
	return Check{Status: "healthy", Message: "Connected", Latency: latency.String()}
}
