// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/folio-go/internal/ai"
)

// AIHandler exposes AI pass-through endpoints.
type AIHandler struct {
	client *ai.Client
	logger *slog.Logger
}

// NewAIHandler creates a new AI handler.
func NewAIHandler(client *ai.Client, logger *slog.Logger) *AIHandler {
	return &AIHandler{client: client, logger: logger}
}

// Summarize handles POST /api/ai/summarize.
func (h *AIHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeJSONError(w, http.StatusBadRequest, "Content is required")
		return
	}

	summary, err := h.client.Summarize(r.Context(), req.Content)
	if err != nil {
		h.writeAIError(w, err)
		return
	}

	writeJSONSuccess(w, map[string]any{"summary": summary})
}

// SmartSearch handles POST /api/ai/search.
func (h *AIHandler) SmartSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string   `json:"question"`
		Docs     []string `json:"docs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSONError(w, http.StatusBadRequest, "Question is required")
		return
	}

	answer, err := h.client.SmartSearch(r.Context(), req.Question, req.Docs)
	if err != nil {
		h.writeAIError(w, err)
		return
	}

	writeJSONSuccess(w, map[string]any{"answer": answer})
}

// AnalyzeQuestions handles POST /api/ai/analyze.
func (h *AIHandler) AnalyzeQuestions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Questions []string `json:"questions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Questions) == 0 {
		writeJSONError(w, http.StatusBadRequest, "At least one question is required")
		return
	}

	analysis, err := h.client.AnalyzeQuestions(r.Context(), req.Questions)
	if err != nil {
		h.writeAIError(w, err)
		return
	}

	writeJSONSuccess(w, map[string]any{"analysis": analysis})
}

func (h *AIHandler) writeAIError(w http.ResponseWriter, err error) {
	if errors.Is(err, ai.ErrNotConfigured) {
		writeJSONError(w, http.StatusServiceUnavailable, "AI features are not configured")
		return
	}
	h.logger.Error("ai request failed", "error", err)
	writeJSONError(w, http.StatusBadGateway, "AI provider error")
}
