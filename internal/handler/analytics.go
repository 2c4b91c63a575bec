// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/olegiv/folio-go/internal/analytics"
)

// trackingPixel is a transparent 1x1 GIF.
var trackingPixel, _ = base64.StdEncoding.DecodeString(
	"R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7")

// maxMockVisits caps mock seeding so a stray query parameter cannot
// balloon process memory.
const maxMockVisits = 10000

// AnalyticsHandler serves the tracking pixel and the stats dashboard.
type AnalyticsHandler struct {
	tracker    *analytics.Tracker
	aggregator *analytics.Aggregator
	logger     *slog.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(tracker *analytics.Tracker, aggregator *analytics.Aggregator, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{tracker: tracker, aggregator: aggregator, logger: logger}
}

// Track handles GET /api/track?path=. It records a visit from request
// headers and returns a 1x1 GIF. Tracking failures never change the
// response: the pixel is served no matter what.
func (h *AnalyticsHandler) Track(w http.ResponseWriter, r *http.Request) {
	h.tracker.Track(r, r.URL.Query().Get("path"))

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(trackingPixel)
}

// Stats handles GET /api/analytics. With ?mock=true&count=N the
// collection is replaced by synthesized demo data first.
func (h *AnalyticsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("mock") == "true" {
		count := 100
		if raw := r.URL.Query().Get("count"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				writeJSONError(w, http.StatusBadRequest, "Invalid count parameter")
				return
			}
			count = parsed
		}
		if count > maxMockVisits {
			count = maxMockVisits
		}

		h.aggregator.SeedMockData(count)
		h.logger.Info("seeded mock analytics data", "count", count)
	}

	writeJSONSuccess(w, map[string]any{"stats": h.aggregator.Stats()})
}
