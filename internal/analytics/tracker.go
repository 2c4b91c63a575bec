// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/folio-go/internal/geo"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/util"
)

// Tracker turns inbound tracking requests into recorded visits.
type Tracker struct {
	aggregator *Aggregator
	resolver   *geo.Resolver
	logger     *slog.Logger
}

// NewTracker wires the classifier, geo resolver, and aggregator
// together behind a single entry point.
func NewTracker(aggregator *Aggregator, resolver *geo.Resolver, logger *slog.Logger) *Tracker {
	return &Tracker{aggregator: aggregator, resolver: resolver, logger: logger}
}

// Track records a visit built from the request. Geolocation runs in a
// detached goroutine so a slow provider never delays the response;
// the visit is stored once resolution completes or falls back.
// Tracking never fails: bot traffic is dropped silently and every
// internal error is logged and swallowed.
func (t *Tracker) Track(r *http.Request, path string) {
	visit, ok := t.buildVisit(r, path)
	if !ok {
		return
	}

	// Deliberately not tied to the request context: an in-flight
	// lookup may outlive the request that triggered it.
	go t.capture(context.Background(), visit)
}

// capture resolves the visit's location and records it.
func (t *Tracker) capture(ctx context.Context, visit model.Visit) {
	loc := t.resolver.Resolve(ctx, visit.IP)
	visit.Country = loc.Country
	visit.Region = loc.Region
	visit.City = loc.City

	t.aggregator.Record(visit)
	t.logger.Debug("visit recorded",
		"path", visit.Path, "device", visit.DeviceType, "country", visit.Country)
}

// buildVisit assembles a visit from request headers. The second return
// is false for traffic that should not be tracked.
func (t *Tracker) buildVisit(r *http.Request, path string) (model.Visit, bool) {
	userAgent := r.UserAgent()
	cls := Classify(userAgent)
	if cls.Bot {
		return model.Visit{}, false
	}

	if path == "" {
		path = refererPath(r.Referer())
	}

	return model.Visit{
		ID:         uuid.NewString(),
		IP:         util.ClientIP(r),
		UserAgent:  userAgent,
		DeviceType: cls.DeviceType,
		Browser:    cls.Browser,
		Timestamp:  time.Now(),
		Path:       path,
		Referrer:   r.Referer(),
	}, true
}

// refererPath extracts the path component of a referrer URL, used
// when the tracking call does not name the page explicitly.
func refererPath(referer string) string {
	if referer == "" {
		return "/"
	}
	parsed, err := url.Parse(referer)
	if err != nil || parsed.Path == "" {
		return "/"
	}
	return parsed.Path
}
