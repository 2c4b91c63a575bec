// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/folio-go/internal/geo"
)

func newTestTracker(t *testing.T) (*Tracker, *Aggregator) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	agg := NewAggregator()
	// Zero budget keeps tests off the network: every public IP takes
	// the deterministic fallback.
	resolver := geo.NewResolver("", 0, logger)
	return NewTracker(agg, resolver, logger), agg
}

func TestBuildVisit(t *testing.T) {
	tracker, _ := newTestTracker(t)

	r := httptest.NewRequest("GET", "/api/track?path=/blog", nil)
	r.Header.Set("User-Agent", uaChromeAndroid)
	r.Header.Set("X-Real-IP", "8.8.8.8")
	r.Header.Set("Referer", "https://www.google.com/")

	visit, ok := tracker.buildVisit(r, "/blog")
	require.True(t, ok)
	require.NotEmpty(t, visit.ID)
	require.Equal(t, "8.8.8.8", visit.IP)
	require.Equal(t, "/blog", visit.Path)
	require.Equal(t, "mobile", visit.DeviceType)
	require.Equal(t, "Chrome", visit.Browser)
	require.Equal(t, "https://www.google.com/", visit.Referrer)
	require.False(t, visit.Timestamp.IsZero())
}

func TestBuildVisit_PathFromReferer(t *testing.T) {
	tracker, _ := newTestTracker(t)

	r := httptest.NewRequest("GET", "/api/track", nil)
	r.Header.Set("User-Agent", uaChromeWindows)
	r.Header.Set("Referer", "https://example.com/portfolio?tab=projects")

	visit, ok := tracker.buildVisit(r, "")
	require.True(t, ok)
	require.Equal(t, "/portfolio", visit.Path)
}

func TestBuildVisit_NoPathNoReferer(t *testing.T) {
	tracker, _ := newTestTracker(t)

	r := httptest.NewRequest("GET", "/api/track", nil)
	r.Header.Set("User-Agent", uaChromeWindows)

	visit, ok := tracker.buildVisit(r, "")
	require.True(t, ok)
	require.Equal(t, "/", visit.Path)
}

func TestBuildVisit_BotDropped(t *testing.T) {
	tracker, _ := newTestTracker(t)

	r := httptest.NewRequest("GET", "/api/track?path=/", nil)
	r.Header.Set("User-Agent", uaGooglebot)

	_, ok := tracker.buildVisit(r, "/")
	require.False(t, ok)
}

func TestCapture_FillsLocation(t *testing.T) {
	tracker, agg := newTestTracker(t)

	r := httptest.NewRequest("GET", "/api/track?path=/", nil)
	r.Header.Set("User-Agent", uaChromeWindows)
	r.Header.Set("X-Real-IP", "8.8.8.8")

	visit, ok := tracker.buildVisit(r, "/")
	require.True(t, ok)

	tracker.capture(context.Background(), visit)

	stats := agg.Stats()
	require.Equal(t, 1, stats.TotalVisits)
	recorded := stats.RecentVisitors[0]
	require.Equal(t, geo.DeterministicLocation("8.8.8.8").Country, recorded.Country)
}

func TestCapture_PrivateIPLocalNetwork(t *testing.T) {
	tracker, agg := newTestTracker(t)

	r := httptest.NewRequest("GET", "/api/track?path=/", nil)
	r.Header.Set("User-Agent", uaChromeWindows)
	r.Header.Set("X-Real-IP", "192.168.1.50")

	visit, ok := tracker.buildVisit(r, "/")
	require.True(t, ok)

	tracker.capture(context.Background(), visit)

	recorded := agg.Stats().RecentVisitors[0]
	require.Equal(t, geo.LocalNetwork.Country, recorded.Country)
}
