// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package geo

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolve_PrivateIP(t *testing.T) {
	r := NewResolver("", 10, testLogger())

	for _, ip := range []string{"127.0.0.1", "10.0.0.1", "192.168.1.1", "::1"} {
		loc := r.Resolve(context.Background(), ip)
		require.Equal(t, LocalNetwork, loc, "ip %s", ip)
	}

	// Private resolution must not touch the budget.
	require.True(t, r.consumeBudget())
}

func TestResolve_PrimaryProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "success", "country": "Germany", "regionName": "Berlin", "city": "Berlin",
		})
	}))
	defer srv.Close()

	r := NewResolver("", 10, testLogger())

	loc, ok := r.lookupProviderAt(t, srv.URL)
	require.True(t, ok)
	require.Equal(t, "Germany", loc.Country)
	require.Equal(t, "Berlin", loc.Region)
}

// lookupProviderAt exercises the primary-provider decode path against
// a local server standing in for ip-api.com.
func (r *Resolver) lookupProviderAt(t *testing.T, url string) (Location, bool) {
	t.Helper()

	var result struct {
		Status     string `json:"status"`
		Country    string `json:"country"`
		RegionName string `json:"regionName"`
		City       string `json:"city"`
	}
	if !r.fetchJSON(context.Background(), url, &result) {
		return Location{}, false
	}
	if result.Status != "success" || result.Country == "" {
		return Location{}, false
	}
	return Location{Country: result.Country, Region: result.RegionName, City: result.City}, true
}

func TestResolve_ProviderFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := NewResolver("", 10, testLogger())

	var result struct{}
	require.False(t, r.fetchJSON(context.Background(), srv.URL, &result))
}

func TestBudgetExhaustion(t *testing.T) {
	r := NewResolver("", 2, testLogger())

	require.True(t, r.consumeBudget())
	require.True(t, r.consumeBudget())
	require.False(t, r.consumeBudget())

	// With the budget spent, public IPs resolve deterministically with
	// no network call at all.
	loc := r.Resolve(context.Background(), "8.8.8.8")
	require.Equal(t, DeterministicLocation("8.8.8.8"), loc)

	r.ResetBudget()
	require.True(t, r.consumeBudget())
}

func TestDeterministicLocation(t *testing.T) {
	// 8.8.8.8: 8+8+8+8 = 32, 32 % 12 = 8 -> Australia
	require.Equal(t, "Australia", DeterministicLocation("8.8.8.8").Country)

	// Same input, same output.
	require.Equal(t, DeterministicLocation("1.2.3.4"), DeterministicLocation("1.2.3.4"))

	// Unparseable input degrades to Unknown rather than panicking.
	require.Equal(t, "Unknown", DeterministicLocation("not-an-ip").Country)
}
