// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geo resolves IP addresses to approximate locations. A
// resolution never fails: private addresses short-circuit to a local
// placeholder, external providers are tried under a short timeout and
// a process-wide call budget, and exhaustion of all of those degrades
// to a deterministic pseudo-location derived from the address itself.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/oschwald/maxminddb-golang"

	"github.com/olegiv/folio-go/internal/util"
)

// Location is a best-effort resolution result.
type Location struct {
	Country string `json:"country"`
	Region  string `json:"region"`
	City    string `json:"city"`
}

// LocalNetwork is returned for private and loopback addresses.
var LocalNetwork = Location{Country: "Local Network", Region: "Internal", City: "Internal"}

const lookupTimeout = 3 * time.Second

// fallbackCountries is the fixed list the deterministic pseudo-geo
// indexes into. Order matters: changing it changes every fallback
// result.
var fallbackCountries = []string{
	"United States", "India", "Brazil", "United Kingdom", "Canada",
	"Germany", "France", "Japan", "Australia", "Mexico", "Spain", "Italy",
}

// Resolver performs IP geolocation with layered fallbacks.
type Resolver struct {
	client *http.Client
	mmdb   *maxminddb.Reader
	logger *slog.Logger

	budget int64
	used   atomic.Int64
}

// NewResolver creates a resolver. mmdbPath optionally points at a
// local MaxMind database consulted before any network call; an empty
// path disables that stage. budget caps the number of external HTTP
// lookups for the process lifetime.
func NewResolver(mmdbPath string, budget int64, logger *slog.Logger) *Resolver {
	r := &Resolver{
		client: &http.Client{Timeout: lookupTimeout},
		logger: logger,
		budget: budget,
	}

	if mmdbPath != "" {
		reader, err := maxminddb.Open(mmdbPath)
		if err != nil {
			logger.Warn("geoip database unavailable, relying on external lookups",
				"path", mmdbPath, "error", err)
		} else {
			r.mmdb = reader
		}
	}

	return r
}

// Close releases the local GeoIP database, if open.
func (r *Resolver) Close() error {
	if r.mmdb != nil {
		return r.mmdb.Close()
	}
	return nil
}

// Resolve maps an IP to a location. It never returns an error.
func (r *Resolver) Resolve(ctx context.Context, ip string) Location {
	if util.IsPrivateIP(ip) {
		return LocalNetwork
	}

	if loc, ok := r.lookupLocal(ip); ok {
		return loc
	}

	if !r.consumeBudget() {
		return DeterministicLocation(ip)
	}

	if loc, ok := r.lookupIPAPI(ctx, ip); ok {
		return loc
	}
	if loc, ok := r.lookupIPWho(ctx, ip); ok {
		return loc
	}

	return DeterministicLocation(ip)
}

// ResetBudget zeroes the external-call counter.
func (r *Resolver) ResetBudget() {
	r.used.Store(0)
}

// consumeBudget reserves one external lookup. Once the ceiling is
// reached no further reservations succeed until a reset.
func (r *Resolver) consumeBudget() bool {
	for {
		current := r.used.Load()
		if current >= r.budget {
			return false
		}
		if r.used.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

// lookupLocal consults the local MaxMind database.
func (r *Resolver) lookupLocal(ip string) (Location, bool) {
	if r.mmdb == nil {
		return Location{}, false
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return Location{}, false
	}

	var record struct {
		Country struct {
			Names map[string]string `maxminddb:"names"`
		} `maxminddb:"country"`
		Subdivisions []struct {
			Names map[string]string `maxminddb:"names"`
		} `maxminddb:"subdivisions"`
		City struct {
			Names map[string]string `maxminddb:"names"`
		} `maxminddb:"city"`
	}

	if err := r.mmdb.Lookup(parsed, &record); err != nil {
		return Location{}, false
	}

	loc := Location{Country: record.Country.Names["en"], City: record.City.Names["en"]}
	if len(record.Subdivisions) > 0 {
		loc.Region = record.Subdivisions[0].Names["en"]
	}
	if loc.Country == "" {
		return Location{}, false
	}
	return loc, true
}

// lookupIPAPI queries ip-api.com, the primary external provider.
func (r *Resolver) lookupIPAPI(ctx context.Context, ip string) (Location, bool) {
	var result struct {
		Status     string `json:"status"`
		Country    string `json:"country"`
		RegionName string `json:"regionName"`
		City       string `json:"city"`
	}

	url := fmt.Sprintf("http://ip-api.com/json/%s?fields=status,country,regionName,city", ip)
	if !r.fetchJSON(ctx, url, &result) {
		return Location{}, false
	}
	if result.Status != "success" || result.Country == "" {
		return Location{}, false
	}

	return Location{Country: result.Country, Region: result.RegionName, City: result.City}, true
}

// lookupIPWho queries ipwho.is, the secondary external provider.
func (r *Resolver) lookupIPWho(ctx context.Context, ip string) (Location, bool) {
	var result struct {
		Success bool   `json:"success"`
		Country string `json:"country"`
		Region  string `json:"region"`
		City    string `json:"city"`
	}

	if !r.fetchJSON(ctx, "https://ipwho.is/"+ip, &result) {
		return Location{}, false
	}
	if !result.Success || result.Country == "" {
		return Location{}, false
	}

	return Location{Country: result.Country, Region: result.Region, City: result.City}, true
}

func (r *Resolver) fetchJSON(ctx context.Context, url string, out any) bool {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug("geo lookup failed", "url", url, "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		r.logger.Debug("geo lookup non-OK response", "url", url, "status", resp.StatusCode)
		return false
	}

	return json.NewDecoder(resp.Body).Decode(out) == nil
}

// DeterministicLocation derives a reproducible pseudo-location from
// the numeric value of an IP address. It is not real geolocation; it
// exists so resolution stays idempotent when providers are
// unreachable or the call budget is spent.
func DeterministicLocation(ip string) Location {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return Location{Country: "Unknown", Region: "Unknown", City: "Unknown"}
	}

	sum := 0
	if v4 := parsed.To4(); v4 != nil {
		for _, b := range v4 {
			sum += int(b)
		}
	} else {
		for _, b := range parsed.To16() {
			sum += int(b)
		}
	}

	return Location{
		Country: fallbackCountries[sum%len(fallbackCountries)],
		Region:  "Unknown",
		City:    "Unknown",
	}
}
