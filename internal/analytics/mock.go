// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/folio-go/internal/geo"
	"github.com/olegiv/folio-go/internal/model"
)

// Fixed pools for synthesized demo traffic.
var (
	mockPaths = []string{"/", "/about", "/portfolio", "/blog", "/contact", "/query-realm"}

	mockIPs = []string{
		"192.168.1.1", "8.8.8.8", "1.1.1.1", "76.76.21.21",
		"157.240.22.35", "31.13.65.36", "172.217.14.206", "151.101.65.121",
	}

	mockUserAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
		"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
		"Mozilla/5.0 (iPad; CPU OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
	}

	mockReferrers = []string{
		"https://www.google.com/",
		"https://twitter.com/",
		"https://www.linkedin.com/",
		"https://www.facebook.com/",
		"", // direct
	}
)

// SeedMockData clears the collection and synthesizes count plausible
// visits from the fixed pools, timestamped within the last 30 days.
// Demo support only; real traffic arrives through the tracker.
func (a *Aggregator) SeedMockData(count int) {
	now := time.Now()
	visits := make([]model.Visit, 0, count)

	for i := 0; i < count; i++ {
		ip := mockIPs[rand.Intn(len(mockIPs))]
		ua := mockUserAgents[rand.Intn(len(mockUserAgents))]
		cls := Classify(ua)
		loc := geo.DeterministicLocation(ip)

		visits = append(visits, model.Visit{
			ID:         uuid.NewString(),
			IP:         ip,
			UserAgent:  ua,
			DeviceType: cls.DeviceType,
			Browser:    cls.Browser,
			Country:    loc.Country,
			Region:     loc.Region,
			City:       loc.City,
			Timestamp:  now.Add(-time.Duration(rand.Int63n(int64(30 * 24 * time.Hour)))),
			Path:       mockPaths[rand.Intn(len(mockPaths))],
			Referrer:   mockReferrers[rand.Intn(len(mockReferrers))],
		})
	}

	a.mu.Lock()
	a.visits = visits
	a.mu.Unlock()
}
