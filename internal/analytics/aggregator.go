// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"sort"
	"sync"
	"time"

	"github.com/olegiv/folio-go/internal/model"
)

const (
	topPagesLimit       = 5
	recentVisitorsLimit = 10
)

// Aggregator holds the in-memory visit collection and computes rollup
// statistics on demand. All methods are safe for concurrent use.
type Aggregator struct {
	mu     sync.RWMutex
	visits []model.Visit
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Record appends a visit. It never rejects and never deduplicates.
func (a *Aggregator) Record(visit model.Visit) {
	a.mu.Lock()
	a.visits = append(a.visits, visit)
	a.mu.Unlock()
}

// Len reports the number of recorded visits.
func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.visits)
}

// Prune drops visits older than maxAge and reports how many were
// removed.
func (a *Aggregator) Prune(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	a.mu.Lock()
	defer a.mu.Unlock()

	kept := a.visits[:0]
	for _, v := range a.visits {
		if v.Timestamp.After(cutoff) {
			kept = append(kept, v)
		}
	}

	removed := len(a.visits) - len(kept)
	a.visits = kept
	return removed
}

// Stats computes aggregate statistics over the full collection.
func (a *Aggregator) Stats() model.VisitorStats {
	a.mu.RLock()
	visits := make([]model.Visit, len(a.visits))
	copy(visits, a.visits)
	a.mu.RUnlock()

	stats := model.VisitorStats{
		TotalVisits: len(visits),
		PageViews:   len(visits),
		DeviceBreakdown: map[string]int{
			model.DeviceMobile:  0,
			model.DeviceDesktop: 0,
			model.DeviceTablet:  0,
			model.DeviceUnknown: 0,
		},
		TopPages:       []model.PageCount{},
		RecentVisitors: []model.Visit{},
		Locations:      []model.LocationCount{},
	}

	uniqueIPs := make(map[string]struct{})
	pathCounts := make(map[string]int)
	countryCounts := make(map[string]int)
	regionCounts := make(map[string]map[string]int)

	for _, v := range visits {
		uniqueIPs[v.IP] = struct{}{}
		pathCounts[v.Path]++

		device := v.DeviceType
		if _, known := stats.DeviceBreakdown[device]; !known {
			device = model.DeviceUnknown
		}
		stats.DeviceBreakdown[device]++

		if v.Country != "" {
			countryCounts[v.Country]++
			if regionCounts[v.Country] == nil {
				regionCounts[v.Country] = make(map[string]int)
			}
			regionCounts[v.Country][v.Region]++
		}
	}

	stats.UniqueVisitors = len(uniqueIPs)
	stats.TopPages = topPages(pathCounts)
	stats.Locations = locations(countryCounts, regionCounts)
	stats.RecentVisitors = recentVisitors(visits)

	return stats
}

func topPages(pathCounts map[string]int) []model.PageCount {
	pages := make([]model.PageCount, 0, len(pathCounts))
	for path, views := range pathCounts {
		pages = append(pages, model.PageCount{Path: path, Views: views})
	}

	sort.Slice(pages, func(i, j int) bool {
		if pages[i].Views != pages[j].Views {
			return pages[i].Views > pages[j].Views
		}
		return pages[i].Path < pages[j].Path
	})

	if len(pages) > topPagesLimit {
		pages = pages[:topPagesLimit]
	}
	return pages
}

func locations(countryCounts map[string]int, regionCounts map[string]map[string]int) []model.LocationCount {
	locs := make([]model.LocationCount, 0, len(countryCounts))
	for country, count := range countryCounts {
		locs = append(locs, model.LocationCount{
			Country: country,
			Region:  topRegion(regionCounts[country]),
			Count:   count,
		})
	}

	sort.Slice(locs, func(i, j int) bool {
		if locs[i].Count != locs[j].Count {
			return locs[i].Count > locs[j].Count
		}
		return locs[i].Country < locs[j].Country
	})

	return locs
}

// topRegion picks the most frequent region within one country.
func topRegion(regions map[string]int) string {
	best, bestCount := "", -1
	for region, count := range regions {
		if count > bestCount || (count == bestCount && region < best) {
			best, bestCount = region, count
		}
	}
	return best
}

func recentVisitors(visits []model.Visit) []model.Visit {
	recent := make([]model.Visit, len(visits))
	copy(recent, visits)

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp.After(recent[j].Timestamp)
	})

	if len(recent) > recentVisitorsLimit {
		recent = recent[:recentVisitorsLimit]
	}
	return recent
}
