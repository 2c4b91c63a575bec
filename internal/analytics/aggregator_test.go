// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/folio-go/internal/model"
)

func visitAt(ip, path, device string, ts time.Time) model.Visit {
	return model.Visit{
		ID:         fmt.Sprintf("%s-%s-%d", ip, path, ts.UnixNano()),
		IP:         ip,
		DeviceType: device,
		Browser:    "Chrome",
		Timestamp:  ts,
		Path:       path,
	}
}

func TestStats_Empty(t *testing.T) {
	stats := NewAggregator().Stats()

	require.Zero(t, stats.TotalVisits)
	require.Zero(t, stats.UniqueVisitors)
	require.Empty(t, stats.TopPages)
	require.Empty(t, stats.RecentVisitors)
	require.Empty(t, stats.Locations)

	// Histogram keys are fixed even with no data.
	require.Equal(t, map[string]int{
		"mobile": 0, "desktop": 0, "tablet": 0, "unknown": 0,
	}, stats.DeviceBreakdown)
}

func TestStats_CountsAndTopPages(t *testing.T) {
	agg := NewAggregator()
	now := time.Now()

	// 3 visits from 8.8.8.8 on /blog, 2 from 1.1.1.1 on /.
	for i := 0; i < 3; i++ {
		agg.Record(visitAt("8.8.8.8", "/blog", "desktop", now.Add(time.Duration(i)*time.Minute)))
	}
	for i := 0; i < 2; i++ {
		agg.Record(visitAt("1.1.1.1", "/", "mobile", now.Add(time.Duration(i)*time.Second)))
	}

	stats := agg.Stats()
	require.Equal(t, 5, stats.TotalVisits)
	require.Equal(t, 2, stats.UniqueVisitors)
	require.Equal(t, model.PageCount{Path: "/blog", Views: 3}, stats.TopPages[0])
	require.Equal(t, 3, stats.DeviceBreakdown["desktop"])
	require.Equal(t, 2, stats.DeviceBreakdown["mobile"])
	require.Equal(t, 0, stats.DeviceBreakdown["tablet"])
}

func TestStats_DeviceSumInvariant(t *testing.T) {
	agg := NewAggregator()
	now := time.Now()

	devices := []string{"mobile", "desktop", "tablet", "unknown", "toaster"}
	for i, d := range devices {
		agg.Record(visitAt("9.9.9.9", "/", d, now.Add(time.Duration(i)*time.Second)))
	}

	stats := agg.Stats()
	sum := 0
	for _, n := range stats.DeviceBreakdown {
		sum += n
	}
	require.Equal(t, stats.TotalVisits, sum)
	require.LessOrEqual(t, stats.UniqueVisitors, stats.TotalVisits)

	// Unrecognized device strings land in the unknown bucket.
	require.Equal(t, 2, stats.DeviceBreakdown["unknown"])
}

func TestStats_TopPagesTruncated(t *testing.T) {
	agg := NewAggregator()
	now := time.Now()

	for i := 0; i < 8; i++ {
		path := fmt.Sprintf("/page-%d", i)
		for j := 0; j <= i; j++ {
			agg.Record(visitAt("1.2.3.4", path, "desktop", now))
		}
	}

	stats := agg.Stats()
	require.Len(t, stats.TopPages, 5)
	require.Equal(t, "/page-7", stats.TopPages[0].Path)
	require.Equal(t, 8, stats.TopPages[0].Views)
}

func TestStats_RecentVisitorsOrder(t *testing.T) {
	agg := NewAggregator()
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 15; i++ {
		agg.Record(visitAt("1.2.3.4", "/", "desktop", base.Add(time.Duration(i)*time.Minute)))
	}

	recent := agg.Stats().RecentVisitors
	require.Len(t, recent, 10)
	for i := 1; i < len(recent); i++ {
		require.False(t, recent[i].Timestamp.After(recent[i-1].Timestamp),
			"recent visitors must be sorted newest first")
	}
}

func TestStats_Locations(t *testing.T) {
	agg := NewAggregator()
	now := time.Now()

	add := func(country, region string, n int) {
		for i := 0; i < n; i++ {
			v := visitAt("1.2.3.4", "/", "desktop", now)
			v.Country, v.Region = country, region
			agg.Record(v)
		}
	}
	add("Germany", "Berlin", 3)
	add("Germany", "Bavaria", 1)
	add("Japan", "Tokyo", 2)

	locs := agg.Stats().Locations
	require.Len(t, locs, 2)
	require.Equal(t, model.LocationCount{Country: "Germany", Region: "Berlin", Count: 4}, locs[0])
	require.Equal(t, model.LocationCount{Country: "Japan", Region: "Tokyo", Count: 2}, locs[1])
}

func TestSeedMockData(t *testing.T) {
	agg := NewAggregator()
	agg.Record(visitAt("9.9.9.9", "/old", "desktop", time.Now()))

	agg.SeedMockData(50)

	stats := agg.Stats()
	require.Equal(t, 50, stats.TotalVisits, "seeding replaces prior data")

	cutoff := time.Now().Add(-31 * 24 * time.Hour)
	for _, v := range agg.Stats().RecentVisitors {
		require.True(t, v.Timestamp.After(cutoff))
		require.NotEmpty(t, v.ID)
		require.NotEmpty(t, v.Country)
	}
}

func TestPrune(t *testing.T) {
	agg := NewAggregator()
	now := time.Now()

	agg.Record(visitAt("1.1.1.1", "/", "desktop", now.Add(-48*time.Hour)))
	agg.Record(visitAt("2.2.2.2", "/", "desktop", now))

	removed := agg.Prune(24 * time.Hour)
	require.Equal(t, 1, removed)
	require.Equal(t, 1, agg.Len())
}

func TestConcurrentRecordAndStats(t *testing.T) {
	agg := NewAggregator()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				agg.Record(visitAt(fmt.Sprintf("10.0.0.%d", n), "/", "mobile", time.Now()))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = agg.Stats()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1000, agg.Stats().TotalVisits)
}
