// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Device types reported by the visitor classifier.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
	DeviceUnknown = "unknown"
)

// Visit is one recorded page-load/tracking event. Visits are never
// mutated after creation and live only in process memory.
type Visit struct {
	ID         string    `json:"id"`
	IP         string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	DeviceType string    `json:"device_type"`
	Browser    string    `json:"browser"`
	Country    string    `json:"country,omitempty"`
	Region     string    `json:"region,omitempty"`
	City       string    `json:"city,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Path       string    `json:"url_path"`
	Referrer   string    `json:"referrer,omitempty"`
}

// PageCount is a per-path view count.
type PageCount struct {
	Path  string `json:"path"`
	Views int    `json:"views"`
}

// LocationCount is a per-country visit count with the country's most
// frequent region attached.
type LocationCount struct {
	Country string `json:"country"`
	Region  string `json:"region"`
	Count   int    `json:"count"`
}

// VisitorStats is an on-demand aggregate view over recorded visits.
type VisitorStats struct {
	TotalVisits     int             `json:"total_visits"`
	UniqueVisitors  int             `json:"unique_visitors"`
	PageViews       int             `json:"page_views"`
	DeviceBreakdown map[string]int  `json:"device_breakdown"`
	TopPages        []PageCount     `json:"top_pages"`
	RecentVisitors  []Visit         `json:"recent_visitors"`
	Locations       []LocationCount `json:"locations"`
}
