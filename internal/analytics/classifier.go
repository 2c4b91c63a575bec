// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package analytics records visit events and computes rollup
// statistics for the dashboard: totals, unique visitors, per-page
// counts, device and location breakdowns, and a recent-visit feed.
package analytics

import (
	"strings"

	"github.com/mileusna/useragent"
)

// Classification is the result of inspecting a user-agent string.
type Classification struct {
	DeviceType string
	Browser    string
	OS         string
	Bot        bool
}

var mobileTokens = []string{
	"android", "webos", "iphone", "ipad", "ipod", "blackberry", "windows phone",
}

var tabletTokens = []string{
	"ipad", "tablet", "playbook", "silk",
}

// Classify derives device type and browser family from a raw
// user-agent string. Substring checks are ordered: tablet signals win
// over mobile signals because tablet strings usually contain both
// (e.g. "ipad" also matches the mobile set), and "chrome" is checked
// before "safari" because Chrome user agents carry both tokens.
func Classify(rawUA string) Classification {
	if rawUA == "" {
		return Classification{DeviceType: "unknown", Browser: "Unknown"}
	}

	ua := strings.ToLower(rawUA)
	parsed := useragent.Parse(rawUA)

	return Classification{
		DeviceType: classifyDevice(ua),
		Browser:    classifyBrowser(ua),
		OS:         parsed.OS,
		Bot:        parsed.Bot,
	}
}

func classifyDevice(ua string) string {
	tablet := false
	for _, token := range tabletTokens {
		if strings.Contains(ua, token) {
			tablet = true
			break
		}
	}
	// Android without "mobile" is a tablet form factor.
	if !tablet && strings.Contains(ua, "android") && !strings.Contains(ua, "mobile") {
		tablet = true
	}
	if tablet {
		return "tablet"
	}

	for _, token := range mobileTokens {
		if strings.Contains(ua, token) {
			return "mobile"
		}
	}

	return "desktop"
}

func classifyBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "chrome"):
		return "Chrome"
	case strings.Contains(ua, "firefox"):
		return "Firefox"
	case strings.Contains(ua, "safari"):
		return "Safari"
	case strings.Contains(ua, "edge") || strings.Contains(ua, "edg/"):
		return "Edge"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr/"):
		return "Opera"
	case strings.Contains(ua, "msie") || strings.Contains(ua, "trident"):
		return "Internet Explorer"
	default:
		return "Unknown"
	}
}
