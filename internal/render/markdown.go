// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render converts post markdown into sanitized HTML.
package render

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// htmlSanitizer strips dangerous elements (scripts, event handlers)
// from rendered output. UGCPolicy keeps the safe formatting tags post
// authors actually use.
var htmlSanitizer = bluemonday.UGCPolicy()

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// Markdown converts markdown source to sanitized HTML.
func Markdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return htmlSanitizer.Sanitize(buf.String()), nil
}
