// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Post statuses.
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// Post represents a blog post.
type Post struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Excerpt   string    `json:"excerpt"`
	Content   string    `json:"content"` // Markdown source
	HTML      string    `json:"html,omitempty"`
	Status    string    `json:"status"`
	Category  string    `json:"category,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPublished returns true if the post is publicly visible.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}
