// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/olegiv/folio-go/internal/model"
)

const postColumns = "id, slug, title, excerpt, content, status, category, summary, created_at, updated_at"

func scanPost(scanner interface{ Scan(...any) error }) (model.Post, error) {
	var p model.Post
	err := scanner.Scan(&p.ID, &p.Slug, &p.Title, &p.Excerpt, &p.Content,
		&p.Status, &p.Category, &p.Summary, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListPosts returns all posts, newest first. When publishedOnly is true,
// drafts are excluded (the public view).
func (q *Queries) ListPosts(ctx context.Context, publishedOnly bool) ([]model.Post, error) {
	query := "SELECT " + postColumns + " FROM posts"
	var args []any
	if publishedOnly {
		query += " WHERE status = ?"
		args = append(args, model.PostStatusPublished)
	}
	query += " ORDER BY created_at DESC"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetPostByID fetches a post by ID. Returns sql.ErrNoRows if absent.
func (q *Queries) GetPostByID(ctx context.Context, id int64) (model.Post, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+postColumns+" FROM posts WHERE id = ?", id)
	return scanPost(row)
}

// GetPostBySlug fetches a post by slug. Returns sql.ErrNoRows if absent.
func (q *Queries) GetPostBySlug(ctx context.Context, slug string) (model.Post, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+postColumns+" FROM posts WHERE slug = ?", slug)
	return scanPost(row)
}

// CreatePostParams holds the fields for creating a post.
type CreatePostParams struct {
	Slug     string
	Title    string
	Excerpt  string
	Content  string
	Status   string
	Category string
	Summary  string
}

// CreatePost inserts a new post and returns it with the assigned ID.
func (q *Queries) CreatePost(ctx context.Context, p CreatePostParams) (model.Post, error) {
	if p.Status == "" {
		p.Status = model.PostStatusDraft
	}
	now := time.Now()

	res, err := q.db.ExecContext(ctx, `
		INSERT INTO posts (slug, title, excerpt, content, status, category, summary, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.Slug, p.Title, p.Excerpt, p.Content, p.Status, p.Category, p.Summary, now, now)
	if err != nil {
		return model.Post{}, fmt.Errorf("creating post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Post{}, fmt.Errorf("reading post id: %w", err)
	}

	return model.Post{
		ID: id, Slug: p.Slug, Title: p.Title, Excerpt: p.Excerpt,
		Content: p.Content, Status: p.Status, Category: p.Category,
		Summary: p.Summary, CreatedAt: now, UpdatedAt: now,
	}, nil
}

// UpdatePostParams holds the fields for updating a post.
type UpdatePostParams struct {
	ID       int64
	Slug     string
	Title    string
	Excerpt  string
	Content  string
	Status   string
	Category string
	Summary  string
}

// UpdatePost replaces the mutable fields of a post.
func (q *Queries) UpdatePost(ctx context.Context, p UpdatePostParams) (model.Post, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE posts
		SET slug = ?, title = ?, excerpt = ?, content = ?, status = ?, category = ?, summary = ?, updated_at = ?
		WHERE id = ?
	`, p.Slug, p.Title, p.Excerpt, p.Content, p.Status, p.Category, p.Summary, time.Now(), p.ID)
	if err != nil {
		return model.Post{}, fmt.Errorf("updating post: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return model.Post{}, err
	}
	if affected == 0 {
		return model.Post{}, sql.ErrNoRows
	}

	return q.GetPostByID(ctx, p.ID)
}

// DeletePost removes a post. Returns sql.ErrNoRows if it does not exist.
func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
