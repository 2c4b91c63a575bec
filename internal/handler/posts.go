// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/render"
	"github.com/olegiv/folio-go/internal/store"
	"github.com/olegiv/folio-go/internal/util"
)

// PostsHandler handles blog post CRUD.
type PostsHandler struct {
	queries *store.Queries
	logger  *slog.Logger
}

// NewPostsHandler creates a new posts handler.
func NewPostsHandler(queries *store.Queries, logger *slog.Logger) *PostsHandler {
	return &PostsHandler{queries: queries, logger: logger}
}

type postRequest struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	Content  string `json:"content"`
	Status   string `json:"status"`
	Category string `json:"category"`
	Summary  string `json:"summary"`
}

func (req *postRequest) validate() string {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return "Title is required"
	}
	if req.Slug == "" {
		req.Slug = util.Slugify(req.Title)
	}
	if !util.IsValidSlug(req.Slug) {
		return "Invalid slug"
	}
	if req.Status == "" {
		req.Status = model.PostStatusDraft
	}
	if req.Status != model.PostStatusDraft && req.Status != model.PostStatusPublished {
		return "Status must be draft or published"
	}
	return ""
}

// isAdmin reports whether the request carries an admin subject.
func isAdmin(r *http.Request) bool {
	subject, ok := middleware.GetSubject(r)
	return ok && subject.Role == model.RoleAdmin
}

// withHTML attaches rendered HTML to a post. Render failures degrade
// to markdown-only output rather than failing the request.
func (h *PostsHandler) withHTML(p model.Post) model.Post {
	html, err := render.Markdown(p.Content)
	if err != nil {
		h.logger.Warn("markdown render failed", "post_id", p.ID, "error", err)
		return p
	}
	p.HTML = html
	return p
}

// List handles GET /api/posts. Drafts are visible to admins only.
func (h *PostsHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.queries.ListPosts(r.Context(), !isAdmin(r))
	if err != nil {
		h.logger.Error("listing posts failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if posts == nil {
		posts = []model.Post{}
	}
	writeJSONSuccess(w, map[string]any{"posts": posts})
}

// Get handles GET /api/posts/{slug}.
func (h *PostsHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	post, err := h.queries.GetPostBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "Post not found")
			return
		}
		h.logger.Error("fetching post failed", "slug", slug, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	// Drafts stay hidden from non-admins, indistinguishable from
	// missing posts.
	if !post.IsPublished() && !isAdmin(r) {
		writeJSONError(w, http.StatusNotFound, "Post not found")
		return
	}

	writeJSONSuccess(w, map[string]any{"post": h.withHTML(post)})
}

// Create handles POST /api/posts.
func (h *PostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	post, err := h.queries.CreatePost(r.Context(), store.CreatePostParams{
		Slug:     req.Slug,
		Title:    req.Title,
		Excerpt:  req.Excerpt,
		Content:  req.Content,
		Status:   req.Status,
		Category: req.Category,
		Summary:  req.Summary,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSONError(w, http.StatusConflict, "A post with this slug already exists")
			return
		}
		h.logger.Error("creating post failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	h.logger.Info("post created", "id", post.ID, "slug", post.Slug)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSONSuccess(w, map[string]any{"post": h.withHTML(post)})
}

// Update handles PUT /api/posts/{id}.
func (h *PostsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	post, err := h.queries.UpdatePost(r.Context(), store.UpdatePostParams{
		ID:       id,
		Slug:     req.Slug,
		Title:    req.Title,
		Excerpt:  req.Excerpt,
		Content:  req.Content,
		Status:   req.Status,
		Category: req.Category,
		Summary:  req.Summary,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "Post not found")
			return
		}
		if isUniqueViolation(err) {
			writeJSONError(w, http.StatusConflict, "A post with this slug already exists")
			return
		}
		h.logger.Error("updating post failed", "id", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	h.logger.Info("post updated", "id", post.ID, "slug", post.Slug)
	writeJSONSuccess(w, map[string]any{"post": h.withHTML(post)})
}

// Delete handles DELETE /api/posts/{id}.
func (h *PostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	if err := h.queries.DeletePost(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "Post not found")
			return
		}
		h.logger.Error("deleting post failed", "id", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	h.logger.Info("post deleted", "id", id)
	writeJSONSuccess(w, nil)
}

// isUniqueViolation detects a slug collision without depending on the
// driver's error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
