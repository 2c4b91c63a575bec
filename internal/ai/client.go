// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ai wraps the OpenAI chat completions API behind the small
// set of operations the site exposes: summarizing content, answering
// free-form portfolio questions, and analyzing visitor questions.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	httpTimeout    = 60 * time.Second
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("ai: no API key configured")

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client calls the chat completions API.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// NewClient creates a client. An empty apiKey produces a client whose
// every call returns ErrNotConfigured, so callers can wire it
// unconditionally.
func NewClient(apiKey string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		model:   defaultModel,
		http:    &http.Client{Timeout: httpTimeout},
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = url
	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Summarize produces a short summary of the given content.
func (c *Client) Summarize(ctx context.Context, content string) (string, error) {
	return c.chat(ctx, []Message{
		{Role: "system", Content: "You summarize blog posts in two or three sentences. Respond with the summary only."},
		{Role: "user", Content: content},
	})
}

// SmartSearch answers a free-form question about the site owner's
// work using the supplied context documents.
func (c *Client) SmartSearch(ctx context.Context, question string, docs []string) (string, error) {
	prompt := "Answer the question using only the context below.\n\nContext:\n"
	for _, doc := range docs {
		prompt += "- " + doc + "\n"
	}
	prompt += "\nQuestion: " + question

	return c.chat(ctx, []Message{
		{Role: "system", Content: "You are a helpful assistant for a personal portfolio site."},
		{Role: "user", Content: prompt},
	})
}

// AnalyzeQuestions clusters a batch of visitor questions into themes.
func (c *Client) AnalyzeQuestions(ctx context.Context, questions []string) (string, error) {
	prompt := "Group these visitor questions into themes and note anything recurring:\n"
	for _, q := range questions {
		prompt += "- " + q + "\n"
	}

	return c.chat(ctx, []Message{
		{Role: "system", Content: "You analyze visitor questions for a portfolio site owner."},
		{Role: "user", Content: prompt},
	})
}

func (c *Client) chat(ctx context.Context, messages []Message) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	respBody, err := c.doJSONRequest(ctx, c.baseURL+"/chat/completions", map[string]any{
		"model":    c.model,
		"messages": messages,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("openai decode: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}

	return result.Choices[0].Message.Content, nil
}

func (c *Client) doJSONRequest(ctx context.Context, url string, body any) ([]byte, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
