// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package token signs and verifies the compact session tokens that back
// both admin and guest sessions. Tokens are stateless HS256 JWTs carrying
// a subject identity and role.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/olegiv/folio-go/internal/model"
)

// ErrInvalidToken is returned for any token that fails signature,
// structural, or expiry checks. Callers must treat it the same as an
// absent token (fail closed).
var ErrInvalidToken = errors.New("invalid token")

// Claims is the canonical token payload. Earlier revisions of the site
// drifted between `userId` and `id` and between top-level and nested
// roles; this struct is the single contract.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Codec issues and verifies signed session tokens with a symmetric secret.
type Codec struct {
	secret []byte
}

// NewCodec creates a Codec. The secret must already be validated by the
// config layer; an empty secret is a programmer error.
func NewCodec(secret []byte) *Codec {
	if len(secret) == 0 {
		panic("token: empty signing secret")
	}
	return &Codec{secret: secret}
}

// Issue produces a compact signed token for the subject, expiring at
// now + ttl. Each token gets a random jti so two tokens for the same
// subject are distinguishable.
func (c *Codec) Issue(subject model.Subject, ttl time.Duration) (string, error) {
	if subject.ID == "" || subject.Email == "" || subject.Role == "" {
		return "", fmt.Errorf("issuing token: subject is missing id, email, or role")
	}

	now := time.Now()
	claims := Claims{
		Email: subject.Email,
		Role:  subject.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiration and returns the embedded
// subject. Any structural or cryptographic failure, including a token
// missing id, email, or role, yields ErrInvalidToken.
func (c *Codec) Verify(tokenString string) (model.Subject, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return model.Subject{}, ErrInvalidToken
	}

	// Defense against schema drift: a cryptographically valid token that
	// lacks any subject field is still treated as absent.
	if claims.Subject == "" || claims.Email == "" || claims.Role == "" {
		return model.Subject{}, ErrInvalidToken
	}

	return model.Subject{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}
