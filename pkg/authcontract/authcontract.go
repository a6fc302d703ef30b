// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package authcontract is the thin JWT gating surface: it decodes and
// verifies a bearer token into Claims, and nothing else. Token issuance,
// login, and user management belong to the external metadata store, not
// the crawl-and-index core.
package authcontract

import (
	"encoding/json"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/google/uuid"

	klaskerrors "github.com/klask-search/klask/internal/errors"
)

// Claims is the decoded payload of a bearer token.
type Claims struct {
	Subject   uuid.UUID `json:"sub"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt int64     `json:"exp"`
	IssuedAt  int64     `json:"iat"`
}

// Expired reports whether the claims' expiry has passed as of now.
func (c Claims) Expired(now time.Time) bool {
	return now.Unix() > c.ExpiresAt
}

// Verifier decodes and HMAC-verifies bearer tokens against a single shared
// secret.
type Verifier struct {
	secret []byte
}

// NewVerifier builds a Verifier keyed by secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Decode verifies token's signature and unmarshals its claims. It does not
// check expiry; callers that care call Claims.Expired themselves.
func (v *Verifier) Decode(token string) (Claims, error) {
	sig, err := jose.ParseSigned(token, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return Claims{}, klaskerrors.WrapWithMessage(err, "parse token")
	}

	payload, err := sig.Verify(v.secret)
	if err != nil {
		return Claims{}, klaskerrors.WrapWithMessage(err, "verify token signature")
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}, klaskerrors.WrapWithMessage(err, "decode claims")
	}
	return claims, nil
}
