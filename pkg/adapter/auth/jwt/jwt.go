// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package jwt resolves the identity of callers from HS256 signed JSON
// Web Tokens. Tokens are issued by an external identity provider which
// shares the signing secret. The Issue method exists for development
// and tests (see the rdweb token command).
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/momeni/rentdispatch/pkg/core/model"
)

// ErrShortSecret indicates that a signing secret is too short to
// resist brute-force attacks.
var ErrShortSecret = errors.New("secret must have at least 16 bytes")

// Claims are the registered claims plus the caller role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authority signs and verifies tokens with a shared secret.
type Authority struct {
	secret []byte
	issuer string
}

// New creates an Authority. The issuer claim is required and verified
// if issuer is non-empty.
func New(secret, issuer string) (*Authority, error) {
	if len(secret) < 16 {
		return nil, ErrShortSecret
	}
	return &Authority{secret: []byte(secret), issuer: issuer}, nil
}

// Issue signs a token for the sub subject with the given role which
// expires after ttl.
func (a *Authority) Issue(sub string, role model.Role, ttl time.Duration) (string, error) {
	if err := role.Validate(); err != nil {
		return "", err
	}
	now := time.Now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.secret)
}

// Parse verifies the signature, expiry, and issuer of token and
// returns the identity which it carries.
func (a *Authority) Parse(token string) (*model.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	t, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, errors.New("invalid token")
	}
	id := &model.Identity{Subject: c.Subject, Role: model.Role(c.Role)}
	if id.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	if err = id.Role.Validate(); err != nil {
		return nil, err
	}
	return id, nil
}
