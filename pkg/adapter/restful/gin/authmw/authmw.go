// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package authmw resolves the caller identity of requests from their
// bearer tokens and gates routes by the caller role.
package authmw

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/momeni/rentdispatch/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/rentdispatch/pkg/core/cerr"
	"github.com/momeni/rentdispatch/pkg/core/model"
)

const identityKey = "rdweb.identity"

// TokenQueryParam is the query parameter which may carry the bearer
// token when the client cannot set headers, like an EventSource.
const TokenQueryParam = "access_token"

var (
	errMissingToken = errors.New("missing bearer token")
	errForbidden    = errors.New("role is not allowed to call this API")
)

// Authenticator resolves the identity which is embedded in a token.
type Authenticator interface {
	Parse(token string) (*model.Identity, error)
}

// Authenticate returns a middleware which rejects the requests without
// a valid bearer token with 401 and stores the identity of the other
// ones for the Identity function.
func Authenticate(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			serdser.SerErr(c, cerr.Authentication(errMissingToken))
			return
		}
		id, err := a.Parse(token)
		if err != nil {
			serdser.SerErr(c, cerr.Authentication(err))
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if scheme, token, ok := strings.Cut(h, " "); ok &&
		strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return c.Query(TokenQueryParam)
}

// RequireRole returns a middleware which rejects the callers without
// one of the roles with 403. It must be used after Authenticate.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := Identity(c)
		for _, r := range roles {
			if id.Role == r {
				c.Next()
				return
			}
		}
		serdser.SerErr(c, cerr.Authorization(errForbidden))
	}
}

// Identity returns the caller identity which is stored by the
// Authenticate middleware. It panics if Authenticate was not used.
func Identity(c *gin.Context) *model.Identity {
	return c.MustGet(identityKey).(*model.Identity)
}

// RequireSelfOrAdmin returns a 403 error unless the caller is an admin
// or a partner whose subject is equal to the sub argument.
func RequireSelfOrAdmin(c *gin.Context, sub string) error {
	id := Identity(c)
	if id.IsAdmin() || (id.Role == model.RolePartner && id.Subject == sub) {
		return nil
	}
	return cerr.Authorization(errForbidden)
}
