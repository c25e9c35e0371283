// Copyright 2025 Arcentra Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package middleware

import (
	"errors"
	"strings"

	"github.com/arcentrix/runstream/pkg/http"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// SUBJECT is the Locals key holding the authenticated token subject.
const SUBJECT = "subject"

var errMissingToken = errors.New("missing bearer token")

// AuthMiddleware validates an HS256 bearer token. Browsers cannot set headers
// on EventSource or WebSocket handshakes, so a "token" query parameter is accepted too.
func AuthMiddleware(auth http.Auth) fiber.Handler {
	if !auth.Enabled {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	secret := []byte(auth.SecretKey)
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if auth.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(auth.Issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *fiber.Ctx) error {
		raw, err := bearerToken(c)
		if err == nil {
			var claims jwt.RegisteredClaims
			_, err = parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
				return secret, nil
			})
			if err == nil {
				c.Locals(SUBJECT, claims.Subject)
				return c.Next()
			}
		}
		return http.WithRepErrMsg(c, http.Unauthorized.Code, err.Error(), c.Path())
	}
}

func bearerToken(c *fiber.Ctx) (string, error) {
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token), nil
		}
		return "", errMissingToken
	}
	if token := c.Query("token"); token != "" {
		return token, nil
	}
	return "", errMissingToken
}
