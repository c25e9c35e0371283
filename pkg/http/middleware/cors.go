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
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const corsEnv = "RUNSTREAM_CORS_ALLOW_ORIGINS"

var (
	allowMethods  = "GET, POST, OPTIONS"
	allowHeaders  = "Origin, X-Requested-With, Content-Type, Accept, Authorization, Last-Event-ID"
	exposeHeaders = "Content-Length, Content-Type, Cache-Control, X-Run-Id"
)

// CorsMiddleware allows the origins listed in RUNSTREAM_CORS_ALLOW_ORIGINS
// (comma separated). Unset means any origin without credentials.
func CorsMiddleware() fiber.Handler {
	allowed := strings.TrimSpace(os.Getenv(corsEnv))
	if allowed == "" {
		return cors.New(cors.Config{
			AllowOrigins:  "*",
			AllowMethods:  allowMethods,
			AllowHeaders:  allowHeaders,
			ExposeHeaders: exposeHeaders,
		})
	}

	allowedSet := map[string]struct{}{}
	for o := range strings.SplitSeq(allowed, ",") {
		o = strings.ToLower(strings.TrimSpace(o))
		if o == "" {
			continue
		}
		allowedSet[o] = struct{}{}
	}

	return cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			_, ok := allowedSet[strings.ToLower(strings.TrimSpace(origin))]
			return ok
		},
		AllowMethods:     allowMethods,
		AllowHeaders:     allowHeaders,
		ExposeHeaders:    exposeHeaders,
		AllowCredentials: true,
	})
}
