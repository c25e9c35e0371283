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

package router

import (
	"errors"
	"time"

	"github.com/arcentrix/runstream/internal/engine/config"
	"github.com/arcentrix/runstream/internal/engine/service"
	"github.com/arcentrix/runstream/pkg/http"
	"github.com/arcentrix/runstream/pkg/http/middleware"
	"github.com/arcentrix/runstream/pkg/log"
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(NewRouter)

type Router struct {
	Http http.Http
	Run  *service.RunService
}

func NewRouter(conf *config.AppConfig, run *service.RunService) *Router {
	h := conf.Http
	h.SetDefaults()
	return &Router{Http: h, Run: run}
}

// Router builds the fiber app with every route mounted.
func (rt *Router) Router() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "runstream",
		DisableStartupMessage: true,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ReadTimeout:           time.Duration(rt.Http.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(rt.Http.WriteTimeout) * time.Second,
		IdleTimeout:           time.Duration(rt.Http.IdleTimeout) * time.Second,
		BodyLimit:             rt.Http.BodyLimit,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CorsMiddleware())
	app.Use(middleware.HttpMetricsMiddleware())
	if rt.Http.AccessLog {
		app.Use(middleware.AccessLogMiddleware(rt.Http.SlowThreshold))
	}
	app.Use(middleware.UnifiedResponseMiddleware())

	app.Get("/health", rt.health)

	auth := middleware.AuthMiddleware(rt.Http.Auth)
	api := app.Group("/api/v1")
	rt.runRouter(api, auth)
	rt.wsRouter(api, auth)

	return app
}

func (rt *Router) health(c *fiber.Ctx) error {
	c.Locals(middleware.DETAIL, map[string]any{"status": "ok"})
	return nil
}

// errorHandler renders errors that escaped a handler in the common envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return http.WithRepErrMsg(c, fe.Code, fe.Message, c.Path())
	}
	log.Errorw("unhandled request error", "path", c.Path(), "method", c.Method(), "error", err)
	return http.WithRepErrMsg(c, http.Failed.Code, err.Error(), c.Path())
}

// responseCode maps a run error onto the HTTP status it is reported with.
func responseCode(err error) http.ResponseCode {
	switch {
	case errors.Is(err, service.ErrEmptySession):
		return http.BadRequest
	case errors.Is(err, service.ErrScriptNotFound):
		return http.NotFound
	case errors.Is(err, service.ErrSessionBusy):
		return http.Conflict
	case errors.Is(err, service.ErrPoolFull), errors.Is(err, service.ErrPoolStopped):
		return http.ServiceUnavailable
	case errors.Is(err, service.ErrUploadFailure):
		return http.BadGateway
	default:
		return http.Failed
	}
}

func withRunError(c *fiber.Ctx, err error) error {
	code := responseCode(err)
	if code.Code >= fiber.StatusInternalServerError {
		log.Errorw("run request failed", "path", c.Path(), "status", code.Code, "error", err)
	}
	return http.WithRepErrMsg(c, code.Code, err.Error(), c.Path())
}
