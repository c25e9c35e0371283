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
	"bufio"
	"context"
	"strings"

	"github.com/arcentrix/runstream/internal/engine/service"
	"github.com/arcentrix/runstream/pkg/http"
	"github.com/arcentrix/runstream/pkg/http/middleware"
	"github.com/arcentrix/runstream/pkg/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/valyala/fasthttp"
)

func (rt *Router) runRouter(r fiber.Router, auth fiber.Handler) {
	sessions := r.Group("/sessions")
	{
		sessions.Post("/:sessionId/run", auth, rt.runSync)
		sessions.Get("/:sessionId/stream", auth, rt.runStream)
		sessions.Post("/:sessionId/stream", auth, rt.runStream)
		sessions.Post("/:sessionId/submit", auth, rt.submitRun)
		sessions.Get("/:sessionId/result", auth, rt.getResult)
	}
	r.Get("/runs/:runId", auth, rt.getRun)
}

// sessionID copies the route param; fiber reuses the underlying buffer.
func sessionID(c *fiber.Ctx) string {
	return strings.TrimSpace(utils.CopyString(c.Params("sessionId")))
}

func (rt *Router) runSync(c *fiber.Ctx) error {
	res, err := rt.Run.RunSync(c.Context(), sessionID(c))
	if err != nil {
		return withRunError(c, err)
	}
	c.Locals(middleware.DETAIL, res)
	return nil
}

// runStream answers with server-sent events. Errors after the stream opened
// arrive as the final "error" event.
func (rt *Router) runStream(c *fiber.Ctx) error {
	sid := sessionID(c)
	if sid == "" {
		return withRunError(c, service.ErrEmptySession)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	run := rt.Run
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		if _, err := run.RunStream(context.Background(), sid, service.NewStreamSink(w)); err != nil {
			log.Warnw("stream run finished with error", "sessionId", sid, "stage", string(service.StageOf(err)), "error", err)
		}
	}))
	return nil
}

func (rt *Router) submitRun(c *fiber.Ctx) error {
	sid := sessionID(c)
	runID, err := rt.Run.Submit(c.Context(), sid)
	if err != nil {
		return withRunError(c, err)
	}
	c.Status(http.Accepted.Code)
	c.Locals(middleware.DETAIL, map[string]any{
		"status":     http.Accepted.Msg,
		"run_id":     runID,
		"session_id": sid,
	})
	return nil
}

func (rt *Router) getResult(c *fiber.Ctx) error {
	res, err := rt.Run.GetResult(c.Context(), sessionID(c))
	if err != nil {
		return withRunError(c, err)
	}
	c.Locals(middleware.DETAIL, res)
	return nil
}

func (rt *Router) getRun(c *fiber.Ctx) error {
	runID := strings.TrimSpace(c.Params("runId"))
	st, ok := rt.Run.GetRun(runID)
	if !ok {
		return http.WithRepErrMsg(c, http.NotFound.Code, "run not found: "+runID, c.Path())
	}
	c.Locals(middleware.DETAIL, st)
	return nil
}
