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
	"context"
	"strings"

	"github.com/arcentrix/runstream/internal/engine/service"
	"github.com/arcentrix/runstream/pkg/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func (rt *Router) wsRouter(r fiber.Router, auth fiber.Handler) {
	r.Get("/sessions/:sessionId/ws", auth, upgradeOnly, websocket.New(rt.streamWS))
}

func upgradeOnly(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// streamWS runs the session and sends each event as a text frame, then closes.
func (rt *Router) streamWS(conn *websocket.Conn) {
	sid := strings.TrimSpace(conn.Params("sessionId"))
	_, err := rt.Run.RunStream(context.Background(), sid, service.NewWSSink(conn))
	if err != nil {
		log.Warnw("websocket run finished with error", "sessionId", sid, "error", err)
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
	_ = conn.Close()
}
