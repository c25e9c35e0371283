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

package http

import (
	"github.com/gofiber/fiber/v2"
)

// ResponseCode pairs an HTTP status with its default message.
type ResponseCode struct {
	Code int
	Msg  string
}

var (
	Success                       = ResponseCode{Code: fiber.StatusOK, Msg: "success"}
	Accepted                      = ResponseCode{Code: fiber.StatusAccepted, Msg: "accepted"}
	BadRequest                    = ResponseCode{Code: fiber.StatusBadRequest, Msg: "bad request"}
	RequestParameterParsingFailed = ResponseCode{Code: fiber.StatusBadRequest, Msg: "request parameter parsing failed"}
	Unauthorized                  = ResponseCode{Code: fiber.StatusUnauthorized, Msg: "unauthorized"}
	NotFound                      = ResponseCode{Code: fiber.StatusNotFound, Msg: "not found"}
	Conflict                      = ResponseCode{Code: fiber.StatusConflict, Msg: "conflict"}
	Failed                        = ResponseCode{Code: fiber.StatusInternalServerError, Msg: "failed"}
	BadGateway                    = ResponseCode{Code: fiber.StatusBadGateway, Msg: "bad gateway"}
	ServiceUnavailable            = ResponseCode{Code: fiber.StatusServiceUnavailable, Msg: "service unavailable"}
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code   int    `json:"code"`
	ErrMsg string `json:"errMsg"`
	Path   string `json:"path"`
}

// WithRepErrMsg writes the error envelope. Codes outside the HTTP status range map to 500.
func WithRepErrMsg(c *fiber.Ctx, code int, msg string, path string) error {
	status := code
	if status < 400 || status > 599 {
		status = fiber.StatusInternalServerError
	}
	return c.Status(status).JSON(ErrorResponse{Code: code, ErrMsg: msg, Path: path})
}

// WithRepJSON writes data as the response body with the given status.
func WithRepJSON(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(data)
}
