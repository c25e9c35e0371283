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

package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
)

// Client talks to a runstream server.
type Client struct {
	rc *resty.Client
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// APIError is the server's error envelope.
type APIError struct {
	Code   int    `json:"code"`
	ErrMsg string `json:"errMsg"`
	Path   string `json:"path"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Code, e.Path, e.ErrMsg)
}

type RunResponse struct {
	ReturnCode int    `json:"returncode"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	SignedURL  string `json:"signed_url"`
}

type SubmitResponse struct {
	Status    string `json:"status"`
	RunID     string `json:"run_id"`
	SessionID string `json:"session_id"`
}

// Event is one streamed message; only the fields of its type are set.
type Event struct {
	Type       string `json:"type"`
	Data       string `json:"data,omitempty"`
	Partial    bool   `json:"partial,omitempty"`
	ReturnCode *int   `json:"returncode,omitempty"`
	SignedURL  string `json:"signed_url,omitempty"`
	Key        string `json:"key,omitempty"`
	Status     string `json:"status,omitempty"`
	Message    string `json:"message,omitempty"`
	Stage      string `json:"stage,omitempty"`
}

func New(opts Options) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetError(&APIError{})
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	if opts.Token != "" {
		rc.SetAuthToken(opts.Token)
	}
	return &Client{rc: rc}
}

func sessionPath(sessionID, action string) string {
	return "/api/v1/sessions/" + url.PathEscape(sessionID) + "/" + action
}

// Run executes the session synchronously.
func (c *Client) Run(ctx context.Context, sessionID string) (*RunResponse, error) {
	var out RunResponse
	resp, err := c.rc.R().SetContext(ctx).SetResult(&out).Post(sessionPath(sessionID, "run"))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Submit queues a background run.
func (c *Client) Submit(ctx context.Context, sessionID string) (*SubmitResponse, error) {
	var out SubmitResponse
	resp, err := c.rc.R().SetContext(ctx).SetResult(&out).Post(sessionPath(sessionID, "submit"))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Result fetches the stored result as raw JSON.
func (c *Client) Result(ctx context.Context, sessionID string) (map[string]any, error) {
	out := map[string]any{}
	resp, err := c.rc.R().SetContext(ctx).SetResult(&out).Get(sessionPath(sessionID, "result"))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

// Status fetches a background job.
func (c *Client) Status(ctx context.Context, runID string) (map[string]any, error) {
	out := map[string]any{}
	resp, err := c.rc.R().SetContext(ctx).SetResult(&out).Get("/api/v1/runs/" + url.PathEscape(runID))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

// Stream runs the session and calls fn for every event until the stream ends.
func (c *Client) Stream(ctx context.Context, sessionID string, fn func(Event) error) error {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "text/event-stream").
		Get(sessionPath(sessionID, "stream"))
	if err != nil {
		return err
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.StatusCode() >= 400 {
		raw, _ := io.ReadAll(body)
		apiErr := &APIError{}
		if err := sonic.Unmarshal(raw, apiErr); err != nil || apiErr.ErrMsg == "" {
			return fmt.Errorf("stream %s: %s", sessionID, resp.Status())
		}
		return apiErr
	}
	return ReadEvents(body, fn)
}

// ReadEvents parses "data: <json>" frames from r.
func ReadEvents(r io.Reader, fn func(Event) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		payload, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var ev Event
		if err := sonic.UnmarshalString(payload, &ev); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	return sc.Err()
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}
	if e, ok := resp.Error().(*APIError); ok && e.ErrMsg != "" {
		return e
	}
	return errors.New(resp.Status())
}
