// Package api is the HTTP adapter for the Second Brain backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/xaenox/second-brain/internal/metrics"
	"github.com/xaenox/second-brain/internal/models"
	"go.uber.org/zap"
)

const DefaultTimeout = 10 * time.Second

// Authorizer supplies the session token and is told when the backend
// rejects it.
type Authorizer interface {
	Token(ctx context.Context) (string, error)
	Unauthorized(ctx context.Context)
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	auth       Authorizer
	metrics    metrics.Recorder
	logger     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, rec metrics.Recorder, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		metrics:    rec,
		logger:     logger,
	}
}

// WithAuth returns a copy of the client bound to a session.
func (c *Client) WithAuth(a Authorizer) *Client {
	cp := *c
	cp.auth = a
	return &cp
}

func (c *Client) SignUp(ctx context.Context, creds models.Credentials) error {
	return c.do(ctx, http.MethodPost, "/signup", creds, nil, false)
}

func (c *Client) Login(ctx context.Context, creds models.Credentials) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/login", creds, &resp, false); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("login response did not contain a token")
	}
	return resp.Token, nil
}

type contentResponse struct {
	Data      json.RawMessage `json:"data"`
	Formatted json.RawMessage `json:"formatted"`
}

// ListContent fetches the user's content. The legacy "formatted" envelope is
// accepted when "data" is absent; anything but a list is ErrInvalidResponse.
func (c *Client) ListContent(ctx context.Context) ([]models.ContentItem, error) {
	var body json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/content", nil, &body, true); err != nil {
		return nil, err
	}
	var resp contentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("Invalid content response", zap.Error(err))
		return nil, ErrInvalidResponse
	}

	list := resp.Data
	if len(list) == 0 || string(list) == "null" {
		list = resp.Formatted
	}
	list = bytes.TrimSpace(list)
	if len(list) == 0 || list[0] != '[' {
		c.logger.Error("Invalid content response", zap.ByteString("body", list))
		return nil, ErrInvalidResponse
	}

	var items []models.ContentItem
	if err := json.Unmarshal(list, &items); err != nil {
		c.logger.Error("Failed to decode content list", zap.Error(err))
		return nil, ErrInvalidResponse
	}
	for _, item := range items {
		if len(item.Malformed) > 0 {
			c.logger.Warn("Ignoring malformed content fields",
				zap.Int64("id", item.ID),
				zap.Strings("fields", item.Malformed))
		}
	}
	return items, nil
}

func (c *Client) CreateContent(ctx context.Context, draft models.ContentDraft) error {
	if draft.Tags == nil {
		draft.Tags = []string{}
	}
	return c.do(ctx, http.MethodPost, "/content", draft, nil, true)
}

func (c *Client) DeleteContent(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/content/"+strconv.FormatInt(id, 10), nil, nil, true)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if authed {
		if c.auth == nil {
			return ErrAuthRequired
		}
		token, err := c.auth.Token(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordRequest(method, 0)
		c.logger.Error("Network error",
			zap.Error(err),
			zap.String("method", method),
			zap.String("path", path))
		return &TransportError{cause: err}
	}
	defer resp.Body.Close()
	c.metrics.RecordRequest(method, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorResponse(ctx, method, path, resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Error("Failed to decode response",
			zap.Error(err),
			zap.String("method", method),
			zap.String("path", path))
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) handleErrorResponse(ctx context.Context, method, path string, status int, data []byte) error {
	serr := &ServerError{Status: status, Message: errorMessage(data)}

	if status == http.StatusUnauthorized && c.auth != nil {
		c.auth.Unauthorized(ctx)
	}
	if status >= 500 {
		c.logger.Error("Server error",
			zap.Int("status", status),
			zap.String("method", method),
			zap.String("path", path),
			zap.String("message", serr.Message))
	}
	return serr
}

func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return body.Message
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed != "" && !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return trimmed
	}
	return ""
}
