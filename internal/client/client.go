// Package client talks to a running WardenXT server on behalf of the CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhishekK50/wardenxt/internal/errors"
)

// DefaultTimeout covers a full generation round trip.
const DefaultTimeout = 150 * time.Second

// Client is the WardenXT API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

type errorEnvelope struct {
	Error struct {
		Code        string   `json:"code"`
		Kind        string   `json:"kind"`
		Message     string   `json:"message"`
		Suggestions []string `json:"suggestions"`
	} `json:"error"`
}

// do sends a JSON request under /api/v1 and decodes the response into out.
// Server errors come back as WardenErrors carrying the server's code.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(errors.ErrCodeFileMarshal, "encode request body", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+"/api/v1"+path, reqBody)
	if err != nil {
		return errors.NewInvalidRequestError("invalid server URL " + c.BaseURL)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "could not reach WardenXT server at "+c.BaseURL, err).
			WithSuggestion("Start the server with 'wardenxt serve' or set --server")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileReadFailed, "read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(errors.ErrCodeFileUnmarshal, "decode server response", err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err == nil && env.Error.Code != "" {
		we := errors.New(errors.ErrorCode(env.Error.Code), env.Error.Message)
		if len(env.Error.Suggestions) > 0 {
			we = we.WithSuggestions(env.Error.Suggestions...)
		}
		return we
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return errors.New(errors.ErrCodeInternal, fmt.Sprintf("server returned status %d: %s", status, msg))
}

func escape(id string) string {
	return url.PathEscape(id)
}
