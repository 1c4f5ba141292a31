// Package providertest supplies a scripted provider.Client for tests.
package providertest

import (
	"context"
	"sync"

	"github.com/abhishekK50/wardenxt/internal/provider"
)

// Client answers every Generate call with Content, or Err when set, and
// records the prompts it saw.
type Client struct {
	mu      sync.Mutex
	Content string
	Err     error
	Model   string
	prompts []string
}

// New returns a Client that always answers with content.
func New(content string) *Client {
	return &Client{Content: content, Model: "fake-model"}
}

// Failing returns a Client whose calls fail with err.
func Failing(err error) *Client {
	return &Client{Err: err, Model: "fake-model"}
}

// Generate implements provider.Client.
func (c *Client) Generate(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, req.Prompt)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Err != nil {
		return nil, c.Err
	}
	return &provider.GenerateResponse{
		Content:      c.Content,
		Model:        c.Model,
		Provider:     "fake",
		FinishReason: "stop",
	}, nil
}

// SetContent changes the scripted answer.
func (c *Client) SetContent(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Content = content
}

// Prompts returns every prompt received so far.
func (c *Client) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

// Info implements provider.Client.
func (c *Client) Info() provider.Info {
	return provider.Info{Name: "fake", Model: c.Model, Configured: true}
}

// Health implements provider.Client.
func (c *Client) Health(context.Context) error {
	return c.Err
}

// Close implements provider.Client.
func (c *Client) Close() error {
	return nil
}

var _ provider.Client = (*Client)(nil)
