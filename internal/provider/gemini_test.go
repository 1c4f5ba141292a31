package provider

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishekK50/wardenxt/internal/errors"
)

// newTestGemini points a Gemini client at handler. The listener is
// IPv4 loopback; some sandboxes refuse IPv6.
func newTestGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("unable to listen: %v", err)
	}
	server := &httptest.Server{Listener: ln, Config: &http.Server{Handler: handler}}
	server.Start()
	t.Cleanup(server.Close)

	g, err := NewGemini(Config{APIKey: "test-key", BaseURL: server.URL + "/", Model: "gemini-test"})
	require.NoError(t, err)
	return g
}

func TestNewGemini_RequiresKey(t *testing.T) {
	_, err := NewGemini(Config{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeProviderNotConfigured, errors.CodeOf(err))

	g, err := NewGemini(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, g.Info().Model)
	assert.Equal(t, DefaultBaseURL, g.cfg.BaseURL)
	assert.Equal(t, DefaultTimeout, g.client.Timeout)
}

func TestNew(t *testing.T) {
	c, err := New(Config{Name: "Gemini", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, NameGemini, c.Info().Name)

	_, err = New(Config{Name: "openai", APIKey: "k"})
	assert.Equal(t, errors.ErrCodeProviderNotConfigured, errors.CodeOf(err))

	c, err = New(Config{})
	assert.Nil(t, c)
	assert.Equal(t, errors.ErrCodeProviderNotConfigured, errors.CodeOf(err))
}

func TestGemini_Generate(t *testing.T) {
	var got geminiRequest
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"candidates": [{"content": {"parts": [{"text": "{\"steps\": "}, {"text": "[]}"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 120, "candidatesTokenCount": 30, "totalTokenCount": 150}
		}`)
	})

	resp, err := g.Generate(context.Background(), &GenerateRequest{
		Prompt:       "Generate a runbook",
		SystemPrompt: "You are an SRE",
		Temperature:  Float(0.1),
	})
	require.NoError(t, err)

	assert.Equal(t, `{"steps": []}`, resp.Content)
	assert.Equal(t, "gemini-test", resp.Model)
	assert.Equal(t, NameGemini, resp.Provider)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 120, resp.InputTokens)
	assert.Equal(t, 30, resp.OutputTokens)
	assert.Equal(t, 150, resp.TokensUsed)

	require.Len(t, got.Contents, 1)
	assert.Equal(t, "Generate a runbook", got.Contents[0].Parts[0].Text)
	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "You are an SRE", got.SystemInstruction.Parts[0].Text)
	require.NotNil(t, got.GenerationConfig.Temperature)
	assert.Equal(t, 0.1, *got.GenerationConfig.Temperature)
	assert.Equal(t, DefaultMaxTokens, got.GenerationConfig.MaxOutputTokens)
}

func TestGemini_GenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header map[string]string
		body   string
		want   errors.ErrorCode
	}{
		{"unauthorized", http.StatusUnauthorized, nil, `{}`, errors.ErrCodeProviderAuth},
		{"forbidden", http.StatusForbidden, nil, `{}`, errors.ErrCodeProviderAuth},
		{"rate limited", http.StatusTooManyRequests, map[string]string{"Retry-After": "30"}, `{}`, errors.ErrCodeProviderRateLimit},
		{"gateway timeout", http.StatusGatewayTimeout, nil, ``, errors.ErrCodeProviderTimeout},
		{"server error", http.StatusInternalServerError, nil, `{"error": {"code": 500, "message": "backend overloaded"}}`, errors.ErrCodeProviderAPI},
		{"no candidates", http.StatusOK, nil, `{"candidates": []}`, errors.ErrCodeProviderEmpty},
		{"blank text", http.StatusOK, nil, `{"candidates": [{"content": {"parts": [{"text": "  "}]}, "finishReason": "SAFETY"}]}`, errors.ErrCodeProviderEmpty},
		{"error envelope", http.StatusOK, nil, `{"error": {"code": 400, "message": "bad prompt"}}`, errors.ErrCodeProviderAPI},
		{"garbage", http.StatusOK, nil, `not json`, errors.ErrCodeProviderAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := g.Generate(context.Background(), &GenerateRequest{Prompt: "x"})
			require.Error(t, err)
			assert.Equal(t, tt.want, errors.CodeOf(err))
			assert.True(t, errors.IsProviderError(err))
			assert.NotContains(t, err.Error(), "test-key")
		})
	}
}

func TestGemini_ServerErrorMessage(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"error": {"code": 502, "message": "upstream gone"}}`)
	})

	_, err := g.Generate(context.Background(), &GenerateRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502: upstream gone")
}

func TestGemini_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := g.Generate(ctx, &GenerateRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeProviderTimeout, errors.CodeOf(err))
}

func TestGemini_Health(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/models/gemini-test", r.URL.Path)
		if r.URL.Query().Get("key") != "test-key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = io.WriteString(w, `{"name": "models/gemini-test"}`)
	})
	assert.NoError(t, g.Health(context.Background()))

	g.cfg.APIKey = "wrong"
	err := g.Health(context.Background())
	assert.Equal(t, errors.ErrCodeProviderAuth, errors.CodeOf(err))
	assert.NoError(t, g.Close())
}

func TestUnconfigured(t *testing.T) {
	u := Unconfigured{Name: NameGemini, Model: DefaultModel}

	_, err := u.Generate(context.Background(), &GenerateRequest{Prompt: "x"})
	assert.Equal(t, errors.ErrCodeProviderNotConfigured, errors.CodeOf(err))
	assert.True(t, strings.Contains(err.Error(), "GEMINI_API_KEY"))
	assert.Error(t, u.Health(context.Background()))
	assert.False(t, u.Info().Configured)
}
