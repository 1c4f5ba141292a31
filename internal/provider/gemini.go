package provider

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/abhishekK50/wardenxt/internal/errors"
	"github.com/abhishekK50/wardenxt/internal/telemetry"
)

// maxErrorBody bounds how much of a failed response ends up in an error.
const maxErrorBody = 512

// Gemini is a Client for the Google Gemini generateContent API.
type Gemini struct {
	cfg    Config
	client *http.Client
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata *geminiUsage      `json:"usageMetadata,omitempty"`
	ModelVersion  string            `json:"modelVersion,omitempty"`
	Error         *geminiError      `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// NewGemini creates a Gemini client. The API key is required.
func NewGemini(cfg Config) (*Gemini, error) {
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, notConfiguredError(cfg.Name)
	}
	return &Gemini{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Generate implements Client.
func (g *Gemini) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	ctx, span := telemetry.StartProviderSpan(ctx, g.cfg.Name, g.cfg.Model)
	defer span.End()

	start := time.Now()
	resp, err := g.generate(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp.Latency = time.Since(start)

	telemetry.RecordSuccess(span,
		attribute.Int("input_tokens", resp.InputTokens),
		attribute.Int("output_tokens", resp.OutputTokens),
		attribute.String("finish_reason", resp.FinishReason),
	)
	return resp, nil
}

func (g *Gemini) generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	body, err := json.Marshal(g.buildRequest(req))
	if err != nil {
		return nil, errors.NewInternalError("encode generation request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(":generateContent"), bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewInternalError("build generation request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, g.transportError(ctx, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, g.transportError(ctx, err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, g.statusError(httpResp, respBody)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, errors.Wrap(errors.ErrCodeProviderAPI, "malformed response from "+g.cfg.Name, err)
	}
	if parsed.Error != nil {
		return nil, errors.New(errors.ErrCodeProviderAPI,
			fmt.Sprintf("%s API error %d: %s", g.cfg.Name, parsed.Error.Code, parsed.Error.Message))
	}
	return g.convertResponse(&parsed)
}

// Info implements Client.
func (g *Gemini) Info() Info {
	return Info{
		Name:        g.cfg.Name,
		Model:       g.cfg.Model,
		Description: "Google Gemini generateContent API",
		Configured:  true,
	}
}

// Health fetches the model resource, which needs a valid key but costs
// no tokens.
func (g *Gemini) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint(""), nil)
	if err != nil {
		return errors.NewInternalError("build health request", err)
	}
	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return g.transportError(ctx, err)
	}
	defer httpResp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
	if httpResp.StatusCode != http.StatusOK {
		return g.statusError(httpResp, body)
	}
	return nil
}

// Close implements Client.
func (g *Gemini) Close() error {
	g.client.CloseIdleConnections()
	return nil
}

func (g *Gemini) endpoint(method string) string {
	q := url.Values{"key": []string{g.cfg.APIKey}}
	return fmt.Sprintf("%s/models/%s%s?%s", g.cfg.BaseURL, url.PathEscape(g.cfg.Model), method, q.Encode())
}

func (g *Gemini) buildRequest(req *GenerateRequest) *geminiRequest {
	out := &geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: req.Prompt}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     Float(g.cfg.Temperature),
			MaxOutputTokens: g.cfg.MaxTokens,
		},
	}
	if req.SystemPrompt != "" {
		out.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemPrompt}}}
	}
	if req.Temperature != nil {
		out.GenerationConfig.Temperature = req.Temperature
	}
	if req.MaxTokens > 0 {
		out.GenerationConfig.MaxOutputTokens = req.MaxTokens
	}
	return out
}

func (g *Gemini) convertResponse(resp *geminiResponse) (*GenerateResponse, error) {
	if len(resp.Candidates) == 0 {
		return nil, emptyResponseError(g.cfg.Name, "no candidates")
	}

	candidate := resp.Candidates[0]
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, emptyResponseError(g.cfg.Name, "finish reason "+candidate.FinishReason)
	}

	model := g.cfg.Model
	if resp.ModelVersion != "" {
		model = resp.ModelVersion
	}
	out := &GenerateResponse{
		Content:      text.String(),
		Model:        model,
		Provider:     g.cfg.Name,
		FinishReason: strings.ToLower(candidate.FinishReason),
	}
	if u := resp.UsageMetadata; u != nil {
		out.InputTokens = u.PromptTokenCount
		out.OutputTokens = u.CandidatesTokenCount
		out.TokensUsed = u.TotalTokenCount
	}
	return out, nil
}

func (g *Gemini) statusError(resp *http.Response, body []byte) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.NewProviderAuthError(g.cfg.Name)
	case http.StatusTooManyRequests:
		return errors.NewProviderRateLimitError(g.cfg.Name, resp.Header.Get("Retry-After"))
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return timeoutError(g.cfg.Name, g.cfg.Timeout, nil)
	}

	msg := strings.TrimSpace(string(body))
	var envelope geminiResponse
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
		msg = envelope.Error.Message
	}
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return errors.New(errors.ErrCodeProviderAPI,
		fmt.Sprintf("%s API returned status %d: %s", g.cfg.Name, resp.StatusCode, msg))
}

func (g *Gemini) transportError(ctx context.Context, err error) error {
	if stderrors.Is(ctx.Err(), context.Canceled) {
		return errors.Wrap(errors.ErrCodeProviderAPI, "generation cancelled", ctx.Err())
	}
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return timeoutError(g.cfg.Name, g.cfg.Timeout, err)
	}
	return errors.Wrap(errors.ErrCodeProviderAPI, "request to "+g.cfg.Name+" failed", err)
}

func timeoutError(name string, timeout time.Duration, cause error) *errors.WardenError {
	return errors.Wrap(errors.ErrCodeProviderTimeout,
		fmt.Sprintf("%s did not answer within %s", name, timeout), cause).
		WithSuggestion("Retry, or raise provider.timeout")
}

func emptyResponseError(name, detail string) *errors.WardenError {
	return errors.New(errors.ErrCodeProviderEmpty,
		fmt.Sprintf("%s returned no text (%s)", name, detail)).
		WithSuggestion("Retry generation; the model may have filtered the prompt")
}

var _ Client = (*Gemini)(nil)
var _ Client = Unconfigured{}
