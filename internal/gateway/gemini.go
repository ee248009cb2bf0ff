package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/sloppy/threatone/internal/logger"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel   = "gemini-2.5-flash"
)

// GeminiConfig configures the Google Generative Language client.
type GeminiConfig struct {
	// Key returns the API key for each call; an empty key fails the call
	// with ErrNotConfigured.
	Key     func() (string, error)
	Model   string
	BaseURL string
	Timeout time.Duration

	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// HTTPClient is the transport under the retrying client. Optional.
	HTTPClient *http.Client
}

// Gemini calls models/{model}:generateContent.
type Gemini struct {
	key     func() (string, error)
	model   string
	baseURL string
	timeout time.Duration
	client  *retryablehttp.Client
}

func NewGemini(cfg GeminiConfig) *Gemini {
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGeminiBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RetryMax == 0 {
		cfg.RetryMax = 3
	}
	if cfg.RetryWaitMin == 0 {
		cfg.RetryWaitMin = 1 * time.Second
	}
	if cfg.RetryWaitMax == 0 {
		cfg.RetryWaitMax = 4 * time.Second
	}

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = cfg.RetryMax
	httpClient.RetryWaitMin = cfg.RetryWaitMin
	httpClient.RetryWaitMax = cfg.RetryWaitMax
	httpClient.Logger = logger.RetryableHTTP{}
	httpClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if cfg.HTTPClient != nil {
		httpClient.HTTPClient = cfg.HTTPClient
	}

	return &Gemini{
		key:     cfg.Key,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		client:  httpClient,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiTool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
	Tools    []geminiTool    `json:"tools,omitempty"`
}

func (g *Gemini) Ask(ctx context.Context, req Request) (Answer, error) {
	apiKey := ""
	if g.key != nil {
		k, err := g.key()
		if err != nil {
			return Answer{}, fmt.Errorf("load api key: %w", err)
		}
		apiKey = strings.TrimSpace(k)
	}
	if apiKey == "" {
		return Answer{}, ErrNotConfigured
	}

	body := geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: req.Prompt}}}}}
	if req.Grounded {
		body.Tools = []geminiTool{{GoogleSearch: &struct{}{}}}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Answer{}, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, payload)
	if err != nil {
		return Answer{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return Answer{}, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Answer{}, fmt.Errorf("%w: read response: %v", ErrGateway, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := gjson.GetBytes(data, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		return Answer{}, fmt.Errorf("%w: status %d: %s", ErrGateway, resp.StatusCode, msg)
	}
	return parseGeminiAnswer(data)
}

func parseGeminiAnswer(data []byte) (Answer, error) {
	if !gjson.ValidBytes(data) {
		return Answer{}, fmt.Errorf("%w: malformed response body", ErrGateway)
	}
	var parts []string
	for _, p := range gjson.GetBytes(data, "candidates.0.content.parts.#.text").Array() {
		parts = append(parts, p.String())
	}
	ans := Answer{Text: strings.Join(parts, ""), Citations: []Citation{}}

	for _, web := range gjson.GetBytes(data, "candidates.0.groundingMetadata.groundingChunks.#.web").Array() {
		uri := web.Get("uri").String()
		if uri == "" {
			continue
		}
		title := web.Get("title").String()
		if title == "" {
			title = uri
		}
		ans.Citations = append(ans.Citations, Citation{Title: title, URL: uri})
	}
	return ans, nil
}
