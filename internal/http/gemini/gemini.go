package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"google.golang.org/genai"
)

var (
	ErrNotConfigured = errors.New("text generation api key not configured")
	ErrEmptyResponse = errors.New("text generation returned no content")
)

// Option adjusts the SDK client configuration.
type Option func(*genai.ClientConfig)

// WithBaseURL points the client at another endpoint, e.g. a test server.
func WithBaseURL(url string) Option {
	return func(cc *genai.ClientConfig) {
		if !strings.HasSuffix(url, "/") {
			url += "/"
		}
		cc.HTTPOptions.BaseURL = url
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(cc *genai.ClientConfig) {
		cc.HTTPClient = c
	}
}

// Client calls the Gemini generateContent endpoint. A Client built without
// an API key is valid but unavailable.
type Client struct {
	sdk   *genai.Client
	model string
}

func New(ctx context.Context, apiKey, model string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return &Client{model: model}, nil
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cc)
	}

	sdk, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "creating gemini client")
	}
	return &Client{sdk: sdk, model: strings.TrimPrefix(model, "models/")}, nil
}

func (c *Client) Available() bool {
	return c != nil && c.sdk != nil
}

// Generate sends a single user prompt and returns the text of the first
// candidate that has any. Thought parts are skipped.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Available() {
		return "", ErrNotConfigured
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := c.sdk.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", pkgerrors.Wrap(err, "generate content")
	}

	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			if part != nil && !part.Thought {
				sb.WriteString(part.Text)
			}
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			return text, nil
		}
	}
	return "", ErrEmptyResponse
}
