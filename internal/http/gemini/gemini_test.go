package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), "test-key", "gemini-1.5-flash",
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return c, srv
}

func TestGenerateReturnsCandidateText(t *testing.T) {
	var gotPath string
	var gotPrompt string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Contents) > 0 && len(body.Contents[0].Parts) > 0 {
			gotPrompt = body.Contents[0].Parts[0].Text
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"overview\":"},{"text":"\"ok\"}"}]}}]}`))
	})

	text, err := c.Generate(context.Background(), "summarise this")
	require.NoError(t, err)
	assert.Equal(t, `{"overview":"ok"}`, text)
	assert.Equal(t, "summarise this", gotPrompt)
	assert.True(t, strings.HasSuffix(gotPath, "models/gemini-1.5-flash:generateContent"), gotPath)
}

func TestGenerateEmptyCandidates(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := c.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGenerateAPIError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid"}}`))
	})

	_, err := c.Generate(context.Background(), "prompt")
	var apiErr genai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Code)
}

func TestUnconfiguredClient(t *testing.T) {
	c, err := New(context.Background(), "", "gemini-1.5-flash")
	require.NoError(t, err)
	assert.False(t, c.Available())

	_, err = c.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGenerateSkipsThoughtParts(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"thinking...","thought":true},{"text":"answer"}]}}]}`))
	})

	text, err := c.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "answer", text)
}

func TestModelPrefixIsAccepted(t *testing.T) {
	c, err := New(context.Background(), "test-key", "models/gemini-pro", WithBaseURL("http://127.0.0.1:1"))
	require.NoError(t, err)
	assert.Equal(t, "gemini-pro", c.model)
}
