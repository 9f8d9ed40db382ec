package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestClient(t *testing.T, clientID string, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(clientID, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
}

func TestProfile(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth2/v2/userinfo", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"123","email":" Jane@Example.com ","verified_email":true,"name":"Jane Doe","picture":"https://img/jane.png"}`))
	})

	p, err := c.Profile(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, Profile{ID: "123", Email: "jane@example.com", Name: "Jane Doe", Picture: "https://img/jane.png"}, p)
}

func TestProfileRejectsUnverifiedEmail(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","email":"a@b.c","verified_email":false}`))
	})

	_, err := c.Profile(context.Background(), "token")
	assert.ErrorIs(t, err, ErrUnverifiedEmail)
}

func TestProfileChecksAudience(t *testing.T) {
	c := newTestClient(t, "my-client", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/oauth2/v2/tokeninfo":
			_, _ = w.Write([]byte(`{"audience":"someone-else","issued_to":"someone-else","expires_in":3600}`))
		default:
			t.Errorf("user info must not be fetched, got %s", r.URL.Path)
		}
	})

	_, err := c.Profile(context.Background(), "token")
	assert.ErrorIs(t, err, ErrWrongAudience)
}

func TestProfileUpstreamError(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":401,"message":"Invalid Credentials"}}`))
	})

	_, err := c.Profile(context.Background(), "expired")
	assert.Error(t, err)
}
