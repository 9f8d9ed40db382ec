package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwise1/civic_circle/internal/http/google"
	"github.com/bwise1/civic_circle/internal/model"
	"github.com/bwise1/civic_circle/util/values"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginWithGoogleAssignsConfiguredRole(t *testing.T) {
	api := newTestAPI()
	api.Google = &mockGoogle{profile: google.Profile{ID: "g-1", Email: "admin@city.gov", Name: "City Admin", Picture: "https://img/a.png"}}

	rec := do(t, api, http.MethodPost, "/auth/google", map[string]string{"access_token": "ya29.token"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decodeEnvelope(t, rec)
	var resp model.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, model.RoleAdmin, resp.User.Role)
	assert.Equal(t, "admin@city.gov", resp.User.Email)
	require.NotNil(t, resp.User.Image)

	claims, err := api.verifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID.String(), claims.UserID)
	assert.Equal(t, resp.ExpiresAt, claims.Exp)
}

func TestLoginWithGoogleKeepsPromotedRole(t *testing.T) {
	api := newTestAPI()
	existing := usersOf(api).add("Jane", "jane@example.com", model.RoleAdmin)
	api.Google = &mockGoogle{profile: google.Profile{Email: "jane@example.com", Name: "Jane Doe"}}

	rec := do(t, api, http.MethodPost, "/auth/google", map[string]string{"access_token": "t"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.LoginResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &resp))
	assert.Equal(t, existing.ID, resp.User.ID)
	assert.Equal(t, model.RoleAdmin, resp.User.Role)
	assert.Equal(t, "Jane Doe", resp.User.Name)
}

func TestLoginWithGoogleFailures(t *testing.T) {
	api := newTestAPI()

	rec := do(t, api, http.MethodPost, "/auth/google", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	api.Google = &mockGoogle{err: errors.New("401 invalid credentials")}
	rec = do(t, api, http.MethodPost, "/auth/google", map[string]string{"access_token": "bad"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	api.Google = &mockGoogle{err: google.ErrWrongAudience}
	rec = do(t, api, http.MethodPost, "/auth/google", map[string]string{"access_token": "other-app"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "google account cannot be used", decodeEnvelope(t, rec).Message)
}

func TestRequireLogin(t *testing.T) {
	api := newTestAPI()
	user := usersOf(api).add("Jane", "jane@example.com", model.RoleCitizen)

	rec := do(t, api, http.MethodGet, "/users/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, api, http.MethodGet, "/users/me", nil, &user)
	require.Equal(t, http.StatusOK, rec.Code)
	var me model.User
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &me))
	assert.Equal(t, user.ID, me.ID)
}

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestVerifyToken(t *testing.T) {
	api := newTestAPI()
	user := usersOf(api).add("Jane", "jane@example.com", model.RoleCitizen)
	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name   string
		token  string
		status string
	}{
		{"expired", signed(t, "test-secret", jwt.MapClaims{"sub": user.ID.String(), "typ": "access", "exp": time.Now().Add(-time.Minute).Unix()}), values.TokenExpired},
		{"wrong secret", signed(t, "other", jwt.MapClaims{"sub": user.ID.String(), "typ": "access", "exp": future}), values.NotAuthorised},
		{"refresh type", signed(t, "test-secret", jwt.MapClaims{"sub": user.ID.String(), "typ": "refresh", "exp": future}), values.NotAuthorised},
		{"unknown user", signed(t, "test-secret", jwt.MapClaims{"sub": "6f0c1f9e-7d1a-4c43-9a55-4a3a0f4f1a11", "typ": "access", "exp": future}), values.NotAuthorised},
		{"garbage", "not-a-jwt", values.NotAuthorised},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			req.Header.Set("X-Request-Source", "test")
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()
			api.setUpServerHandler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.status, decodeEnvelope(t, rec).Status)
		})
	}
}

func TestRoleChangesApplyWithoutNewToken(t *testing.T) {
	api := newTestAPI()
	root := usersOf(api).add("Root", "root@city.gov", model.RoleSuperadmin)
	jane := usersOf(api).add("Jane", "jane@example.com", model.RoleCitizen)

	rec := do(t, api, http.MethodGet, "/admin/users", nil, &jane)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, api, http.MethodPut, "/admin/users/"+jane.ID.String()+"/role", map[string]string{"role": "mayor"}, &root)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, api, http.MethodPut, "/admin/users/"+jane.ID.String()+"/role", map[string]string{"role": "superadmin"}, &root)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, api, http.MethodGet, "/admin/users", nil, &jane)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, api, http.MethodPut, "/admin/users/"+root.ID.String()+"/role", map[string]string{"role": "citizen"}, &root)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
