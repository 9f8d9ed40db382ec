package rest

import (
	"context"
	"errors"
	"time"

	"github.com/bwise1/civic_circle/internal/http/google"
	"github.com/bwise1/civic_circle/internal/model"
	"github.com/bwise1/civic_circle/util"
	"github.com/bwise1/civic_circle/util/values"
	"github.com/golang-jwt/jwt"
)

const accessTokenType = "access"

type TokenClaims struct {
	UserID string `json:"sub"`
	Type   string `json:"typ"`
	Exp    int64  `json:"exp"`
}

func (api *API) createToken(id string) (string, time.Time, error) {
	expTime, err := time.ParseDuration(api.Config.JwtExpires)
	if err != nil {
		return "", time.Time{}, err
	}
	now := time.Now()
	expiresAt := now.Add(expTime)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": id,
		"exp": expiresAt.Unix(),
		"iat": now.Unix(),
		"typ": accessTokenType,
	})

	tokenString, err := token.SignedString([]byte(api.Config.JwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// roleForEmail returns the role configured for email and whether the email
// appears in a configured list at all.
func (api *API) roleForEmail(email string) (model.Role, bool) {
	for _, e := range api.Config.SuperadminEmails {
		if e == email {
			return model.RoleSuperadmin, true
		}
	}
	for _, e := range api.Config.AdminEmails {
		if e == email {
			return model.RoleAdmin, true
		}
	}
	return model.RoleCitizen, false
}

func (api *API) LoginWithGoogleHelper(ctx context.Context, req model.GoogleLoginRequest) (model.LoginResponse, string, string, error) {
	if err := util.ValidateStruct(req); err != nil {
		return model.LoginResponse{}, values.BadRequestBody, "access_token is required", err
	}

	profile, err := api.Google.Profile(ctx, req.AccessToken)
	if err != nil {
		if errors.Is(err, google.ErrWrongAudience) || errors.Is(err, google.ErrUnverifiedEmail) {
			return model.LoginResponse{}, values.NotAuthorised, "google account cannot be used", err
		}
		return model.LoginResponse{}, values.NotAuthorised, "unable to verify google access token", err
	}
	if !util.IsEmail(profile.Email) {
		return model.LoginResponse{}, values.NotAuthorised, "google account has no usable email", errors.New("invalid google email")
	}

	role, listed := api.roleForEmail(profile.Email)
	user := model.User{
		ID:    util.GenerateUUID(),
		Name:  profile.Name,
		Email: profile.Email,
		Role:  role,
	}
	if profile.Picture != "" {
		user.Image = &profile.Picture
	}

	user, err = api.Users.UpsertUser(ctx, user, listed)
	if err != nil {
		return model.LoginResponse{}, values.Error, "failed to save user", err
	}

	token, expiresAt, err := api.createToken(user.ID.String())
	if err != nil {
		return model.LoginResponse{}, values.Error, "failed to create token", err
	}

	return model.LoginResponse{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
	}, values.Success, "Login successful", nil
}
