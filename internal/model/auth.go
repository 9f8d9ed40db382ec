package model

type GoogleLoginRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
}

type LoginResponse struct {
	User      User   `json:"user"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}
