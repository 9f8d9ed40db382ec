package google

import (
	"context"
	"errors"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/oauth2"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

var (
	ErrWrongAudience   = errors.New("access token was issued to another client")
	ErrUnverifiedEmail = errors.New("google account email is not verified")
)

// Profile is the subset of Google user info used for sign-in.
type Profile struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

// Client resolves Google OAuth access tokens to user profiles.
type Client struct {
	clientID string
	opts     []option.ClientOption
}

// NewClient builds a client. When clientID is set, tokens issued to other
// OAuth clients are rejected. Extra options are applied after the token
// source.
func NewClient(clientID string, opts ...option.ClientOption) *Client {
	return &Client{clientID: clientID, opts: opts}
}

func (c *Client) Profile(ctx context.Context, accessToken string) (Profile, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, c.opts...)

	svc, err := googleoauth.NewService(ctx, opts...)
	if err != nil {
		return Profile{}, pkgerrors.Wrap(err, "creating oauth2 service")
	}

	if c.clientID != "" {
		info, err := svc.Tokeninfo().AccessToken(accessToken).Context(ctx).Do()
		if err != nil {
			return Profile{}, pkgerrors.Wrap(err, "token info")
		}
		if info.Audience != c.clientID && info.IssuedTo != c.clientID {
			return Profile{}, ErrWrongAudience
		}
	}

	user, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return Profile{}, pkgerrors.Wrap(err, "user info")
	}
	if user.VerifiedEmail != nil && !*user.VerifiedEmail {
		return Profile{}, ErrUnverifiedEmail
	}

	return Profile{
		ID:      user.Id,
		Email:   strings.ToLower(strings.TrimSpace(user.Email)),
		Name:    user.Name,
		Picture: user.Picture,
	}, nil
}
