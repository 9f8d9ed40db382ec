package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bwise1/civic_circle/internal/model"
	"github.com/bwise1/civic_circle/util"
	"github.com/bwise1/civic_circle/util/tracing"
	"github.com/bwise1/civic_circle/util/values"
	"github.com/golang-jwt/jwt"
	"github.com/lucsky/cuid"
)

var (
	errTokenExpired = errors.New("token expired")
	errInvalidToken = errors.New("invalid token")
)

// RequestTracing handles the request tracing context
func RequestTracing(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestSource := r.Header.Get(values.HeaderRequestSource)
		if requestSource == "" {
			errM := errors.New("X-Request-Source is empty")

			writeErrorResponse(w, errM, values.BadRequestBody, errM.Error())
			return
		}

		requestID := r.Header.Get(values.HeaderRequestID)
		if requestID == "" {
			requestID = cuid.New()
		}
		w.Header().Set(values.HeaderRequestID, requestID)

		tracingContext := tracing.Context{
			RequestID:     requestID,
			RequestSource: requestSource,
		}

		ctx = tracing.WithContext(ctx, tracingContext)
		next.ServeHTTP(w, r.WithContext(ctx))
	}

	return http.HandlerFunc(fn)
}

// RequireLogin resolves the bearer token to a stored user and places the
// corresponding Actor in the request context.
func (api *API) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.Split(r.Header.Get("Authorization"), " ")
		if len(authorization) != 2 || authorization[0] != "Bearer" {
			writeErrorResponse(w, errors.New(values.NotAuthorised), values.NotAuthorised, "not-authorized")
			return
		}

		actor, err := api.actorFromToken(r.Context(), authorization[1])
		if err != nil {
			if errors.Is(err, errTokenExpired) {
				writeErrorResponse(w, err, values.TokenExpired, "token-expired")
				return
			}
			writeErrorResponse(w, err, values.NotAuthorised, "invalid-token")
			return
		}

		next.ServeHTTP(w, r.WithContext(util.WithActor(r.Context(), actor)))
	})
}

// RequireRole must run after RequireLogin.
func RequireRole(allowed ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := util.GetActorFromContext(r.Context())
			if err != nil {
				writeErrorResponse(w, err, values.NotAuthorised, "not-authorized")
				return
			}
			for _, role := range allowed {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeErrorResponse(w, nil, values.NotAllowed, "forbidden")
		})
	}
}

func (api *API) actorFromToken(ctx context.Context, token string) (model.Actor, error) {
	claims, err := api.verifyToken(token)
	if err != nil {
		return model.Actor{}, err
	}

	userID, err := util.StringToUUID(claims.UserID)
	if err != nil {
		return model.Actor{}, errInvalidToken
	}

	dbCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// the role is read from the store so role changes apply immediately
	user, err := api.Users.GetUserByID(dbCtx, userID)
	if err != nil {
		return model.Actor{}, fmt.Errorf("user lookup: %w", err)
	}
	return user.Actor(), nil
}

func (api *API) verifyToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(api.Config.JwtSecret), nil
	})

	var ve *jwt.ValidationError
	if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
		return nil, errTokenExpired
	}
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidToken
	}

	if tokenType, _ := claims["typ"].(string); tokenType != accessTokenType {
		return nil, errInvalidToken
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return nil, errInvalidToken
	}
	exp, _ := claims["exp"].(float64)

	return &TokenClaims{
		UserID: userID,
		Type:   accessTokenType,
		Exp:    int64(exp),
	}, nil
}
