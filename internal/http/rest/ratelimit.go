package rest

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/bwise1/civic_circle/internal/logger"
	"github.com/bwise1/civic_circle/util"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit allows limit requests per period for each signed-in user, or
// for each client IP when the request is anonymous. Each call builds its
// own counter store.
func RateLimit(limit int64, period time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 {
		limit = 10
	}
	if period <= 0 {
		period = time.Minute
	}
	instance := limiter.New(memory.NewStore(), limiter.Rate{Period: period, Limit: limit})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lctx, err := instance.Get(r.Context(), rateLimitKey(r))
			if err != nil {
				logger.Log.WithError(err).Error("rate limiter unavailable")
				writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

			if lctx.Reached {
				writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "Too many requests, please try again later"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(r *http.Request) string {
	if actor, err := util.GetActorFromContext(r.Context()); err == nil {
		return "user:" + actor.UserID.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
