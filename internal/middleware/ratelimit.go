package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/wordsmith/wordsmith-api/internal/pkg/response"
)

// RateLimit returns middleware that limits requests per authenticated user
// within a fixed window. Best-effort: requests pass through when Redis is
// unavailable.
func RateLimit(client *redis.Client, name string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if client == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := limiterKey(name, r)
			count, err := client.Incr(r.Context(), key).Result()
			if err != nil {
				log.Warn().Err(err).Str("limiter", name).Msg("rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				client.Expire(r.Context(), key, window)
			}
			if count > int64(limit) {
				response.TooManyRequests(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func limiterKey(name string, r *http.Request) string {
	subject := GetUserID(r.Context()).String()
	if subject == "00000000-0000-0000-0000-000000000000" {
		subject = getClientIP(r)
	}
	return fmt.Sprintf("ratelimit:%s:%s", name, subject)
}
