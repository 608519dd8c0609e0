package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/clinicore/platform/pkg/common/logger"
	"github.com/clinicore/platform/pkg/common/models"
	"github.com/google/uuid"
)

type contextKey string

const actorContextKey contextKey = "actor"

func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		// Ensure a request ID exists
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}

		// Propagate request ID downstream
		r.Header.Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)

		logger.Log.WithFields(map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"remote_addr": r.RemoteAddr,
			"request_id":  reqID,
			"duration":    time.Since(start).Milliseconds(),
		}).Info("HTTP request")
	})
}

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Log.WithField("error", err).Error("Panic recovered")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// Actor lifts the authenticated caller's identity out of the headers the
// auth gateway sets and into an explicit ActorContext. This service never
// authenticates anyone itself; an absent or malformed actor header simply
// leaves the request anonymous and handlers decide whether that is enough.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawID := r.Header.Get("X-Actor-Id")
		if rawID == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := uuid.Parse(rawID)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		actor := models.ActorContext{
			UserID: userID,
			Role:   r.Header.Get("X-Actor-Role"),
		}
		ctx := context.WithValue(r.Context(), actorContextKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFrom returns the actor attached by the Actor middleware.
func ActorFrom(ctx context.Context) (models.ActorContext, bool) {
	actor, ok := ctx.Value(actorContextKey).(models.ActorContext)
	return actor, ok
}

// Simple token-bucket rate limiter middleware (per-process)
func RateLimit(rps int, burst int) func(http.Handler) http.Handler {
	type bucket struct {
		tokens int
		last   time.Time
		mu     sync.Mutex
	}
	b := &bucket{tokens: burst, last: time.Now()}

	refill := func() {
		now := time.Now()
		elapsed := now.Sub(b.last).Seconds()
		add := int(elapsed * float64(rps))
		if add > 0 {
			b.tokens += add
			if b.tokens > burst {
				b.tokens = burst
			}
			b.last = now
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b.mu.Lock()
			refill()
			if b.tokens <= 0 {
				b.mu.Unlock()
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			b.tokens--
			b.mu.Unlock()

			next.ServeHTTP(w, r)
		})
	}
}
