package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// IdempotencyHeader carries the caller-supplied retry key.
	IdempotencyHeader = "Idempotency-Key"

	idempotencyCacheTTL = 24 * time.Hour
	lockTimeout         = 10 * time.Second

	cacheKeyPrefix = "idempotency:"
	lockKeyPrefix  = "idempotency-lock:"
)

// responseRecorder captures status and body so a successful response can
// be replayed for retries of the same key.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rw *responseRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseRecorder) Write(b []byte) (int, error) {
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

// Idempotency suppresses duplicate postings across client retries. The
// ledger engine itself generates a fresh reference id per call and has no
// retry protection, so this middleware is the dedup layer: the first
// request under a key takes a short Redis lock and caches its successful
// response; retries replay the cached response instead of re-posting.
//
// Requests without the header pass through untouched.
func Idempotency(rdb *redis.Client, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyHeader)
			if key == "" || r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			cacheKey := cacheKeyPrefix + key
			lockKey := lockKeyPrefix + key

			if cached, err := rdb.Get(ctx, cacheKey).Result(); err == nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Idempotent-Replay", "true")
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(cached))
				return
			} else if err != redis.Nil {
				logger.Error("Idempotency cache lookup failed", "error", err)
				// Fall through: the ledger still enforces its own invariants.
			}

			locked, err := rdb.SetNX(ctx, lockKey, "1", lockTimeout).Result()
			if err != nil {
				logger.Error("Idempotency lock failed", "error", err)
			} else if !locked {
				// A concurrent request with the same key is in flight.
				w.Header().Set("Retry-After", "1")
				http.Error(w, "request with this idempotency key is already being processed", http.StatusConflict)
				return
			}
			if locked {
				// Release only a lock this request took; when SetNX errored
				// the lock may be held by a concurrent request.
				defer rdb.Del(ctx, lockKey)
			}

			rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.statusCode >= 200 && rec.statusCode < 300 {
				if err := rdb.Set(ctx, cacheKey, rec.body.String(), idempotencyCacheTTL).Err(); err != nil {
					logger.Error("Failed to cache idempotent response", "key", key, "error", err)
				}
			}
		})
	}
}
