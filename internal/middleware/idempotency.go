package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
	idempotencyTTL    = 24 * time.Hour

	// Placeholder held while the first request with a key is running.
	inFlightMarker = "in-flight"
	inFlightTTL    = time.Minute
)

var errInFlight = errors.New("idempotent request in flight")

// storedResponse is what gets replayed for a repeated key.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
}

// captureWriter tees the handler's output into a buffer.
type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// IdempotencyMiddleware replays the stored response when a mutating request
// repeats an Idempotency-Key. The key is claimed with SETNX before the handler
// runs, so concurrent retries execute the mutation once; a retry that arrives
// while the first request is still running gets 409. Keys are scoped to the
// authenticated caller, so it must run after Authenticate. A nil client
// disables replay.
func IdempotencyMiddleware(redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil {
			c.Next()
			return
		}

		key, ok := idempotencyKey(c)
		if !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		claimed, err := redisClient.SetNX(ctx, key, inFlightMarker, inFlightTTL).Result()
		if err != nil {
			// Redis is unavailable; serve the request without replay protection.
			c.Next()
			return
		}

		if !claimed {
			stored, err := loadResponse(ctx, redisClient, key)
			switch {
			case err == nil:
				if stored.ContentType != "" {
					c.Header("Content-Type", stored.ContentType)
				}
				c.Header(replayedHeader, "true")
				c.Data(stored.Status, stored.ContentType, stored.Body)
				c.Abort()
			case errors.Is(err, errInFlight):
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "a request with this idempotency key is still in progress"})
			default:
				c.Next()
			}
			return
		}

		// The claim must not outlive a handler that panics or fails.
		storeCtx := context.WithoutCancel(ctx)
		stored := false
		defer func() {
			if !stored {
				_ = redisClient.Del(storeCtx, key).Err()
			}
		}()

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		// Server errors are retryable and never stored.
		status := w.Status()
		if status < http.StatusOK || status >= http.StatusInternalServerError {
			return
		}
		err = saveResponse(storeCtx, redisClient, key, storedResponse{
			Status:      status,
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.buf.Bytes(),
		})
		stored = err == nil
	}
}

// idempotencyKey builds the Redis key for a mutating request carrying the header.
func idempotencyKey(c *gin.Context) (string, bool) {
	switch c.Request.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return "", false
	}

	header := strings.TrimSpace(c.GetHeader(idempotencyHeader))
	if header == "" {
		return "", false
	}

	actor, _ := Actor(c)
	return strings.Join([]string{"idempotency", actor, c.Request.Method, c.Request.URL.Path, header}, ":"), true
}

func loadResponse(ctx context.Context, client *redis.Client, key string) (*storedResponse, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	if string(data) == inFlightMarker {
		return nil, errInFlight
	}

	var stored storedResponse
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func saveResponse(ctx context.Context, client *redis.Client, key string, stored storedResponse) error {
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, data, idempotencyTTL).Err()
}
