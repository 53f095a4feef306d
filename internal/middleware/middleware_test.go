package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cabbooking/internal/auth"
	"cabbooking/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func bearer(t *testing.T, tokens *auth.TokenManager, username string, role domain.Role) string {
	t.Helper()
	token, _, err := tokens.Issue(username, role)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthenticateAndRequireRole(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	router := gin.New()
	router.GET("/drivers-only", Authenticate(tokens), RequireRole(domain.RoleDriver), func(c *gin.Context) {
		actor, role := Actor(c)
		c.JSON(http.StatusOK, gin.H{"actor": actor, "role": role})
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", bearer(t, tokens, "alice", domain.RoleRider), http.StatusForbidden},
		{"driver", bearer(t, tokens, "bob", domain.RoleDriver), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/drivers-only", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.JSONEq(t, `{"actor":"bob","role":"DRIVER"}`, w.Body.String())
			}
		})
	}
}

func TestIdempotencyMiddleware_ReplaysPerActor(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tokens := auth.NewTokenManager("secret", time.Hour)
	var calls int32

	router := gin.New()
	router.POST("/rides", Authenticate(tokens), IdempotencyMiddleware(client), func(c *gin.Context) {
		n := atomic.AddInt32(&calls, 1)
		c.JSON(http.StatusCreated, gin.H{"call": n})
	})

	do := func(user, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/rides", strings.NewReader(`{}`))
		req.Header.Set("Authorization", bearer(t, tokens, user, domain.RoleRider))
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	first := do("alice", "k1")
	require.Equal(t, http.StatusCreated, first.Code)

	replay := do("alice", "k1")
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, first.Body.String(), replay.Body.String())
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))

	other := do("mallory", "k1")
	assert.JSONEq(t, `{"call":2}`, other.Body.String())

	noKey := do("alice", "")
	assert.JSONEq(t, `{"call":3}`, noKey.Body.String())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func newIdempotentRouter(t *testing.T, handler gin.HandlerFunc) (*gin.Engine, string) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tokens := auth.NewTokenManager("secret", time.Hour)
	router := gin.New()
	router.POST("/rides", Authenticate(tokens), IdempotencyMiddleware(client), handler)
	return router, bearer(t, tokens, "alice", domain.RoleRider)
}

func postWithKey(router *gin.Engine, authHeader, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/rides", strings.NewReader(`{}`))
	req.Header.Set("Authorization", authHeader)
	req.Header.Set("Idempotency-Key", key)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotencyMiddleware_ConcurrentRetriesRunOnce(t *testing.T) {
	var calls int32
	router, authHeader := newIdempotentRouter(t, func(c *gin.Context) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		c.JSON(http.StatusCreated, gin.H{"ride": "r1"})
	})

	const retries = 20
	codes := make([]int, retries)
	var wg sync.WaitGroup
	for i := 0; i < retries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = postWithKey(router, authHeader, "same-key").Code
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	created := 0
	for _, code := range codes {
		assert.Contains(t, []int{http.StatusCreated, http.StatusConflict}, code)
		if code == http.StatusCreated {
			created++
		}
	}
	assert.GreaterOrEqual(t, created, 1)

	replay := postWithKey(router, authHeader, "same-key")
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestIdempotencyMiddleware_InFlightKeyConflicts(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	router, authHeader := newIdempotentRouter(t, func(c *gin.Context) {
		close(entered)
		<-release
		c.JSON(http.StatusCreated, gin.H{"ride": "r1"})
	})

	done := make(chan *httptest.ResponseRecorder)
	go func() { done <- postWithKey(router, authHeader, "k1") }()
	<-entered

	second := postWithKey(router, authHeader, "k1")
	assert.Equal(t, http.StatusConflict, second.Code)

	close(release)
	first := <-done
	assert.Equal(t, http.StatusCreated, first.Code)
}

func TestIdempotencyMiddleware_ServerErrorReleasesKey(t *testing.T) {
	var calls int32
	router, authHeader := newIdempotentRouter(t, func(c *gin.Context) {
		if atomic.AddInt32(&calls, 1) == 1 {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"ride": "r1"})
	})

	assert.Equal(t, http.StatusInternalServerError, postWithKey(router, authHeader, "k1").Code)

	retry := postWithKey(router, authHeader, "k1")
	assert.Equal(t, http.StatusCreated, retry.Code)
	assert.Empty(t, retry.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyMiddleware_NilClient(t *testing.T) {
	var calls int32
	router := gin.New()
	router.POST("/x", IdempotencyMiddleware(nil), func(c *gin.Context) {
		atomic.AddInt32(&calls, 1)
		c.Status(http.StatusNoContent)
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.Header.Set("Idempotency-Key", "same")
		router.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, int32(2), calls)
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware())
	router.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
