package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unieval/evaluation-backend/internal/config"
	"github.com/unieval/evaluation-backend/internal/model"
	"github.com/unieval/evaluation-backend/internal/repository"
	"github.com/unieval/evaluation-backend/internal/response"
	"github.com/unieval/evaluation-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubUsers struct{ users map[int64]*model.User }

func (s stubUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (s stubUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s stubUsers) List(context.Context, model.Role) ([]model.User, error)    { return nil, nil }
func (s stubUsers) ListByCourse(context.Context, int64) ([]model.User, error) { return nil, nil }
func (s stubUsers) Create(context.Context, *model.User) error                 { return nil }
func (s stubUsers) Update(context.Context, *model.User) error                 { return nil }
func (s stubUsers) Delete(context.Context, int64) error                       { return nil }

type stubSessions struct {
	mu sync.Mutex
	m  map[int64]string
}

func (s *stubSessions) Set(_ context.Context, userID int64, tokenID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[userID] = tokenID
	return nil
}

func (s *stubSessions) Get(_ context.Context, userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[userID], nil
}

func (s *stubSessions) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
	return nil
}

func newAuth(t *testing.T) (*service.AuthService, map[model.Role]*model.User) {
	t.Helper()
	users := map[model.Role]*model.User{
		model.RoleAdmin:   {ID: 1, Email: "admin@uni.test", Role: model.RoleAdmin},
		model.RoleStudent: {ID: 2, Email: "student@uni.test", Role: model.RoleStudent},
	}
	byID := map[int64]*model.User{}
	for _, u := range users {
		byID[u.ID] = u
	}
	cfg := &config.Config{JWTSecret: "middleware-test-secret", JWTExpiry: time.Hour, BcryptCost: 4}
	return service.NewAuthService(cfg, stubUsers{users: byID}, &stubSessions{m: map[int64]string{}}, zerolog.Nop()), users
}

func decodeCode(t *testing.T, w *httptest.ResponseRecorder) response.ErrCode {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error.Code
}

func protectedRouter(auth *service.AuthService, roles ...model.Role) *gin.Engine {
	r := gin.New()
	r.GET("/p", RequireAuth(auth), RequireRole(roles...), func(c *gin.Context) {
		claims := GetClaims(c)
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID, "role": claims.Role})
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	auth, users := newAuth(t)
	r := protectedRouter(auth, model.RoleAdmin, model.RoleStudent)

	token, err := auth.GenerateToken(context.Background(), users[model.RoleStudent])
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, response.ErrTokenRequired, decodeCode(t, w))
	})

	t.Run("garbage token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, response.ErrTokenInvalid, decodeCode(t, w))
	})

	t.Run("bearer header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":2,"role":"student"}`, w.Body.String())
	})

	t.Run("query token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p?token="+token, nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("replaced session", func(t *testing.T) {
		_, err := auth.GenerateToken(context.Background(), users[model.RoleStudent])
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, response.ErrSessionInvalidated, decodeCode(t, w))
	})
}

func TestRequireRole(t *testing.T) {
	auth, users := newAuth(t)
	r := protectedRouter(auth, model.RoleAdmin)

	studentToken, err := auth.GenerateToken(context.Background(), users[model.RoleStudent])
	require.NoError(t, err)
	adminToken, err := auth.GenerateToken(context.Background(), users[model.RoleAdmin])
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+studentToken)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, response.ErrForbidden, decodeCode(t, w))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.POST("/login", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	hit := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusNoContent, hit().Code)
	assert.Equal(t, http.StatusNoContent, hit().Code)

	w := hit()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, response.ErrRateLimitExceeded, decodeCode(t, w))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	now = now.Add(time.Minute)
	assert.Equal(t, http.StatusNoContent, hit().Code)
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	defer rl.Stop()

	r := gin.New()
	r.GET("/x", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestNoStore(t *testing.T) {
	r := gin.New()
	r.GET("/x", NoStore(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, "private, no-store", w.Header().Get("Cache-Control"))
}

func TestBrotli(t *testing.T) {
	big := bytes.Repeat([]byte("a"), 4096)

	r := gin.New()
	r.Use(BrotliWithConfig(BrotliConfig{MinLength: 1024, ExcludedPaths: []string{"/metrics"}}))
	r.GET("/big", func(c *gin.Context) { c.Data(http.StatusOK, "text/plain", big) })
	r.GET("/chunked", func(c *gin.Context) {
		c.Status(http.StatusOK)
		_, _ = c.Writer.Write(big[:1000])
		_, _ = c.Writer.Write(big[:1000])
		_, _ = c.Writer.Write([]byte("tail"))
	})
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", func(c *gin.Context) { c.Data(http.StatusOK, "text/plain", big) })

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept-Encoding", "gzip, br;q=1.0")
		r.ServeHTTP(w, req)
		return w
	}

	w := get("/big")
	require.Equal(t, "br", w.Header().Get("Content-Encoding"))
	plain, err := io.ReadAll(brotli.NewReader(w.Body))
	require.NoError(t, err)
	assert.Equal(t, big, plain)

	w = get("/chunked")
	require.Equal(t, "br", w.Header().Get("Content-Encoding"))
	plain, err = io.ReadAll(brotli.NewReader(w.Body))
	require.NoError(t, err)
	assert.Equal(t, 2004, len(plain))
	assert.True(t, bytes.HasSuffix(plain, []byte("tail")))

	w = get("/small")
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "ok", w.Body.String())

	w = get("/metrics")
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, len(big), w.Body.Len())
}
