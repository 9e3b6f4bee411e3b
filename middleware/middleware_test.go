package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"yatube/cache"
	"yatube/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("unreachable")
}
func (brokenStore) Set(context.Context, string, []byte) error { return errors.New("unreachable") }
func (brokenStore) Clear(context.Context) error               { return errors.New("unreachable") }

// counterRouter serves a body that changes on every handler call.
func counterRouter(store cache.Store, status int) (*gin.Engine, *int) {
	calls := 0
	r := gin.New()
	r.Use(CachePage(store, "index_page", discard))
	handler := func(c *gin.Context) {
		calls++
		c.String(status, "call %d", calls)
	}
	r.GET("/", handler)
	r.POST("/", handler)
	return r, &calls
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCachePageReplaysResponse(t *testing.T) {
	store := cache.NewMemoryStore(time.Minute)
	r, calls := counterRouter(store, http.StatusOK)

	first := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	second := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))

	if *calls != 1 {
		t.Fatalf("handler called %d times, want 1", *calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("bodies differ: %q vs %q", first.Body.String(), second.Body.String())
	}
	if second.Header().Get("Content-Type") != "text/plain; charset=utf-8" {
		t.Errorf("Content-Type = %q", second.Header().Get("Content-Type"))
	}

	// another page number is another key
	serve(r, httptest.NewRequest(http.MethodGet, "/?page=2", nil))
	if *calls != 2 {
		t.Errorf("handler called %d times, want 2", *calls)
	}

	store.Clear(context.Background())
	third := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	if third.Body.String() != "call 3" {
		t.Errorf("after Clear body = %q, want a fresh render", third.Body.String())
	}
}

func TestCachePageSkipsErrorsAndPosts(t *testing.T) {
	store := cache.NewMemoryStore(time.Minute)
	r, calls := counterRouter(store, http.StatusInternalServerError)

	serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	if *calls != 2 {
		t.Errorf("error responses were cached: %d calls", *calls)
	}

	ok, okCalls := counterRouter(store, http.StatusOK)
	serve(ok, httptest.NewRequest(http.MethodPost, "/", nil))
	serve(ok, httptest.NewRequest(http.MethodPost, "/", nil))
	if *okCalls != 2 {
		t.Errorf("POST responses were cached: %d calls", *okCalls)
	}
}

func TestCachePageSurvivesBrokenStore(t *testing.T) {
	r, calls := counterRouter(brokenStore{}, http.StatusOK)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || w.Body.String() != "call 1" {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
	serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	if *calls != 2 {
		t.Errorf("calls = %d, want 2", *calls)
	}
}

func TestCacheKeySeparatesSessions(t *testing.T) {
	anon := CacheKey("index_page", "/?page=2", "")
	if anon != "index_page:/?page=2" {
		t.Errorf("anonymous key = %q", anon)
	}
	a := CacheKey("index_page", "/", "token-a")
	b := CacheKey("index_page", "/", "token-b")
	if a == b || a == CacheKey("index_page", "/", "") {
		t.Errorf("session keys collide: %q %q", a, b)
	}
}

type fakeSessions map[string]*models.User

func (f fakeSessions) UserFromToken(_ context.Context, token string) (*models.User, error) {
	if user, ok := f[token]; ok {
		return user, nil
	}
	return nil, errors.New("bad token")
}

func authRouter() *gin.Engine {
	r := gin.New()
	r.Use(Authenticate(fakeSessions{"good": {ID: 1, Username: "leo"}}))
	r.GET("/whoami", func(c *gin.Context) {
		if user := CurrentUser(c); user != nil {
			c.String(http.StatusOK, user.Username)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	r.GET("/private/", LoginRequired(), func(c *gin.Context) {
		c.String(http.StatusOK, "secret")
	})
	return r
}

func TestAuthenticate(t *testing.T) {
	r := authRouter()

	tests := []struct {
		cookie string
		want   string
	}{
		{"", "anonymous"},
		{"good", "leo"},
		{"forged", "anonymous"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if tt.cookie != "" {
			req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
		}
		w := serve(r, req)
		if w.Body.String() != tt.want {
			t.Errorf("cookie %q: got %q, want %q", tt.cookie, w.Body.String(), tt.want)
		}
	}
}

func TestLoginRequired(t *testing.T) {
	r := authRouter()

	w := serve(r, httptest.NewRequest(http.MethodGet, "/private/?x=1", nil))
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/auth/login/?next=%2Fprivate%2F%3Fx%3D1" {
		t.Errorf("Location = %q", loc)
	}

	req := httptest.NewRequest(http.MethodGet, "/private/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"})
	if w := serve(r, req); w.Body.String() != "secret" {
		t.Errorf("logged in user got %d %q", w.Code, w.Body.String())
	}
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.POST("/", RateLimit(60, 2), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, serve(r, httptest.NewRequest(http.MethodPost, "/", nil)).Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	rl.GetLimiter("10.0.0.1")
	rl.visitors["10.0.0.1"].lastSeen = time.Now().Add(-time.Hour)
	rl.GetLimiter("10.0.0.2")

	rl.CleanupLimiters(10 * time.Minute)
	if _, ok := rl.visitors["10.0.0.1"]; ok {
		t.Error("idle visitor kept")
	}
	if _, ok := rl.visitors["10.0.0.2"]; !ok {
		t.Error("active visitor dropped")
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		if w.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
}
