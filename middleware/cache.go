package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"yatube/cache"
)

type cachedPage struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// bodyRecorder copies everything written to the client.
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CacheKey is the store key for a request URI under prefix. Pages rendered
// for a session are kept apart from anonymous ones.
func CacheKey(prefix, requestURI, session string) string {
	key := prefix + ":" + requestURI
	if session != "" {
		sum := sha256.Sum256([]byte(session))
		key += ":" + hex.EncodeToString(sum[:8])
	}
	return key
}

// CachePage serves GET responses from store while they are fresh and stores
// successful responses otherwise. Cache failures are logged and the request
// is served uncached.
func CachePage(store cache.Store, prefix string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		session, _ := c.Cookie(SessionCookie)
		key := CacheKey(prefix, c.Request.URL.RequestURI(), session)

		raw, ok, err := store.Get(ctx, key)
		if err != nil {
			logger.Warn("page cache read failed", "key", key, "error", err)
		} else if ok {
			var page cachedPage
			if err := json.Unmarshal(raw, &page); err == nil {
				c.Data(page.Status, page.ContentType, page.Body)
				c.Abort()
				return
			}
			logger.Warn("discarding unreadable cache entry", "key", key)
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		if rec.Status() != http.StatusOK {
			return
		}
		raw, err = json.Marshal(cachedPage{
			Status:      rec.Status(),
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		})
		if err != nil {
			logger.Warn("page cache encode failed", "key", key, "error", err)
			return
		}
		if err := store.Set(ctx, key, raw); err != nil {
			logger.Warn("page cache write failed", "key", key, "error", err)
		}
	}
}
