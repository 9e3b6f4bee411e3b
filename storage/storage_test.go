package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestNewImageKey(t *testing.T) {
	a := NewImageKey(".png")
	b := NewImageKey(".png")
	if a == b {
		t.Fatalf("keys should be unique, both %q", a)
	}
	if !strings.HasPrefix(a, "posts/") || !strings.HasSuffix(a, ".png") {
		t.Errorf("NewImageKey() = %q", a)
	}
}

func TestLocalStoreSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/media")
	if err != nil {
		t.Fatalf("NewLocalStore() error: %v", err)
	}

	if err := store.Save(context.Background(), "posts/a.gif", "image/gif", []byte("GIF89a")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "posts", "a.gif"))
	if err != nil {
		t.Fatalf("reading saved image: %v", err)
	}
	if string(got) != "GIF89a" {
		t.Errorf("saved %q, want %q", got, "GIF89a")
	}
	if url := store.URL("posts/a.gif"); url != "/media/posts/a.gif" {
		t.Errorf("URL() = %q, want /media/posts/a.gif", url)
	}
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/media/")
	if err != nil {
		t.Fatalf("NewLocalStore() error: %v", err)
	}
	for _, key := range []string{"../evil.png", "/etc/passwd", ""} {
		if err := store.Save(context.Background(), key, "image/png", []byte("x")); err == nil {
			t.Errorf("Save(%q) succeeded, want error", key)
		}
	}
}

func TestS3StoreSave(t *testing.T) {
	var (
		mu          sync.Mutex
		gotMethod   string
		gotPath     string
		gotBody     string
		contentType string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotBody = string(body)
		contentType = r.Header.Get("Content-Type")
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	store, err := NewS3Store(context.Background(), "images", "us-east-1", srv.URL, "")
	if err != nil {
		t.Fatalf("NewS3Store() error: %v", err)
	}
	if err := store.Save(context.Background(), "posts/b.png", "image/png", []byte("pixels")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotMethod != http.MethodPut {
		t.Errorf("method = %s, want PUT", gotMethod)
	}
	if gotPath != "/images/posts/b.png" {
		t.Errorf("path = %s, want /images/posts/b.png", gotPath)
	}
	if !strings.Contains(gotBody, "pixels") {
		t.Errorf("body = %q, want it to carry %q", gotBody, "pixels")
	}
	if contentType != "image/png" {
		t.Errorf("content type = %q, want image/png", contentType)
	}
	if url := store.URL("posts/b.png"); url != srv.URL+"/images/posts/b.png" {
		t.Errorf("URL() = %q", url)
	}
}
