package routes

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"yatube/cache"
	"yatube/config"
	"yatube/middleware"
	"yatube/models"
	"yatube/repositories"
	"yatube/services"
	"yatube/storage"
	"yatube/testutil"
)

type testServer struct {
	t        *testing.T
	db       *gorm.DB
	router   *gin.Engine
	cache    *cache.MemoryStore
	mediaDir string
	auth     *services.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	mediaDir := t.TempDir()
	images, err := storage.NewLocalStore(mediaDir, "/media/")
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.Defaults()
	cfg.JWTSecret = "test-secret"
	cfg.RateLimitPerMinute = 100000
	cfg.RateLimitBurst = 100000

	s := &testServer{
		t:        t,
		db:       db,
		router:   gin.New(),
		cache:    cache.NewMemoryStore(20 * time.Second),
		mediaDir: mediaDir,
		auth:     services.NewAuthService(repositories.NewUserRepository(db), cfg.JWTSecret, cfg.SessionTTL),
	}
	s.router.Use(gin.Recovery())

	err = SetupRoutes(s.router, db, cfg, Options{
		PageCache: s.cache,
		Images:    images,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("SetupRoutes: %v", err)
	}
	return s
}

func (s *testServer) do(req *http.Request, user *models.User) *httptest.ResponseRecorder {
	s.t.Helper()
	if user != nil {
		token, err := s.auth.IssueToken(user)
		if err != nil {
			s.t.Fatal(err)
		}
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) get(path string, user *models.User) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil), user)
}

func (s *testServer) postForm(path string, values url.Values, user *models.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req, user)
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d; body:\n%s", w.Code, want, w.Body.String())
	}
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	assertStatus(t, w, http.StatusFound)
	if got := w.Header().Get("Location"); got != location {
		t.Fatalf("Location = %q, want %q", got, location)
	}
}

func TestPublicPages(t *testing.T) {
	s := newTestServer(t)
	leo := testutil.CreateUser(t, s.db, "leo")
	cats := testutil.CreateGroup(t, s.db, "cats")
	post := testutil.CreatePost(t, s.db, leo, cats, "Cats are liquid")

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/", http.StatusOK, "Cats are liquid"},
		{"/group/cats/", http.StatusOK, "Group cats"},
		{"/profile/leo/", http.StatusOK, "Total posts: 1"},
		{fmt.Sprintf("/posts/%d/", post.ID), http.StatusOK, "Posts by this author: 1"},
		{"/group/dogs/", http.StatusNotFound, "Page not found"},
		{"/profile/nobody/", http.StatusNotFound, "Page not found"},
		{"/posts/9999/", http.StatusNotFound, "Page not found"},
		{"/posts/abc/", http.StatusNotFound, "Page not found"},
		{"/unexisting_page/", http.StatusNotFound, "Page not found"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := s.get(tt.path, nil)
			assertStatus(t, w, tt.status)
			if !strings.Contains(w.Body.String(), tt.body) {
				t.Errorf("body does not contain %q:\n%s", tt.body, w.Body.String())
			}
		})
	}
}

func TestListingsPaginate(t *testing.T) {
	s := newTestServer(t)
	leo := testutil.CreateUser(t, s.db, "leo")
	cats := testutil.CreateGroup(t, s.db, "cats")
	testutil.CreatePosts(t, s.db, leo, cats, 13)

	for _, path := range []string{"/", "/group/cats/", "/profile/leo/"} {
		t.Run(path, func(t *testing.T) {
			first := s.get(path, nil)
			assertStatus(t, first, http.StatusOK)
			if n := strings.Count(first.Body.String(), "<article>"); n != 10 {
				t.Errorf("page 1 shows %d posts, want 10", n)
			}

			second := s.get(path+"?page=2", nil)
			assertStatus(t, second, http.StatusOK)
			if n := strings.Count(second.Body.String(), "<article>"); n != 3 {
				t.Errorf("page 2 shows %d posts, want 3", n)
			}
		})
	}
}

func TestAuthRequiredPagesRedirectToLogin(t *testing.T) {
	s := newTestServer(t)
	leo := testutil.CreateUser(t, s.db, "leo")
	post := testutil.CreatePost(t, s.db, leo, nil, "text")

	edit := fmt.Sprintf("/posts/%d/edit/", post.ID)
	comment := fmt.Sprintf("/posts/%d/comment/", post.ID)

	assertRedirect(t, s.get("/create/", nil), "/auth/login/?next="+url.QueryEscape("/create/"))
	assertRedirect(t, s.get(edit, nil), "/auth/login/?next="+url.QueryEscape(edit))
	assertRedirect(t, s.postForm(comment, url.Values{"text": {"hi"}}, nil), "/auth/login/?next="+url.QueryEscape(comment))

	var count int64
	s.db.Model(&models.Comment{}).Count(&count)
	if count != 0 {
		t.Errorf("anonymous comment was stored")
	}
}

func TestCreatePost(t *testing.T) {
	s := newTestServer(t)
	leo := testutil.CreateUser(t, s.db, "leo")
	cats := testutil.CreateGroup(t, s.db, "cats")

	w := s.get("/create/", leo)
	assertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), `name="text"`) || !strings.Contains(w.Body.String(), "Group cats") {
		t.Fatalf("create form is missing fields:\n%s", w.Body.String())
	}

	w = s.postForm("/create/", url.Values{"text": {"Brand new post"}, "group": {fmt.Sprint(cats.ID)}}, leo)
	assertRedirect(t, w, "/profile/leo/")

	var post models.Post
	if err := s.db.Where("text = ?", "Brand new post").First(&post).Error; err != nil {
		t.Fatalf("post not stored: %v", err)
	}
	if post.AuthorID != leo.ID || post.GroupID == nil || *post.GroupID != cats.ID {
		t.Errorf("stored post = %+v", post)
	}
}

func TestCreatePostWithImage(t *testing.T) {
	s := newTestServer(t)
	leo := testutil.CreateUser(t, s.db, "leo")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("text", "Post with a picture")
	part, _ := mw.CreateFormFile("image", "small.gif")
	part.Write(smallGIF)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/create/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	assertRedirect(t, s.do(req, leo), "/profile/leo/")

	var post models.Post
	if err := s.db.Where("text = ?", "Post with a picture").First(&post).Error; err != nil {
		t.Fatalf("post not stored: %v", err)
	}
	if post.Image == "" {
		t.Fatal("image key not stored")
	}
	if _, err := os.Stat(filepath.Join(s.mediaDir, filepath.FromSlash(post.Image))); err != nil {
		t.Errorf("image file missing: %v", err)
	}

	w := s.get(fmt.Sprintf("/posts/%d/", post.ID), nil)
	if !strings.Contains(w.Body.String(), "/media/"+post.Image) {
		t.Errorf("detail page does not show the image")
	}
	assertStatus(t, s.get("/media/"+post.Image, nil), http.StatusOK)
}

func TestCreatePostInvalid(t *testing.T) {
	s := newTestServer(t)
	leo := testutil.CreateUser(t, s.db, "leo")

	w := s.postForm("/create/", url.Values{"text": {"   "}, "group": {"999"}}, leo)
	assertStatus(t, w, http.StatusOK)
	body := w.Body.String()
	if !strings.Contains(body, "This field is required.") {
		t.Errorf("text error not shown")
	}
	if !strings.Contains(body, "Select a valid choice.") {
		t.Errorf("group error not shown")
	}

	var count int64
	s.db.Model(&models.Post{}).Count(&count)
	if count != 0 {
		t.Errorf("%d posts stored, want 0", count)
	}
}

func TestEditPost(t *testing.T) {
	s := newTestServer(t)
	leo := testutil.CreateUser(t, s.db, "leo")
	anna := testutil.CreateUser(t, s.db, "anna")
	post := testutil.CreatePost(t, s.db, leo, nil, "Original text")
	editURL := fmt.Sprintf("/posts/%d/edit/", post.ID)
	detailURL := fmt.Sprintf("/posts/%d/", post.ID)

	w := s.get(editURL, leo)
	assertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "Original text") {
		t.Errorf("edit form is not pre-populated")
	}

	assertRedirect(t, s.get(editURL, anna), detailURL)
	assertRedirect(t, s.postForm(editURL, url.Values{"text": {"Hijacked"}}, anna), detailURL)

	var stored models.Post
	s.db.First(&stored, post.ID)
	if stored.Text != "Original text" {
		t.Fatalf("non-author changed the post to %q", stored.Text)
	}

	assertRedirect(t, s.postForm(editURL, url.Values{"text": {"Edited text"}}, leo), detailURL)
	s.db.First(&stored, post.ID)
	if stored.Text != "Edited text" || stored.AuthorID != leo.ID {
		t.Errorf("after edit = %+v", stored)
	}

	w = s.postForm(editURL, url.Values{"text": {""}}, leo)
	assertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "This field is required.") {
		t.Errorf("validation error not shown on edit")
	}

	assertStatus(t, s.get("/posts/9999/edit/", leo), http.StatusNotFound)
}

func TestEditPostMovesGroup(t *testing.T) {
	s := newTestServer(t)
	leo := testutil.CreateUser(t, s.db, "leo")
	cats := testutil.CreateGroup(t, s.db, "cats")
	dogs := testutil.CreateGroup(t, s.db, "dogs")
	post := testutil.CreatePost(t, s.db, leo, cats, "About cats")
	editURL := fmt.Sprintf("/posts/%d/edit/", post.ID)

	var before models.Post
	s.db.First(&before, post.ID)
	var countBefore int64
	s.db.Model(&models.Post{}).Count(&countBefore)

	values := url.Values{"text": {"About dogs"}, "group": {fmt.Sprint(dogs.ID)}}
	assertRedirect(t, s.postForm(editURL, values, leo), fmt.Sprintf("/posts/%d/", post.ID))

	var countAfter int64
	s.db.Model(&models.Post{}).Count(&countAfter)
	if countAfter != countBefore {
		t.Errorf("post count = %d after edit, want %d", countAfter, countBefore)
	}

	var after models.Post
	s.db.First(&after, post.ID)
	if after.Text != "About dogs" {
		t.Errorf("text = %q, want %q", after.Text, "About dogs")
	}
	if after.GroupID == nil || *after.GroupID != dogs.ID {
		t.Errorf("group = %v, want %d", after.GroupID, dogs.ID)
	}
	if after.AuthorID != leo.ID {
		t.Errorf("author = %d, want %d", after.AuthorID, leo.ID)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Errorf("created changed from %v to %v", before.CreatedAt, after.CreatedAt)
	}

	if body := s.get("/group/cats/", nil).Body.String(); strings.Contains(body, "About dogs") || strings.Contains(body, "About cats") {
		t.Errorf("old group still lists the post:\n%s", body)
	}
	if body := s.get("/group/dogs/", nil).Body.String(); !strings.Contains(body, "About dogs") {
		t.Errorf("new group does not list the post")
	}
}

func TestEditPostUnreadableFormFromNonAuthor(t *testing.T) {
	s := newTestServer(t)
	leo := testutil.CreateUser(t, s.db, "leo")
	anna := testutil.CreateUser(t, s.db, "anna")
	post := testutil.CreatePost(t, s.db, leo, nil, "Original text")
	editURL := fmt.Sprintf("/posts/%d/edit/", post.ID)

	brokenForm := func(user *models.User) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, editURL, strings.NewReader("not multipart"))
		req.Header.Set("Content-Type", "multipart/form-data")
		return s.do(req, user)
	}

	assertRedirect(t, brokenForm(anna), fmt.Sprintf("/posts/%d/", post.ID))
	assertStatus(t, brokenForm(leo), http.StatusBadRequest)
}

func TestAddComment(t *testing.T) {
	s := newTestServer(t)
	leo := testutil.CreateUser(t, s.db, "leo")
	anna := testutil.CreateUser(t, s.db, "anna")
	post := testutil.CreatePost(t, s.db, leo, nil, "text")
	commentURL := fmt.Sprintf("/posts/%d/comment/", post.ID)
	detailURL := fmt.Sprintf("/posts/%d/", post.ID)

	assertRedirect(t, s.postForm(commentURL, url.Values{"text": {"Lovely prose"}}, anna), detailURL)
	w := s.get(detailURL, nil)
	if !strings.Contains(w.Body.String(), "Lovely prose") {
		t.Errorf("comment not shown on detail page")
	}

	// invalid comments are dropped but still redirect
	assertRedirect(t, s.postForm(commentURL, url.Values{"text": {"  "}}, anna), detailURL)
	assertRedirect(t, s.postForm(commentURL, url.Values{"text": {strings.Repeat("a", 201)}}, anna), detailURL)

	var count int64
	s.db.Model(&models.Comment{}).Count(&count)
	if count != 1 {
		t.Errorf("%d comments stored, want 1", count)
	}

	assertStatus(t, s.postForm("/posts/9999/comment/", url.Values{"text": {"hi"}}, anna), http.StatusNotFound)
}

func TestIndexIsCached(t *testing.T) {
	s := newTestServer(t)
	leo := testutil.CreateUser(t, s.db, "leo")
	testutil.CreatePost(t, s.db, leo, nil, "First post")

	before := s.get("/", nil)
	assertStatus(t, before, http.StatusOK)

	// rows removed behind the cache's back
	if err := s.db.Where("1 = 1").Delete(&models.Post{}).Error; err != nil {
		t.Fatal(err)
	}

	cached := s.get("/", nil)
	if !bytes.Equal(before.Body.Bytes(), cached.Body.Bytes()) {
		t.Fatal("cached index differs from the first response")
	}
	if cached.Header().Get("Content-Type") != before.Header().Get("Content-Type") {
		t.Errorf("content type changed: %q", cached.Header().Get("Content-Type"))
	}

	if err := s.cache.Clear(context.Background()); err != nil {
		t.Fatal(err)
	}
	fresh := s.get("/", nil)
	if strings.Contains(fresh.Body.String(), "First post") {
		t.Error("index still stale after clearing the cache")
	}
}

func TestSignupLoginLogout(t *testing.T) {
	s := newTestServer(t)

	w := s.postForm("/auth/signup/", url.Values{
		"first_name": {"Anna"},
		"username":   {"anna"},
		"email":      {"anna@example.com"},
		"password1":  {"Karenina1877"},
		"password2":  {"Karenina1877"},
	}, nil)
	assertRedirect(t, w, "/")
	if !hasSessionCookie(w) {
		t.Error("signup did not start a session")
	}

	w = s.postForm("/auth/signup/", url.Values{
		"username":  {"anna"},
		"password1": {"Karenina1877"},
		"password2": {"Karenina1877"},
	}, nil)
	assertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "already exists") {
		t.Error("duplicate username accepted")
	}

	w = s.postForm("/auth/login/", url.Values{"username": {"anna"}, "password": {"wrong"}}, nil)
	assertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "Please enter a correct username and password.") {
		t.Error("bad login error not shown")
	}

	w = s.postForm("/auth/login/", url.Values{"username": {"anna"}, "password": {"Karenina1877"}, "next": {"/create/"}}, nil)
	assertRedirect(t, w, "/create/")
	if !hasSessionCookie(w) {
		t.Error("login did not set the session cookie")
	}

	w = s.postForm("/auth/login/", url.Values{"username": {"anna"}, "password": {"Karenina1877"}, "next": {"//evil.example"}}, nil)
	assertRedirect(t, w, "/")

	w = s.postForm("/auth/logout/", nil, nil)
	assertRedirect(t, w, "/")
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie && c.MaxAge >= 0 {
			t.Errorf("logout left the session cookie: %+v", c)
		}
	}
}

func TestLoginPageKeepsNext(t *testing.T) {
	s := newTestServer(t)

	w := s.get("/auth/login/?next=%2Fcreate%2F", nil)
	assertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), `value="/create/"`) {
		t.Errorf("next not carried into the form:\n%s", w.Body.String())
	}
}

func hasSessionCookie(w *httptest.ResponseRecorder) bool {
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie && c.Value != "" {
			return true
		}
	}
	return false
}

// smallGIF is a 2x1 GIF image.
var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}
