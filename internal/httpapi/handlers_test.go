package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/UkralStul/social-feed-service/internal/domain"
	"github.com/UkralStul/social-feed-service/internal/feed"
	"github.com/UkralStul/social-feed-service/internal/session"
	"github.com/UkralStul/social-feed-service/internal/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	srv   *httptest.Server
	auth  *session.Auth
	store *inmemory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := inmemory.New()
	ctx := context.Background()
	require.NoError(t, store.SaveUser(ctx, &domain.User{ID: "alice", Username: "alice", FullName: "Alice A", Interests: []string{"Tech"}}))
	require.NoError(t, store.SaveUser(ctx, &domain.User{ID: "bob", Username: "bob", FullName: "Bob B"}))

	auth := session.New("test-secret")
	svc := feed.New(store, feed.Options{})
	srv := httptest.NewServer(NewRouter(svc, auth))
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, auth: auth, store: store}
}

// do выполняет запрос от имени userID (пустой - анонимно) и декодирует JSON-ответ в out.
func (ts *testServer) do(t *testing.T, method, path, userID, body string, out any) int {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, reader)
	require.NoError(t, err)
	if userID != "" {
		token, err := ts.auth.Issue(userID, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/healthz", "", "", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestPostLifecycle(t *testing.T) {
	ts := newTestServer(t)

	var post domain.Post
	code := ts.do(t, http.MethodPost, "/posts", "alice", `{"post":"hello world"}`, &post)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "alice", post.UserID)
	assert.Equal(t, "tech", post.Category)

	var feedViews []domain.PostView
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/feed?mode=for-you", "bob", "", &feedViews))
	require.Len(t, feedViews, 1)
	assert.Equal(t, "hello world", feedViews[0].Text)
	assert.Equal(t, "Alice A", feedViews[0].User.FullName)

	var like feed.LikeResult
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/posts/"+post.ID+"/like", "bob", `{"postAuthorId":"alice"}`, &like))
	assert.True(t, like.Liked)

	var view domain.PostView
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/posts/"+post.ID, "bob", "", &view))
	assert.Equal(t, 1, view.TotalLikes)
	assert.True(t, view.HasLikePost)

	var comment domain.Comment
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/posts/"+post.ID+"/comments", "bob", `{"commentText":"nice"}`, &comment))

	var comments []domain.CommentView
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/posts/"+post.ID+"/comments", "bob", "", &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, "Bob B", comments[0].User.FullName)

	var notes []domain.Notification
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/notifications", "alice", "", &notes))
	assert.Len(t, notes, 2)

	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPatch, "/posts/"+post.ID, "bob", `{"post":"mine now"}`, nil))
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodPatch, "/posts/"+post.ID, "alice", `{"post":"edited"}`, nil))
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodPatch, "/comments/"+comment.ID, "bob", `{"commentText":"very nice"}`, nil))

	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, "/comments/"+comment.ID, "bob", "", nil))
	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, "/posts/"+post.ID, "alice", "", nil))

	var exists map[string]bool
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/posts/"+post.ID+"/exists", "alice", "", &exists))
	assert.False(t, exists["exists"])
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/posts/"+post.ID, "alice", "", nil))
}

func TestErrorStatuses(t *testing.T) {
	ts := newTestServer(t)

	var body map[string]string
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/feed", "", "", &body))
	assert.Equal(t, "User not authenticated", body["error"])

	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPost, "/posts", "ghost", `{"post":"hi"}`, nil))
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/posts", "alice", `{"post":""}`, nil))
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/posts", "alice", `not json`, nil))
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/posts/missing/like", "alice", "", nil))
}

func TestToggleLike_BodyOptional(t *testing.T) {
	store := inmemory.New()
	ctx := context.Background()
	require.NoError(t, store.SaveUser(ctx, &domain.User{ID: "alice", FullName: "Alice A"}))
	svc := feed.New(store, feed.Options{})
	post, err := svc.CreatePost(ctx, "alice", "hello")
	require.NoError(t, err)
	router := NewRouter(svc, session.New("test-secret"))

	for name, length := range map[string]int64{"no body": 0, "chunked empty body": -1} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/posts/"+post.ID+"/like", strings.NewReader(""))
			req.ContentLength = length
			req = req.WithContext(session.WithViewer(req.Context(), "alice"))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/posts/"+post.ID+"/like", strings.NewReader("{broken"))
	req = req.WithContext(session.WithViewer(req.Context(), "alice"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPost_MissingAuthorIs500(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.store.CreatePost(context.Background(), &domain.Post{ID: "p1", UserID: "deleted-user", Text: "x"})
	require.NoError(t, err)

	var exists map[string]bool
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/posts/p1/exists", "alice", "", &exists))
	assert.True(t, exists["exists"])
	assert.Equal(t, http.StatusInternalServerError, ts.do(t, http.MethodGet, "/posts/p1", "alice", "", nil))
}

func TestFeedRetrievalFailure(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.store.CreatePost(context.Background(), &domain.Post{ID: "p1", UserID: "deleted-user", Text: "x"})
	require.NoError(t, err)

	var body map[string]string
	assert.Equal(t, http.StatusInternalServerError, ts.do(t, http.MethodGet, "/feed", "alice", "", &body))
	assert.Equal(t, domain.ErrRetrieval.Error(), body["error"])
}

func TestCategory(t *testing.T) {
	ts := newTestServer(t)
	var body map[string]string
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/me/category", "alice", "", &body))
	assert.Equal(t, "Tech", body["category"])
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: empty", domain.ErrValidation), http.StatusBadRequest},
		{domain.ErrUnauthenticated, http.StatusUnauthorized},
		{fmt.Errorf("%w: bob", domain.ErrUserNotFound), http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("post: %w", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: %w", domain.ErrRetrieval, domain.ErrNotFound), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		code, _ := statusFor(c.err)
		assert.Equal(t, c.code, code, c.err.Error())
	}
}
