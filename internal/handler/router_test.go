package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"folio/internal/app/auth"
	"folio/internal/app/chat"
	"folio/internal/app/comments"
	"folio/internal/app/live"
	"folio/internal/app/storage"
	"folio/internal/app/user"
	"folio/internal/configs"
	"folio/internal/pkg/errs"
	"folio/internal/pkg/metrics"
)

type authStore struct {
	mu       sync.Mutex
	accounts map[string]*auth.Account
	sessions map[string]string
	revoked  map[string]bool
	nextID   int
}

func newAuthStore() *authStore {
	return &authStore{
		accounts: map[string]*auth.Account{},
		sessions: map[string]string{},
		revoked:  map[string]bool{},
	}
}

func (s *authStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *authStore) CreatePasswordAccount(_ context.Context, email, hash string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[email]; ok {
		return nil, auth.ErrDuplicate
	}
	a := &auth.Account{User: user.User{ID: s.id("user"), Email: email, Provider: user.ProviderPassword}, PasswordHash: hash}
	s.accounts[email] = a
	u := a.User
	return &u, nil
}

func (s *authStore) AccountByEmail(_ context.Context, email string) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[email]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *authStore) UpsertFederated(context.Context, string, string, string) (*user.User, error) {
	return nil, auth.ErrNotFound
}

func (s *authStore) TouchLogin(context.Context, string) error { return nil }

func (s *authStore) CreateSession(_ context.Context, userID string, _ time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id("session")
	s.sessions[id] = userID
	return id, nil
}

func (s *authStore) ActiveSessionUser(_ context.Context, sessionID string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.sessions[sessionID]
	if !ok || s.revoked[sessionID] {
		return nil, auth.ErrNotFound
	}
	for _, a := range s.accounts {
		if a.User.ID == userID {
			u := a.User
			return &u, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (s *authStore) RevokeSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok || s.revoked[sessionID] {
		return auth.ErrNotFound
	}
	s.revoked[sessionID] = true
	return nil
}

type commentStore struct {
	mu     sync.Mutex
	list   []comments.Comment
	nextID int
}

func (s *commentStore) Create(_ context.Context, text string, author *user.User) (*comments.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c := comments.Comment{
		ID:          fmt.Sprintf("c-%d", s.nextID),
		Text:        text,
		AuthorID:    author.ID,
		AuthorName:  author.Name(),
		AuthorEmail: author.Email,
		CreatedAt:   time.Now(),
		LikedBy:     []string{},
	}
	s.list = append([]comments.Comment{c}, s.list...)
	return &c, nil
}

func (s *commentStore) List(_ context.Context, limit int) ([]comments.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.list)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *commentStore) ToggleLike(_ context.Context, commentID, userID string) (*comments.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.list {
		c := &s.list[i]
		if c.ID != commentID {
			continue
		}
		if idx := slices.Index(c.LikedBy, userID); idx >= 0 {
			c.LikedBy = slices.Delete(c.LikedBy, idx, idx+1)
		} else {
			c.LikedBy = append(c.LikedBy, userID)
		}
		c.Likes = len(c.LikedBy)
		cp := *c
		cp.LikedBy = slices.Clone(c.LikedBy)
		return &cp, nil
	}
	return nil, comments.ErrNotFound
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	gateway := auth.NewGateway(newAuthStore(), auth.Options{
		JWTSecret:  "handler-test-secret",
		BcryptCost: bcrypt.MinCost,
	})
	board := comments.NewBoard(&commentStore{}, comments.Options{})
	responder := chat.NewResponder(nil, chat.Options{Enabled: true})
	t.Cleanup(responder.Close)

	hub := live.NewHub(board, gateway, responder, nil)
	hub.Start(context.Background())
	t.Cleanup(hub.Shutdown)

	return Router(&AppDeps{
		Config: &configs.AppConfig{
			Environment: "development",
			Google:      configs.GoogleConfig{AfterSignInURL: "/"},
		},
		Auth:     gateway,
		Comments: board,
		Chat:     responder,
		Hub:      hub,
		Media:    storage.NewMedia(nil, ""),
		Metrics:  metrics.New("folio_handler_test"),
		Owner:    "Alex Zhang",
	})
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, reader)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func signUp(t *testing.T, h http.Handler, email string) string {
	t.Helper()

	rec := do(t, h, http.MethodPost, "/api/auth/signup", "", SignUpInput{
		Email: email, Password: "correct horse", ConfirmPassword: "correct horse",
	})
	var result auth.Result
	env := decode(t, rec, &result)
	require.Equal(t, 0, env.Code, env.Message)
	require.NotEmpty(t, result.Token)
	return result.Token
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/health", "", nil)

	var data map[string]any
	env := decode(t, rec, &data)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, env.Code)
	assert.Equal(t, "ok", data["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t)
	do(t, h, http.MethodGet, "/health", "", nil)

	rec := do(t, h, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "folio_handler_test_http_requests_total")
}

func TestSignUpThenMe(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/auth/signup", "", SignUpInput{
		Email: "ada@example.com", Password: "correct horse", ConfirmPassword: "correct horse",
	})
	var result auth.Result
	env := decode(t, rec, &result)
	require.Equal(t, 0, env.Code)
	assert.Equal(t, auth.NoticeSignedUp, env.Message)

	var me struct {
		SignedIn bool       `json:"signedIn"`
		CanPost  bool       `json:"canPost"`
		User     *user.User `json:"user"`
	}
	decode(t, do(t, h, http.MethodGet, "/api/auth/me", result.Token, nil), &me)
	assert.True(t, me.SignedIn)
	assert.True(t, me.CanPost)
	require.NotNil(t, me.User)
	assert.Equal(t, "ada@example.com", me.User.Email)
}

func TestSignUpPasswordMismatch(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/auth/signup", "", SignUpInput{
		Email: "ada@example.com", Password: "correct horse", ConfirmPassword: "correct hose",
	})

	env := decode(t, rec, nil)
	assert.Equal(t, errs.ErrPasswordMismatch, env.Code)
	assert.Equal(t, "Passwords do not match", env.Message)
}

func TestSignInWrongPassword(t *testing.T) {
	h := newTestRouter(t)
	signUp(t, h, "ada@example.com")

	env := decode(t, do(t, h, http.MethodPost, "/api/auth/signin", "", SignInInput{
		Email: "ada@example.com", Password: "wrong horse",
	}), nil)
	assert.Equal(t, errs.ErrWrongPassword, env.Code)

	var result auth.Result
	env = decode(t, do(t, h, http.MethodPost, "/api/auth/signin", "", SignInInput{
		Email: "ada@example.com", Password: "correct horse",
	}), &result)
	assert.Equal(t, auth.NoticeSignedIn, env.Message)
	assert.NotEmpty(t, result.Token)
}

func TestSignOutEndsSession(t *testing.T) {
	h := newTestRouter(t)
	token := signUp(t, h, "ada@example.com")

	env := decode(t, do(t, h, http.MethodPost, "/api/auth/signout", token, nil), nil)
	assert.Equal(t, auth.NoticeSignedOut, env.Message)

	var me struct {
		SignedIn bool `json:"signedIn"`
	}
	decode(t, do(t, h, http.MethodGet, "/api/auth/me", token, nil), &me)
	assert.False(t, me.SignedIn)

	rec := do(t, h, http.MethodPost, "/api/auth/signout", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCommentWritesRequireSignIn(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/comments", "", CreateCommentInput{Text: "hello"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, errs.ErrUnauthorized, env.Code)
	assert.Equal(t, "Please sign in to continue", env.Message)
}

func TestPostListAndLikeComment(t *testing.T) {
	h := newTestRouter(t)
	token := signUp(t, h, "ada@example.com")

	var created comments.View
	env := decode(t, do(t, h, http.MethodPost, "/api/comments", token, CreateCommentInput{Text: "  Great journey!  "}), &created)
	require.Equal(t, 0, env.Code, env.Message)
	assert.Equal(t, "Great journey!", created.Text)
	assert.Equal(t, "ada", created.AuthorName)
	assert.Equal(t, 0, created.Likes)

	var list struct {
		Comments []comments.View `json:"comments"`
	}
	decode(t, do(t, h, http.MethodGet, "/api/comments", "", nil), &list)
	require.Len(t, list.Comments, 1)
	assert.Equal(t, "Just now", list.Comments[0].TimeAgo)

	var liked comments.View
	decode(t, do(t, h, http.MethodPost, "/api/comments/"+created.ID+"/like", token, nil), &liked)
	assert.Equal(t, 1, liked.Likes)
	assert.True(t, liked.LikedByMe)

	var unliked comments.View
	decode(t, do(t, h, http.MethodPost, "/api/comments/"+created.ID+"/like", token, nil), &unliked)
	assert.Equal(t, 0, unliked.Likes)
	assert.False(t, unliked.LikedByMe)
}

func TestEmptyCommentIsRejected(t *testing.T) {
	h := newTestRouter(t)
	token := signUp(t, h, "ada@example.com")

	env := decode(t, do(t, h, http.MethodPost, "/api/comments", token, CreateCommentInput{Text: "   "}), nil)
	assert.Equal(t, errs.ErrEmptyContent, env.Code)

	var list struct {
		Comments []comments.View `json:"comments"`
	}
	decode(t, do(t, h, http.MethodGet, "/api/comments", "", nil), &list)
	assert.Empty(t, list.Comments)
}

func TestCommentsHTMLEscapesMarkup(t *testing.T) {
	h := newTestRouter(t)
	token := signUp(t, h, "ada@example.com")
	decode(t, do(t, h, http.MethodPost, "/api/comments", token, CreateCommentInput{Text: "<img src=x onerror=alert(1)>"}), nil)

	rec := do(t, h, http.MethodGet, "/api/comments/html", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), "&lt;img src=x onerror=alert(1)&gt;")
	assert.NotContains(t, rec.Body.String(), "<img src=x")
	assert.Contains(t, rec.Body.String(), "Sign in to like")
}

func TestCommentsHTMLEmptyState(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/comments/html", "", nil)

	assert.Contains(t, rec.Body.String(), "No comments yet")
	assert.Contains(t, rec.Body.String(), "Alex Zhang")
}

func TestChatReplyAndHistory(t *testing.T) {
	h := newTestRouter(t)
	token := signUp(t, h, "ada@example.com")

	var reply chat.Reply
	env := decode(t, do(t, h, http.MethodPost, "/api/chat/messages", token, ChatMessageInput{Message: "What was TikTok like?"}), &reply)
	require.Equal(t, 0, env.Code, env.Message)
	assert.Equal(t, chat.SourceFallback, reply.Source)
	assert.Contains(t, reply.Content, "TikTok")

	var history struct {
		Enabled  bool           `json:"enabled"`
		Messages []chat.Message `json:"messages"`
	}
	decode(t, do(t, h, http.MethodGet, "/api/chat/history", token, nil), &history)
	assert.True(t, history.Enabled)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, chat.RoleUser, history.Messages[0].Role)
	assert.Equal(t, chat.RoleAssistant, history.Messages[1].Role)
}

func TestChatRequiresSignIn(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/chat/messages", "", ChatMessageInput{Message: "hi"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMusicWithoutStorage(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/media/music", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, errs.ErrMediaUnavailable, env.Code)
	assert.Equal(t, "Media is not configured.", env.Message)
}

func TestGoogleSignInUnavailable(t *testing.T) {
	h := newTestRouter(t)

	env := decode(t, do(t, h, http.MethodGet, "/api/auth/google", "", nil), nil)
	assert.Equal(t, errs.ErrFederatedUnavailable, env.Code)

	rec := do(t, h, http.MethodGet, "/api/auth/google/callback?code=abc&state=xyz", "", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, fmt.Sprintf("/#authError=%d&message=", errs.ErrFederatedUnavailable),
		strings.SplitAfter(rec.Header().Get("Location"), "message=")[0])
}

func TestUnknownRoute(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/nope", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
