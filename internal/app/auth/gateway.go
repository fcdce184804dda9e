/*
Package auth is the identity gateway for folio.

It signs visitors in (email and password, or Google), issues session-bound JWTs, resolves
the current user for a request and is the single source of auth-state change notifications:
every dependent that cares about sign-in or sign-out calls Subscribe instead of polling.
*/
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"folio/internal/app/user"
	"folio/internal/pkg/auth/jwt"
	"folio/internal/pkg/errs"
	"folio/internal/pkg/limiter"
	"folio/internal/pkg/logx"
	"folio/internal/pkg/metrics"
	"folio/internal/pkg/req"
	"folio/internal/pkg/resp"
)

const (
	NoticeSignedIn       = "Successfully signed in!"
	NoticeSignedUp       = "Account created successfully!"
	NoticeSignedInGoogle = "Successfully signed in with Google!"
	NoticeSignedOut      = "Successfully signed out!"

	MinPasswordLength = 6

	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72

	// wrong-password budget per email: a burst of 5, then one more attempt per minute.
	failedSignInBurst = 5
	failedSignInEvery = time.Minute
)

// EventKind names an auth-state transition.
type EventKind string

const (
	SignedIn  EventKind = "signed_in"
	SignedOut EventKind = "signed_out"
)

// Event is delivered to every subscriber when a session signs in or out.
type Event struct {
	Kind      EventKind
	SessionID string
	User      *user.User
}

// Result is what a successful sign-in or sign-up returns to the client.
type Result struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      *user.User `json:"user"`
	Notice    string     `json:"-"`
}

// FederatedCallback carries the query of the provider redirect plus the state the browser was issued.
type FederatedCallback struct {
	Code          string
	State         string
	ExpectedState string
	Error         string
}

// Options configures a Gateway.
type Options struct {
	JWTSecret  string
	SessionTTL time.Duration
	BcryptCost int
	Google     *GoogleProvider
	Metrics    *metrics.Collector
	Now        func() time.Time
}

// Gateway is the process-wide auth service.
type Gateway struct {
	store   Store
	secret  string
	ttl     time.Duration
	cost    int
	google  *GoogleProvider
	metrics *metrics.Collector
	now     func() time.Time

	failures *limiter.IPRateLimiter

	mu        sync.RWMutex
	listeners map[int]func(Event)
	nextID    int

	logger zerolog.Logger
}

// NewGateway builds a Gateway over store.
func NewGateway(store Store, opts Options) *Gateway {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = jwt.SessionExpiration
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Gateway{
		store:     store,
		secret:    opts.JWTSecret,
		ttl:       opts.SessionTTL,
		cost:      opts.BcryptCost,
		google:    opts.Google,
		metrics:   opts.Metrics,
		now:       opts.Now,
		failures:  limiter.NewIPRateLimiter(rate.Every(failedSignInEvery), failedSignInBurst),
		listeners: make(map[int]func(Event)),
		logger:    logx.Component("auth"),
	}
}

// FederatedEnabled reports whether Google sign-in is configured.
func (g *Gateway) FederatedEnabled() bool {
	return g.google != nil
}

// SignUp creates a password account and signs it in.
// Local checks run first and never reach the store.
func (g *Gateway) SignUp(ctx context.Context, email, password, confirm string) (*Result, error) {
	email = normalizeEmail(email)

	if password != confirm {
		return nil, ErrorFor(CodePasswordMismatch)
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, ErrorFor(CodePasswordTooShort)
	}
	if !validEmail(email) {
		return nil, ErrorFor(CodeInvalidEmail)
	}
	if len(password) > maxPasswordBytes {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}
	if isWeakPassword(email, password) {
		return nil, ErrorFor(CodeWeakPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.cost)
	if err != nil {
		g.logger.Error().Err(err).Msg("hashing password")
		return nil, ErrorFor(CodeInternalError)
	}

	u, err := g.store.CreatePasswordAccount(ctx, email, string(hash))
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			g.logger.Info().Msg("sign-up rejected: email already registered")
			return nil, ErrorFor(CodeEmailInUse)
		}
		g.logger.Error().Err(err).Msg("creating account")
		return nil, ErrorFor(CodeInternalError)
	}

	return g.issue(ctx, u, NoticeSignedUp)
}

// SignIn verifies an email and password.
func (g *Gateway) SignIn(ctx context.Context, email, password string) (*Result, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return nil, ErrorFor(CodeInvalidEmail)
	}

	budget := g.failures.GetLimiter(email)
	if budget.Tokens() < 1 {
		g.metrics.AuthEvent("throttled")
		return nil, ErrorFor(CodeTooManyRequests)
	}

	account, err := g.store.AccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrorFor(CodeUserNotFound)
		}
		g.logger.Error().Err(err).Msg("loading account")
		return nil, ErrorFor(CodeInternalError)
	}

	if account.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		budget.Allow()
		g.metrics.AuthEvent("wrong_password")
		return nil, ErrorFor(CodeWrongPassword)
	}

	if err := g.store.TouchLogin(ctx, account.User.ID); err != nil {
		g.logger.Warn().Err(err).Str("user_id", account.User.ID).Msg("updating last login")
	}

	return g.issue(ctx, &account.User, NoticeSignedIn)
}

// FederatedURL is the Google consent URL for state.
func (g *Gateway) FederatedURL(state string) (string, error) {
	if g.google == nil {
		return "", errs.NewError(errs.ErrFederatedUnavailable)
	}
	return g.google.AuthURL(state), nil
}

// SignInFederated completes the Google flow from its callback.
// A denied consent reads as "popup closed"; a state mismatch or missing code as "cancelled".
func (g *Gateway) SignInFederated(ctx context.Context, cb FederatedCallback) (*Result, error) {
	if g.google == nil {
		return nil, errs.NewError(errs.ErrFederatedUnavailable)
	}

	switch {
	case cb.Error == "access_denied":
		return nil, ErrorFor(CodePopupClosed)
	case cb.Error != "":
		g.logger.Warn().Str("provider_error", cb.Error).Msg("federated sign-in failed at provider")
		return nil, ErrorFor(CodeInternalError)
	case cb.ExpectedState == "" || subtle.ConstantTimeCompare([]byte(cb.State), []byte(cb.ExpectedState)) != 1:
		return nil, ErrorFor(CodePopupCancelled)
	case cb.Code == "":
		return nil, ErrorFor(CodePopupCancelled)
	}

	profile, err := g.google.Exchange(ctx, cb.Code)
	if err != nil {
		g.logger.Error().Err(err).Msg("federated exchange")
		return nil, ErrorFor(CodeInternalError)
	}

	u, err := g.store.UpsertFederated(ctx, normalizeEmail(profile.Email), strings.TrimSpace(profile.Name), user.ProviderGoogle)
	if err != nil {
		g.logger.Error().Err(err).Msg("linking federated account")
		return nil, ErrorFor(CodeInternalError)
	}

	return g.issue(ctx, u, NoticeSignedInGoogle)
}

// SignOut revokes the session. Signing out an already-ended session is not an error.
func (g *Gateway) SignOut(ctx context.Context, sessionID string, u *user.User) error {
	if err := g.store.RevokeSession(ctx, sessionID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		g.logger.Error().Err(err).Str("session_id", sessionID).Msg("revoking session")
		return errs.NewError(errs.ErrSignOutFailed)
	}

	g.publish(Event{Kind: SignedOut, SessionID: sessionID, User: u})
	return nil
}

// Verify implements jwt.Verifier: the token must be valid and its session still live.
func (g *Gateway) Verify(ctx context.Context, token string) (*jwt.Payload, error) {
	payload, err := jwt.ParseToken(token, g.secret)
	if err != nil {
		return nil, err
	}

	u, err := g.store.ActiveSessionUser(ctx, payload.SessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, jwt.ErrInvalidToken
		}
		return nil, err
	}
	if u.ID != payload.UserID {
		return nil, jwt.ErrInvalidToken
	}

	payload.Email = u.Email
	payload.DisplayName = u.DisplayName
	return payload, nil
}

// Middleware attaches the verified identity (if any) to the request context.
func (g *Gateway) Middleware() func(http.Handler) http.Handler {
	return jwt.IdentityExtractorMiddleware(g)
}

// RequireAuth rejects anonymous requests with "Please sign in to continue".
func (g *Gateway) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if jwt.PayloadFromContext(r.Context()) == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CurrentUser returns the signed-in user for ctx, if any.
func CurrentUser(ctx context.Context) (*user.User, bool) {
	payload := jwt.PayloadFromContext(ctx)
	if payload == nil {
		return nil, false
	}
	return payloadUser(payload), true
}

// SessionID returns the session of the signed-in user for ctx, or "".
func SessionID(ctx context.Context) string {
	if payload := jwt.PayloadFromContext(ctx); payload != nil {
		return payload.SessionID
	}
	return ""
}

func payloadUser(p *jwt.Payload) *user.User {
	return &user.User{ID: p.UserID, Email: p.Email, DisplayName: p.DisplayName}
}

// Subscribe registers fn for every auth-state change. The returned func unsubscribes.
// fn runs on the goroutine that caused the change and must not block.
func (g *Gateway) Subscribe(fn func(Event)) func() {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.listeners, id)
			g.mu.Unlock()
		})
	}
}

func (g *Gateway) publish(e Event) {
	g.metrics.AuthEvent(string(e.Kind))

	g.mu.RLock()
	fns := make([]func(Event), 0, len(g.listeners))
	for _, fn := range g.listeners {
		fns = append(fns, fn)
	}
	g.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}

func (g *Gateway) issue(ctx context.Context, u *user.User, notice string) (*Result, error) {
	now := g.now()
	expiresAt := now.Add(g.ttl)

	sessionID, err := g.store.CreateSession(ctx, u.ID, expiresAt)
	if err != nil {
		g.logger.Error().Err(err).Str("user_id", u.ID).Msg("creating session")
		return nil, ErrorFor(CodeInternalError)
	}

	token, err := jwt.GenerateToken(&jwt.Payload{
		UserID:      u.ID,
		SessionID:   sessionID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
	}, g.secret, now, g.ttl)
	if err != nil {
		g.logger.Error().Err(err).Msg("signing session token")
		return nil, ErrorFor(CodeInternalError)
	}

	g.publish(Event{Kind: SignedIn, SessionID: sessionID, User: u})

	return &Result{Token: token, ExpiresAt: expiresAt, User: u, Notice: notice}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	return req.Validator().Var(email, "required,email,max=254") == nil
}

// isWeakPassword rejects passwords that are one repeated character or the email itself.
func isWeakPassword(email, password string) bool {
	lower := strings.ToLower(password)
	local, _, _ := strings.Cut(email, "@")
	if lower == email || lower == local {
		return true
	}

	first, _ := utf8.DecodeRuneInString(password)
	return strings.Trim(password, string(first)) == ""
}
