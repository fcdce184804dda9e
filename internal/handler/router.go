/*
Package handler provides the HTTP handlers and routing setup for the folio server.

This file defines the main Router, applying middleware like logging, CORS, metrics and
IP-based rate limiting before delegating requests to specific handlers (API and WebSocket).
*/
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"folio/internal/pkg/errs"
	"folio/internal/pkg/limiter"
	"folio/internal/pkg/logx"
	"folio/internal/pkg/resp"
)

const (
	SignInRate  = 0.2
	SignInBurst = 10
	WriteRate   = 0.5
	WriteBurst  = 10
	ChatRate    = 0.2
	ChatBurst   = 5
	SocketRate  = 0.2
	SocketBurst = 5

	healthTimeout = 2 * time.Second
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global and per-route middleware.
func Router(deps *AppDeps) http.Handler {
	signInLimiter := limiter.NewIPRateLimiter(rate.Limit(SignInRate), SignInBurst)
	writeLimiter := limiter.NewIPRateLimiter(rate.Limit(WriteRate), WriteBurst)
	chatLimiter := limiter.NewIPRateLimiter(rate.Limit(ChatRate), ChatBurst)
	socketLimiter := limiter.NewIPRateLimiter(rate.Limit(SocketRate), SocketBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)
	r.Use(deps.Metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		if deps.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := deps.DB.Ping(ctx); err != nil {
				logx.Error(err, "Health check: database ping failed")
				status = "degraded"
			}
		}

		resp.RespondSuccess(w, r, map[string]any{
			"status":      status,
			"service":     "folio",
			"liveClients": deps.Hub.ClientCount(),
		})
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(deps.Auth.Middleware())

		api.Route("/auth", func(a chi.Router) {
			a.With(signInLimiter.Middleware(errs.ErrTooManyAuthAttempts)).Post("/signup", HandleSignUp(deps))
			a.With(signInLimiter.Middleware(errs.ErrTooManyAuthAttempts)).Post("/signin", HandleSignIn(deps))
			a.Get("/google", HandleGoogleStart(deps))
			a.Get("/google/callback", HandleGoogleCallback(deps))
			a.With(deps.Auth.RequireAuth).Post("/signout", HandleSignOut(deps))
			a.Get("/me", HandleMe(deps))
		})

		api.Route("/comments", func(cr chi.Router) {
			cr.Get("/", HandleListComments(deps))
			cr.Get("/html", HandleCommentsHTML(deps))

			cr.Group(func(wr chi.Router) {
				wr.Use(deps.Auth.RequireAuth)
				wr.Use(writeLimiter.Middleware(errs.ErrRateLimitExceeded))
				wr.Post("/", HandleCreateComment(deps))
				wr.Post("/{id}/like", HandleToggleLike(deps))
			})
		})

		api.Route("/chat", func(ch chi.Router) {
			ch.Use(deps.Auth.RequireAuth)
			ch.With(chatLimiter.Middleware(errs.ErrRateLimitExceeded)).Post("/messages", HandleChatMessage(deps))
			ch.Get("/history", HandleChatHistory(deps))
		})

		api.Get("/media/music", HandleMusic(deps))
		api.Get("/media/music/info", HandleMusicInfo(deps))
	})

	r.Get("/ws", HandleWebSocket(wsUpgrader, socketLimiter, deps))

	if deps.Config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(deps.Config.StaticDir)))
	} else {
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotFound))
		})
	}

	return r
}
