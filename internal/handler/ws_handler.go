/*
Package handler provides the HTTP handler function for upgrading to the live WebSocket feed.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"folio/internal/app/user"
	"folio/internal/pkg/errs"
	"folio/internal/pkg/limiter"
	"folio/internal/pkg/logx"
	"folio/internal/pkg/resp"
)

// HandleWebSocket upgrades the request and attaches the socket to the live hub.
// Browsers cannot set headers on a WebSocket, so the session token rides in ?token=.
// A missing or rejected token connects the socket as anonymous.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", logx.AnonymizeIP(ip))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		var (
			current   *user.User
			sessionID string
		)
		if token := r.URL.Query().Get("token"); token != "" {
			payload, err := deps.Auth.Verify(r.Context(), token)
			if err != nil {
				logx.Debug("WebSocket token rejected, connecting as anonymous", "error", err.Error())
			} else {
				current = &user.User{ID: payload.UserID, Email: payload.Email, DisplayName: payload.DisplayName}
				sessionID = payload.SessionID
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		logx.Debug("WebSocket connection established", "signed_in", current != nil)

		deps.Hub.Serve(conn, current, sessionID)
	}
}
