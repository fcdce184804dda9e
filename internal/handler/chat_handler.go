package handler

import (
	"net/http"

	"folio/internal/app/auth"
	"folio/internal/pkg/req"
	"folio/internal/pkg/resp"
)

type ChatMessageInput struct {
	Message string `json:"message" validate:"max=16384"`
}

// HandleChatMessage answers one visitor message. The reply may come from the canned set.
func HandleChatMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _ := auth.CurrentUser(r.Context())

		var input ChatMessageInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		reply, err := deps.Chat.Send(r.Context(), auth.SessionID(r.Context()), u, input.Message)
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, reply)
	}
}

// HandleChatHistory returns the caller's transcript for this session, oldest first.
func HandleChatHistory(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{
			"enabled":  deps.Chat.Enabled(),
			"messages": deps.Chat.History(auth.SessionID(r.Context())),
		})
	}
}
