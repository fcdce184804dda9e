package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"folio/internal/app/auth"
	"folio/internal/app/comments"
	"folio/internal/pkg/logx"
	"folio/internal/pkg/req"
	"folio/internal/pkg/resp"
)

// HandleListComments returns the newest comments as seen by the caller.
func HandleListComments(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := deps.Comments.Snapshot(r.Context())
		if snap.Err != nil {
			resp.RespondErr(w, r, snap.Err)
			return
		}

		u, _ := auth.CurrentUser(r.Context())
		resp.RespondSuccess(w, r, map[string]any{
			"comments": comments.Views(snap.Comments, u, time.Now()),
		})
	}
}

// HandleCommentsHTML renders the comment list fragment for the caller.
func HandleCommentsHTML(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := deps.Comments.Snapshot(r.Context())
		if snap.Err != nil {
			resp.RespondErr(w, r, snap.Err)
			return
		}

		u, _ := auth.CurrentUser(r.Context())

		var buf bytes.Buffer
		if err := comments.Render(&buf, snap.Comments, u, deps.Owner, time.Now()); err != nil {
			logx.Error(err, "rendering comment list")
			resp.RespondErr(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		_, _ = buf.WriteTo(w)
	}
}

type CreateCommentInput struct {
	Text string `json:"text" validate:"max=8192"`
}

// HandleCreateComment posts a comment as the signed-in caller.
func HandleCreateComment(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _ := auth.CurrentUser(r.Context())

		var input CreateCommentInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		created, err := deps.Comments.Submit(r.Context(), input.Text, u)
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, comments.Views([]comments.Comment{*created}, u, time.Now())[0])
	}
}

// HandleToggleLike likes or unlikes the comment in the path for the signed-in caller.
func HandleToggleLike(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _ := auth.CurrentUser(r.Context())

		updated, err := deps.Comments.ToggleLike(r.Context(), chi.URLParam(r, "id"), u)
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, comments.Views([]comments.Comment{*updated}, u, time.Now())[0])
	}
}
