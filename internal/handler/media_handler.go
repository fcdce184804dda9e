package handler

import (
	"net/http"

	"folio/internal/pkg/resp"
)

// HandleMusic redirects to a short-lived URL of the background track.
func HandleMusic(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url, err := deps.Media.MusicURL(r.Context())
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, url, http.StatusFound)
	}
}

// HandleMusicInfo reports the track's content type and size so the player can decide to preload.
func HandleMusicInfo(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := deps.Media.MusicInfo(r.Context())
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, info)
	}
}
