/*
Package handler provides HTTP handler functions for sign-up, sign-in, Google sign-in and sign-out.
*/
package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"folio/internal/app/auth"
	"folio/internal/pkg/errs"
	"folio/internal/pkg/logx"
	"folio/internal/pkg/randx"
	"folio/internal/pkg/req"
	"folio/internal/pkg/resp"
)

const (
	oauthStateCookie = "folio_oauth_state"
	oauthStateMaxAge = 600
	oauthCookiePath  = "/api/auth/google"
)

type SignUpInput struct {
	Email           string `json:"email" validate:"max=320"`
	Password        string `json:"password" validate:"max=1024"`
	ConfirmPassword string `json:"confirmPassword" validate:"max=1024"`
}

// HandleSignUp creates a password account and signs it in.
func HandleSignUp(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input SignUpInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		result, err := deps.Auth.SignUp(r.Context(), input.Email, input.Password, input.ConfirmPassword)
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		resp.RespondNotice(w, r, result.Notice, result)
	}
}

type SignInInput struct {
	Email    string `json:"email" validate:"max=320"`
	Password string `json:"password" validate:"max=1024"`
}

// HandleSignIn verifies email and password and issues a session token.
func HandleSignIn(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input SignInInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		result, err := deps.Auth.SignIn(r.Context(), input.Email, input.Password)
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		resp.RespondNotice(w, r, result.Notice, result)
	}
}

// HandleGoogleStart sends the browser to Google's consent screen with a fresh state cookie.
func HandleGoogleStart(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := randx.OAuthState()
		if err != nil {
			logx.Error(err, "generating oauth state")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		consentURL, err := deps.Auth.FederatedURL(state)
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     oauthStateCookie,
			Value:    state,
			Path:     oauthCookiePath,
			MaxAge:   oauthStateMaxAge,
			HttpOnly: true,
			Secure:   !deps.Config.IsDevelopment(),
			SameSite: http.SameSiteLaxMode,
		})

		http.Redirect(w, r, consentURL, http.StatusFound)
	}
}

// HandleGoogleCallback finishes Google sign-in and hands the result to the page in the URL fragment.
func HandleGoogleCallback(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		expected := ""
		if cookie, err := r.Cookie(oauthStateCookie); err == nil && randx.IsValidState(cookie.Value) {
			expected = cookie.Value
		}

		http.SetCookie(w, &http.Cookie{
			Name:     oauthStateCookie,
			Value:    "",
			Path:     oauthCookiePath,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   !deps.Config.IsDevelopment(),
			SameSite: http.SameSiteLaxMode,
		})

		result, err := deps.Auth.SignInFederated(r.Context(), auth.FederatedCallback{
			Code:          query.Get("code"),
			State:         query.Get("state"),
			ExpectedState: expected,
			Error:         query.Get("error"),
		})

		fragment := url.Values{}
		if err != nil {
			customErr := errs.From(err)
			fragment.Set("authError", strconv.Itoa(customErr.Code))
			fragment.Set("message", customErr.Message)
		} else {
			fragment.Set("token", result.Token)
			fragment.Set("message", result.Notice)
		}

		http.Redirect(w, r, deps.Config.Google.AfterSignInURL+"#"+fragment.Encode(), http.StatusFound)
	}
}

// HandleSignOut revokes the caller's session.
func HandleSignOut(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _ := auth.CurrentUser(r.Context())

		if err := deps.Auth.SignOut(r.Context(), auth.SessionID(r.Context()), u); err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		resp.RespondNotice(w, r, auth.NoticeSignedOut, nil)
	}
}

// HandleMe reports who the caller is. Anonymous callers get signedIn=false, not an error.
func HandleMe(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, signedIn := auth.CurrentUser(r.Context())

		resp.RespondSuccess(w, r, map[string]any{
			"signedIn":        signedIn,
			"canPost":         signedIn,
			"user":            u,
			"googleAvailable": deps.Auth.FederatedEnabled(),
			"chatEnabled":     deps.Chat.Enabled(),
		})
	}
}
