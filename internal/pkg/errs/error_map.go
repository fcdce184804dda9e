/*
Package errs defines the application error codes shared by the HTTP API and the live socket.

This file maps every error code to its CustomError template, which standardizes the
user-facing message and HTTP status for both responses and socket error frames.
*/
package errs

import "net/http"

// errorMap holds the message and HTTP status for every code. A zero Status means 200:
// business failures travel inside a successful envelope, as the client expects.
var errorMap = map[int]CustomError{
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format."},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrNotFound:             {Code: ErrNotFound, Message: "Not found.", Status: http.StatusNotFound},

	ErrEmptyContent:       {Code: ErrEmptyContent, Message: "Please write something first."},
	ErrCommentTooLong:     {Code: ErrCommentTooLong, Message: "Comments are limited to %d characters."},
	ErrCommentNotFound:    {Code: ErrCommentNotFound, Message: "Comment not found.", Status: http.StatusNotFound},
	ErrSubmitInProgress:   {Code: ErrSubmitInProgress, Message: "Posting..."},
	ErrCommentPostFailed:  {Code: ErrCommentPostFailed, Message: "Failed to post comment. Please try again."},
	ErrLikeUpdateFailed:   {Code: ErrLikeUpdateFailed, Message: "Failed to update like"},
	ErrCommentsLoadFailed: {Code: ErrCommentsLoadFailed, Message: "Failed to load comments"},
	ErrChatDisabled:       {Code: ErrChatDisabled, Message: "Chat is currently unavailable."},

	ErrUnauthorized:         {Code: ErrUnauthorized, Message: "Please sign in to continue", Status: http.StatusUnauthorized},
	ErrEmailAlreadyInUse:    {Code: ErrEmailAlreadyInUse, Message: "Email is already registered"},
	ErrWeakPassword:         {Code: ErrWeakPassword, Message: "Password is too weak"},
	ErrUserNotFound:         {Code: ErrUserNotFound, Message: "No account found with this email"},
	ErrWrongPassword:        {Code: ErrWrongPassword, Message: "Incorrect password"},
	ErrInvalidEmail:         {Code: ErrInvalidEmail, Message: "Invalid email address"},
	ErrTooManyAuthAttempts:  {Code: ErrTooManyAuthAttempts, Message: "Too many failed attempts. Try again later", Status: http.StatusTooManyRequests},
	ErrPopupClosed:          {Code: ErrPopupClosed, Message: "Sign-in popup was closed"},
	ErrPopupCancelled:       {Code: ErrPopupCancelled, Message: "Sign-in was cancelled"},
	ErrAuthFailed:           {Code: ErrAuthFailed, Message: "An error occurred. Please try again."},
	ErrPasswordMismatch:     {Code: ErrPasswordMismatch, Message: "Passwords do not match"},
	ErrPasswordTooShort:     {Code: ErrPasswordTooShort, Message: "Password must be at least 6 characters"},
	ErrSignOutFailed:        {Code: ErrSignOutFailed, Message: "Error signing out"},
	ErrFederatedUnavailable: {Code: ErrFederatedUnavailable, Message: "Google sign-in is not available right now."},

	ErrMediaUnavailable: {Code: ErrMediaUnavailable, Message: "Media is not configured.", Status: http.StatusNotFound},
	ErrMediaFailed:      {Code: ErrMediaFailed, Message: "Media is temporarily unavailable."},

	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
