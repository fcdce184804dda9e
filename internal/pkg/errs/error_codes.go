/*
Package errs defines the application error codes shared by the HTTP API and the live socket.

Every code maps to one fixed, user-facing message (see error_map.go). Clients switch on the
numeric code; the message is what gets shown in the modal, inline hint or toast.
*/
package errs

// 1xxx: request handling
const (
	// ErrInvalidParams means the request failed validation.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType means the Content-Type was not application/json.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat means the body was not valid JSON for the target struct.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody means something followed the JSON document.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded means the caller's IP ran out of tokens.
	ErrRateLimitExceeded = 1007

	// ErrNotFound means the route or resource does not exist.
	ErrNotFound = 1008
)

// 2xxx: comment board and chat
const (
	// ErrEmptyContent means the trimmed text was empty.
	ErrEmptyContent = 2001

	// ErrCommentTooLong means the comment exceeded the character limit.
	ErrCommentTooLong = 2002

	// ErrCommentNotFound means the like target does not exist.
	ErrCommentNotFound = 2003

	// ErrSubmitInProgress means the same user already has a comment write in flight.
	ErrSubmitInProgress = 2004

	// ErrCommentPostFailed means the store rejected the new comment.
	ErrCommentPostFailed = 2005

	// ErrLikeUpdateFailed means the like toggle could not be written.
	ErrLikeUpdateFailed = 2006

	// ErrCommentsLoadFailed means the comment list could not be read.
	ErrCommentsLoadFailed = 2007

	// ErrChatDisabled means the chat widget is switched off in configuration.
	ErrChatDisabled = 2101
)

// 3xxx: identity
const (
	// ErrUnauthorized means the action needs a signed-in user.
	ErrUnauthorized = 3000

	// Provider vocabulary. Each one mirrors an identity-provider failure code.
	ErrEmailAlreadyInUse   = 3101
	ErrWeakPassword        = 3102
	ErrUserNotFound        = 3103
	ErrWrongPassword       = 3104
	ErrInvalidEmail        = 3105
	ErrTooManyAuthAttempts = 3106
	ErrPopupClosed         = 3107
	ErrPopupCancelled      = 3108

	// ErrAuthFailed is the catch-all for provider codes without a dedicated message.
	ErrAuthFailed = 3109

	// ErrPasswordMismatch and ErrPasswordTooShort are local sign-up checks.
	ErrPasswordMismatch = 3201
	ErrPasswordTooShort = 3202

	// ErrSignOutFailed means the session could not be revoked.
	ErrSignOutFailed = 3203

	// ErrFederatedUnavailable means no OAuth client is configured.
	ErrFederatedUnavailable = 3204
)

// 4xxx: page media
const (
	// ErrMediaUnavailable means object storage is not configured.
	ErrMediaUnavailable = 4001

	// ErrMediaFailed means presigning the media URL failed.
	ErrMediaFailed = 4002
)

// 5xxx: internal
const (
	// ErrUnknown is an unclassified server error.
	ErrUnknown = 5000
)
