package auth

import (
	"folio/internal/pkg/errs"
)

// Provider error vocabulary. The browser client already knows these names from the
// hosted identity provider it used to talk to, so API errors keep them alongside the code.
const (
	CodeEmailInUse       = "auth/email-already-in-use"
	CodeWeakPassword     = "auth/weak-password"
	CodeUserNotFound     = "auth/user-not-found"
	CodeWrongPassword    = "auth/wrong-password"
	CodeInvalidEmail     = "auth/invalid-email"
	CodeTooManyRequests  = "auth/too-many-requests"
	CodePopupClosed      = "auth/popup-closed-by-user"
	CodePopupCancelled   = "auth/cancelled-popup-request"
	CodeInternalError    = "auth/internal-error"
	CodePasswordMismatch = "auth/password-mismatch"
	CodePasswordTooShort = "auth/password-too-short"
)

var providerCodes = map[string]int{
	CodeEmailInUse:       errs.ErrEmailAlreadyInUse,
	CodeWeakPassword:     errs.ErrWeakPassword,
	CodeUserNotFound:     errs.ErrUserNotFound,
	CodeWrongPassword:    errs.ErrWrongPassword,
	CodeInvalidEmail:     errs.ErrInvalidEmail,
	CodeTooManyRequests:  errs.ErrTooManyAuthAttempts,
	CodePopupClosed:      errs.ErrPopupClosed,
	CodePopupCancelled:   errs.ErrPopupCancelled,
	CodePasswordMismatch: errs.ErrPasswordMismatch,
	CodePasswordTooShort: errs.ErrPasswordTooShort,
}

// ErrorFor maps a provider error code to the application error shown to the visitor.
// Unknown codes get the generic "An error occurred. Please try again." message.
func ErrorFor(code string) *errs.CustomError {
	if c, ok := providerCodes[code]; ok {
		return errs.NewError(c)
	}
	return errs.NewError(errs.ErrAuthFailed)
}

// MessageFor is ErrorFor(code).Message.
func MessageFor(code string) string {
	return ErrorFor(code).Message
}
