/*
Package req binds and validates HTTP request bodies.
*/
package req

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"folio/internal/pkg/errs"
	"folio/internal/pkg/logx"
)

// MaxJSONBodyBytes caps every JSON body the API accepts.
const MaxJSONBodyBytes int64 = 64 << 10

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// BindJSON decodes the request body into dst and runs its `validate` struct tags.
// Unknown fields and trailing content are rejected.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	if err := Validator().Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				logx.Debug("request validation failed", "field", fe.Field(), "tag", fe.Tag())
			}
		}
		return errs.NewError(errs.ErrInvalidParams)
	}

	return nil
}
