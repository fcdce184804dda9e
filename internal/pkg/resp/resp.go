/*
Package resp writes the JSON envelope every API endpoint answers with.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"folio/internal/pkg/errs"
	"folio/internal/pkg/logx"
)

// JSONResponse is the envelope: code 0 is success, anything else is an errs code.
type JSONResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// RespondJSON writes payload as JSON with the given status.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logx.Error(err, "encoding JSON response", "http_status", httpStatus)
		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(httpStatus)
	_, _ = w.Write(body)
}

// RespondSuccess writes a 200 envelope carrying data.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusOK, JSONResponse{Code: 0, Message: "success", Data: data})
}

// RespondNotice writes a 200 envelope whose message is a user-facing success notice.
func RespondNotice(w http.ResponseWriter, r *http.Request, notice string, data any) {
	RespondJSON(w, r, http.StatusOK, JSONResponse{Code: 0, Message: notice, Data: data})
}

// RespondError writes the envelope for customErr. A nil error is reported as ErrUnknown.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	RespondJSON(w, r, customErr.Status, JSONResponse{
		Code:    customErr.Code,
		Message: customErr.Message,
	})
}

// RespondErr converts any error with errs.From and writes it.
func RespondErr(w http.ResponseWriter, r *http.Request, err error) {
	RespondError(w, r, errs.From(err))
}
