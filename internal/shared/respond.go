package shared

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the envelope every failed request returns.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error ErrorBody `json:"error"`
}

// RespondJSON writes payload as JSON with the given status code.
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// RespondError writes the standard error envelope for a domain error.
func RespondError(w http.ResponseWriter, err error) {
	RespondJSON(w, HTTPStatus(err), errorResponse{Error: ErrorBody{
		Code:    ErrorCode(err),
		Message: UserSafeMessage(err),
	}})
}

// RespondErrorMessage writes an error envelope with an explicit status and message.
func RespondErrorMessage(w http.ResponseWriter, status int, code, message string) {
	RespondJSON(w, status, errorResponse{Error: ErrorBody{Code: code, Message: message}})
}
