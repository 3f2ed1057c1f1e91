package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	roleAuth "github.com/MrEthical07/roleAuth"
)

// ErrorBody is the JSON shape of every rejection.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorBody maps err to its stable code and a client-safe message.
// Internal failures never expose their cause.
func NewErrorBody(err error) ErrorBody {
	code := roleAuth.ErrorCode(err)
	if code == roleAuth.CodeInternal {
		return ErrorBody{Code: code, Message: "internal error"}
	}
	return ErrorBody{Code: code, Message: sentinelMessage(err)}
}

// WriteError writes err as a JSON error body with the mapped status.
func WriteError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(roleAuth.HTTPStatus(err))
	_ = json.NewEncoder(w).Encode(NewErrorBody(err))
}

var publicSentinels = []error{
	roleAuth.ErrNoCredential,
	roleAuth.ErrInvalidToken,
	roleAuth.ErrTokenExpired,
	roleAuth.ErrRenewalExpired,
	roleAuth.ErrWrongRole,
	roleAuth.ErrIdentityInvalid,
	roleAuth.ErrInvalidCredentials,
}

// sentinelMessage returns the sentinel's own text so wrapped causes stay internal.
func sentinelMessage(err error) string {
	for _, s := range publicSentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "request rejected"
}
