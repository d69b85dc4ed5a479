package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error is the JSON body of every failed request.
// swagger:model
type Error struct {
	Code    string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Status() int {
	switch e.Code {
	case "InvalidRequest":
		return http.StatusBadRequest
	case "Unauthorized":
		return http.StatusUnauthorized
	case "NotFound":
		return http.StatusNotFound
	case "Conflict", "ConfirmationRequired":
		return http.StatusConflict
	case "Unavailable":
		return http.StatusServiceUnavailable
	case "Upstream":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func Invalid(msg string) *Error      { return &Error{Code: "InvalidRequest", Message: msg} }
func Unauthorized(msg string) *Error { return &Error{Code: "Unauthorized", Message: msg} }
func NotFound(msg string) *Error     { return &Error{Code: "NotFound", Message: msg} }
func Conflict(msg string) *Error     { return &Error{Code: "Conflict", Message: msg} }
func Unavailable(msg string) *Error  { return &Error{Code: "Unavailable", Message: msg} }

// ConfirmationRequired asks the client to repeat the request with an explicit
// confirmation flag.
func ConfirmationRequired(msg string) *Error {
	return &Error{Code: "ConfirmationRequired", Message: msg}
}

func Internal(msg string, err error) *Error {
	e := &Error{Code: "Internal", Message: msg}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

func Upstream(msg string, err error) *Error {
	e := &Error{Code: "Upstream", Message: msg}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

func Abort(c *gin.Context, e *Error) {
	c.AbortWithStatusJSON(e.Status(), e)
}
