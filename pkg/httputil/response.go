package httputil

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
	TraceID string       `json:"trace_id,omitempty"`
}

// FieldError names one request field that failed binding validation.
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError maps err onto a status code and sends it. Internal
// details of unexpected errors are not echoed to the client.
func RespondWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(Status(err), Response{
		Success: false,
		Error:   ErrorBody(c, err),
	})
}

// Status returns the HTTP status for err.
func Status(err error) int {
	var appErr *apperrors.AppError
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &appErr):
		return appErr.StatusCode()
	case errors.As(err, &verrs):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func ErrorBody(c *gin.Context, err error) *Error {
	status := Status(err)
	body := &Error{Code: status, TraceID: c.GetString("request_id")}

	var appErr *apperrors.AppError
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		body.Message = "request validation failed"
		for _, fe := range verrs {
			body.Fields = append(body.Fields, FieldError{Field: fe.Field(), Tag: fe.Tag()})
		}
	case errors.As(err, &appErr) && status != http.StatusInternalServerError:
		body.Message = err.Error()
	default:
		body.Message = "internal server error"
	}
	return body
}
