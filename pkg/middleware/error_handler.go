package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kitchenops/inventory-ledger/pkg/errors"
	"github.com/kitchenops/inventory-ledger/pkg/logging"
)

// APIErrorResponse is the JSON body of every error response
type APIErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
	Timestamp string            `json:"timestamp"`
	Path      string            `json:"path,omitempty"`
}

func newAPIErrorResponse(c *gin.Context, appErr *errors.AppError) APIErrorResponse {
	return APIErrorResponse{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Details:   appErr.Details,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      c.Request.URL.Path,
	}
}

// ErrorHandler renders errors attached with c.Error when the handler wrote no response.
func ErrorHandler(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := errors.MapDomainError(c.Errors.Last().Err)
		logError(c, logger, appErr)
		c.JSON(appErr.HTTPStatus, newAPIErrorResponse(c, appErr))
	}
}

// AbortWithAppError aborts the chain and writes appErr
func AbortWithAppError(c *gin.Context, appErr *errors.AppError) {
	c.AbortWithStatusJSON(appErr.HTTPStatus, newAPIErrorResponse(c, appErr))
}

func logError(c *gin.Context, logger *logging.Logger, appErr *errors.AppError) {
	if logger == nil {
		return
	}
	l := logger.WithContext(c.Request.Context())
	attrs := []any{
		"code", appErr.Code,
		"status", appErr.HTTPStatus,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	if appErr.Err != nil {
		attrs = append(attrs, "cause", appErr.Err.Error())
	}

	if appErr.HTTPStatus >= http.StatusInternalServerError {
		l.Error(appErr.Message, attrs...)
		return
	}
	l.Warn(appErr.Message, attrs...)
}

// ErrorResponder writes error responses for one request.
type ErrorResponder struct {
	c      *gin.Context
	logger *logging.Logger
}

// NewErrorResponder creates an ErrorResponder for c
func NewErrorResponder(c *gin.Context, logger *logging.Logger) *ErrorResponder {
	return &ErrorResponder{c: c, logger: logger}
}

// RespondWithError maps err to an AppError and writes it
func (r *ErrorResponder) RespondWithError(err error) {
	r.RespondWithAppError(errors.MapDomainError(err))
}

// RespondWithAppError writes appErr
func (r *ErrorResponder) RespondWithAppError(appErr *errors.AppError) {
	logError(r.c, r.logger, appErr)
	AbortWithAppError(r.c, appErr)
}

func (r *ErrorResponder) RespondBadRequest(message string) {
	r.RespondWithAppError(errors.ErrBadRequest(message))
}

// RespondValidationError writes a 400 with one detail per invalid field. Non-validator
// errors (malformed JSON, wrong types) fall back to a plain bad request.
func (r *ErrorResponder) RespondValidationError(err error) {
	fields := ValidationErrorFormatter(err)
	if len(fields) == 0 {
		r.RespondBadRequest(err.Error())
		return
	}
	r.RespondWithAppError(errors.ErrValidationWithFields("request validation failed", fields))
}
