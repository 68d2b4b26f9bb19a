package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/estatehub/service-scheduling/internal/platform/domain"
)

// statusByCode maps error codes to HTTP statuses. Codes not listed here are
// rendered as 500.
var statusByCode = map[string]int{
	domain.CodeValidation:   http.StatusBadRequest,
	domain.CodeUnauthorized: http.StatusUnauthorized,
	domain.CodeForbidden:    http.StatusForbidden,
	domain.CodeNotFound:     http.StatusNotFound,
	domain.CodeConflict:     http.StatusConflict,
	domain.CodeInvalidState: http.StatusUnprocessableEntity,
	"SCHEDULING_CONFLICT":   http.StatusConflict,
	"NO_PROVIDER_AVAILABLE": http.StatusConflict,
	"OUTSIDE_AVAILABILITY":  http.StatusConflict,
}

// ErrorBody is the error half of every failed response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes a 200 response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// Created writes a 201 response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

// NoContent writes a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Paginated writes a 200 response with a page of items and paging metadata.
func Paginated[T any](c *gin.Context, items []T, total int64, page, limit int) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    domain.NewPaginatedResult(items, total, page, limit),
	})
}

// BadRequest writes a 400 validation error.
func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   ErrorBody{Code: domain.CodeValidation, Message: message},
	})
}

// Error renders err with the status derived from its code. Extra fields from
// a DetailedError are merged into the top-level body.
func Error(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	body := gin.H{
		"success": false,
		"error":   ErrorBody{Code: "INTERNAL_ERROR", Message: "internal server error"},
	}

	var coded domain.CodedError
	if errors.As(err, &coded) {
		if s, ok := statusByCode[coded.Code()]; ok {
			status = s
			body["error"] = ErrorBody{Code: coded.Code(), Message: coded.Error()}
		}
	}

	var detailed domain.DetailedError
	if errors.As(err, &detailed) {
		for k, v := range detailed.Details() {
			body[k] = v
		}
	}

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, body)
}
