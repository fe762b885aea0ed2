package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"tesoreria/internal/domain"
	val "tesoreria/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateCedula),
		errors.Is(err, domain.ErrDuplicatePayment),
		errors.Is(err, domain.ErrDuplicateUsername):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error", "kind"}. Internal errors are logged and
// hidden from the client.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		msg = "Internal error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "kind": domain.Kind(err)})
}

// bindJSON decodes the body and runs the struct validation tags.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if !errors.Is(err, domain.ErrValidation) {
			err = &domain.ValidationError{Message: "Invalid JSON"}
		}
		respondError(c, err)
		return false
	}
	if err := validateStruct(req); err != nil {
		respondError(c, err)
		return false
	}
	return true
}

func validateStruct(v any) error {
	err := val.Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &domain.ValidationError{Message: err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fieldErrorToString(e))
	}
	return &domain.ValidationError{
		Field:   verrs[0].Field(),
		Message: fmt.Sprintf("invalid input: %s", strings.Join(msgs, "; ")),
	}
}

func fieldErrorToString(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", e.Field())
	case "month":
		return fmt.Sprintf("%s must be a month name (Enero..Diciembre)", e.Field())
	case "year":
		return fmt.Sprintf("%s must be a four digit year", e.Field())
	case "positive":
		return fmt.Sprintf("%s must be greater than 0", e.Field())
	case "min":
		if e.Param() == "1" {
			return fmt.Sprintf("%s must not be empty", e.Field())
		}
		return fmt.Sprintf("%s must have at least %s characters", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s is too long", e.Field())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}
