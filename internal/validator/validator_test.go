package validator

import (
	"errors"
	"testing"

	"tesoreria/internal/domain"

	"github.com/go-playground/validator/v10"
)

type paymentInput struct {
	StudentID string       `json:"student_id" validate:"required,notblank"`
	Month     string       `json:"month" validate:"required,month"`
	Year      string       `json:"year" validate:"required,year"`
	Amount    domain.Money `json:"amount" validate:"positive"`
}

func TestCustomTags(t *testing.T) {
	tests := []struct {
		name  string
		in    paymentInput
		field string
	}{
		{"valid", paymentInput{"s1", "enero", "2024", domain.MoneyFromCents(500)}, ""},
		{"blank student", paymentInput{"   ", "Enero", "2024", domain.MoneyFromCents(500)}, "student_id"},
		{"unknown month", paymentInput{"s1", "January", "2024", domain.MoneyFromCents(500)}, "month"},
		{"short year", paymentInput{"s1", "Enero", "24", domain.MoneyFromCents(500)}, "year"},
		{"zero amount", paymentInput{"s1", "Enero", "2024", domain.MoneyFromCents(0)}, "amount"},
		{"negative amount", paymentInput{"s1", "Enero", "2024", domain.MoneyFromCents(-100)}, "amount"},
		{"one cent", paymentInput{"s1", "Enero", "2024", domain.MoneyFromCents(1)}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate.Struct(tt.in)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) || len(verrs) == 0 {
				t.Fatalf("expected validation errors, got %v", err)
			}
			if verrs[0].Field() != tt.field {
				t.Fatalf("field = %q, want %q", verrs[0].Field(), tt.field)
			}
		})
	}
}
