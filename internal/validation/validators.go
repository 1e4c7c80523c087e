package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/benvon/postpilot/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Range validators for prediction fields. Registered as named validators
	// so request structs can tag fields instead of duplicating bounds.
	if err := Validate.RegisterValidation("posting_hour", validateHour); err != nil {
		panic(fmt.Sprintf("failed to register posting_hour validator: %v", err))
	}
	if err := Validate.RegisterValidation("weekday_index", validateDayOfWeek); err != nil {
		panic(fmt.Sprintf("failed to register weekday_index validator: %v", err))
	}
}

// validateHour validates that an int is a valid posting hour.
func validateHour(fl validator.FieldLevel) bool {
	v := fl.Field().Int()
	return v >= models.MinHour && v <= models.MaxHour
}

// validateDayOfWeek validates that an int is a valid weekday index.
func validateDayOfWeek(fl validator.FieldLevel) bool {
	v := fl.Field().Int()
	return v >= models.MinDayOfWeek && v <= models.MaxDayOfWeek
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
