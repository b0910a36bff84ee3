package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/workspace-governor/governor/internal/policy"
)

// Validate validates the RuntimeConfig using struct tags and the shared
// profile_name validator also used by internal/policy.
func (c *RuntimeConfig) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := policy.RegisterCustomValidators(v); err != nil {
		return err
	}
	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// formatValidationErrors converts validator.ValidationErrors to user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

// formatSingleValidationError creates a user-friendly message for a single validation error.
func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	case "profile_name":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(policy.ValidProfiles, ", "))
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}
