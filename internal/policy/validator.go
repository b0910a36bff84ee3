package policy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers policy-specific validation rules.
// Must be called before validating a Config.
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("profile_name", validateProfileName); err != nil {
		return fmt.Errorf("policy: failed to register profile_name validator: %w", err)
	}
	return nil
}

func validateProfileName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	for _, p := range ValidProfiles {
		if p == name {
			return true
		}
	}
	return false
}

// Validate runs struct-tag validation plus cross-field checks against an
// already-built Config. Structural shape (required keys, types) is
// enforced earlier by the loader; this pass catches value-level mistakes
// that survive deep-merge, such as an allow_tasks argv referencing an
// empty command.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterCustomValidators(v); err != nil {
		return err
	}
	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}
	return c.validateTaskArgv()
}

func (c *Config) validateTaskArgv() error {
	for name, argv := range c.AllowTasks {
		if len(argv) == 0 {
			return fmt.Errorf("policy: allow_tasks[%s] has an empty argv", name)
		}
		if argv[0] == "" {
			return fmt.Errorf("policy: allow_tasks[%s] argv[0] must not be empty", name)
		}
	}
	return nil
}

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

func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, e.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}
