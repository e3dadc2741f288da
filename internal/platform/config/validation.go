package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// tagSyncTimeout reports a sync timeout that does not fit in the interval.
const tagSyncTimeout = "sync_timeout"

var validate = newValidator()

// newValidator names fields by their koanf keys, so errors read like the YAML
// and APP_ variables users actually write.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("koanf"); name != "" && name != "-" {
			return name
		}

		return fld.Name
	})

	v.RegisterStructValidation(validateSync, SyncConfig{})

	return v
}

// validateSync keeps a fetch inside one tick. A run that outlives the
// interval makes every following tick skip.
func validateSync(sl validator.StructLevel) {
	s, ok := sl.Current().Interface().(SyncConfig)
	if !ok || !s.Enabled || s.Interval <= 0 || s.Timeout <= 0 {
		return
	}

	if s.Timeout >= s.Interval {
		sl.ReportError(s.Timeout, "timeout", "Timeout", tagSyncTimeout, s.Interval.String())
	}
}

// Validate checks the configuration. Commands refuse to run on an invalid one.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	return nil
}

func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	lines := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		lines = append(lines, formatFieldError(e))
	}

	return fmt.Errorf("config validation failed:\n  %s", strings.Join(lines, "\n  "))
}

func formatFieldError(e validator.FieldError) string {
	field := formatFieldPath(e.Namespace())

	switch e.Tag() {
	case "required":
		return field + " is required"
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, e.Param())
	case "required_unless":
		return fmt.Sprintf("%s is required unless %s", field, e.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "url":
		return field + " must be a valid URL"
	case "startswith":
		return fmt.Sprintf("%s must start with %q", field, e.Param())
	case tagSyncTimeout:
		return fmt.Sprintf("%s must be shorter than sync.interval (%s)", field, e.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}

// formatFieldPath drops the root struct: "Config.server.max_request_size"
// becomes "server.max_request_size".
func formatFieldPath(namespace string) string {
	if _, rest, found := strings.Cut(namespace, "."); found {
		return rest
	}

	return namespace
}
