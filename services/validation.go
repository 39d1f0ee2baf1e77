package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"fieldops-scheduler/models"

	"github.com/go-playground/validator/v10"
)

var (
	validate  = validator.New()
	clockTime = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// validateStruct runs struct tags and reports the first failure as a
// *models.ValidationError.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return models.NewValidationError(fieldPath(fe.Namespace()), describeTag(fe))
	}
	return models.NewValidationError("", err.Error())
}

// fieldPath drops the root struct name and lowercases the first letter of
// each segment: "CreateJobRequest.Finance.Currency" -> "finance.currency".
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToLower(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, ".")
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "len":
		return fmt.Sprintf("must have length %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// parseClock parses "HH:MM" into minutes after midnight.
func parseClock(field, s string) (int, error) {
	if !clockTime.MatchString(s) {
		return 0, models.NewValidationError(field, fmt.Sprintf("%q is not a valid HH:MM time", s))
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	return h*60 + m, nil
}
