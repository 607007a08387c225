package records

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// saveValidate is the validator instance for write-schema validation.
// Initialized in init() with the custom category/priority/phone validators.
var saveValidate *validator.Validate

func init() {
	saveValidate = validator.New()
	saveValidate.RegisterValidation("casecategory", validateCategory)
	saveValidate.RegisterValidation("casepriority", validatePriority)
	saveValidate.RegisterValidation("phonechars", validatePhoneChars)
}

func validateCategory(fl validator.FieldLevel) bool {
	return Category(fl.Field().String()).IsValid()
}

func validatePriority(fl validator.FieldLevel) bool {
	return Priority(fl.Field().String()).IsValid()
}

func validatePhoneChars(fl validator.FieldLevel) bool {
	return phoneCharsPattern.MatchString(fl.Field().String())
}

// ValidationError identifies the first field that fails write validation.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidateForSave checks a record against the user-facing write constraints.
// Reads tolerate looser legacy data (see ToUIFormat); this stricter schema
// gates new writes only.
func ValidateForSave(rec *CaseRecord) error {
	if rec == nil {
		return &ValidationError{Field: "record", Reason: "is nil"}
	}

	err := saveValidate.Struct(rec)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return &ValidationError{
			Field:  fieldLabel(first.Namespace(), first.Field()),
			Reason: reasonFor(first),
		}
	}
	return err
}

// fieldLabel maps a validator namespace to the UI-facing field name, e.g.
// CaseRecord.Contact.Email -> contactEmail.
func fieldLabel(namespace, field string) string {
	if strings.Contains(namespace, ".Contact.") {
		return "contact" + field
	}
	if field == "" {
		return "record"
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func reasonFor(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "phonechars":
		return "contains characters not allowed in a phone number"
	case "casecategory":
		return fmt.Sprintf("must be one of %v", Categories())
	case "casepriority":
		return "must be normal, urgent, or new"
	default:
		return fmt.Sprintf("failed %s validation", e.Tag())
	}
}
