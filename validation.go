package authkit

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/nyaruka/phonenumbers"
)

var errPhoneNumber = errors.New("must be a valid phone number")

// PhoneNumber validates an optional E.164-ish phone number field, accepting
// string and *string values. Empty values pass; use validation.Required to
// make the field mandatory.
var PhoneNumber = validation.By(func(value any) error {
	value, isNil := validation.Indirect(value)
	if isNil {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return errPhoneNumber
	}
	if s == "" {
		return nil
	}
	num, err := phonenumbers.Parse(s, "ZZ")
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return errPhoneNumber
	}
	return nil
})

// FormatValidationErrorToMap flattens an ozzo validation error into a
// field-to-message map for JSON responses.
func FormatValidationErrorToMap(err error) map[string]any {
	out := map[string]any{}
	if err == nil {
		return out
	}

	if errs, ok := err.(validation.Errors); ok {
		for field, ferr := range errs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["error"] = err.Error()
	return out
}
