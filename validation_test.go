package authkit_test

import (
	"testing"

	authkit "github.com/thinhha/go-authkit"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhoneNumberRule(t *testing.T) {
	valid := []string{
		"",
		"+14155552671",
		"+442071838750",
		"+5511994332211",
	}
	for _, number := range valid {
		assert.NoError(t, validation.Validate(number, authkit.PhoneNumber), number)
	}

	invalid := []string{
		"not-a-phone",
		"12345",
		"+1",
		"4155552671", // no country code, no region to infer one
	}
	for _, number := range invalid {
		assert.Error(t, validation.Validate(number, authkit.PhoneNumber), number)
	}
}

func TestFormatValidationErrorToMap(t *testing.T) {
	input := authkit.RegisterInput{
		Username: "al",
		Email:    "not-an-email",
		Password: "short",
	}
	err := input.Validate()
	require.Error(t, err)

	out := authkit.FormatValidationErrorToMap(err)
	assert.Contains(t, out, "username")
	assert.Contains(t, out, "email")
	assert.Contains(t, out, "password")
}

func TestFormatValidationErrorToMapFallbacks(t *testing.T) {
	assert.Empty(t, authkit.FormatValidationErrorToMap(nil))

	out := authkit.FormatValidationErrorToMap(assert.AnError)
	assert.Equal(t, assert.AnError.Error(), out["error"])
}

func TestPhoneNumberRulePointerValues(t *testing.T) {
	bad := "not-a-phone"
	good := "+14155552671"
	var absent *string

	assert.Error(t, validation.Validate(&bad, authkit.PhoneNumber))
	assert.NoError(t, validation.Validate(&good, authkit.PhoneNumber))
	assert.NoError(t, validation.Validate(absent, authkit.PhoneNumber))
}
