package validator

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// optional +91 / 0 prefix followed by a 10 digit mobile number
	phoneRegex = regexp.MustCompile(`^(\+91|0)?[6-9][0-9]{9}$`)
)

func notBlankValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return strings.TrimSpace(val) != ""
}

func phoneValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return phoneRegex.MatchString(strings.ReplaceAll(val, " ", ""))
}
