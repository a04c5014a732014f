package validator

import (
	"regexp"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// Custom validation tags
const (
	TagUsername = "username" // letters, digits, underscore, 3-32 chars, leading letter
	TagPassword = "password" // min 8 chars, at least one letter and one digit
	TagNotBlank = "notblank" // not empty after trimming spaces
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{2,31}$`)

func (v *Validator) registerCustomRules() {
	_ = v.validate.RegisterValidation(TagUsername, validateUsername)
	_ = v.validate.RegisterValidation(TagPassword, validatePassword)
	_ = v.validate.RegisterValidation(TagNotBlank, validateNotBlank)

	messages := map[string]map[string]string{
		LangEN: {
			TagUsername: "{0} must start with a letter and contain only letters, numbers, and underscores (3-32 characters)",
			TagPassword: "{0} must be at least 8 characters and contain at least one letter and one number",
			TagNotBlank: "{0} must not be blank",
		},
		LangZH: {
			TagUsername: "{0}必须以字母开头，只能包含字母、数字和下划线（3-32个字符）",
			TagPassword: "{0}必须至少8个字符，且包含至少一个字母和一个数字",
			TagNotBlank: "{0}不能为空白",
		},
	}
	for lang, m := range messages {
		for tag, msg := range m {
			registerTranslation(v.validate, v.trans[lang], tag, msg)
		}
	}
}

func registerTranslation(validate *validator.Validate, trans ut.Translator, tag, message string) {
	_ = validate.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, message, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field())
			return t
		},
	)
}

func validateUsername(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // required 负责空值
	}
	return usernameRegex.MatchString(value)
}

func validatePassword(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	if len(value) < 8 {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range value {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
