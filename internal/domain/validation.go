package domain

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinSecretLength = 8
	MaxSecretLength = 25
	MaxNameLength   = 80
)

var (
	ViolationTooShort  = fmt.Sprintf("secret must be at least %d characters", MinSecretLength)
	ViolationTooLong   = fmt.Sprintf("secret must be at most %d characters", MaxSecretLength)
	ViolationNoLower   = "secret must contain a lowercase letter"
	ViolationNoUpper   = "secret must contain an uppercase letter"
	ViolationNoDigit   = "secret must contain a digit"
	ViolationNameEmpty = "name is required"
	ViolationNameLong  = fmt.Sprintf("name must be at most %d characters", MaxNameLength)
)

type ValidationResult struct {
	Reasons []string
}

func (r ValidationResult) Valid() bool {
	return len(r.Reasons) == 0
}

// Err returns nil for a valid result and a KindValidation error otherwise.
func (r ValidationResult) Err(op string) error {
	if r.Valid() {
		return nil
	}

	return &Error{
		Kind:    KindValidation,
		Op:      op,
		Detail:  strings.Join(r.Reasons, "; "),
		Reasons: append([]string(nil), r.Reasons...),
	}
}

// ValidateSecret checks every complexity rule and reports all violations in
// a fixed order.
func ValidateSecret(secret string) ValidationResult {
	var reasons []string

	length := utf8.RuneCountInString(secret)
	if length < MinSecretLength {
		reasons = append(reasons, ViolationTooShort)
	}
	if length > MaxSecretLength {
		reasons = append(reasons, ViolationTooLong)
	}

	var hasLower, hasUpper, hasDigit bool
	for _, r := range secret {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLower {
		reasons = append(reasons, ViolationNoLower)
	}
	if !hasUpper {
		reasons = append(reasons, ViolationNoUpper)
	}
	if !hasDigit {
		reasons = append(reasons, ViolationNoDigit)
	}

	return ValidationResult{Reasons: reasons}
}

func ValidateName(name string) ValidationResult {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ValidationResult{Reasons: []string{ViolationNameEmpty}}
	}
	if utf8.RuneCountInString(trimmed) > MaxNameLength {
		return ValidationResult{Reasons: []string{ViolationNameLong}}
	}

	return ValidationResult{}
}
