package security

import (
	"errors"
	"testing"
)

func TestMinLengthRule(t *testing.T) {
	rule := MinLengthRule(8)

	if err := rule.Validate("longenough"); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	err := rule.Validate("short")
	if err == nil {
		t.Fatal("expected violation for short password")
	}
	var violation *PasswordValidationError
	if !errors.As(err, &violation) {
		t.Fatalf("err type = %T", err)
	}
	if violation.Code != "min_length" {
		t.Fatalf("code = %q", violation.Code)
	}
}

func TestMinLengthRuleCountsRunes(t *testing.T) {
	rule := MinLengthRule(8)
	// 8 multibyte runes, more than 8 bytes.
	if err := rule.Validate("ññññññññ"); err != nil {
		t.Fatalf("rune-length password rejected: %v", err)
	}
}

func TestMinStrengthRule(t *testing.T) {
	rule := MinStrengthRule(2)

	if err := rule.Validate("password"); err == nil {
		t.Fatal("dictionary word should be rejected")
	}
	if err := rule.Validate("k7#Qm!vze94L"); err != nil {
		t.Fatalf("strong password rejected: %v", err)
	}
}

func TestValidatorReturnsFirstViolation(t *testing.T) {
	validator := NewPasswordValidator(
		MinLengthRule(8),
		MinStrengthRule(2),
	)

	err := validator.Validate("pw")
	var violation *PasswordValidationError
	if !errors.As(err, &violation) {
		t.Fatalf("err = %v", err)
	}
	if violation.Code != "min_length" {
		t.Fatalf("code = %q, want min_length first", violation.Code)
	}
}

func TestDefaultPasswordValidator(t *testing.T) {
	validator := DefaultPasswordValidator(8)

	if err := validator.Validate("k7#Qm!vze94L"); err != nil {
		t.Fatalf("strong password rejected: %v", err)
	}
	if err := validator.Validate("password"); err == nil {
		t.Fatal("weak password accepted")
	}
}

func TestDefaultPasswordValidatorFallbackLength(t *testing.T) {
	validator := DefaultPasswordValidator(0)

	err := validator.Validate("k7#Qm!")
	var violation *PasswordValidationError
	if !errors.As(err, &violation) {
		t.Fatalf("err = %v", err)
	}
	if violation.Code != "min_length" {
		t.Fatalf("code = %q", violation.Code)
	}
}

func TestNilValidator(t *testing.T) {
	var validator *PasswordValidator
	if err := validator.Validate("anything"); err == nil {
		t.Fatal("nil validator should refuse to validate")
	}
}
