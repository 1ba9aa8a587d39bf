package ledger

import (
	"strings"

	"github.com/HelloDanni/billflow/internal/core"
)

type (
	// FieldError names a single rejected input field. Mutations that
	// fail validation return the full error list and leave the snapshot
	// untouched; the presentation layer decides how to surface them.
	FieldError struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}

	// BillInput is the user-supplied shape for creating or editing a
	// bill rule.
	BillInput struct {
		Name       string        `json:"name"`
		Amount     core.Money    `json:"amount"`
		DueDay     int           `json:"dueDay"`
		Recurrence int           `json:"recurrence"`
		StartMonth core.MonthKey `json:"startMonth"`
		Notes      string        `json:"notes,omitempty"`
		EndMonth   core.MonthKey `json:"endMonth,omitempty"`
	}

	// IncomeInput is the user-supplied shape for creating or editing an
	// income entry.
	IncomeInput struct {
		Source     string                `json:"source"`
		Amount     core.Money            `json:"amount"`
		Date       string                `json:"date"`
		Recurrence core.IncomeRecurrence `json:"recurrence,omitempty"`
	}

	// PatchInput is the user-supplied shape for an instance-only edit.
	PatchInput struct {
		Name   string     `json:"name"`
		Amount core.Money `json:"amount"`
		DueDay int        `json:"dueDay"`
		Notes  string     `json:"notes,omitempty"`
	}
)

func fieldError(errs []FieldError, field, message string) []FieldError {
	return append(errs, FieldError{Field: field, Message: message})
}

// ValidateBill checks a bill input and returns the field errors, if any.
func ValidateBill(in BillInput) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(in.Name) == "" {
		errs = fieldError(errs, "name", "name is required")
	}
	if in.Amount.Cents <= 0 {
		errs = fieldError(errs, "amount", "amount must be positive")
	}
	if in.DueDay < 1 || in.DueDay > 31 {
		errs = fieldError(errs, "dueDay", "due day must be between 1 and 31")
	}
	if in.Recurrence < 0 {
		errs = fieldError(errs, "recurrence", "recurrence cannot be negative")
	}
	if !in.StartMonth.Valid() {
		errs = fieldError(errs, "startMonth", "start month must be YYYY-MM")
	}
	if in.EndMonth != "" {
		if !in.EndMonth.Valid() {
			errs = fieldError(errs, "endMonth", "end month must be YYYY-MM")
		} else if in.StartMonth.Valid() && core.MonthsBetween(in.StartMonth, in.EndMonth) < 0 {
			errs = fieldError(errs, "endMonth", "end month cannot precede start month")
		}
	}
	return errs
}

// ValidateIncome checks an income input and returns the field errors, if any.
func ValidateIncome(in IncomeInput) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(in.Source) == "" {
		errs = fieldError(errs, "source", "source is required")
	}
	if in.Amount.Cents <= 0 {
		errs = fieldError(errs, "amount", "amount must be positive")
	}
	if _, err := core.ParseISODate(in.Date); err != nil {
		errs = fieldError(errs, "date", "date must be YYYY-MM-DD")
	}
	if !in.Recurrence.Valid() {
		errs = fieldError(errs, "recurrence", "recurrence must be none, biweekly, or monthly")
	}
	return errs
}

// ValidatePatch checks an instance-only edit and returns the field errors.
func ValidatePatch(in PatchInput) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(in.Name) == "" {
		errs = fieldError(errs, "name", "name is required")
	}
	if in.Amount.Cents <= 0 {
		errs = fieldError(errs, "amount", "amount must be positive")
	}
	if in.DueDay < 1 || in.DueDay > 31 {
		errs = fieldError(errs, "dueDay", "due day must be between 1 and 31")
	}
	return errs
}
