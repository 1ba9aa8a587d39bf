package core

import (
	"errors"
	"strings"
)

const (
	// RecurrenceNone marks an income entry with a single occurrence.
	RecurrenceNone IncomeRecurrence = "none"
	// RecurrenceBiweekly steps every 14 days from the anchor date.
	RecurrenceBiweekly IncomeRecurrence = "biweekly"
	// RecurrenceMonthly places one occurrence per month on the anchor day.
	RecurrenceMonthly IncomeRecurrence = "monthly"
)

type (
	// IncomeRecurrence names the cadence of an income entry.
	IncomeRecurrence string

	// Bill is a recurring expense rule. Recurrence is the whole number of
	// months between occurrences; zero means one-time in StartMonth.
	// EndMonth, when set, is the last month the rule applies in.
	Bill struct {
		ID         string   `json:"id"`
		Name       string   `json:"name"`
		Amount     Money    `json:"amount"`
		DueDay     int      `json:"dueDay"`
		Recurrence int      `json:"recurrence"`
		StartMonth MonthKey `json:"startMonth"`
		Notes      string   `json:"notes,omitempty"`
		EndMonth   MonthKey `json:"endMonth,omitempty"`
	}

	// BillPatch is a per-month, per-bill override of the display fields.
	// It never touches id, recurrence, or the start/end months.
	BillPatch struct {
		Name   string `json:"name"`
		Amount Money  `json:"amount"`
		DueDay int    `json:"dueDay"`
		Notes  string `json:"notes,omitempty"`
	}

	// IncomeEntry is a recurring income rule anchored at Date, the ISO
	// calendar date of its first occurrence.
	IncomeEntry struct {
		ID         string           `json:"id"`
		Source     string           `json:"source"`
		Amount     Money            `json:"amount"`
		Date       string           `json:"date"`
		Recurrence IncomeRecurrence `json:"recurrence,omitempty"`
	}

	// Occurrence is one concrete dated income instance produced by
	// expanding an entry against a calendar month.
	Occurrence struct {
		Date    string `json:"date"`
		Amount  Money  `json:"amount"`
		Source  string `json:"source"`
		EntryID string `json:"entryId"`
	}

	// PaymentState maps month key -> bill id -> paid. Paid status is
	// scoped to the month a bill was paid in, never to the bill record.
	PaymentState map[MonthKey]map[string]bool

	// OverrideSet maps month key -> bill id -> instance patch.
	OverrideSet map[MonthKey]map[string]BillPatch
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDueDay     = errors.New("invalid due day")
	ErrInvalidRecurrence = errors.New("invalid recurrence")
	ErrInvalidMonth      = errors.New("invalid month key")
	ErrInvalidDate       = errors.New("invalid date")
	ErrEmptyName         = errors.New("empty name")
	ErrEmptySource       = errors.New("empty source")
)

// Normalized maps the empty recurrence to none.
func (r IncomeRecurrence) Normalized() IncomeRecurrence {
	if r == "" {
		return RecurrenceNone
	}
	return r
}

// Valid reports whether r is a known cadence (empty counts as none).
func (r IncomeRecurrence) Valid() bool {
	switch r.Normalized() {
	case RecurrenceNone, RecurrenceBiweekly, RecurrenceMonthly:
		return true
	}
	return false
}

func (b Bill) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if b.DueDay < 1 || b.DueDay > 31 {
		return ErrInvalidDueDay
	}
	if b.Recurrence < 0 {
		return ErrInvalidRecurrence
	}
	if !b.StartMonth.Valid() {
		return ErrInvalidMonth
	}
	if b.EndMonth != "" {
		if !b.EndMonth.Valid() {
			return ErrInvalidMonth
		}
		if MonthsBetween(b.StartMonth, b.EndMonth) < 0 {
			return errors.New("end month before start month")
		}
	}
	return nil
}

func (p BillPatch) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if p.DueDay < 1 || p.DueDay > 31 {
		return ErrInvalidDueDay
	}
	return nil
}

func (e IncomeEntry) Validate() error {
	if strings.TrimSpace(e.Source) == "" {
		return ErrEmptySource
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if _, err := ParseISODate(e.Date); err != nil {
		return ErrInvalidDate
	}
	if !e.Recurrence.Valid() {
		return ErrInvalidRecurrence
	}
	return nil
}

// Apply layers the patch's display fields over the bill, leaving identity
// and scheduling fields untouched.
func (b Bill) Apply(p BillPatch) Bill {
	b.Name = p.Name
	b.Amount = p.Amount
	b.DueDay = p.DueDay
	b.Notes = p.Notes
	return b
}

// Paid reports whether the bill id is marked paid in the keyed month.
func (ps PaymentState) Paid(m MonthKey, billID string) bool {
	return ps[m][billID]
}

// PatchFor returns the instance patch for (month, bill id), if any.
func (ov OverrideSet) PatchFor(m MonthKey, billID string) (BillPatch, bool) {
	p, ok := ov[m][billID]
	return p, ok
}
