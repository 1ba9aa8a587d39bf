// Package schedule is the pure scheduling engine: it expands recurring bill
// and income rules into concrete per-month occurrences, projects them onto a
// calendar month, and aggregates upcoming pay periods. Nothing in this
// package touches storage or clocks; callers pass explicit state and
// reference instants.
//
// This file implements the Strategy Pattern for income expansion. Each
// cadence (none, biweekly, monthly) has its own expander that encapsulates
// the placement logic for one calendar month.
package schedule

import (
	"github.com/HelloDanni/billflow/internal/core"
)

// BillDueInMonth reports whether the bill rule produces an occurrence in the
// target month: the target must be on/after StartMonth, on/before EndMonth
// when present, and the month distance from StartMonth must divide evenly by
// Recurrence (or be exactly zero for a one-time bill).
func BillDueInMonth(b core.Bill, target core.MonthKey) bool {
	diff := core.MonthsBetween(b.StartMonth, target)
	if diff < 0 {
		return false
	}
	if b.EndMonth != "" && core.MonthsBetween(b.EndMonth, target) > 0 {
		return false
	}
	if b.Recurrence == 0 {
		return diff == 0
	}
	return diff%b.Recurrence == 0
}

// EffectiveDueDay returns the day the bill lands on in the target month:
// the rule's due day clamped to the month's length. Short months clamp, they
// never roll the occurrence into the next month.
func EffectiveDueDay(b core.Bill, target core.MonthKey) int {
	return core.ClampDay(b.DueDay, target)
}

// DueDate returns the bill's ISO due date in the target month.
func DueDate(b core.Bill, target core.MonthKey) string {
	return core.DateOf(target, b.DueDay)
}

// IncomeExpander is the strategy interface for placing an income entry's
// occurrences inside one calendar month.
type IncomeExpander interface {
	Expand(e core.IncomeEntry, target core.MonthKey) []core.Occurrence
}

// NoneExpander yields the single anchor occurrence, only in the anchor's
// own month.
type NoneExpander struct{}

func (NoneExpander) Expand(e core.IncomeEntry, target core.MonthKey) []core.Occurrence {
	anchorMonth, ok := core.MonthKeyFromISO(e.Date)
	if !ok || anchorMonth != target {
		return nil
	}
	return []core.Occurrence{occurrenceOf(e, e.Date)}
}

// MonthlyExpander yields one occurrence per month on min(anchor day, days in
// month), for every month on/after the anchor's month.
type MonthlyExpander struct{}

func (MonthlyExpander) Expand(e core.IncomeEntry, target core.MonthKey) []core.Occurrence {
	anchorMonth, ok := core.MonthKeyFromISO(e.Date)
	if !ok || core.MonthsBetween(anchorMonth, target) < 0 {
		return nil
	}
	return []core.Occurrence{occurrenceOf(e, core.DateOf(target, core.DayFromISO(e.Date)))}
}

// BiweeklyExpander steps forward from the anchor date in exact 14-day
// increments and keeps every stepped date that lands inside the target
// month. Stepping is always anchored to the original anchor date, never
// recomputed per month, so the cadence cannot drift across month
// boundaries.
type BiweeklyExpander struct{}

func (BiweeklyExpander) Expand(e core.IncomeEntry, target core.MonthKey) []core.Occurrence {
	anchor, err := core.ParseISODate(e.Date)
	if err != nil {
		return nil
	}
	monthStart := target.Time()
	monthEnd := monthStart.AddDate(0, 1, 0)

	// Jump close to the target month in whole 14-day strides, then walk.
	cur := anchor
	if days := int(monthStart.Sub(anchor).Hours() / 24); days > 14 {
		cur = anchor.AddDate(0, 0, (days/14)*14)
	}
	for cur.Before(monthStart) {
		cur = cur.AddDate(0, 0, 14)
	}

	var out []core.Occurrence
	for !cur.Before(monthStart) && cur.Before(monthEnd) {
		if !cur.Before(anchor) {
			out = append(out, occurrenceOf(e, core.FormatISODate(cur)))
		}
		cur = cur.AddDate(0, 0, 14)
	}
	return out
}

// incomeExpanders maps cadences to their expanders. The registry enables
// O(1) lookup and keeps each placement algorithm isolated.
var incomeExpanders = map[core.IncomeRecurrence]IncomeExpander{
	core.RecurrenceNone:     NoneExpander{},
	core.RecurrenceBiweekly: BiweeklyExpander{},
	core.RecurrenceMonthly:  MonthlyExpander{},
}

// ExpandIncome produces the entry's occurrences in the target month, sorted
// by date. Unknown cadences expand to nothing.
func ExpandIncome(e core.IncomeEntry, target core.MonthKey) []core.Occurrence {
	expander, ok := incomeExpanders[e.Recurrence.Normalized()]
	if !ok {
		return nil
	}
	return expander.Expand(e, target)
}

func occurrenceOf(e core.IncomeEntry, date string) core.Occurrence {
	return core.Occurrence{
		Date:    date,
		Amount:  e.Amount,
		Source:  e.Source,
		EntryID: e.ID,
	}
}
