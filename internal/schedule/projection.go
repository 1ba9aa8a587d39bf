package schedule

import (
	"sort"

	"github.com/HelloDanni/billflow/internal/core"
)

// Totals summarizes a projected month's bill amounts.
type Totals struct {
	Due       core.Money `json:"due"`
	Paid      core.Money `json:"paid"`
	Remaining core.Money `json:"remaining"`
}

// BillsForMonth returns the bills due in the target month with the month's
// instance patches applied, ordered by effective due day then name. The
// input slice is never modified.
func BillsForMonth(bills []core.Bill, overrides core.OverrideSet, target core.MonthKey) []core.Bill {
	var out []core.Bill
	for _, b := range bills {
		if !BillDueInMonth(b, target) {
			continue
		}
		if patch, ok := overrides.PatchFor(target, b.ID); ok {
			b = b.Apply(patch)
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := EffectiveDueDay(out[i], target), EffectiveDueDay(out[j], target)
		if di != dj {
			return di < dj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// MonthTotals computes due/paid/remaining over the already-projected bills
// of the target month.
func MonthTotals(projected []core.Bill, payments core.PaymentState, target core.MonthKey) Totals {
	var t Totals
	for _, b := range projected {
		t.Due.Cents += b.Amount.Cents
		if payments.Paid(target, b.ID) {
			t.Paid.Cents += b.Amount.Cents
		}
	}
	t.Remaining.Cents = t.Due.Cents - t.Paid.Cents
	return t
}

// billsByDay indexes projected bills by their effective due day.
func billsByDay(projected []core.Bill, target core.MonthKey) map[int][]core.Bill {
	idx := make(map[int][]core.Bill, len(projected))
	for _, b := range projected {
		day := EffectiveDueDay(b, target)
		idx[day] = append(idx[day], b)
	}
	return idx
}

// incomesByDay expands every entry against the target month and indexes the
// occurrences by day of month.
func incomesByDay(incomes []core.IncomeEntry, target core.MonthKey) map[int][]core.Occurrence {
	idx := make(map[int][]core.Occurrence)
	for _, e := range incomes {
		for _, occ := range ExpandIncome(e, target) {
			day := core.DayFromISO(occ.Date)
			idx[day] = append(idx[day], occ)
		}
	}
	return idx
}
