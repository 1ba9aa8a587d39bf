// Package ledger holds the budgeting state container and the mutation
// operations over it. Every operation takes a Snapshot and returns a new
// one; inputs are never modified, so readers can keep using an old snapshot
// while a mutation is in flight. Collections that a mutation does not touch
// are carried over by reference, which lets callers cheaply detect no-ops.
package ledger

import (
	"github.com/HelloDanni/billflow/internal/core"
)

// Snapshot is the full persisted state: the four collections joined by bill
// id (bills, overrides, payments) plus the income list.
type Snapshot struct {
	Bills     []core.Bill        `json:"bills"`
	Incomes   []core.IncomeEntry `json:"incomes"`
	Overrides core.OverrideSet   `json:"overrides"`
	Payments  core.PaymentState  `json:"payments"`
}

// BillByID returns the bill with the given id, if present.
func (s Snapshot) BillByID(id string) (core.Bill, bool) {
	for _, b := range s.Bills {
		if b.ID == id {
			return b, true
		}
	}
	return core.Bill{}, false
}

// IncomeByID returns the income entry with the given id, if present.
func (s Snapshot) IncomeByID(id string) (core.IncomeEntry, bool) {
	for _, e := range s.Incomes {
		if e.ID == id {
			return e, true
		}
	}
	return core.IncomeEntry{}, false
}

func cloneBills(in []core.Bill) []core.Bill {
	out := make([]core.Bill, len(in))
	copy(out, in)
	return out
}

func cloneIncomes(in []core.IncomeEntry) []core.IncomeEntry {
	out := make([]core.IncomeEntry, len(in))
	copy(out, in)
	return out
}

func cloneOverrides(in core.OverrideSet) core.OverrideSet {
	out := make(core.OverrideSet, len(in))
	for m, patches := range in {
		month := make(map[string]core.BillPatch, len(patches))
		for id, p := range patches {
			month[id] = p
		}
		out[m] = month
	}
	return out
}

func clonePayments(in core.PaymentState) core.PaymentState {
	out := make(core.PaymentState, len(in))
	for m, flags := range in {
		month := make(map[string]bool, len(flags))
		for id, paid := range flags {
			month[id] = paid
		}
		out[m] = month
	}
	return out
}
