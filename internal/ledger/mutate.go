package ledger

import (
	"github.com/google/uuid"

	"github.com/HelloDanni/billflow/internal/core"
	"github.com/HelloDanni/billflow/internal/schedule"
)

// AddBill validates the input and appends a new bill rule with a fresh id.
// On validation failure the original snapshot is returned unchanged.
func AddBill(s Snapshot, in BillInput) (Snapshot, core.Bill, []FieldError) {
	if errs := ValidateBill(in); len(errs) > 0 {
		return s, core.Bill{}, errs
	}
	bill := core.Bill{
		ID:         uuid.NewString(),
		Name:       in.Name,
		Amount:     in.Amount,
		DueDay:     in.DueDay,
		Recurrence: in.Recurrence,
		StartMonth: in.StartMonth,
		Notes:      in.Notes,
		EndMonth:   in.EndMonth,
	}
	out := s
	out.Bills = append(cloneBills(s.Bills), bill)
	return out, bill, nil
}

// AddIncome validates the input and appends a new income entry.
func AddIncome(s Snapshot, in IncomeInput) (Snapshot, core.IncomeEntry, []FieldError) {
	if errs := ValidateIncome(in); len(errs) > 0 {
		return s, core.IncomeEntry{}, errs
	}
	entry := core.IncomeEntry{
		ID:         uuid.NewString(),
		Source:     in.Source,
		Amount:     in.Amount,
		Date:       in.Date,
		Recurrence: in.Recurrence.Normalized(),
	}
	out := s
	out.Incomes = append(cloneIncomes(s.Incomes), entry)
	return out, entry, nil
}

// UpdateIncome replaces the stored record's fields in place. Income entries
// have no per-instance overrides; edits always rewrite the single record.
func UpdateIncome(s Snapshot, id string, in IncomeInput) (Snapshot, []FieldError, bool) {
	if errs := ValidateIncome(in); len(errs) > 0 {
		return s, errs, true
	}
	for i, e := range s.Incomes {
		if e.ID != id {
			continue
		}
		out := s
		out.Incomes = cloneIncomes(s.Incomes)
		out.Incomes[i] = core.IncomeEntry{
			ID:         id,
			Source:     in.Source,
			Amount:     in.Amount,
			Date:       in.Date,
			Recurrence: in.Recurrence.Normalized(),
		}
		return out, nil, true
	}
	return s, nil, false
}

// DeleteIncome removes the entry entirely; all its future occurrences
// disappear with it.
func DeleteIncome(s Snapshot, id string) (Snapshot, bool) {
	for i, e := range s.Incomes {
		if e.ID != id {
			continue
		}
		out := s
		out.Incomes = append(cloneIncomes(s.Incomes[:i]), s.Incomes[i+1:]...)
		return out, true
	}
	return s, false
}

// OverrideBillInstance writes (or overwrites) the instance patch for the
// bill in one month, leaving the base rule untouched.
func OverrideBillInstance(s Snapshot, month core.MonthKey, billID string, in PatchInput) (Snapshot, []FieldError, bool) {
	if _, ok := s.BillByID(billID); !ok {
		return s, nil, false
	}
	if errs := ValidatePatch(in); len(errs) > 0 {
		return s, errs, true
	}
	out := s
	out.Overrides = cloneOverrides(s.Overrides)
	if out.Overrides == nil {
		out.Overrides = core.OverrideSet{}
	}
	if out.Overrides[month] == nil {
		out.Overrides[month] = map[string]core.BillPatch{}
	}
	out.Overrides[month][billID] = core.BillPatch{
		Name:   in.Name,
		Amount: in.Amount,
		DueDay: in.DueDay,
		Notes:  in.Notes,
	}
	return out, nil, true
}

// EditBillFuture applies new field values from the edit month onward.
//
// When the edit point is the bill's own start month, or the bill is
// one-time, the base record is rewritten in place. Otherwise the rule is
// split: the existing record ends the month before the edit point and a new
// record starts at it, inheriting the original end month. The edit point
// must be a month the rule is due in, so the successor stays on the
// original cadence. The edit month's stale override for the old id is
// dropped and its paid flag migrates to the new id, preserving payment
// history across the split boundary.
func EditBillFuture(s Snapshot, billID string, editMonth core.MonthKey, in PatchInput) (Snapshot, []FieldError, bool) {
	idx := -1
	for i, b := range s.Bills {
		if b.ID == billID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s, nil, false
	}
	if errs := ValidatePatch(in); len(errs) > 0 {
		return s, errs, true
	}
	original := s.Bills[idx]

	if original.Recurrence == 0 || editMonth == original.StartMonth {
		out := s
		out.Bills = cloneBills(s.Bills)
		b := out.Bills[idx]
		b.Name = in.Name
		b.Amount = in.Amount
		b.DueDay = in.DueDay
		b.Notes = in.Notes
		out.Bills[idx] = b
		return out, nil, true
	}

	// Splitting is only defined at a month the rule is actually due in;
	// anchoring the successor to an off-cycle month would re-phase an
	// every-N rule and break the old/new partition of due months.
	if !schedule.BillDueInMonth(original, editMonth) {
		return s, []FieldError{{Field: "month", Message: "bill is not due in this month"}}, true
	}

	successor := original
	successor.ID = uuid.NewString()
	successor.Name = in.Name
	successor.Amount = in.Amount
	successor.DueDay = in.DueDay
	successor.Notes = in.Notes
	successor.StartMonth = editMonth

	out := s
	out.Bills = cloneBills(s.Bills)
	closed := out.Bills[idx]
	closed.EndMonth = editMonth.AddMonths(-1)
	out.Bills[idx] = closed
	out.Bills = append(out.Bills, successor)

	if _, had := s.Overrides.PatchFor(editMonth, billID); had {
		out.Overrides = cloneOverrides(s.Overrides)
		delete(out.Overrides[editMonth], billID)
		if len(out.Overrides[editMonth]) == 0 {
			delete(out.Overrides, editMonth)
		}
	}
	if paid, had := s.Payments[editMonth][billID]; had {
		out.Payments = clonePayments(s.Payments)
		delete(out.Payments[editMonth], billID)
		out.Payments[editMonth][successor.ID] = paid
	}
	return out, nil, true
}

// DeleteBill removes the rule and cascades to its overrides and paid flags
// in every month, pruning emptied month entries. Collections with nothing
// to remove are carried over by reference so downstream consumers can skip
// recomputation.
func DeleteBill(s Snapshot, billID string) (Snapshot, bool) {
	idx := -1
	for i, b := range s.Bills {
		if b.ID == billID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s, false
	}
	out := s
	out.Bills = append(cloneBills(s.Bills[:idx]), s.Bills[idx+1:]...)

	if overrideHasBill(s.Overrides, billID) {
		out.Overrides = cloneOverrides(s.Overrides)
		for m, patches := range out.Overrides {
			delete(patches, billID)
			if len(patches) == 0 {
				delete(out.Overrides, m)
			}
		}
	}
	if paymentHasBill(s.Payments, billID) {
		out.Payments = clonePayments(s.Payments)
		for m, flags := range out.Payments {
			delete(flags, billID)
			if len(flags) == 0 {
				delete(out.Payments, m)
			}
		}
	}
	return out, true
}

// TogglePaid flips the paid flag for (month, bill id) only. Other months'
// state for the same bill is never touched. Cleared flags are pruned so
// persisted documents stay sparse.
func TogglePaid(s Snapshot, month core.MonthKey, billID string) (Snapshot, bool) {
	out := s
	out.Payments = clonePayments(s.Payments)
	if out.Payments == nil {
		out.Payments = core.PaymentState{}
	}
	if out.Payments[month][billID] {
		delete(out.Payments[month], billID)
		if len(out.Payments[month]) == 0 {
			delete(out.Payments, month)
		}
		return out, false
	}
	if out.Payments[month] == nil {
		out.Payments[month] = map[string]bool{}
	}
	out.Payments[month][billID] = true
	return out, true
}

func overrideHasBill(ov core.OverrideSet, billID string) bool {
	for _, patches := range ov {
		if _, ok := patches[billID]; ok {
			return true
		}
	}
	return false
}

func paymentHasBill(ps core.PaymentState, billID string) bool {
	for _, flags := range ps {
		if _, ok := flags[billID]; ok {
			return true
		}
	}
	return false
}
