package ledger

import (
	"reflect"
	"testing"

	"github.com/HelloDanni/billflow/internal/core"
	"github.com/HelloDanni/billflow/internal/schedule"
)

func billInput() BillInput {
	return BillInput{
		Name:       "Rent",
		Amount:     core.Money{Cents: 120000},
		DueDay:     1,
		Recurrence: 1,
		StartMonth: "2025-01",
	}
}

func TestAddBill(t *testing.T) {
	s, bill, errs := AddBill(Snapshot{}, billInput())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if bill.ID == "" {
		t.Fatalf("expected a fresh id")
	}
	if len(s.Bills) != 1 || s.Bills[0].ID != bill.ID {
		t.Fatalf("bill not appended: %+v", s.Bills)
	}
}

func TestAddBill_Invalid(t *testing.T) {
	in := billInput()
	in.Name = " "
	in.Amount = core.Money{}
	before := Snapshot{}
	after, _, errs := AddBill(before, in)
	if len(errs) != 2 {
		t.Fatalf("expected 2 field errors, got %+v", errs)
	}
	if len(after.Bills) != 0 {
		t.Fatalf("invalid input must not mutate state")
	}
}

func TestAddBill_DoesNotMutateInput(t *testing.T) {
	orig, bill, _ := AddBill(Snapshot{}, billInput())
	next, _, _ := AddBill(orig, BillInput{Name: "Gym", Amount: core.Money{Cents: 3000}, DueDay: 5, Recurrence: 1, StartMonth: "2025-01"})
	if len(orig.Bills) != 1 || orig.Bills[0].ID != bill.ID {
		t.Fatalf("input snapshot was mutated: %+v", orig.Bills)
	}
	if len(next.Bills) != 2 {
		t.Fatalf("expected appended bill: %+v", next.Bills)
	}
}

func TestOverrideBillInstance(t *testing.T) {
	s, bill, _ := AddBill(Snapshot{}, billInput())

	s2, errs, found := OverrideBillInstance(s, "2025-03", bill.ID, PatchInput{Name: "Rent", Amount: core.Money{Cents: 125000}, DueDay: 3})
	if !found || len(errs) != 0 {
		t.Fatalf("override failed: found=%v errs=%+v", found, errs)
	}
	if _, ok := s2.Overrides.PatchFor("2025-03", bill.ID); !ok {
		t.Fatalf("patch missing")
	}
	if _, ok := s.Overrides.PatchFor("2025-03", bill.ID); ok {
		t.Fatalf("input snapshot gained an override")
	}

	if _, _, found := OverrideBillInstance(s, "2025-03", "missing", PatchInput{Name: "x", Amount: core.Money{Cents: 1}, DueDay: 1}); found {
		t.Fatalf("unknown bill must report not found")
	}
}

func TestEditBillFuture_InPlaceAtStartMonth(t *testing.T) {
	s, bill, _ := AddBill(Snapshot{}, billInput())
	s2, errs, found := EditBillFuture(s, bill.ID, "2025-01", PatchInput{Name: "Rent v2", Amount: core.Money{Cents: 130000}, DueDay: 2})
	if !found || len(errs) != 0 {
		t.Fatalf("edit failed: %v %+v", found, errs)
	}
	if len(s2.Bills) != 1 {
		t.Fatalf("in-place edit must not split: %+v", s2.Bills)
	}
	if got := s2.Bills[0]; got.Name != "Rent v2" || got.Amount.Cents != 130000 || got.DueDay != 2 || got.StartMonth != "2025-01" {
		t.Fatalf("fields not rewritten: %+v", got)
	}
}

func TestEditBillFuture_SplitPartitionsMonths(t *testing.T) {
	s, bill, _ := AddBill(Snapshot{}, billInput())
	s2, errs, found := EditBillFuture(s, bill.ID, "2025-06", PatchInput{Name: "Rent (new lease)", Amount: core.Money{Cents: 140000}, DueDay: 1})
	if !found || len(errs) != 0 {
		t.Fatalf("edit failed: %v %+v", found, errs)
	}
	if len(s2.Bills) != 2 {
		t.Fatalf("expected a split: %+v", s2.Bills)
	}
	old, next := s2.Bills[0], s2.Bills[1]
	if old.EndMonth != "2025-05" {
		t.Fatalf("old end month = %q, want 2025-05", old.EndMonth)
	}
	if next.StartMonth != "2025-06" || next.EndMonth != "" || next.Amount.Cents != 140000 {
		t.Fatalf("successor = %+v", next)
	}
	if next.ID == old.ID {
		t.Fatalf("successor must get a fresh id")
	}

	// The two records together exactly partition the original's months.
	for i := 0; i < 12; i++ {
		month := core.MonthKey("2025-01").AddMonths(i)
		oldDue := schedule.BillDueInMonth(old, month)
		newDue := schedule.BillDueInMonth(next, month)
		if oldDue && newDue {
			t.Fatalf("overlap in %q", month)
		}
		if !oldDue && !newDue {
			t.Fatalf("gap in %q", month)
		}
	}
}

func TestEditBillFuture_SplitInheritsEndMonth(t *testing.T) {
	in := billInput()
	in.EndMonth = "2025-12"
	s, bill, _ := AddBill(Snapshot{}, in)
	s2, _, _ := EditBillFuture(s, bill.ID, "2025-06", PatchInput{Name: "Rent", Amount: core.Money{Cents: 1}, DueDay: 1})
	if got := s2.Bills[1].EndMonth; got != "2025-12" {
		t.Fatalf("successor end month = %q, want inherited 2025-12", got)
	}
}

func TestEditBillFuture_SplitMigratesOverrideAndPayment(t *testing.T) {
	s, bill, _ := AddBill(Snapshot{}, billInput())
	s, _, _ = OverrideBillInstance(s, "2025-06", bill.ID, PatchInput{Name: "Rent", Amount: core.Money{Cents: 1}, DueDay: 9})
	s, _ = TogglePaid(s, "2025-06", bill.ID)

	s2, _, _ := EditBillFuture(s, bill.ID, "2025-06", PatchInput{Name: "Rent", Amount: core.Money{Cents: 2}, DueDay: 1})
	if _, ok := s2.Overrides.PatchFor("2025-06", bill.ID); ok {
		t.Fatalf("stale override must be dropped at the split boundary")
	}
	successor := s2.Bills[1]
	if s2.Payments.Paid("2025-06", bill.ID) {
		t.Fatalf("old id must lose the edit-month paid flag")
	}
	if !s2.Payments.Paid("2025-06", successor.ID) {
		t.Fatalf("paid flag must migrate to the successor")
	}
}

func TestEditBillFuture_RejectsOffCycleSplit(t *testing.T) {
	in := billInput()
	in.Recurrence = 3 // due 2025-01, 2025-04, 2025-07, ...
	s, bill, _ := AddBill(Snapshot{}, in)

	s2, errs, found := EditBillFuture(s, bill.ID, "2025-05", PatchInput{Name: "Rent", Amount: core.Money{Cents: 1}, DueDay: 1})
	if !found {
		t.Fatalf("bill must be found")
	}
	if len(errs) != 1 || errs[0].Field != "month" {
		t.Fatalf("off-cycle edit month must be rejected: %+v", errs)
	}
	if len(s2.Bills) != 1 || !reflect.DeepEqual(s2.Bills, s.Bills) {
		t.Fatalf("rejected edit must not split: %+v", s2.Bills)
	}

	// An aligned edit point keeps the every-3-months cadence intact.
	s3, errs, _ := EditBillFuture(s, bill.ID, "2025-07", PatchInput{Name: "Rent", Amount: core.Money{Cents: 2}, DueDay: 1})
	if len(errs) != 0 {
		t.Fatalf("aligned edit rejected: %+v", errs)
	}
	successor := s3.Bills[1]
	for _, tc := range []struct {
		month core.MonthKey
		due   bool
	}{
		{"2025-07", true},
		{"2025-08", false},
		{"2025-09", false},
		{"2025-10", true},
	} {
		if got := schedule.BillDueInMonth(successor, tc.month); got != tc.due {
			t.Fatalf("successor due in %s = %v, want %v", tc.month, got, tc.due)
		}
	}
}

func TestEditBillFuture_OneTimeEditsInPlace(t *testing.T) {
	in := billInput()
	in.Recurrence = 0
	s, bill, _ := AddBill(Snapshot{}, in)
	s2, _, _ := EditBillFuture(s, bill.ID, "2025-04", PatchInput{Name: "Rent", Amount: core.Money{Cents: 5}, DueDay: 7})
	if len(s2.Bills) != 1 || s2.Bills[0].Amount.Cents != 5 {
		t.Fatalf("one-time bill must edit in place: %+v", s2.Bills)
	}
}

func TestDeleteBill_Cascades(t *testing.T) {
	s, bill, _ := AddBill(Snapshot{}, billInput())
	s, _, _ = OverrideBillInstance(s, "2025-02", bill.ID, PatchInput{Name: "Rent", Amount: core.Money{Cents: 1}, DueDay: 1})
	s, _, _ = OverrideBillInstance(s, "2025-07", bill.ID, PatchInput{Name: "Rent", Amount: core.Money{Cents: 2}, DueDay: 2})
	s, _ = TogglePaid(s, "2025-02", bill.ID)
	s, _ = TogglePaid(s, "2025-03", bill.ID)

	s2, ok := DeleteBill(s, bill.ID)
	if !ok {
		t.Fatalf("expected deletion")
	}
	if len(s2.Bills) != 0 {
		t.Fatalf("bill survived: %+v", s2.Bills)
	}
	if len(s2.Overrides) != 0 {
		t.Fatalf("override cascade incomplete: %+v", s2.Overrides)
	}
	if len(s2.Payments) != 0 {
		t.Fatalf("payment cascade incomplete: %+v", s2.Payments)
	}
}

func TestDeleteBill_NoopCollectionsKeepReference(t *testing.T) {
	s, a, _ := AddBill(Snapshot{}, billInput())
	s, b, _ := AddBill(s, BillInput{Name: "Gym", Amount: core.Money{Cents: 3000}, DueDay: 5, Recurrence: 1, StartMonth: "2025-01"})
	s, _ = TogglePaid(s, "2025-02", a.ID)

	s2, ok := DeleteBill(s, b.ID)
	if !ok {
		t.Fatalf("expected deletion")
	}
	// b has no overrides or payments, so both collections must be the
	// exact same references as before.
	if reflect.ValueOf(s2.Payments).Pointer() != reflect.ValueOf(s.Payments).Pointer() {
		t.Fatalf("payments were rebuilt for a no-op cascade")
	}
	if s.Overrides != nil || s2.Overrides != nil {
		t.Fatalf("overrides should remain nil")
	}
}

func TestDeleteBill_Missing(t *testing.T) {
	s, _, _ := AddBill(Snapshot{}, billInput())
	s2, ok := DeleteBill(s, "missing")
	if ok {
		t.Fatalf("unknown bill must not delete")
	}
	if len(s2.Bills) != 1 {
		t.Fatalf("snapshot changed on missing delete")
	}
}

func TestTogglePaid_ScopedToMonth(t *testing.T) {
	s, bill, _ := AddBill(Snapshot{}, billInput())
	s2, nowPaid := TogglePaid(s, "2025-03", bill.ID)
	if !nowPaid || !s2.Payments.Paid("2025-03", bill.ID) {
		t.Fatalf("toggle on failed")
	}
	if s2.Payments.Paid("2025-04", bill.ID) {
		t.Fatalf("toggle leaked into the next month")
	}

	s3, nowPaid := TogglePaid(s2, "2025-03", bill.ID)
	if nowPaid || s3.Payments.Paid("2025-03", bill.ID) {
		t.Fatalf("toggle off failed")
	}
	if len(s3.Payments) != 0 {
		t.Fatalf("cleared months must be pruned: %+v", s3.Payments)
	}
}

func TestIncomeLifecycle(t *testing.T) {
	in := IncomeInput{Source: "Salary", Amount: core.Money{Cents: 200000}, Date: "2025-01-03", Recurrence: core.RecurrenceBiweekly}
	s, entry, errs := AddIncome(Snapshot{}, in)
	if len(errs) != 0 || entry.ID == "" {
		t.Fatalf("add income failed: %+v", errs)
	}

	in.Source = "New employer"
	s2, errs, found := UpdateIncome(s, entry.ID, in)
	if !found || len(errs) != 0 {
		t.Fatalf("update failed: %v %+v", found, errs)
	}
	if s2.Incomes[0].Source != "New employer" || s2.Incomes[0].ID != entry.ID {
		t.Fatalf("update result: %+v", s2.Incomes[0])
	}
	if s.Incomes[0].Source != "Salary" {
		t.Fatalf("input snapshot mutated")
	}

	if _, _, found := UpdateIncome(s2, "missing", in); found {
		t.Fatalf("unknown id must report not found")
	}

	s3, ok := DeleteIncome(s2, entry.ID)
	if !ok || len(s3.Incomes) != 0 {
		t.Fatalf("delete income failed: %+v", s3.Incomes)
	}
}
