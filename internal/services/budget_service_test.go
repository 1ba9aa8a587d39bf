package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/HelloDanni/billflow/internal/core"
	"github.com/HelloDanni/billflow/internal/ledger"
	"github.com/HelloDanni/billflow/internal/storage"
)

type recordingPublisher struct {
	months    []string
	revisions []int64
	fail      bool
}

func (p *recordingPublisher) PublishMonthDirty(_ context.Context, month string, revision int64) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.months = append(p.months, month)
	p.revisions = append(p.revisions, revision)
	return nil
}

func newTestService(t *testing.T) (*BudgetService, *recordingPublisher) {
	t.Helper()
	ctx := context.Background()

	store := storage.NewMemoryStore()
	// Start from an empty snapshot rather than the seed data.
	if err := store.Save(ctx, ledger.Snapshot{}); err != nil {
		t.Fatalf("seed empty snapshot: %v", err)
	}

	pub := &recordingPublisher{}
	svc, err := NewBudgetService(ctx, store, pub)
	if err != nil {
		t.Fatalf("NewBudgetService: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc, pub
}

func mustAddBill(t *testing.T, svc *BudgetService, in ledger.BillInput) core.Bill {
	t.Helper()
	bill, fieldErrs, err := svc.AddBill(context.Background(), in)
	if err != nil {
		t.Fatalf("AddBill: %v", err)
	}
	if len(fieldErrs) > 0 {
		t.Fatalf("AddBill rejected: %+v", fieldErrs)
	}
	return bill
}

func TestBudgetService_AddBill(t *testing.T) {
	svc, pub := newTestService(t)

	bill := mustAddBill(t, svc, ledger.BillInput{
		Name:       "Rent",
		Amount:     core.Money{Cents: 120000},
		DueDay:     1,
		Recurrence: 1,
		StartMonth: "2025-01",
	})

	if bill.ID == "" {
		t.Fatal("created bill has no ID")
	}
	if svc.Revision() != 1 {
		t.Fatalf("Revision() = %d, want 1", svc.Revision())
	}
	if len(pub.months) != 1 || pub.months[0] != "2025-01" {
		t.Fatalf("published months = %v, want [2025-01]", pub.months)
	}

	view := svc.MonthView("2025-01", time.Now())
	if len(view.Bills) != 1 || view.Bills[0].Name != "Rent" {
		t.Fatalf("month view missing new bill: %+v", view.Bills)
	}
}

func TestBudgetService_AddBillValidationDoesNotMutate(t *testing.T) {
	svc, pub := newTestService(t)

	_, fieldErrs, err := svc.AddBill(context.Background(), ledger.BillInput{
		Name:       "",
		Amount:     core.Money{Cents: -5},
		DueDay:     40,
		StartMonth: "not-a-month",
	})
	if err != nil {
		t.Fatalf("AddBill: %v", err)
	}
	if len(fieldErrs) == 0 {
		t.Fatal("expected field errors")
	}
	if svc.Revision() != 0 {
		t.Fatalf("Revision() = %d after rejected input, want 0", svc.Revision())
	}
	if len(pub.months) != 0 {
		t.Fatalf("rejected input published %v", pub.months)
	}
}

func TestBudgetService_TogglePaid(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	bill := mustAddBill(t, svc, ledger.BillInput{
		Name: "Water", Amount: core.Money{Cents: 4000}, DueDay: 10, Recurrence: 1, StartMonth: "2025-01",
	})

	nowPaid, err := svc.TogglePaid(ctx, "2025-02", bill.ID)
	if err != nil {
		t.Fatalf("TogglePaid: %v", err)
	}
	if !nowPaid {
		t.Fatal("first toggle should mark paid")
	}

	view := svc.MonthView("2025-02", time.Now())
	if view.Totals.Paid.Cents != 4000 {
		t.Fatalf("paid total = %d, want 4000", view.Totals.Paid.Cents)
	}

	// Other months are untouched.
	view = svc.MonthView("2025-01", time.Now())
	if view.Totals.Paid.Cents != 0 {
		t.Fatalf("january paid total = %d, want 0", view.Totals.Paid.Cents)
	}

	if _, err := svc.TogglePaid(ctx, "2025-02", "no-such-bill"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("TogglePaid unknown bill error = %v, want ErrNotFound", err)
	}
}

func TestBudgetService_OverrideAndEditFuture(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	bill := mustAddBill(t, svc, ledger.BillInput{
		Name: "Gym", Amount: core.Money{Cents: 3000}, DueDay: 5, Recurrence: 1, StartMonth: "2025-01",
	})

	if _, err := svc.OverrideBill(ctx, "2025-03", bill.ID, ledger.PatchInput{
		Name: "Gym", Amount: core.Money{Cents: 3500}, DueDay: 5,
	}); err != nil {
		t.Fatalf("OverrideBill: %v", err)
	}

	view := svc.MonthView("2025-03", time.Now())
	if view.Bills[0].Amount.Cents != 3500 {
		t.Fatalf("override not visible: %d", view.Bills[0].Amount.Cents)
	}
	view = svc.MonthView("2025-04", time.Now())
	if view.Bills[0].Amount.Cents != 3000 {
		t.Fatalf("override leaked to later month: %d", view.Bills[0].Amount.Cents)
	}

	if _, err := svc.EditBillFuture(ctx, bill.ID, "2025-06", ledger.PatchInput{
		Name: "Gym Plus", Amount: core.Money{Cents: 4500}, DueDay: 7,
	}); err != nil {
		t.Fatalf("EditBillFuture: %v", err)
	}

	view = svc.MonthView("2025-06", time.Now())
	if len(view.Bills) != 1 || view.Bills[0].Name != "Gym Plus" {
		t.Fatalf("future edit not visible: %+v", view.Bills)
	}
	view = svc.MonthView("2025-05", time.Now())
	if len(view.Bills) != 1 || view.Bills[0].Name != "Gym" {
		t.Fatalf("future edit changed history: %+v", view.Bills)
	}

	if err := svc.DeleteBill(ctx, bill.ID); err != nil {
		t.Fatalf("DeleteBill: %v", err)
	}
	view = svc.MonthView("2025-03", time.Now())
	if len(view.Bills) != 0 {
		t.Fatalf("deleted bill still projected: %+v", view.Bills)
	}
}

func TestBudgetService_DeleteBillPublishesAffectedMonths(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	bill := mustAddBill(t, svc, ledger.BillInput{
		Name: "Rent", Amount: core.Money{Cents: 120000}, DueDay: 1, Recurrence: 1, StartMonth: "2025-01",
	})
	if _, err := svc.TogglePaid(ctx, "2025-02", bill.ID); err != nil {
		t.Fatalf("TogglePaid: %v", err)
	}
	if _, err := svc.OverrideBill(ctx, "2025-04", bill.ID, ledger.PatchInput{
		Name: "Rent", Amount: core.Money{Cents: 125000}, DueDay: 1,
	}); err != nil {
		t.Fatalf("OverrideBill: %v", err)
	}

	published := len(pub.months)
	if err := svc.DeleteBill(ctx, bill.ID); err != nil {
		t.Fatalf("DeleteBill: %v", err)
	}

	// The delete refreshes every month that held recorded state for the
	// bill, not just the current one.
	got := pub.months[published:]
	want := map[string]bool{
		"2025-02": true,
		"2025-04": true,
		string(core.MonthKeyOf(time.Now())): true,
	}
	if len(got) != len(want) {
		t.Fatalf("published months after delete = %v, want %v", got, want)
	}
	for _, m := range got {
		if !want[m] {
			t.Fatalf("unexpected dirty month %q in %v", m, got)
		}
	}
	for _, rev := range pub.revisions[published:] {
		if rev != svc.Revision() {
			t.Fatalf("dirty months must share the delete's revision: %v", pub.revisions[published:])
		}
	}
}

func TestBudgetService_IncomeLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	income, fieldErrs, err := svc.AddIncome(ctx, ledger.IncomeInput{
		Source: "Paycheck", Amount: core.Money{Cents: 200000}, Date: "2025-01-03", Recurrence: core.RecurrenceBiweekly,
	})
	if err != nil || len(fieldErrs) > 0 {
		t.Fatalf("AddIncome: err=%v fieldErrs=%+v", err, fieldErrs)
	}

	period := svc.PayPeriod("2025-01-01", time.Now())
	if period == nil || period.CoverageStart != "2025-01-03" {
		t.Fatalf("PayPeriod = %+v, want coverage starting 2025-01-03", period)
	}

	if _, err := svc.UpdateIncome(ctx, income.ID, ledger.IncomeInput{
		Source: "Paycheck", Amount: core.Money{Cents: 210000}, Date: "2025-01-10", Recurrence: core.RecurrenceBiweekly,
	}); err != nil {
		t.Fatalf("UpdateIncome: %v", err)
	}

	period = svc.PayPeriod("2025-01-01", time.Now())
	if period == nil || period.CoverageStart != "2025-01-10" {
		t.Fatalf("updated income not reflected: %+v", period)
	}

	if err := svc.DeleteIncome(ctx, income.ID); err != nil {
		t.Fatalf("DeleteIncome: %v", err)
	}
	if period := svc.PayPeriod("2025-01-01", time.Now()); period != nil {
		t.Fatalf("PayPeriod after delete = %+v, want nil", period)
	}

	if err := svc.DeleteIncome(ctx, income.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestBudgetService_MonthViewFallback(t *testing.T) {
	svc, _ := newTestService(t)

	now := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	view := svc.MonthView("garbage", now)
	if view.Month != "2025-07" {
		t.Fatalf("invalid month fell back to %s, want 2025-07", view.Month)
	}
	view = svc.MonthView("", now)
	if view.Month != "2025-07" {
		t.Fatalf("empty month fell back to %s, want 2025-07", view.Month)
	}
}

func TestBudgetService_PublishFailureDoesNotRollBack(t *testing.T) {
	svc, pub := newTestService(t)
	pub.fail = true

	mustAddBill(t, svc, ledger.BillInput{
		Name: "Rent", Amount: core.Money{Cents: 120000}, DueDay: 1, Recurrence: 1, StartMonth: "2025-01",
	})

	if svc.Revision() != 1 {
		t.Fatalf("Revision() = %d, want 1 despite publish failure", svc.Revision())
	}
	view := svc.MonthView("2025-01", time.Now())
	if len(view.Bills) != 1 {
		t.Fatal("mutation lost on publish failure")
	}
}

// Projections must be identical before and after a persistence round-trip.
func TestBudgetService_ReloadPreservesProjection(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	if err := store.Save(ctx, ledger.Snapshot{}); err != nil {
		t.Fatalf("seed empty snapshot: %v", err)
	}

	svc, err := NewBudgetService(ctx, store, nil)
	if err != nil {
		t.Fatalf("NewBudgetService: %v", err)
	}

	bill := mustAddBill(t, svc, ledger.BillInput{
		Name: "Rent", Amount: core.Money{Cents: 120000}, DueDay: 31, Recurrence: 1, StartMonth: "2025-01",
	})
	if _, _, err := svc.AddIncome(ctx, ledger.IncomeInput{
		Source: "Paycheck", Amount: core.Money{Cents: 200000}, Date: "2025-01-03", Recurrence: core.RecurrenceBiweekly,
	}); err != nil {
		t.Fatalf("AddIncome: %v", err)
	}
	if _, err := svc.TogglePaid(ctx, "2025-02", bill.ID); err != nil {
		t.Fatalf("TogglePaid: %v", err)
	}

	before := svc.MonthView("2025-02", time.Now())
	beforePeriod := svc.PayPeriod("2025-01-01", time.Now())

	reloaded, err := NewBudgetService(ctx, store, nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	after := reloaded.MonthView("2025-02", time.Now())
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("month view changed across reload:\nbefore: %+v\nafter:  %+v", before, after)
	}
	afterPeriod := reloaded.PayPeriod("2025-01-01", time.Now())
	if !reflect.DeepEqual(beforePeriod, afterPeriod) {
		t.Fatalf("pay period changed across reload:\nbefore: %+v\nafter:  %+v", beforePeriod, afterPeriod)
	}
}
