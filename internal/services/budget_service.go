// Package services orchestrates snapshot mutations across storage and AMQP.
// All state changes funnel through BudgetService so persistence, revision
// tracking, and export notifications stay in one place.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/HelloDanni/billflow/internal/core"
	"github.com/HelloDanni/billflow/internal/ledger"
	"github.com/HelloDanni/billflow/internal/schedule"
	"github.com/HelloDanni/billflow/internal/storage"
)

// ErrNotFound is returned when a mutation targets an unknown bill or income
var ErrNotFound = errors.New("not found")

// SyncPublisher notifies the export worker that a month's projection changed
type SyncPublisher interface {
	PublishMonthDirty(ctx context.Context, month string, revision int64) error
}

// BudgetService serves projections and applies mutations against a single
// in-memory snapshot. Every successful mutation is persisted whole before
// the new snapshot becomes visible; a failed save leaves the old state.
type BudgetService struct {
	mu        sync.RWMutex
	store     storage.Store
	publisher SyncPublisher
	snap      ledger.Snapshot
	revision  int64
}

func NewBudgetService(ctx context.Context, store storage.Store, publisher SyncPublisher) (*BudgetService, error) {
	snap, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	return &BudgetService{
		store:     store,
		publisher: publisher,
		snap:      snap,
	}, nil
}

// Snapshot returns the current state. Callers must not mutate it.
func (s *BudgetService) Snapshot() ledger.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Revision returns the number of mutations applied since startup
func (s *BudgetService) Revision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// MonthView builds the calendar projection for the requested month. An
// invalid or empty month string falls back to the current month.
func (s *BudgetService) MonthView(month string, now time.Time) schedule.MonthView {
	target := core.MonthKeyOrCurrent(month, now)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return schedule.BuildMonthView(s.snap.Bills, s.snap.Incomes, s.snap.Overrides, s.snap.Payments, target)
}

// PayPeriod aggregates the next pay period starting at the reference date.
// An empty reference defaults to today.
func (s *BudgetService) PayPeriod(reference string, now time.Time) *schedule.PayPeriodSummary {
	if _, err := core.ParseISODate(reference); err != nil {
		reference = core.FormatISODate(now)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return schedule.NextPayPeriod(s.snap.Incomes, s.snap.Bills, s.snap.Overrides, s.snap.Payments, reference)
}

// AddBill validates and appends a new recurring bill
func (s *BudgetService) AddBill(ctx context.Context, in ledger.BillInput) (core.Bill, []ledger.FieldError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, created, fieldErrs := ledger.AddBill(s.snap, in)
	if len(fieldErrs) > 0 {
		return core.Bill{}, fieldErrs, nil
	}

	if err := s.commit(ctx, next, string(created.StartMonth)); err != nil {
		return core.Bill{}, nil, err
	}
	return created, nil, nil
}

// OverrideBill patches one bill instance in one month
func (s *BudgetService) OverrideBill(ctx context.Context, month core.MonthKey, billID string, in ledger.PatchInput) ([]ledger.FieldError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, fieldErrs, found := ledger.OverrideBillInstance(s.snap, month, billID, in)
	if len(fieldErrs) > 0 {
		return fieldErrs, nil
	}
	if !found {
		return nil, ErrNotFound
	}

	if err := s.commit(ctx, next, string(month)); err != nil {
		return nil, err
	}
	return nil, nil
}

// EditBillFuture applies a patch from the edit month forward, splitting the
// rule when it has history before that month
func (s *BudgetService) EditBillFuture(ctx context.Context, billID string, editMonth core.MonthKey, in ledger.PatchInput) ([]ledger.FieldError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, fieldErrs, found := ledger.EditBillFuture(s.snap, billID, editMonth, in)
	if len(fieldErrs) > 0 {
		return fieldErrs, nil
	}
	if !found {
		return nil, ErrNotFound
	}

	if err := s.commit(ctx, next, string(editMonth)); err != nil {
		return nil, err
	}
	return nil, nil
}

// DeleteBill removes a bill and all its overrides and payment flags
func (s *BudgetService) DeleteBill(ctx context.Context, billID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	months := affectedBillMonths(s.snap, billID, time.Now())
	next, found := ledger.DeleteBill(s.snap, billID)
	if !found {
		return ErrNotFound
	}

	return s.commitMonths(ctx, next, months)
}

// TogglePaid flips the paid flag for one bill in one month and returns the
// new flag value
func (s *BudgetService) TogglePaid(ctx context.Context, month core.MonthKey, billID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snap.BillByID(billID); !ok {
		return false, ErrNotFound
	}

	next, nowPaid := ledger.TogglePaid(s.snap, month, billID)
	if err := s.commit(ctx, next, string(month)); err != nil {
		return false, err
	}
	return nowPaid, nil
}

// AddIncome validates and appends a new income entry
func (s *BudgetService) AddIncome(ctx context.Context, in ledger.IncomeInput) (core.IncomeEntry, []ledger.FieldError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, created, fieldErrs := ledger.AddIncome(s.snap, in)
	if len(fieldErrs) > 0 {
		return core.IncomeEntry{}, fieldErrs, nil
	}

	month, _ := core.MonthKeyFromISO(created.Date)
	if err := s.commit(ctx, next, string(month)); err != nil {
		return core.IncomeEntry{}, nil, err
	}
	return created, nil, nil
}

// UpdateIncome replaces an income entry wholesale
func (s *BudgetService) UpdateIncome(ctx context.Context, id string, in ledger.IncomeInput) ([]ledger.FieldError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, fieldErrs, found := ledger.UpdateIncome(s.snap, id, in)
	if len(fieldErrs) > 0 {
		return fieldErrs, nil
	}
	if !found {
		return nil, ErrNotFound
	}

	month, _ := core.MonthKeyFromISO(in.Date)
	if err := s.commit(ctx, next, string(month)); err != nil {
		return nil, err
	}
	return nil, nil
}

// DeleteIncome removes an income entry
func (s *BudgetService) DeleteIncome(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	months := []string{string(core.MonthKeyOf(time.Now()))}
	if entry, ok := s.snap.IncomeByID(id); ok {
		if m, ok := core.MonthKeyFromISO(entry.Date); ok && string(m) != months[0] {
			months = append(months, string(m))
		}
	}

	next, found := ledger.DeleteIncome(s.snap, id)
	if !found {
		return ErrNotFound
	}

	return s.commitMonths(ctx, next, months)
}

// commit persists the candidate snapshot, then swaps it in and notifies the
// export worker. Callers must hold the write lock.
func (s *BudgetService) commit(ctx context.Context, next ledger.Snapshot, month string) error {
	return s.commitMonths(ctx, next, []string{month})
}

// commitMonths is commit for mutations touching several months at once,
// publishing one dirty message per month after the single save.
func (s *BudgetService) commitMonths(ctx context.Context, next ledger.Snapshot, months []string) error {
	if err := s.store.Save(ctx, next); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}

	s.snap = next
	s.revision++

	if s.publisher == nil {
		slog.DebugContext(ctx, "No publisher configured, skipping dirty month messages", "months", months)
		return nil
	}
	for _, month := range months {
		if err := s.publisher.PublishMonthDirty(ctx, month, s.revision); err != nil {
			// The mutation already persisted; export lag is acceptable
			slog.ErrorContext(ctx, "Failed to publish dirty month message",
				"month", month,
				"revision", s.revision,
				"error", err)
		}
	}
	return nil
}

// affectedBillMonths collects every month holding recorded state for the
// bill (paid flags, instance overrides) plus the current month, so their
// exported summaries refresh once the rule disappears. Months the bill was
// merely projected into refresh on the next mutation that touches them.
func affectedBillMonths(snap ledger.Snapshot, billID string, now time.Time) []string {
	seen := map[string]bool{string(core.MonthKeyOf(now)): true}
	for m, flags := range snap.Payments {
		if _, ok := flags[billID]; ok {
			seen[string(m)] = true
		}
	}
	for m, patches := range snap.Overrides {
		if _, ok := patches[billID]; ok {
			seen[string(m)] = true
		}
	}
	months := make([]string, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sort.Strings(months)
	return months
}

// Close releases the underlying store
func (s *BudgetService) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
