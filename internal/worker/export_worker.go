// Package worker rebuilds month summaries and appends them to the export
// sheet when a dirty-month message arrives.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/HelloDanni/billflow/internal/amqp"
	"github.com/HelloDanni/billflow/internal/core"
	"github.com/HelloDanni/billflow/internal/schedule"
	"github.com/HelloDanni/billflow/internal/sheets"
	"github.com/HelloDanni/billflow/internal/storage"
)

// ExportWorker turns dirty-month messages into summary rows. Months that
// fail to export are kept as pending so the periodic flush can retry them.
type ExportWorker struct {
	store     storage.Store
	writer    sheets.SummaryWriter
	batchSize int

	mu      sync.Mutex
	pending map[string]int64 // month -> latest known revision
}

func NewExportWorker(store storage.Store, writer sheets.SummaryWriter, batchSize int) *ExportWorker {
	return &ExportWorker{
		store:     store,
		writer:    writer,
		batchSize: batchSize,
		pending:   make(map[string]int64),
	}
}

// HandleDirtyMessage processes a single dirty-month message from AMQP
func (w *ExportWorker) HandleDirtyMessage(ctx context.Context, msg *amqp.MonthDirtyMessage) error {
	month := core.MonthKey(msg.Month)
	if !month.Valid() {
		// Unparseable months are dropped, not requeued
		slog.WarnContext(ctx, "Dropping dirty message with invalid month", "month", msg.Month)
		return nil
	}

	if err := w.exportMonth(ctx, month, msg.Revision); err != nil {
		w.markPending(msg.Month, msg.Revision)
		return fmt.Errorf("export month %s: %w", msg.Month, err)
	}
	return nil
}

// FlushPending retries months whose export previously failed. It is a
// backup mechanism in case AMQP messages are lost or the sheet was down.
func (w *ExportWorker) FlushPending(ctx context.Context) error {
	months := w.takePending()
	if len(months) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Flushing pending month exports", "count", len(months))

	errorCount := 0
	for month, revision := range months {
		if err := w.exportMonth(ctx, core.MonthKey(month), revision); err != nil {
			slog.ErrorContext(ctx, "Failed to flush pending month",
				"month", month,
				"revision", revision,
				"error", err)
			w.markPending(month, revision)
			errorCount++
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("flush pending exports: %d of %d failed", errorCount, len(months))
	}
	return nil
}

// StartupExport writes a summary for the current month so a fresh sheet
// has at least one row even before any mutation happens.
func (w *ExportWorker) StartupExport(ctx context.Context) error {
	month := core.MonthKeyOf(time.Now())
	if err := w.exportMonth(ctx, month, 0); err != nil {
		return fmt.Errorf("startup export for %s: %w", month, err)
	}
	return nil
}

func (w *ExportWorker) exportMonth(ctx context.Context, month core.MonthKey, revision int64) error {
	snap, err := w.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	projected := schedule.BillsForMonth(snap.Bills, snap.Overrides, month)
	totals := schedule.MonthTotals(projected, snap.Payments, month)

	summary := sheets.MonthSummary{
		Month:          string(month),
		DueCents:       totals.Due.Cents,
		PaidCents:      totals.Paid.Cents,
		RemainingCents: totals.Remaining.Cents,
		BillCount:      len(projected),
		Revision:       revision,
		ExportedAt:     time.Now(),
	}

	ref, err := w.writer.Append(ctx, summary)
	if err != nil {
		return fmt.Errorf("append summary: %w", err)
	}

	slog.InfoContext(ctx, "Exported month summary",
		"month", month,
		"revision", revision,
		"bill_count", summary.BillCount,
		"sheets_ref", ref)

	return nil
}

func (w *ExportWorker) markPending(month string, revision int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if revision >= w.pending[month] {
		w.pending[month] = revision
	}
}

// takePending drains up to batchSize pending months, oldest month first
func (w *ExportWorker) takePending() map[string]int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) == 0 {
		return nil
	}

	months := make([]string, 0, len(w.pending))
	for month := range w.pending {
		months = append(months, month)
	}
	sort.Strings(months)
	if len(months) > w.batchSize {
		months = months[:w.batchSize]
	}

	taken := make(map[string]int64, len(months))
	for _, month := range months {
		taken[month] = w.pending[month]
		delete(w.pending, month)
	}
	return taken
}

// PendingCount reports how many months are queued for retry
func (w *ExportWorker) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}
