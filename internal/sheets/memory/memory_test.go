package memory

import (
	"context"
	"testing"
	"time"

	ports "github.com/HelloDanni/billflow/internal/sheets"
)

func TestStore_Append(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.Append(ctx, ports.MonthSummary{
		Month:          "2025-03",
		DueCents:       125000,
		PaidCents:      50000,
		RemainingCents: 75000,
		BillCount:      3,
		Revision:       7,
		ExportedAt:     time.Now(),
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ref != "mem:1" {
		t.Fatalf("Append ref = %q, want mem:1", ref)
	}

	ref, err = s.Append(ctx, ports.MonthSummary{Month: "2025-04"})
	if err != nil {
		t.Fatalf("second Append: %v", err)
	}
	if ref != "mem:2" {
		t.Fatalf("second Append ref = %q, want mem:2", ref)
	}

	rows := s.Rows()
	if len(rows) != 2 {
		t.Fatalf("Rows() = %d entries, want 2", len(rows))
	}
	if rows[0].Month != "2025-03" || rows[1].Month != "2025-04" {
		t.Fatalf("rows out of order: %+v", rows)
	}

	// Rows returns a copy.
	rows[0].Month = "mutated"
	if s.Rows()[0].Month != "2025-03" {
		t.Fatal("Rows() exposed internal slice")
	}
}
