package storage

import (
	"context"
	"testing"

	"github.com/HelloDanni/billflow/internal/core"
	"github.com/HelloDanni/billflow/internal/ledger"
)

func sampleSnapshot() ledger.Snapshot {
	return ledger.Snapshot{
		Bills: []core.Bill{
			{ID: "b1", Name: "Rent", Amount: core.Money{Cents: 120000}, DueDay: 1, Recurrence: 1, StartMonth: "2025-01"},
		},
		Incomes: []core.IncomeEntry{
			{ID: "i1", Source: "Paycheck", Amount: core.Money{Cents: 210000}, Date: "2025-01-03", Recurrence: core.RecurrenceBiweekly},
		},
		Payments: core.PaymentState{
			"2025-01": {"b1": true},
		},
		Overrides: core.OverrideSet{
			"2025-02": {"b1": {DueDay: 5}},
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	snap := sampleSnapshot()

	docs, err := encodeSnapshot(snap)
	if err != nil {
		t.Fatalf("encodeSnapshot: %v", err)
	}
	for _, name := range []string{CollectionBills, CollectionIncomes, CollectionPayments, CollectionOverrides} {
		if _, ok := docs[name]; !ok {
			t.Fatalf("missing document for %s", name)
		}
	}

	got := decodeSnapshot(context.Background(), docs)
	if len(got.Bills) != 1 || got.Bills[0].ID != "b1" {
		t.Fatalf("bills did not round-trip: %+v", got.Bills)
	}
	if len(got.Incomes) != 1 || got.Incomes[0].Recurrence != core.RecurrenceBiweekly {
		t.Fatalf("incomes did not round-trip: %+v", got.Incomes)
	}
	if !got.Payments.Paid("2025-01", "b1") {
		t.Fatal("payment flag lost in round-trip")
	}
	patch, ok := got.Overrides.PatchFor("2025-02", "b1")
	if !ok || patch.DueDay != 5 {
		t.Fatalf("override lost in round-trip: %+v ok=%v", patch, ok)
	}
}

func TestDecodeSnapshotFallsBackToSeed(t *testing.T) {
	tests := []struct {
		name string
		docs map[string][]byte
	}{
		{"empty store", nil},
		{"malformed bills", map[string][]byte{CollectionBills: []byte(`{"not":"a list"}`)}},
		{"truncated json", map[string][]byte{CollectionBills: []byte(`[{"id":"b1"`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := decodeSnapshot(context.Background(), tt.docs)
			if len(snap.Bills) != len(SeedBills()) {
				t.Fatalf("expected seed bills, got %d", len(snap.Bills))
			}
			if snap.Bills[0].ID != "seed-rent" {
				t.Fatalf("expected seed-rent first, got %s", snap.Bills[0].ID)
			}
			if len(snap.Incomes) != 1 || snap.Incomes[0].ID != "seed-paycheck" {
				t.Fatalf("expected seed income, got %+v", snap.Incomes)
			}
			if snap.Payments == nil || snap.Overrides == nil {
				t.Fatal("payments and overrides must decode to empty, not nil")
			}
		})
	}
}

func TestDecodeSnapshotScopedFallback(t *testing.T) {
	// Only the broken collection falls back; the rest survive.
	good, err := encodeSnapshot(sampleSnapshot())
	if err != nil {
		t.Fatalf("encodeSnapshot: %v", err)
	}
	good[CollectionIncomes] = []byte(`"oops"`)

	snap := decodeSnapshot(context.Background(), good)
	if len(snap.Bills) != 1 || snap.Bills[0].ID != "b1" {
		t.Fatalf("intact bills collection was discarded: %+v", snap.Bills)
	}
	if len(snap.Incomes) != 1 || snap.Incomes[0].ID != "seed-paycheck" {
		t.Fatalf("broken incomes collection did not reseed: %+v", snap.Incomes)
	}
}

func TestEncodeSnapshotEmptyContainers(t *testing.T) {
	docs, err := encodeSnapshot(ledger.Snapshot{})
	if err != nil {
		t.Fatalf("encodeSnapshot: %v", err)
	}
	if string(docs[CollectionBills]) != "[]" {
		t.Fatalf("nil bills should encode as [], got %s", docs[CollectionBills])
	}
	if string(docs[CollectionPayments]) != "{}" {
		t.Fatalf("nil payments should encode as {}, got %s", docs[CollectionPayments])
	}
}
