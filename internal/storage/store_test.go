package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()

	// A fresh store loads the seed data.
	snap, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Bills) == 0 || snap.Bills[0].ID != "seed-rent" {
		t.Fatalf("fresh store should load seed bills, got %+v", snap.Bills)
	}

	want := sampleSnapshot()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}
	if len(got.Bills) != 1 || got.Bills[0].Name != "Rent" {
		t.Fatalf("saved bills lost: %+v", got.Bills)
	}
	if !got.Payments.Paid("2025-01", "b1") {
		t.Fatal("saved payment flag lost")
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "billflow.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}

	want := sampleSnapshot()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen against the same file; state must survive the process boundary.
	store, err = NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Bills) != 1 || got.Bills[0].ID != "b1" {
		t.Fatalf("bills did not survive reopen: %+v", got.Bills)
	}
	if len(got.Incomes) != 1 || got.Incomes[0].Source != "Paycheck" {
		t.Fatalf("incomes did not survive reopen: %+v", got.Incomes)
	}
	patch, ok := got.Overrides.PatchFor("2025-02", "b1")
	if !ok || patch.DueDay != 5 {
		t.Fatalf("override did not survive reopen: %+v ok=%v", patch, ok)
	}

	// Saving again overwrites rather than appending.
	if err := store.Save(ctx, got); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	again, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load after second save: %v", err)
	}
	if len(again.Bills) != 1 {
		t.Fatalf("second save duplicated state: %d bills", len(again.Bills))
	}
}
