package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/HelloDanni/billflow/internal/core"
	"github.com/HelloDanni/billflow/internal/ledger"
)

// encodeSnapshot serializes each collection to its own JSON document.
func encodeSnapshot(snap ledger.Snapshot) (map[string][]byte, error) {
	docs := make(map[string][]byte, 4)
	for name, v := range map[string]any{
		CollectionBills:     emptySlice(snap.Bills),
		CollectionIncomes:   emptyIncomeSlice(snap.Incomes),
		CollectionPayments:  emptyPayments(snap.Payments),
		CollectionOverrides: emptyOverrides(snap.Overrides),
	} {
		body, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", name, err)
		}
		docs[name] = body
	}
	return docs, nil
}

// decodeSnapshot rebuilds a snapshot from raw collection documents. A
// missing or malformed collection degrades to its seed instead of failing
// the whole load; partial repair is never attempted.
func decodeSnapshot(ctx context.Context, docs map[string][]byte) ledger.Snapshot {
	snap := ledger.Snapshot{}

	if !decodeCollection(ctx, docs, CollectionBills, &snap.Bills) {
		snap.Bills = SeedBills()
	}
	if !decodeCollection(ctx, docs, CollectionIncomes, &snap.Incomes) {
		snap.Incomes = SeedIncomes()
	}
	if !decodeCollection(ctx, docs, CollectionPayments, &snap.Payments) {
		snap.Payments = core.PaymentState{}
	}
	if !decodeCollection(ctx, docs, CollectionOverrides, &snap.Overrides) {
		snap.Overrides = core.OverrideSet{}
	}
	return snap
}

func decodeCollection(ctx context.Context, docs map[string][]byte, name string, dst any) bool {
	body, ok := docs[name]
	if !ok || len(body) == 0 {
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		slog.WarnContext(ctx, "Collection document malformed, using seed",
			"collection", name,
			"error", err)
		return false
	}
	return true
}

// JSON null round-trips poorly for absent collections; persist empty
// containers instead of nil ones.
func emptySlice(in []core.Bill) []core.Bill {
	if in == nil {
		return []core.Bill{}
	}
	return in
}

func emptyIncomeSlice(in []core.IncomeEntry) []core.IncomeEntry {
	if in == nil {
		return []core.IncomeEntry{}
	}
	return in
}

func emptyPayments(in core.PaymentState) core.PaymentState {
	if in == nil {
		return core.PaymentState{}
	}
	return in
}

func emptyOverrides(in core.OverrideSet) core.OverrideSet {
	if in == nil {
		return core.OverrideSet{}
	}
	return in
}
