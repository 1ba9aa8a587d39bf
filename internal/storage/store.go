// Package storage persists the budgeting state as a flat key-value
// document: one row per top-level collection, each serialized as JSON and
// overwritten whole on every save (last-write-wins, no partial merge).
package storage

import (
	"context"

	"github.com/HelloDanni/billflow/internal/ledger"
)

// Collection names used as document keys.
const (
	CollectionBills     = "bills"
	CollectionIncomes   = "incomes"
	CollectionPayments  = "payments"
	CollectionOverrides = "overrides"
)

// Store is the persistence port. Load reads every collection, substituting
// the documented seed for any that is missing or malformed; Save overwrites
// all collections atomically.
type Store interface {
	Load(ctx context.Context) (ledger.Snapshot, error)
	Save(ctx context.Context, snap ledger.Snapshot) error
	Close() error
}
