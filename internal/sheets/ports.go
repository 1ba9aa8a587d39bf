package sheets

import (
	"context"
	"time"
)

// MonthSummary is one exported row: the totals for a single month at a
// given snapshot revision.
type MonthSummary struct {
	Month          string
	DueCents       int64
	PaidCents      int64
	RemainingCents int64
	BillCount      int
	Revision       int64
	ExportedAt     time.Time
}

// Ports for outbound adapters.
type (
	SummaryWriter interface {
		Append(ctx context.Context, s MonthSummary) (rowRef string, err error)
	}
)
