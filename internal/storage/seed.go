package storage

import (
	"time"

	"github.com/HelloDanni/billflow/internal/core"
)

// SeedBills returns the default bill set used when the bills collection is
// missing or fails shape validation on load. The rules start in the current
// real-world month so a fresh install shows something meaningful.
func SeedBills() []core.Bill {
	month := core.MonthKeyOf(time.Now())
	return []core.Bill{
		{
			ID:         "seed-rent",
			Name:       "Rent",
			Amount:     core.Money{Cents: 120000},
			DueDay:     1,
			Recurrence: 1,
			StartMonth: month,
		},
		{
			ID:         "seed-electric",
			Name:       "Electric",
			Amount:     core.Money{Cents: 9500},
			DueDay:     15,
			Recurrence: 1,
			StartMonth: month,
		},
	}
}

// SeedIncomes returns the default income set for a fresh install.
func SeedIncomes() []core.IncomeEntry {
	anchor := core.DateOf(core.MonthKeyOf(time.Now()), 5)
	return []core.IncomeEntry{
		{
			ID:         "seed-paycheck",
			Source:     "Paycheck",
			Amount:     core.Money{Cents: 210000},
			Date:       anchor,
			Recurrence: core.RecurrenceBiweekly,
		},
	}
}
