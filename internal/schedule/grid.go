package schedule

import (
	"github.com/HelloDanni/billflow/internal/core"
)

// gridCells is the fixed size of the calendar grid: six Sunday-first weeks,
// enough to cover any month plus its leading and trailing days.
const gridCells = 42

type (
	// Cell is one day slot in the 42-cell calendar grid. Bills and
	// income occurrences are attached only to days of the visible month.
	Cell struct {
		Date    string            `json:"date"`
		Day     int               `json:"day"`
		InMonth bool              `json:"inMonth"`
		Bills   []core.Bill       `json:"bills,omitempty"`
		Incomes []core.Occurrence `json:"incomes,omitempty"`
	}

	// WeekSummary reports one 7-day chunk of the grid. A week is
	// reportable only when at least one of its days belongs to the
	// visible month.
	WeekSummary struct {
		Start      string     `json:"start"`
		End        string     `json:"end"`
		Reportable bool       `json:"reportable"`
		Due        core.Money `json:"due"`
		Remaining  core.Money `json:"remaining"`
	}

	// MonthView is the complete projection of one calendar month: the
	// patched bill list, day indexes for rendering, the week grid, and
	// month totals.
	MonthView struct {
		Month        core.MonthKey             `json:"month"`
		Bills        []core.Bill               `json:"bills"`
		BillsByDay   map[int][]core.Bill       `json:"billsByDay"`
		IncomesByDay map[int][]core.Occurrence `json:"incomesByDay"`
		Cells        []Cell                    `json:"cells"`
		Weeks        []WeekSummary             `json:"weeks"`
		Totals       Totals                    `json:"totals"`
	}
)

// BuildMonthView projects bills and incomes onto the target month. It is a
// pure function of its inputs; persistence and clocks stay outside.
func BuildMonthView(bills []core.Bill, incomes []core.IncomeEntry, overrides core.OverrideSet, payments core.PaymentState, target core.MonthKey) MonthView {
	projected := BillsForMonth(bills, overrides, target)
	billIdx := billsByDay(projected, target)
	incomeIdx := incomesByDay(incomes, target)

	view := MonthView{
		Month:        target,
		Bills:        projected,
		BillsByDay:   billIdx,
		IncomesByDay: incomeIdx,
		Totals:       MonthTotals(projected, payments, target),
	}

	// Walk back from the 1st to the nearest Sunday, then fill 42 cells.
	first := target.Time()
	cur := first.AddDate(0, 0, -int(first.Weekday()))
	cells := make([]Cell, 0, gridCells)
	for i := 0; i < gridCells; i++ {
		inMonth := core.MonthKeyOf(cur) == target
		cell := Cell{
			Date:    core.FormatISODate(cur),
			Day:     cur.Day(),
			InMonth: inMonth,
		}
		if inMonth {
			cell.Bills = billIdx[cur.Day()]
			cell.Incomes = incomeIdx[cur.Day()]
		}
		cells = append(cells, cell)
		cur = cur.AddDate(0, 0, 1)
	}
	view.Cells = cells
	view.Weeks = weekSummaries(cells, payments, target)
	return view
}

// weekSummaries partitions the grid into 7-day chunks and sums due and
// remaining amounts over the bills landing in each chunk's visible days.
func weekSummaries(cells []Cell, payments core.PaymentState, target core.MonthKey) []WeekSummary {
	weeks := make([]WeekSummary, 0, len(cells)/7)
	for start := 0; start+7 <= len(cells); start += 7 {
		chunk := cells[start : start+7]
		week := WeekSummary{
			Start: chunk[0].Date,
			End:   chunk[6].Date,
		}
		for _, cell := range chunk {
			if !cell.InMonth {
				continue
			}
			week.Reportable = true
			for _, b := range cell.Bills {
				week.Due.Cents += b.Amount.Cents
				if !payments.Paid(target, b.ID) {
					week.Remaining.Cents += b.Amount.Cents
				}
			}
		}
		weeks = append(weeks, week)
	}
	return weeks
}
