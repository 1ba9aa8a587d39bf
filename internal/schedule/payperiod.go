package schedule

import (
	"sort"

	"github.com/HelloDanni/billflow/internal/core"
)

// LookaheadMonths is how far the aggregator scans for the next paycheck:
// the reference month plus the five months that follow it.
const LookaheadMonths = 6

type (
	// BillOccurrence is one projected bill instance inside the lookahead
	// window, with the month it falls in and its paid flag.
	BillOccurrence struct {
		Bill  core.Bill     `json:"bill"`
		Month core.MonthKey `json:"month"`
		Date  string        `json:"date"`
		Paid  bool          `json:"paid"`
	}

	// PayPeriodSummary describes the next (possibly merged) cluster of
	// income occurrences and the bills due strictly before the income day
	// the merge stopped at (or before the cluster's last day when every
	// occurrence merged).
	PayPeriodSummary struct {
		Total         core.Money        `json:"total"`
		Sources       []string          `json:"sources"`
		CoverageStart string            `json:"coverageStart"`
		CoverageEnd   string            `json:"coverageEnd"`
		Incomes       []core.Occurrence `json:"incomes"`
		BillsBefore   []BillOccurrence  `json:"billsBefore"`
		BeforeCount   int               `json:"beforeCount"`
		BeforeTotal   core.Money        `json:"beforeTotal"`
		UnpaidCount   int               `json:"unpaidCount"`
		UnpaidTotal   core.Money        `json:"unpaidTotal"`
	}
)

// NextPayPeriod finds the next income cluster at/after the reference ISO
// date and groups the unpaid bills that fall before it.
//
// Income occurrences across the lookahead window are sorted ascending;
// same-day occurrences always share a cluster, and the window extends to
// the next distinct income day only when no projected bill is due strictly
// between the window's last day and that income day. Only the first merged
// window is reported. The "before" bucket covers every projected bill due
// strictly before the income day that stopped the merge, so the blocking
// bill itself is always listed; when nothing blocked, the bucket ends at
// the cluster's last day and later bills wait for the next period.
//
// Returns nil when no income occurrence remains at/after the reference.
func NextPayPeriod(incomes []core.IncomeEntry, bills []core.Bill, overrides core.OverrideSet, payments core.PaymentState, reference string) *PayPeriodSummary {
	startMonth, ok := core.MonthKeyFromISO(reference)
	if !ok {
		return nil
	}

	var incomeOccs []core.Occurrence
	var billOccs []BillOccurrence
	for i := 0; i < LookaheadMonths; i++ {
		month := startMonth.AddMonths(i)
		for _, e := range incomes {
			for _, occ := range ExpandIncome(e, month) {
				if occ.Date >= reference {
					incomeOccs = append(incomeOccs, occ)
				}
			}
		}
		for _, b := range BillsForMonth(bills, overrides, month) {
			billOccs = append(billOccs, BillOccurrence{
				Bill:  b,
				Month: month,
				Date:  DueDate(b, month),
				Paid:  payments.Paid(month, b.ID),
			})
		}
	}
	if len(incomeOccs) == 0 {
		return nil
	}

	// ISO dates compare lexicographically in chronological order.
	sort.SliceStable(incomeOccs, func(i, j int) bool { return incomeOccs[i].Date < incomeOccs[j].Date })
	sort.SliceStable(billOccs, func(i, j int) bool { return billOccs[i].Date < billOccs[j].Date })

	cluster := []core.Occurrence{}
	windowEnd := incomeOccs[0].Date
	i := 0
	for i < len(incomeOccs) && incomeOccs[i].Date == windowEnd {
		cluster = append(cluster, incomeOccs[i])
		i++
	}
	// beforeBoundary is the first income day excluded from the window; when
	// every occurrence merges it falls back to the window's last day.
	beforeBoundary := ""
	for i < len(incomeOccs) {
		nextDay := incomeOccs[i].Date
		if billBetween(billOccs, windowEnd, nextDay) {
			beforeBoundary = nextDay
			break
		}
		windowEnd = nextDay
		for i < len(incomeOccs) && incomeOccs[i].Date == nextDay {
			cluster = append(cluster, incomeOccs[i])
			i++
		}
	}
	if beforeBoundary == "" {
		beforeBoundary = windowEnd
	}

	summary := &PayPeriodSummary{
		CoverageStart: cluster[0].Date,
		CoverageEnd:   windowEnd,
		Incomes:       cluster,
	}
	seen := map[string]bool{}
	for _, occ := range cluster {
		summary.Total.Cents += occ.Amount.Cents
		if !seen[occ.Source] {
			seen[occ.Source] = true
			summary.Sources = append(summary.Sources, occ.Source)
		}
	}
	for _, bo := range billOccs {
		if bo.Date >= beforeBoundary {
			continue
		}
		summary.BillsBefore = append(summary.BillsBefore, bo)
		summary.BeforeCount++
		summary.BeforeTotal.Cents += bo.Bill.Amount.Cents
		if !bo.Paid {
			summary.UnpaidCount++
			summary.UnpaidTotal.Cents += bo.Bill.Amount.Cents
		}
	}
	return summary
}

// billBetween reports whether any bill occurrence falls strictly between
// the two ISO dates.
func billBetween(billOccs []BillOccurrence, after, before string) bool {
	for _, bo := range billOccs {
		if bo.Date > after && bo.Date < before {
			return true
		}
		if bo.Date >= before {
			break
		}
	}
	return false
}
