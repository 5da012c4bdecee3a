// Package report re-aggregates transactions across arbitrary scopes,
// a whole calendar year for tax filing or a tagged subset over a date
// range for per-project accounting. Dashboard snapshots sort biggest
// first; these reports sort groups alphabetically for scanning.
package report

import (
	"sort"
	"time"

	"github.com/MedicD21/InnieOutie/internal/core"
)

// MonthRow is one month's line in a report breakdown.
type MonthRow struct {
	Month    core.Month `json:"month"`
	Income   core.Money `json:"income"`
	Expenses core.Money `json:"expenses"`
	Net      core.Money `json:"net"`
}

// CategoryGroup is one expense category's rollup inside a report.
type CategoryGroup struct {
	CategoryID string     `json:"categoryId"`
	Name       string     `json:"name"`
	Total      core.Money `json:"total"`
	Count      int        `json:"count"`
	Average    core.Money `json:"average"`
	Percent    float64    `json:"percent"`
}

// SourceGroup is one income source's rollup inside a report.
type SourceGroup struct {
	Source  string     `json:"source"`
	Total   core.Money `json:"total"`
	Count   int        `json:"count"`
	Average core.Money `json:"average"`
	Percent float64    `json:"percent"`
}

// Annual summarizes one calendar year. Months always holds twelve
// rows, January through December, zero-filled where nothing happened.
// The transaction listings are ordered earliest first, audit style.
type Annual struct {
	Year              int             `json:"year"`
	TotalIncome       core.Money      `json:"totalIncome"`
	TotalExpenses     core.Money      `json:"totalExpenses"`
	NetProfit         core.Money      `json:"netProfit"`
	ExpenseByCategory []CategoryGroup `json:"expenseByCategory"`
	IncomeBySource    []SourceGroup   `json:"incomeBySource"`
	Months            []MonthRow      `json:"months"`
	Expenses          []core.Expense  `json:"expenses"`
	Incomes           []core.Income   `json:"incomes"`
}

// TagRange summarizes the transactions carrying one tag inside an
// inclusive date range. Months lists only the months that contain at
// least one matching transaction, chronologically ascending. The
// transaction listings are ordered most recent first.
type TagRange struct {
	Tag               core.Tag        `json:"tag"`
	Start             time.Time       `json:"start"`
	End               time.Time       `json:"end"`
	TotalIncome       core.Money      `json:"totalIncome"`
	TotalExpenses     core.Money      `json:"totalExpenses"`
	NetProfit         core.Money      `json:"netProfit"`
	ExpenseByCategory []CategoryGroup `json:"expenseByCategory"`
	IncomeBySource    []SourceGroup   `json:"incomeBySource"`
	Months            []MonthRow      `json:"months"`
	Expenses          []core.Expense  `json:"expenses"`
	Incomes           []core.Income   `json:"incomes"`
}

// ProfitMargin returns net profit as a percentage of total income, 0
// when the range earned nothing.
func (r TagRange) ProfitMargin() float64 {
	return r.NetProfit.PercentOf(r.TotalIncome)
}

// ProfitMargin returns net profit as a percentage of total income, 0
// for a year with no income.
func (r Annual) ProfitMargin() float64 {
	return r.NetProfit.PercentOf(r.TotalIncome)
}

// BuildAnnual aggregates every transaction dated in year. Inputs may
// span any range; records outside the year are ignored.
func BuildAnnual(year int, expenses []core.Expense, incomes []core.Income, categories core.CategoryIndex) Annual {
	var kept []core.Expense
	for _, e := range expenses {
		if e.Date.Year() == year {
			kept = append(kept, e)
		}
	}
	var keptIncomes []core.Income
	for _, in := range incomes {
		if in.Date.Year() == year {
			keptIncomes = append(keptIncomes, in)
		}
	}

	r := Annual{
		Year:     year,
		Expenses: sortExpensesAscending(kept),
		Incomes:  sortIncomesAscending(keptIncomes),
	}
	for _, e := range kept {
		r.TotalExpenses = r.TotalExpenses.Add(e.Amount)
	}
	for _, in := range keptIncomes {
		r.TotalIncome = r.TotalIncome.Add(in.Amount)
	}
	r.NetProfit = r.TotalIncome.Sub(r.TotalExpenses)
	r.ExpenseByCategory = groupExpenses(kept, categories, r.TotalExpenses)
	r.IncomeBySource = groupIncomes(keptIncomes, r.TotalIncome)

	r.Months = make([]MonthRow, 12)
	for i := range r.Months {
		m := core.Month{Year: year, Month: time.Month(i + 1)}
		r.Months[i] = monthRow(m, kept, keptIncomes)
	}
	return r
}

// BuildTagRange aggregates the transactions that carry tag and whose
// date falls in [start, end], both ends inclusive. A tag id that no
// transaction references yields an all-zero report, never an error.
func BuildTagRange(tag core.Tag, start, end time.Time, expenses []core.Expense, incomes []core.Income, categories core.CategoryIndex) TagRange {
	inRange := func(d time.Time) bool {
		return !d.Before(start) && !d.After(end)
	}

	var kept []core.Expense
	for _, e := range expenses {
		if e.HasTag(tag.ID) && inRange(e.Date) {
			kept = append(kept, e)
		}
	}
	var keptIncomes []core.Income
	for _, in := range incomes {
		if in.HasTag(tag.ID) && inRange(in.Date) {
			keptIncomes = append(keptIncomes, in)
		}
	}

	r := TagRange{
		Tag:      tag,
		Start:    start,
		End:      end,
		Expenses: sortExpensesDescending(kept),
		Incomes:  sortIncomesDescending(keptIncomes),
	}
	for _, e := range kept {
		r.TotalExpenses = r.TotalExpenses.Add(e.Amount)
	}
	for _, in := range keptIncomes {
		r.TotalIncome = r.TotalIncome.Add(in.Amount)
	}
	r.NetProfit = r.TotalIncome.Sub(r.TotalExpenses)
	r.ExpenseByCategory = groupExpenses(kept, categories, r.TotalExpenses)
	r.IncomeBySource = groupIncomes(keptIncomes, r.TotalIncome)

	months := make(map[core.Month]bool)
	for _, e := range kept {
		months[core.MonthOf(e.Date)] = true
	}
	for _, in := range keptIncomes {
		months[core.MonthOf(in.Date)] = true
	}
	for m := range months {
		r.Months = append(r.Months, monthRow(m, kept, keptIncomes))
	}
	sort.Slice(r.Months, func(i, j int) bool {
		a, b := r.Months[i].Month, r.Months[j].Month
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})
	return r
}

func monthRow(m core.Month, expenses []core.Expense, incomes []core.Income) MonthRow {
	row := MonthRow{Month: m}
	for _, e := range expenses {
		if m.Contains(e.Date) {
			row.Expenses = row.Expenses.Add(e.Amount)
		}
	}
	for _, in := range incomes {
		if m.Contains(in.Date) {
			row.Income = row.Income.Add(in.Amount)
		}
	}
	row.Net = row.Income.Sub(row.Expenses)
	return row
}

func groupExpenses(expenses []core.Expense, categories core.CategoryIndex, total core.Money) []CategoryGroup {
	byID := make(map[string]*CategoryGroup)
	for _, e := range expenses {
		g, ok := byID[e.CategoryID]
		if !ok {
			g = &CategoryGroup{
				CategoryID: e.CategoryID,
				Name:       categories.Resolve(e.CategoryID),
			}
			byID[e.CategoryID] = g
		}
		g.Total = g.Total.Add(e.Amount)
		g.Count++
	}
	out := make([]CategoryGroup, 0, len(byID))
	for _, g := range byID {
		g.Average = g.Total.DivInt(int64(g.Count))
		g.Percent = g.Total.PercentOf(total)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out
}

func groupIncomes(incomes []core.Income, total core.Money) []SourceGroup {
	bySource := make(map[string]*SourceGroup)
	for _, in := range incomes {
		g, ok := bySource[in.Source]
		if !ok {
			g = &SourceGroup{Source: in.Source}
			bySource[in.Source] = g
		}
		g.Total = g.Total.Add(in.Amount)
		g.Count++
	}
	out := make([]SourceGroup, 0, len(bySource))
	for _, g := range bySource {
		g.Average = g.Total.DivInt(int64(g.Count))
		g.Percent = g.Total.PercentOf(total)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Source < out[j].Source
	})
	return out
}

func sortExpensesAscending(expenses []core.Expense) []core.Expense {
	out := append([]core.Expense(nil), expenses...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func sortExpensesDescending(expenses []core.Expense) []core.Expense {
	out := append([]core.Expense(nil), expenses...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func sortIncomesAscending(incomes []core.Income) []core.Income {
	out := append([]core.Income(nil), incomes...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func sortIncomesDescending(incomes []core.Income) []core.Income {
	out := append([]core.Income(nil), incomes...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
