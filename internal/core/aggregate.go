package core

import "sort"

// UnknownCategoryName labels amounts whose category id no longer
// resolves. The unresolved id is kept so distinct orphans stay
// distinct.
const UnknownCategoryName = "Unknown"

// CategoryIndex resolves category ids to names.
type CategoryIndex map[string]Category

// IndexCategories builds a lookup keyed by category id.
func IndexCategories(categories []Category) CategoryIndex {
	idx := make(CategoryIndex, len(categories))
	for _, c := range categories {
		idx[c.ID] = c
	}
	return idx
}

// Resolve maps a category id to its display name. Ids that no longer
// exist resolve to UnknownCategoryName.
func (idx CategoryIndex) Resolve(categoryID string) string {
	if c, ok := idx[categoryID]; ok {
		return c.Name
	}
	return UnknownCategoryName
}

// IndexTags builds a lookup keyed by tag id.
func IndexTags(tags []Tag) map[string]Tag {
	idx := make(map[string]Tag, len(tags))
	for _, t := range tags {
		idx[t.ID] = t
	}
	return idx
}

// ComputeMonthlySnapshot aggregates the records that fall in month.
// Inputs may span any date range; only records whose local calendar
// year and month match are counted. topN limits TopCategories, with
// topN <= 0 keeping every category. The result does not depend on
// input order.
func ComputeMonthlySnapshot(expenses []Expense, incomes []Income, categories CategoryIndex, month Month, topN int) MonthlySnapshot {
	snap := EmptySnapshot(month)

	byCategory := make(map[string]Money)
	for _, e := range expenses {
		if !month.Contains(e.Date) {
			continue
		}
		snap.TotalExpenses = snap.TotalExpenses.Add(e.Amount)
		snap.ExpenseCount++
		byCategory[e.CategoryID] = byCategory[e.CategoryID].Add(e.Amount)
	}

	bySource := make(map[string]Money)
	for _, in := range incomes {
		if !month.Contains(in.Date) {
			continue
		}
		snap.TotalIncome = snap.TotalIncome.Add(in.Amount)
		snap.IncomeCount++
		bySource[in.Source] = bySource[in.Source].Add(in.Amount)
	}

	snap.NetProfit = snap.TotalIncome.Sub(snap.TotalExpenses)

	for id, amount := range byCategory {
		snap.TopCategories = append(snap.TopCategories, CategoryAmount{
			CategoryID: id,
			Name:       categories.Resolve(id),
			Amount:     amount,
		})
	}
	sort.Slice(snap.TopCategories, func(i, j int) bool {
		a, b := snap.TopCategories[i], snap.TopCategories[j]
		if c := a.Amount.Cmp(b.Amount); c != 0 {
			return c > 0
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.CategoryID < b.CategoryID
	})
	if topN > 0 && len(snap.TopCategories) > topN {
		snap.TopCategories = snap.TopCategories[:topN]
	}

	for source, amount := range bySource {
		snap.IncomeBySource = append(snap.IncomeBySource, SourceAmount{
			Source: source,
			Amount: amount,
		})
	}
	sort.Slice(snap.IncomeBySource, func(i, j int) bool {
		a, b := snap.IncomeBySource[i], snap.IncomeBySource[j]
		if c := a.Amount.Cmp(b.Amount); c != 0 {
			return c > 0
		}
		return a.Source < b.Source
	})

	return snap
}

// MoMChange returns the month-over-month change of net profit as a
// percentage. A previous month that closed at exactly zero yields 100
// when the current month is positive and 0 otherwise, so a division by
// zero never occurs and a first profitable month reads as full growth.
func MoMChange(current, previous MonthlySnapshot) float64 {
	if previous.NetProfit.Sign() == 0 {
		if current.NetProfit.Sign() > 0 {
			return 100
		}
		return 0
	}
	return current.NetProfit.Sub(previous.NetProfit).PercentOf(previous.NetProfit)
}
