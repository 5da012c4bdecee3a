package core

// DashboardTopCategories is how many expense categories the monthly
// dashboard shows.
const DashboardTopCategories = 3

// CategoryAmount is one category's share of a month's expenses.
type CategoryAmount struct {
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
	Amount     Money  `json:"amount"`
}

// SourceAmount is one income source's share of a month's income.
type SourceAmount struct {
	Source string `json:"source"`
	Amount Money  `json:"amount"`
}

// MonthlySnapshot is the aggregate view of a single calendar month.
// TopCategories is ordered by amount descending and may be truncated;
// IncomeBySource is ordered by amount descending and never truncated.
type MonthlySnapshot struct {
	Month          Month            `json:"-"`
	TotalExpenses  Money            `json:"totalExpenses"`
	TotalIncome    Money            `json:"totalIncome"`
	NetProfit      Money            `json:"netProfit"`
	TopCategories  []CategoryAmount `json:"topCategories"`
	IncomeBySource []SourceAmount   `json:"incomeBySource"`
	ExpenseCount   int              `json:"expenseCount"`
	IncomeCount    int              `json:"incomeCount"`

	// MoMChange is attached after construction when the caller asks
	// for a comparison against the previous month. Nil means the
	// comparison was not requested.
	MoMChange *float64 `json:"momChange,omitempty"`
}

// EmptySnapshot is the snapshot of a month with no records.
func EmptySnapshot(m Month) MonthlySnapshot {
	return MonthlySnapshot{Month: m}
}

// IsProfit reports whether the month closed strictly above zero. A
// break-even month is not a profit.
func (s MonthlySnapshot) IsProfit() bool {
	return s.NetProfit.IsPositive()
}

// ProfitMargin returns net profit as a percentage of total income, or
// 0 when the month had no income.
func (s MonthlySnapshot) ProfitMargin() float64 {
	return s.NetProfit.PercentOf(s.TotalIncome)
}
