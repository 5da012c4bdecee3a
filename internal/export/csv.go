// Package export renders aggregation results to delimited text for
// sharing with accountants and spreadsheet tools.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/MedicD21/InnieOutie/internal/core"
	"github.com/MedicD21/InnieOutie/internal/report"
)

const (
	appName    = "InnieOutie"
	appTagline = "Finances Made Easy"
	dateLayout = "2006-01-02"
)

// WriteMonthlyCSV emits a monthly report: summary totals followed by
// income and expense detail listings and the category breakdown.
// Summary lines carry display strings in currencyCode; every other
// money cell stays an exact decimal. Detail listings run most recent
// first. snapshot should carry the untruncated category list so the
// breakdown covers every expense.
func WriteMonthlyCSV(w io.Writer, snapshot core.MonthlySnapshot, expenses []core.Expense, incomes []core.Income, categories core.CategoryIndex, currencyCode string, now time.Time) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := [][]string{
		{appName + " Monthly Report"},
		{appTagline},
		{"Month: " + snapshot.Month.String()},
		{"Generated: " + now.Format(time.RFC1123)},
		{},
	}
	if err := writeAll(writer, header); err != nil {
		return err
	}

	summary := summaryLines(snapshot.TotalIncome, snapshot.TotalExpenses, snapshot.NetProfit, snapshot.ProfitMargin(), currencyCode)
	summary = append(summary, nil)
	if err := writeAll(writer, summary); err != nil {
		return err
	}

	if err := writeAll(writer, [][]string{
		{"INCOME DETAIL"},
		{"Date", "Source", "Amount", "Note"},
	}); err != nil {
		return err
	}
	for _, in := range sortIncomesRecentFirst(incomes) {
		if err := writer.Write([]string{
			in.Date.Format(dateLayout),
			in.Source,
			in.Amount.String(),
			sanitizeNote(in.Note),
		}); err != nil {
			return err
		}
	}

	if err := writeAll(writer, [][]string{
		{},
		{"EXPENSE DETAIL"},
		{"Date", "Category", "Amount", "Note"},
	}); err != nil {
		return err
	}
	for _, e := range sortExpensesRecentFirst(expenses) {
		if err := writer.Write([]string{
			e.Date.Format(dateLayout),
			categories.Resolve(e.CategoryID),
			e.Amount.String(),
			sanitizeNote(e.Note),
		}); err != nil {
			return err
		}
	}

	if err := writeAll(writer, [][]string{
		{},
		{"EXPENSE BY CATEGORY"},
		{"Category", "Amount", "Percentage"},
	}); err != nil {
		return err
	}
	for _, c := range snapshot.TopCategories {
		if err := writer.Write([]string{
			c.Name,
			c.Amount.String(),
			formatPercent(c.Amount.PercentOf(snapshot.TotalExpenses)),
		}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteAnnualCSV emits a tax-style annual report: summary, the twelve
// month rows, and alphabetical category and source rollups, followed
// by earliest-first transaction listings.
func WriteAnnualCSV(w io.Writer, r report.Annual, categories core.CategoryIndex, currencyCode string, now time.Time) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := [][]string{
		{fmt.Sprintf("%s Annual Report %d", appName, r.Year)},
		{appTagline},
		{"Generated: " + now.Format(time.RFC1123)},
		{},
	}
	header = append(header, summaryLines(r.TotalIncome, r.TotalExpenses, r.NetProfit, r.ProfitMargin(), currencyCode)...)
	header = append(header,
		nil,
		[]string{"MONTHLY BREAKDOWN"},
		[]string{"Month", "Income", "Expenses", "Net"},
	)
	if err := writeAll(writer, header); err != nil {
		return err
	}
	for _, row := range r.Months {
		if err := writer.Write([]string{
			row.Month.String(),
			row.Income.String(),
			row.Expenses.String(),
			row.Net.String(),
		}); err != nil {
			return err
		}
	}

	if err := writeGroups(writer, r.ExpenseByCategory, r.IncomeBySource); err != nil {
		return err
	}
	if err := writeListings(writer, r.Expenses, r.Incomes, categories); err != nil {
		return err
	}

	writer.Flush()
	return writer.Error()
}

// WriteTagCSV emits a per-project report for one tag over a date
// range. Only months with activity appear in the breakdown.
func WriteTagCSV(w io.Writer, r report.TagRange, categories core.CategoryIndex, currencyCode string, now time.Time) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := [][]string{
		{appName + " Tag Report: " + r.Tag.Name},
		{appTagline},
		{fmt.Sprintf("Range: %s to %s", r.Start.Format(dateLayout), r.End.Format(dateLayout))},
		{"Generated: " + now.Format(time.RFC1123)},
		{},
	}
	header = append(header, summaryLines(r.TotalIncome, r.TotalExpenses, r.NetProfit, r.ProfitMargin(), currencyCode)...)
	header = append(header,
		nil,
		[]string{"MONTHLY BREAKDOWN"},
		[]string{"Month", "Income", "Expenses", "Net"},
	)
	if err := writeAll(writer, header); err != nil {
		return err
	}
	for _, row := range r.Months {
		if err := writer.Write([]string{
			row.Month.String(),
			row.Income.String(),
			row.Expenses.String(),
			row.Net.String(),
		}); err != nil {
			return err
		}
	}

	if err := writeGroups(writer, r.ExpenseByCategory, r.IncomeBySource); err != nil {
		return err
	}
	if err := writeListings(writer, r.Expenses, r.Incomes, categories); err != nil {
		return err
	}

	writer.Flush()
	return writer.Error()
}

// summaryLines renders the SUMMARY block. These are the only cells
// that carry currency display strings rather than exact decimals.
func summaryLines(income, expenses, net core.Money, margin float64, currencyCode string) [][]string {
	return [][]string{
		{"SUMMARY"},
		{"Total Income", income.Display(currencyCode)},
		{"Total Expenses", expenses.Display(currencyCode)},
		{"Net Profit", net.Display(currencyCode)},
		{"Profit Margin", formatPercent(margin)},
	}
}

func writeGroups(writer *csv.Writer, categories []report.CategoryGroup, sources []report.SourceGroup) error {
	if err := writeAll(writer, [][]string{
		{},
		{"EXPENSE BY CATEGORY"},
		{"Category", "Amount", "Count", "Average", "Percentage"},
	}); err != nil {
		return err
	}
	for _, g := range categories {
		if err := writer.Write([]string{
			g.Name,
			g.Total.String(),
			fmt.Sprintf("%d", g.Count),
			g.Average.String(),
			formatPercent(g.Percent),
		}); err != nil {
			return err
		}
	}

	if err := writeAll(writer, [][]string{
		{},
		{"INCOME BY SOURCE"},
		{"Source", "Amount", "Count", "Average", "Percentage"},
	}); err != nil {
		return err
	}
	for _, g := range sources {
		if err := writer.Write([]string{
			g.Source,
			g.Total.String(),
			fmt.Sprintf("%d", g.Count),
			g.Average.String(),
			formatPercent(g.Percent),
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeListings(writer *csv.Writer, expenses []core.Expense, incomes []core.Income, categories core.CategoryIndex) error {
	if err := writeAll(writer, [][]string{
		{},
		{"INCOME DETAIL"},
		{"Date", "Source", "Amount", "Note"},
	}); err != nil {
		return err
	}
	for _, in := range incomes {
		if err := writer.Write([]string{
			in.Date.Format(dateLayout),
			in.Source,
			in.Amount.String(),
			sanitizeNote(in.Note),
		}); err != nil {
			return err
		}
	}

	if err := writeAll(writer, [][]string{
		{},
		{"EXPENSE DETAIL"},
		{"Date", "Category", "Amount", "Note"},
	}); err != nil {
		return err
	}
	for _, e := range expenses {
		if err := writer.Write([]string{
			e.Date.Format(dateLayout),
			categories.Resolve(e.CategoryID),
			e.Amount.String(),
			sanitizeNote(e.Note),
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeAll(writer *csv.Writer, records [][]string) error {
	for _, record := range records {
		if len(record) == 0 {
			record = []string{""}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func sortExpensesRecentFirst(expenses []core.Expense) []core.Expense {
	out := append([]core.Expense(nil), expenses...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func sortIncomesRecentFirst(incomes []core.Income) []core.Income {
	out := append([]core.Income(nil), incomes...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// sanitizeNote keeps notes single-cell friendly in downstream tools
// that split on commas regardless of quoting.
func sanitizeNote(note string) string {
	return strings.ReplaceAll(note, ",", ";")
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
