package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MedicD21/InnieOutie/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func money(t *testing.T, s string) core.Money {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad test amount %q: %v", s, err)
	}
	return core.NewMoney(d)
}

func TestExpenseRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e, err := core.NewExpense(money(t, "49.99"),
		time.Date(2025, time.March, 10, 14, 30, 0, 0, time.Local),
		"software-tools", "IDE license, annual", []string{"t1", "t2"})
	if err != nil {
		t.Fatalf("new expense: %v", err)
	}
	if err := repo.SaveExpense(ctx, e); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.GetExpense(ctx, e.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Amount.Cmp(e.Amount) != 0 {
		t.Fatalf("amount %s, want %s", got.Amount, e.Amount)
	}
	if !got.Date.Equal(e.Date.Truncate(time.Second)) {
		t.Fatalf("date %s, want %s", got.Date, e.Date)
	}
	if got.Note != e.Note || got.CategoryID != e.CategoryID {
		t.Fatalf("fields differ: %+v vs %+v", got, e)
	}
	if len(got.TagIDs) != 2 || got.TagIDs[0] != "t1" || got.TagIDs[1] != "t2" {
		t.Fatalf("tag ids %v", got.TagIDs)
	}
}

func TestExpenseRangeQuery(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	dates := []time.Time{
		time.Date(2025, time.February, 28, 23, 0, 0, 0, time.Local),
		time.Date(2025, time.March, 1, 0, 0, 0, 0, time.Local),
		time.Date(2025, time.March, 31, 23, 59, 0, 0, time.Local),
		time.Date(2025, time.April, 1, 0, 0, 0, 0, time.Local),
	}
	for _, d := range dates {
		e, err := core.NewExpense(money(t, "10"), d, "software-tools", "", nil)
		if err != nil {
			t.Fatalf("new expense: %v", err)
		}
		if err := repo.SaveExpense(ctx, e); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	start, end := (core.Month{Year: 2025, Month: time.March}).Range()
	got, err := repo.ListExpensesInRange(ctx, start, end)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 march expenses, got %d", len(got))
	}
	for _, e := range got {
		if e.Date.Month() != time.March {
			t.Fatalf("out of range expense: %s", e.Date)
		}
	}
}

func TestExpenseUpdateResetsSync(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e, err := core.NewExpense(money(t, "10"), time.Now(), "software-tools", "", nil)
	if err != nil {
		t.Fatalf("new expense: %v", err)
	}
	if err := repo.SaveExpense(ctx, e); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.MarkExpenseSynced(ctx, e.ID); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	pending, err := repo.PendingExpenses(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("synced expense still pending: %v", pending)
	}

	e.Note = "edited"
	if err := repo.SaveExpense(ctx, e); err != nil {
		t.Fatalf("update: %v", err)
	}
	pending, err = repo.PendingExpenses(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Note != "edited" {
		t.Fatalf("updated expense not re-queued: %v", pending)
	}
}

func TestIncomeRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	in, err := core.NewIncome(money(t, "1250.50"),
		time.Date(2025, time.March, 1, 9, 0, 0, 0, time.Local),
		"Acme Corp", "retainer", []string{"client-acme"})
	if err != nil {
		t.Fatalf("new income: %v", err)
	}
	if err := repo.SaveIncome(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.GetIncome(ctx, in.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Amount.String() != "1250.5" || got.Source != "Acme Corp" {
		t.Fatalf("round trip %+v", got)
	}

	if err := repo.DeleteIncome(ctx, in.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetIncome(ctx, in.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDefaultCategoriesSeeded(t *testing.T) {
	repo := newTestRepo(t)

	cats, err := repo.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cats) != 13 {
		t.Fatalf("expected 13 seeded categories, got %d", len(cats))
	}
	if cats[0].Name != "Software & Tools" || !cats[0].IsDefault {
		t.Fatalf("first category %+v", cats[0])
	}

	// The migration seed and core.DefaultCategories describe the same
	// list; a category edit made in only one place fails here.
	want := core.DefaultCategories()
	if len(cats) != len(want) {
		t.Fatalf("seeded %d categories, DefaultCategories has %d", len(cats), len(want))
	}
	for i, w := range want {
		got := cats[i]
		if got.ID != w.ID || got.Name != w.Name || got.Icon != w.Icon ||
			got.IsDefault != w.IsDefault || got.SortOrder != w.SortOrder {
			t.Fatalf("seeded category %d = %+v, want %+v", i, got, w)
		}
	}
}

func TestDeleteCategoryProtectsDefaults(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.DeleteCategory(ctx, "software-tools"); !errors.Is(err, ErrDefaultCategory) {
		t.Fatalf("expected ErrDefaultCategory, got %v", err)
	}

	custom, err := core.NewCategory("Studio Rent", "house", 99)
	if err != nil {
		t.Fatalf("new category: %v", err)
	}
	if err := repo.SaveCategory(ctx, custom); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.DeleteCategory(ctx, custom.ID); err != nil {
		t.Fatalf("delete custom: %v", err)
	}
	if err := repo.DeleteCategory(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTagLeavesTransactions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tag, err := core.NewTag("Acme", "green")
	if err != nil {
		t.Fatalf("new tag: %v", err)
	}
	if err := repo.SaveTag(ctx, tag); err != nil {
		t.Fatalf("save tag: %v", err)
	}
	e, err := core.NewExpense(money(t, "25"), time.Now(), "software-tools", "", []string{tag.ID})
	if err != nil {
		t.Fatalf("new expense: %v", err)
	}
	if err := repo.SaveExpense(ctx, e); err != nil {
		t.Fatalf("save expense: %v", err)
	}

	if err := repo.DeleteTag(ctx, tag.ID); err != nil {
		t.Fatalf("delete tag: %v", err)
	}
	got, err := repo.GetExpense(ctx, e.ID)
	if err != nil {
		t.Fatalf("get expense: %v", err)
	}
	// The orphaned reference stays on the record.
	if !got.HasTag(tag.ID) {
		t.Fatalf("tag reference removed from expense: %v", got.TagIDs)
	}
}
