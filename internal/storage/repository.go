// Package storage persists transactions, categories and tags in a
// local SQLite file. Amounts are stored as exact decimal text and
// dates as Unix seconds, reinterpreted in the local calendar when the
// aggregation layer groups by month.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MedicD21/InnieOutie/internal/core"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDefaultCategory = errors.New("default categories cannot be deleted")
)

// Sync states for the backup pipeline.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveExpense inserts a new expense or replaces an existing one.
// Updates bump the version and reset the record to pending so the
// backup worker picks it up again.
func (r *SQLiteRepository) SaveExpense(ctx context.Context, e core.Expense) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, amount, date, category_id, note, receipt_path, tag_ids, created_at, sync_status, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(id) DO UPDATE SET
			amount = excluded.amount,
			date = excluded.date,
			category_id = excluded.category_id,
			note = excluded.note,
			receipt_path = excluded.receipt_path,
			tag_ids = excluded.tag_ids,
			sync_status = ?,
			version = expenses.version + 1`,
		e.ID, e.Amount.String(), e.Date.Unix(), e.CategoryID, e.Note, e.ReceiptPath,
		encodeTagIDs(e.TagIDs), e.CreatedAt.Unix(), SyncPending, SyncPending)
	if err != nil {
		return fmt.Errorf("save expense: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, amount, date, category_id, note, receipt_path, tag_ids, created_at
		FROM expenses WHERE id = ?`, id)
	return scanExpense(row)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireAffected(res)
}

// ListExpensesInRange returns expenses with start <= date < end,
// oldest first.
func (r *SQLiteRepository) ListExpensesInRange(ctx context.Context, start, end time.Time) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount, date, category_id, note, receipt_path, tag_ids, created_at
		FROM expenses WHERE date >= ? AND date < ? ORDER BY date, id`,
		start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()
	return collectExpenses(rows)
}

func (r *SQLiteRepository) ListAllExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount, date, category_id, note, receipt_path, tag_ids, created_at
		FROM expenses ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()
	return collectExpenses(rows)
}

// SaveIncome inserts a new income record or replaces an existing one,
// with the same version and sync handling as SaveExpense.
func (r *SQLiteRepository) SaveIncome(ctx context.Context, in core.Income) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO income (id, amount, date, source, note, tag_ids, created_at, sync_status, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(id) DO UPDATE SET
			amount = excluded.amount,
			date = excluded.date,
			source = excluded.source,
			note = excluded.note,
			tag_ids = excluded.tag_ids,
			sync_status = ?,
			version = income.version + 1`,
		in.ID, in.Amount.String(), in.Date.Unix(), in.Source, in.Note,
		encodeTagIDs(in.TagIDs), in.CreatedAt.Unix(), SyncPending, SyncPending)
	if err != nil {
		return fmt.Errorf("save income: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, id string) (core.Income, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, amount, date, source, note, tag_ids, created_at
		FROM income WHERE id = ?`, id)
	return scanIncome(row)
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM income WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	return requireAffected(res)
}

// ListIncomeInRange returns income records with start <= date < end,
// oldest first.
func (r *SQLiteRepository) ListIncomeInRange(ctx context.Context, start, end time.Time) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount, date, source, note, tag_ids, created_at
		FROM income WHERE date >= ? AND date < ? ORDER BY date, id`,
		start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	defer rows.Close()
	return collectIncome(rows)
}

func (r *SQLiteRepository) ListAllIncome(ctx context.Context) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount, date, source, note, tag_ids, created_at
		FROM income ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	defer rows.Close()
	return collectIncome(rows)
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, icon, is_default, sort_order
		FROM categories ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.IsDefault, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SaveCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, icon, is_default, sort_order)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			icon = excluded.icon,
			sort_order = excluded.sort_order`,
		c.ID, c.Name, c.Icon, c.IsDefault, c.SortOrder)
	if err != nil {
		return fmt.Errorf("save category: %w", err)
	}
	return nil
}

// DeleteCategory refuses to remove seeded defaults. Expenses keep
// their category id; the aggregation layer resolves orphans to an
// Unknown placeholder.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	var isDefault bool
	err := r.db.QueryRowContext(ctx, `SELECT is_default FROM categories WHERE id = ?`, id).Scan(&isDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load category: %w", err)
	}
	if isDefault {
		return ErrDefaultCategory
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListTags(ctx context.Context) ([]core.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, color, created_at FROM tags ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var out []core.Tag
	for rows.Next() {
		var t core.Tag
		var createdAt int64
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &createdAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		t.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetTag(ctx context.Context, id string) (core.Tag, error) {
	var t core.Tag
	var createdAt int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, color, created_at FROM tags WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.Color, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Tag{}, ErrNotFound
	}
	if err != nil {
		return core.Tag{}, fmt.Errorf("get tag: %w", err)
	}
	t.CreatedAt = time.Unix(createdAt, 0)
	return t, nil
}

func (r *SQLiteRepository) SaveTag(ctx context.Context, t core.Tag) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tags (id, name, color, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			color = excluded.color`,
		t.ID, t.Name, t.Color, t.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("save tag: %w", err)
	}
	return nil
}

// DeleteTag removes the tag only. Transactions keep the orphaned id
// in their tag list; an orphan used as a report filter matches
// nothing.
func (r *SQLiteRepository) DeleteTag(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return requireAffected(res)
}

// PendingExpenses returns up to limit expenses awaiting backup,
// oldest first.
func (r *SQLiteRepository) PendingExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount, date, category_id, note, receipt_path, tag_ids, created_at
		FROM expenses WHERE sync_status = ? ORDER BY created_at, id LIMIT ?`,
		SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending expenses: %w", err)
	}
	defer rows.Close()
	return collectExpenses(rows)
}

// PendingIncome returns up to limit income records awaiting backup,
// oldest first.
func (r *SQLiteRepository) PendingIncome(ctx context.Context, limit int) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount, date, source, note, tag_ids, created_at
		FROM income WHERE sync_status = ? ORDER BY created_at, id LIMIT ?`,
		SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending income: %w", err)
	}
	defer rows.Close()
	return collectIncome(rows)
}

func (r *SQLiteRepository) MarkExpenseSynced(ctx context.Context, id string) error {
	return r.setSyncStatus(ctx, "expenses", id, SyncDone)
}

func (r *SQLiteRepository) MarkExpenseSyncError(ctx context.Context, id string) error {
	return r.setSyncStatus(ctx, "expenses", id, SyncError)
}

func (r *SQLiteRepository) MarkIncomeSynced(ctx context.Context, id string) error {
	return r.setSyncStatus(ctx, "income", id, SyncDone)
}

func (r *SQLiteRepository) MarkIncomeSyncError(ctx context.Context, id string) error {
	return r.setSyncStatus(ctx, "income", id, SyncError)
}

func (r *SQLiteRepository) setSyncStatus(ctx context.Context, table, id, status string) error {
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET sync_status = ? WHERE id = ?`, table), status, id)
	if err != nil {
		return fmt.Errorf("update sync status: %w", err)
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var e core.Expense
	var amount, tagIDs string
	var date, createdAt int64
	err := row.Scan(&e.ID, &amount, &date, &e.CategoryID, &e.Note, &e.ReceiptPath, &tagIDs, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	e.Amount, err = decodeAmount(amount)
	if err != nil {
		return core.Expense{}, err
	}
	e.Date = time.Unix(date, 0)
	e.TagIDs = decodeTagIDs(tagIDs)
	e.CreatedAt = time.Unix(createdAt, 0)
	return e, nil
}

func scanIncome(row rowScanner) (core.Income, error) {
	var in core.Income
	var amount, tagIDs string
	var date, createdAt int64
	err := row.Scan(&in.ID, &amount, &date, &in.Source, &in.Note, &tagIDs, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Income{}, ErrNotFound
	}
	if err != nil {
		return core.Income{}, fmt.Errorf("scan income: %w", err)
	}
	in.Amount, err = decodeAmount(amount)
	if err != nil {
		return core.Income{}, err
	}
	in.Date = time.Unix(date, 0)
	in.TagIDs = decodeTagIDs(tagIDs)
	in.CreatedAt = time.Unix(createdAt, 0)
	return in, nil
}

func collectExpenses(rows *sql.Rows) ([]core.Expense, error) {
	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func collectIncome(rows *sql.Rows) ([]core.Income, error) {
	var out []core.Income
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func decodeAmount(s string) (core.Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("decode amount %q: %w", s, err)
	}
	return core.NewMoney(d), nil
}

func encodeTagIDs(ids []string) string {
	return strings.Join(ids, ",")
}

func decodeTagIDs(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
