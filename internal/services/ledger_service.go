// Package services orchestrates the ledger across SQLite, the backup
// queue and the aggregation core. Writes always land locally first;
// the queue only schedules the off-device backup.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MedicD21/InnieOutie/internal/amqp"
	"github.com/MedicD21/InnieOutie/internal/core"
	"github.com/MedicD21/InnieOutie/internal/report"
	"github.com/MedicD21/InnieOutie/internal/storage"
)

type LedgerService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewLedgerService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// CreateExpense validates and saves an expense, then queues its
// backup. A publish failure is logged, not returned; the pending
// sweep will pick the record up later.
func (s *LedgerService) CreateExpense(ctx context.Context, amount core.Money, date time.Time, categoryID, note string, tagIDs []string) (core.Expense, error) {
	e, err := core.NewExpense(amount, date, categoryID, note, tagIDs)
	if err != nil {
		return core.Expense{}, err
	}
	if err := s.storage.SaveExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.publishSync(ctx, amqp.KindExpense, e.ID)
	return e, nil
}

// UpdateExpense replaces a stored expense and re-queues its backup.
func (s *LedgerService) UpdateExpense(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if _, err := s.storage.GetExpense(ctx, e.ID); err != nil {
		return err
	}
	if err := s.storage.SaveExpense(ctx, e); err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	s.publishSync(ctx, amqp.KindExpense, e.ID)
	return nil
}

func (s *LedgerService) DeleteExpense(ctx context.Context, id string) error {
	if err := s.storage.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.publishDelete(ctx, amqp.KindExpense, id)
	return nil
}

// CreateIncome validates and saves an income record, then queues its
// backup.
func (s *LedgerService) CreateIncome(ctx context.Context, amount core.Money, date time.Time, source, note string, tagIDs []string) (core.Income, error) {
	in, err := core.NewIncome(amount, date, source, note, tagIDs)
	if err != nil {
		return core.Income{}, err
	}
	if err := s.storage.SaveIncome(ctx, in); err != nil {
		return core.Income{}, fmt.Errorf("save income: %w", err)
	}
	s.publishSync(ctx, amqp.KindIncome, in.ID)
	return in, nil
}

func (s *LedgerService) UpdateIncome(ctx context.Context, in core.Income) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if _, err := s.storage.GetIncome(ctx, in.ID); err != nil {
		return err
	}
	if err := s.storage.SaveIncome(ctx, in); err != nil {
		return fmt.Errorf("update income: %w", err)
	}
	s.publishSync(ctx, amqp.KindIncome, in.ID)
	return nil
}

func (s *LedgerService) DeleteIncome(ctx context.Context, id string) error {
	if err := s.storage.DeleteIncome(ctx, id); err != nil {
		return err
	}
	s.publishDelete(ctx, amqp.KindIncome, id)
	return nil
}

// CreateCategory saves a new custom category. Categories stay local;
// they are not queued for backup.
func (s *LedgerService) CreateCategory(ctx context.Context, name, icon string, sortOrder int) (core.Category, error) {
	c, err := core.NewCategory(name, icon, sortOrder)
	if err != nil {
		return core.Category{}, err
	}
	if err := s.storage.SaveCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	return c, nil
}

// DeleteCategory removes a custom category. Default categories are
// protected; records referencing the deleted category keep its id.
func (s *LedgerService) DeleteCategory(ctx context.Context, id string) error {
	return s.storage.DeleteCategory(ctx, id)
}

func (s *LedgerService) CreateTag(ctx context.Context, name, color string) (core.Tag, error) {
	t, err := core.NewTag(name, color)
	if err != nil {
		return core.Tag{}, err
	}
	if err := s.storage.SaveTag(ctx, t); err != nil {
		return core.Tag{}, fmt.Errorf("save tag: %w", err)
	}
	return t, nil
}

// DeleteTag removes a tag. Transactions keep the orphaned id; it
// simply stops matching anything.
func (s *LedgerService) DeleteTag(ctx context.Context, id string) error {
	return s.storage.DeleteTag(ctx, id)
}

// ReportData is everything the aggregation and report layers need for
// one query, loaded in a single fan-out.
type ReportData struct {
	Expenses   []core.Expense
	Incomes    []core.Income
	Categories []core.Category
	Tags       []core.Tag
}

// LoadReportData fetches transactions in [start, end) together with
// the category and tag lists. A zero start and end loads everything.
func (s *LedgerService) LoadReportData(ctx context.Context, start, end time.Time) (ReportData, error) {
	var data ReportData
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if start.IsZero() && end.IsZero() {
			data.Expenses, err = s.storage.ListAllExpenses(ctx)
		} else {
			data.Expenses, err = s.storage.ListExpensesInRange(ctx, start, end)
		}
		return err
	})
	g.Go(func() error {
		var err error
		if start.IsZero() && end.IsZero() {
			data.Incomes, err = s.storage.ListAllIncome(ctx)
		} else {
			data.Incomes, err = s.storage.ListIncomeInRange(ctx, start, end)
		}
		return err
	})
	g.Go(func() error {
		var err error
		data.Categories, err = s.storage.ListCategories(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		data.Tags, err = s.storage.ListTags(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return ReportData{}, fmt.Errorf("load report data: %w", err)
	}
	return data, nil
}

// MonthlySnapshot aggregates one month. topN limits the category
// listing, 0 keeps every category. withMoM additionally loads the
// previous month and attaches the month-over-month change.
func (s *LedgerService) MonthlySnapshot(ctx context.Context, month core.Month, topN int, withMoM bool) (core.MonthlySnapshot, error) {
	start, end := month.Range()
	if withMoM {
		start, _ = month.Previous().Range()
	}

	data, err := s.LoadReportData(ctx, start, end)
	if err != nil {
		return core.MonthlySnapshot{}, err
	}

	idx := core.IndexCategories(data.Categories)
	snap := core.ComputeMonthlySnapshot(data.Expenses, data.Incomes, idx, month, topN)
	if withMoM {
		prev := core.ComputeMonthlySnapshot(data.Expenses, data.Incomes, idx, month.Previous(), 0)
		change := core.MoMChange(snap, prev)
		snap.MoMChange = &change
	}
	return snap, nil
}

// AnnualReport builds the tax-year rollup for year.
func (s *LedgerService) AnnualReport(ctx context.Context, year int) (report.Annual, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.Local)
	data, err := s.LoadReportData(ctx, start, end)
	if err != nil {
		return report.Annual{}, err
	}
	return report.BuildAnnual(year, data.Expenses, data.Incomes, core.IndexCategories(data.Categories)), nil
}

// TagReport builds a per-project rollup for one tag over an inclusive
// date range. An unknown tag id yields an all-zero report.
func (s *LedgerService) TagReport(ctx context.Context, tagID string, start, end time.Time) (report.TagRange, error) {
	data, err := s.LoadReportData(ctx, start, end.Add(time.Second))
	if err != nil {
		return report.TagRange{}, err
	}
	tag := core.Tag{ID: tagID}
	for _, t := range data.Tags {
		if t.ID == tagID {
			tag = t
			break
		}
	}
	return report.BuildTagRange(tag, start, end, data.Expenses, data.Incomes, core.IndexCategories(data.Categories)), nil
}

func (s *LedgerService) Storage() *storage.SQLiteRepository {
	return s.storage
}

func (s *LedgerService) publishSync(ctx context.Context, kind, id string) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return
	}
	if err := s.amqpClient.PublishTransactionSync(ctx, kind, id, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"kind", kind, "id", id, "error", err)
	}
}

func (s *LedgerService) publishDelete(ctx context.Context, kind, id string) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping delete message")
		return
	}
	if err := s.amqpClient.PublishTransactionDelete(ctx, kind, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"kind", kind, "id", id, "error", err)
	}
}

// Close closes storage and the AMQP connection.
func (s *LedgerService) Close() error {
	var errs []error
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
