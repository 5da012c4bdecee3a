// Package worker pushes locally saved transactions to the
// spreadsheet backup. The queue drives normal operation; a periodic
// pending scan catches anything a lost message left behind.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MedicD21/InnieOutie/internal/amqp"
	"github.com/MedicD21/InnieOutie/internal/core"
	"github.com/MedicD21/InnieOutie/internal/sheets"
	"github.com/MedicD21/InnieOutie/internal/storage"
)

const dateLayout = "2006-01-02"

type SyncWorker struct {
	storage   *storage.SQLiteRepository
	appender  sheets.TransactionAppender
	deletions sheets.DeletionRecorder
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, appender sheets.TransactionAppender, deletions sheets.DeletionRecorder, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		appender:  appender,
		deletions: deletions,
		batchSize: batchSize,
	}
}

// HandleSyncMessage backs up one transaction. The record is loaded
// fresh from storage so a stale queue entry can never overwrite a
// newer edit.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"kind", msg.Kind,
		"id", msg.ID,
		"version", msg.Version)

	switch msg.Kind {
	case amqp.KindExpense:
		return w.syncExpense(ctx, msg.ID)
	case amqp.KindIncome:
		return w.syncIncome(ctx, msg.ID)
	default:
		slog.WarnContext(ctx, "Dropping sync message with unknown kind", "kind", msg.Kind, "id", msg.ID)
		return nil
	}
}

// HandleDeleteMessage notes a local deletion in the backup.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.TransactionDeleteMessage) error {
	slog.InfoContext(ctx, "Processing delete message", "kind", msg.Kind, "id", msg.ID)

	if w.deletions == nil {
		slog.WarnContext(ctx, "No deletion recorder configured, skipping", "id", msg.ID)
		return nil
	}
	if err := w.deletions.RecordDeletion(ctx, msg.Kind, msg.ID); err != nil {
		return fmt.Errorf("record deletion: %w", err)
	}
	return nil
}

func (w *SyncWorker) syncExpense(ctx context.Context, id string) error {
	expense, err := w.storage.GetExpense(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted locally before the worker got to it.
		slog.InfoContext(ctx, "Expense gone before sync, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	row, err := w.expenseRow(ctx, expense)
	if err != nil {
		return err
	}
	if _, err := w.appender.Append(ctx, row); err != nil {
		if markErr := w.storage.MarkExpenseSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append expense to sheet: %w", err)
	}
	if err := w.storage.MarkExpenseSynced(ctx, id); err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	return nil
}

func (w *SyncWorker) syncIncome(ctx context.Context, id string) error {
	income, err := w.storage.GetIncome(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		slog.InfoContext(ctx, "Income gone before sync, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get income from storage: %w", err)
	}

	row, err := w.incomeRow(ctx, income)
	if err != nil {
		return err
	}
	if _, err := w.appender.Append(ctx, row); err != nil {
		if markErr := w.storage.MarkIncomeSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append income to sheet: %w", err)
	}
	if err := w.storage.MarkIncomeSynced(ctx, id); err != nil {
		return fmt.Errorf("mark income synced: %w", err)
	}
	return nil
}

func (w *SyncWorker) expenseRow(ctx context.Context, e core.Expense) (sheets.TransactionRow, error) {
	categories, err := w.storage.ListCategories(ctx)
	if err != nil {
		return sheets.TransactionRow{}, fmt.Errorf("list categories: %w", err)
	}
	tagNames, err := w.resolveTagNames(ctx, e.TagIDs)
	if err != nil {
		return sheets.TransactionRow{}, err
	}
	return sheets.TransactionRow{
		Kind:      amqp.KindExpense,
		ID:        e.ID,
		Date:      e.Date.Format(dateLayout),
		Label:     core.IndexCategories(categories).Resolve(e.CategoryID),
		Amount:    e.Amount.String(),
		Note:      e.Note,
		TagNames:  tagNames,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (w *SyncWorker) incomeRow(ctx context.Context, in core.Income) (sheets.TransactionRow, error) {
	tagNames, err := w.resolveTagNames(ctx, in.TagIDs)
	if err != nil {
		return sheets.TransactionRow{}, err
	}
	return sheets.TransactionRow{
		Kind:      amqp.KindIncome,
		ID:        in.ID,
		Date:      in.Date.Format(dateLayout),
		Label:     in.Source,
		Amount:    in.Amount.String(),
		Note:      in.Note,
		TagNames:  tagNames,
		CreatedAt: in.CreatedAt.Format(time.RFC3339),
	}, nil
}

// resolveTagNames maps tag ids to names, keeping orphaned ids as-is
// so the backup row still shows something identifiable.
func (w *SyncWorker) resolveTagNames(ctx context.Context, tagIDs []string) ([]string, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	tags, err := w.storage.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	idx := core.IndexTags(tags)
	names := make([]string, 0, len(tagIDs))
	for _, id := range tagIDs {
		if tag, ok := idx[id]; ok {
			names = append(names, tag.Name)
		} else {
			names = append(names, id)
		}
	}
	return names, nil
}

// ProcessPendingTransactions sweeps records still marked pending, a
// safety net for lost queue messages.
func (w *SyncWorker) ProcessPendingTransactions(ctx context.Context) error {
	expenses, err := w.storage.PendingExpenses(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending expenses: %w", err)
	}
	incomes, err := w.storage.PendingIncome(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending income: %w", err)
	}
	if len(expenses) == 0 && len(incomes) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions",
		"expenses", len(expenses),
		"income", len(incomes))

	for _, e := range expenses {
		if err := w.syncExpense(ctx, e.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync pending expense", "id", e.ID, "error", err)
		}
	}
	for _, in := range incomes {
		if err := w.syncIncome(ctx, in.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync pending income", "id", in.ID, "error", err)
		}
	}
	return nil
}

// StartupSyncCheck drains the pending backlog once at boot before the
// queue consumer takes over.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) {
	if err := w.ProcessPendingTransactions(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup sync check failed", "error", err)
	}
}

// RunPendingLoop re-checks for stranded pending records on the given
// interval until ctx is cancelled.
func (w *SyncWorker) RunPendingLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.ProcessPendingTransactions(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending sweep failed", "error", err)
			}
		}
	}
}
