// Package sheets defines the outbound ports for the spreadsheet
// backup. The worker talks to these interfaces; adapters live in
// subpackages.
package sheets

import "context"

// TransactionRow is one fully resolved line of the backup sheet. The
// category name is resolved before it leaves the process so the sheet
// never shows raw ids.
type TransactionRow struct {
	Kind      string
	ID        string
	Date      string
	Label     string // category name for expenses, source for income
	Amount    string // exact decimal text
	Note      string
	TagNames  []string
	CreatedAt string
}

// Ports for outbound adapters.
type (
	TransactionAppender interface {
		Append(ctx context.Context, row TransactionRow) (rowRef string, err error)
	}

	DeletionRecorder interface {
		RecordDeletion(ctx context.Context, kind, id string) error
	}
)
