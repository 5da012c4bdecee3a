// Package google backs transactions up to a Google Sheets
// spreadsheet using a service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	ports "github.com/MedicD21/InnieOutie/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base sheet names without year; the year is prefixed per
	// instance so each tax year lands on its own sheet.
	transactionsSheet string
	deletionsSheet    string
}

var (
	_ ports.TransactionAppender = (*Client)(nil)
	_ ports.DeletionRecorder    = (*Client)(nil)
)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus service account credentials in
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_SHEET_NAME (default "Transactions") and
// GOOGLE_DELETIONS_SHEET_NAME (default "Deletions").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	transactionsBase := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if transactionsBase == "" {
		transactionsBase = "Transactions"
	}
	deletionsBase := strings.TrimSpace(os.Getenv("GOOGLE_DELETIONS_SHEET_NAME"))
	if deletionsBase == "" {
		deletionsBase = "Deletions"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	year := time.Now().Year()
	return &Client{
		svc:               svc,
		spreadsheetID:     spreadsheetID,
		transactionsSheet: yearPrefixedName(transactionsBase, year),
		deletionsSheet:    yearPrefixedName(deletionsBase, year),
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Append writes one transaction row to the year's sheet and returns
// the updated range as a row reference.
func (c *Client) Append(ctx context.Context, row ports.TransactionRow) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	values := &gsheet.ValueRange{Values: [][]any{{
		row.Kind,
		row.ID,
		row.Date,
		row.Label,
		row.Amount,
		row.Note,
		strings.Join(row.TagNames, ", "),
		row.CreatedAt,
	}}}

	rng := fmt.Sprintf("%s!A:H", c.transactionsSheet)
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, values).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.transactionsSheet, err)
	}

	rowRef := ""
	if resp.Updates != nil {
		rowRef = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Transaction appended to sheet",
		"sheet", c.transactionsSheet,
		"kind", row.Kind,
		"id", row.ID,
		"row_ref", rowRef)
	return rowRef, nil
}

// RecordDeletion notes a local deletion on the deletions sheet so the
// backup stays auditable instead of silently losing rows.
func (c *Client) RecordDeletion(ctx context.Context, kind, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	values := &gsheet.ValueRange{Values: [][]any{{
		kind, id, time.Now().Format(time.RFC3339),
	}}}
	rng := fmt.Sprintf("%s!A:C", c.deletionsSheet)
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, values).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("record deletion in sheet %s: %w", c.deletionsSheet, err)
	}
	return nil
}

func yearPrefixedName(base string, year int) string {
	return fmt.Sprintf("%d %s", year, base)
}
