package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxNoteLength = 500

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrZeroDate      = errors.New("date cannot be zero")
	ErrEmptyCategory = errors.New("empty category id")
	ErrEmptySource   = errors.New("empty income source")
	ErrEmptyName     = errors.New("empty name")
	ErrNoteTooLong   = errors.New("note too long")
)

type (
	// Expense is a dated outgoing amount classified by exactly one
	// category and any number of tags.
	Expense struct {
		ID          string    `json:"id"`
		Amount      Money     `json:"amount"`
		Date        time.Time `json:"date"`
		CategoryID  string    `json:"categoryId"`
		Note        string    `json:"note,omitempty"`
		ReceiptPath string    `json:"receiptPath,omitempty"`
		TagIDs      []string  `json:"tagIds,omitempty"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	// Income is a dated incoming amount labeled with a free-text
	// source ("Acme Corp", "Upwork", ...). The source is not a foreign
	// key; grouping uses the raw string, case-sensitive.
	Income struct {
		ID        string    `json:"id"`
		Amount    Money     `json:"amount"`
		Date      time.Time `json:"date"`
		Source    string    `json:"source"`
		Note      string    `json:"note,omitempty"`
		TagIDs    []string  `json:"tagIds,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
	}

	// Category classifies expenses. Default categories are seeded at
	// first run and protected against deletion.
	Category struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Icon      string `json:"icon"`
		IsDefault bool   `json:"isDefault"`
		SortOrder int    `json:"sortOrder"`
	}

	// Tag is a user-defined project/client label attachable to both
	// expenses and income. Its lifecycle is independent of the records
	// that reference it.
	Tag struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Color     string    `json:"color"`
		CreatedAt time.Time `json:"createdAt"`
	}
)

// NewExpense validates entry input and assigns id and creation time.
func NewExpense(amount Money, date time.Time, categoryID, note string, tagIDs []string) (Expense, error) {
	e := Expense{
		ID:         uuid.NewString(),
		Amount:     amount,
		Date:       date,
		CategoryID: strings.TrimSpace(categoryID),
		Note:       strings.TrimSpace(note),
		TagIDs:     NormalizeTagIDs(tagIDs),
		CreatedAt:  time.Now(),
	}
	if err := e.Validate(); err != nil {
		return Expense{}, err
	}
	return e, nil
}

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.Date.IsZero() {
		return ErrZeroDate
	}
	if e.CategoryID == "" {
		return ErrEmptyCategory
	}
	if len(e.Note) > maxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

// HasTag reports whether the expense carries the given tag id.
func (e Expense) HasTag(tagID string) bool {
	return hasTag(e.TagIDs, tagID)
}

// NewIncome validates entry input and assigns id and creation time.
func NewIncome(amount Money, date time.Time, source, note string, tagIDs []string) (Income, error) {
	in := Income{
		ID:        uuid.NewString(),
		Amount:    amount,
		Date:      date,
		Source:    strings.TrimSpace(source),
		Note:      strings.TrimSpace(note),
		TagIDs:    NormalizeTagIDs(tagIDs),
		CreatedAt: time.Now(),
	}
	if err := in.Validate(); err != nil {
		return Income{}, err
	}
	return in, nil
}

func (in Income) Validate() error {
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if in.Date.IsZero() {
		return ErrZeroDate
	}
	if in.Source == "" {
		return ErrEmptySource
	}
	if len(in.Note) > maxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

// HasTag reports whether the income record carries the given tag id.
func (in Income) HasTag(tagID string) bool {
	return hasTag(in.TagIDs, tagID)
}

// NewTag creates a tag with an assigned id and creation time.
func NewTag(name, color string) (Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Tag{}, ErrEmptyName
	}
	if color == "" {
		color = "blue"
	}
	return Tag{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     color,
		CreatedAt: time.Now(),
	}, nil
}

// NewCategory creates a user-defined (non-default) category.
func NewCategory(name, icon string, sortOrder int) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, ErrEmptyName
	}
	return Category{
		ID:        uuid.NewString(),
		Name:      name,
		Icon:      icon,
		SortOrder: sortOrder,
	}, nil
}

func hasTag(tagIDs []string, tagID string) bool {
	if tagID == "" {
		return false
	}
	for _, id := range tagIDs {
		if id == tagID {
			return true
		}
	}
	return false
}

// NormalizeTagIDs trims, drops empties, and dedupes a tag id list,
// keeping first-seen order. Every path that stores tag ids goes
// through it so the persisted comma-join is canonical.
func NormalizeTagIDs(tagIDs []string) []string {
	if len(tagIDs) == 0 {
		return nil
	}
	out := make([]string, 0, len(tagIDs))
	seen := make(map[string]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
