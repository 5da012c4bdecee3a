package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/MedicD21/InnieOutie/internal/core"
	"github.com/MedicD21/InnieOutie/internal/storage"
)

type expenseRequest struct {
	Amount      string   `json:"amount"`
	Date        string   `json:"date"`
	CategoryID  string   `json:"categoryId"`
	Note        string   `json:"note"`
	ReceiptPath string   `json:"receiptPath"`
	TagIDs      []string `json:"tagIds"`
}

type incomeRequest struct {
	Amount string   `json:"amount"`
	Date   string   `json:"date"`
	Source string   `json:"source"`
	Note   string   `json:"note"`
	TagIDs []string `json:"tagIds"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, date, err := parseTransactionFields(req.Amount, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := s.ledger.CreateExpense(r.Context(), amount, date, req.CategoryID, sanitizeInput(req.Note), req.TagIDs)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if req.ReceiptPath != "" {
		e.ReceiptPath = sanitizeInput(req.ReceiptPath)
		if err := s.ledger.UpdateExpense(r.Context(), e); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	s.invalidateMonth(e.Date)
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	existing, err := s.ledger.Storage().GetExpense(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	amount, date, err := parseTransactionFields(req.Amount, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing.Amount = amount
	existing.Date = date
	existing.CategoryID = req.CategoryID
	existing.Note = sanitizeInput(req.Note)
	existing.ReceiptPath = sanitizeInput(req.ReceiptPath)
	existing.TagIDs = core.NormalizeTagIDs(req.TagIDs)

	if err := s.ledger.UpdateExpense(r.Context(), existing); err != nil {
		writeDomainError(w, err)
		return
	}

	s.snapshotCache.Purge()
	writeJSON(w, http.StatusOK, existing)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteExpense(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	s.snapshotCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}

// handleListExpenses lists expenses, optionally bounded by start and
// end dates (half-open, 2006-01-02).
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseListRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var expenses []core.Expense
	if start.IsZero() && end.IsZero() {
		expenses, err = s.ledger.Storage().ListAllExpenses(r.Context())
	} else {
		expenses, err = s.ledger.Storage().ListExpensesInRange(r.Context(), start, end)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list expenses")
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, date, err := parseTransactionFields(req.Amount, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in, err := s.ledger.CreateIncome(r.Context(), amount, date, sanitizeInput(req.Source), sanitizeInput(req.Note), req.TagIDs)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateMonth(in.Date)
	writeJSON(w, http.StatusCreated, in)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req incomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	existing, err := s.ledger.Storage().GetIncome(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	amount, date, err := parseTransactionFields(req.Amount, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing.Amount = amount
	existing.Date = date
	existing.Source = sanitizeInput(req.Source)
	existing.Note = sanitizeInput(req.Note)
	existing.TagIDs = core.NormalizeTagIDs(req.TagIDs)

	if err := s.ledger.UpdateIncome(r.Context(), existing); err != nil {
		writeDomainError(w, err)
		return
	}

	s.snapshotCache.Purge()
	writeJSON(w, http.StatusOK, existing)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteIncome(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	s.snapshotCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListIncome(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseListRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var income []core.Income
	if start.IsZero() && end.IsZero() {
		income, err = s.ledger.Storage().ListAllIncome(r.Context())
	} else {
		income, err = s.ledger.Storage().ListIncomeInRange(r.Context(), start, end)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list income")
		return
	}
	writeJSON(w, http.StatusOK, income)
}

func parseTransactionFields(amount, date string) (core.Money, time.Time, error) {
	m, err := core.ParseMoney(amount)
	if err != nil {
		return core.Money{}, time.Time{}, err
	}
	d, err := parseDate(date)
	if err != nil {
		return core.Money{}, time.Time{}, err
	}
	return m, d, nil
}

func parseListRange(r *http.Request) (start, end time.Time, err error) {
	q := r.URL.Query()
	if q.Get("start") == "" && q.Get("end") == "" {
		return time.Time{}, time.Time{}, nil
	}
	start, err = parseDate(q.Get("start"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = parseDate(q.Get("end"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// writeDomainError maps service and storage errors onto HTTP status
// codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrDefaultCategory):
		writeError(w, http.StatusConflict, "default categories cannot be deleted")
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrZeroDate),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrEmptySource),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrNoteTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
