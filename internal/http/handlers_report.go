package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/MedicD21/InnieOutie/internal/core"
	"github.com/MedicD21/InnieOutie/internal/export"
	applog "github.com/MedicD21/InnieOutie/internal/log"
)

// handleAnnualReport serves the tax-year rollup. Query params: year
// (default current year), format=csv for the export rendering.
func (s *Server) handleAnnualReport(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "csv" {
		s.handleExportAnnual(w, r)
		return
	}

	year, err := parseYear(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := s.ledger.AnnualReport(r.Context(), year)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to build annual report",
			applog.FieldYear, year, applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to build annual report")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// handleTagReport serves a per-tag rollup over an inclusive date
// range. Query params: tag, start, end (all required, dates as
// 2006-01-02), format=csv for the export rendering.
func (s *Server) handleTagReport(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "csv" {
		s.handleExportTag(w, r)
		return
	}

	tagID, start, end, err := parseTagRangeQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := s.ledger.TagReport(r.Context(), tagID, start, end)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to build tag report",
			applog.FieldTagID, tagID, applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to build tag report")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// handleExportMonthly streams the monthly CSV export. Query params:
// year, month (default current).
func (s *Server) handleExportMonthly(w http.ResponseWriter, r *http.Request) {
	month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := s.ledger.MonthlySnapshot(r.Context(), month, 0, false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build snapshot")
		return
	}
	start, end := month.Range()
	data, err := s.ledger.LoadReportData(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	setCSVHeaders(w, fmt.Sprintf("innieoutie-%s.csv", month))
	idx := core.IndexCategories(data.Categories)
	if err := export.WriteMonthlyCSV(w, snap, data.Expenses, data.Incomes, idx, s.currencyCode, time.Now()); err != nil {
		slog.ErrorContext(r.Context(), "Failed to write monthly export",
			applog.FieldMonth, month.String(), applog.FieldError, err)
	}
}

// handleExportAnnual streams the annual CSV export. Query param: year.
func (s *Server) handleExportAnnual(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := s.ledger.AnnualReport(r.Context(), year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build annual report")
		return
	}
	data, err := s.ledger.LoadReportData(r.Context(), time.Time{}, time.Time{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load categories")
		return
	}

	setCSVHeaders(w, fmt.Sprintf("innieoutie-%d.csv", year))
	idx := core.IndexCategories(data.Categories)
	if err := export.WriteAnnualCSV(w, rep, idx, s.currencyCode, time.Now()); err != nil {
		slog.ErrorContext(r.Context(), "Failed to write annual export",
			applog.FieldYear, year, applog.FieldError, err)
	}
}

// handleExportTag streams the per-tag CSV export. Query params: tag,
// start, end.
func (s *Server) handleExportTag(w http.ResponseWriter, r *http.Request) {
	tagID, start, end, err := parseTagRangeQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := s.ledger.TagReport(r.Context(), tagID, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build tag report")
		return
	}
	data, err := s.ledger.LoadReportData(r.Context(), time.Time{}, time.Time{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load categories")
		return
	}

	setCSVHeaders(w, fmt.Sprintf("innieoutie-tag-%s.csv", tagID))
	idx := core.IndexCategories(data.Categories)
	if err := export.WriteTagCSV(w, rep, idx, s.currencyCode, time.Now()); err != nil {
		slog.ErrorContext(r.Context(), "Failed to write tag export",
			applog.FieldTagID, tagID, applog.FieldError, err)
	}
}

func parseYear(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return time.Now().Year(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 || year > 9999 {
		return 0, fmt.Errorf("invalid year %q", raw)
	}
	return year, nil
}

func parseTagRangeQuery(r *http.Request) (tagID string, start, end time.Time, err error) {
	q := r.URL.Query()
	tagID = q.Get("tag")
	if tagID == "" {
		return "", time.Time{}, time.Time{}, fmt.Errorf("missing tag parameter")
	}
	start, err = parseDate(q.Get("start"))
	if err != nil {
		return "", time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %w", err)
	}
	end, err = parseDate(q.Get("end"))
	if err != nil {
		return "", time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %w", err)
	}
	if end.Before(start) {
		return "", time.Time{}, time.Time{}, fmt.Errorf("end date before start date")
	}
	return tagID, start, end, nil
}

func setCSVHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}
