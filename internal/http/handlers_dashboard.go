package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/MedicD21/InnieOutie/internal/core"
	applog "github.com/MedicD21/InnieOutie/internal/log"
)

// snapshotResponse adds the month key the snapshot itself does not
// serialize.
type snapshotResponse struct {
	Month string `json:"month"`
	core.MonthlySnapshot
}

// handleSnapshot serves the dashboard aggregate for one month.
// Query params: year, month (default current), mom=1 to attach the
// month-over-month change, all=1 to list every category instead of
// the dashboard top three.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	withMoM := r.URL.Query().Get("mom") == "1"
	topN := core.DashboardTopCategories
	if r.URL.Query().Get("all") == "1" {
		topN = 0
	}

	key := fmt.Sprintf("snapshot:%s:%d:%t", month, topN, withMoM)
	if snap, ok := s.snapshotCache.Get(key); ok {
		writeJSON(w, http.StatusOK, snapshotResponse{Month: month.String(), MonthlySnapshot: snap})
		return
	}

	snap, err := s.ledger.MonthlySnapshot(r.Context(), month, topN, withMoM)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to build snapshot",
			applog.FieldMonth, month.String(), applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to build snapshot")
		return
	}

	s.snapshotCache.Set(key, snap)
	writeJSON(w, http.StatusOK, snapshotResponse{Month: month.String(), MonthlySnapshot: snap})
}
