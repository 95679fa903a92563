package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves spreadsheet exports
type ReportHandler struct {
	reports ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// OccupancyWorkbook handles GET /api/reports/occupancy.xlsx
func (h *ReportHandler) OccupancyWorkbook(w http.ResponseWriter, r *http.Request) {
	session, ok := requestSession(w, r)
	if !ok {
		return
	}

	data, err := h.reports.OccupancyWorkbook(r.Context(), session)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	filename := fmt.Sprintf("occupancy-%s.xlsx", time.Now().UTC().Format("20060102-1504"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
