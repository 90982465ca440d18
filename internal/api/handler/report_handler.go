package handler

import (
	"net/http"

	"prepsheet/internal/api/middleware"
	"prepsheet/internal/app/service"
	"prepsheet/internal/common"

	"github.com/go-chi/chi/v5"
)

type ReportHandler struct {
	reportService *service.ReportService
}

func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.RequireAdmin)
	r.Get("/sheets/{sheetID}", h.sheetReport)
	r.Get("/stats", h.globalStats)
}

func (h *ReportHandler) sheetReport(w http.ResponseWriter, r *http.Request) {
	sheetID := chi.URLParam(r, "sheetID")
	report, err := h.reportService.SheetReport(r.Context(), sheetID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, report)
}

func (h *ReportHandler) globalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reportService.GlobalStats(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, stats)
}
