package handler

import (
	"encoding/json"
	"net/http"

	"prepsheet/internal/api/middleware"
	"prepsheet/internal/app/service"
	"prepsheet/internal/common"

	"github.com/go-chi/chi/v5"
)

type SheetHandler struct {
	sheetService    *service.SheetService
	progressService *service.ProgressService
}

func NewSheetHandler(sheetService *service.SheetService, progressService *service.ProgressService) *SheetHandler {
	return &SheetHandler{sheetService: sheetService, progressService: progressService}
}

func (h *SheetHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listSheets)
	r.Get("/{sheetSlug}", h.getSheet)

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireUser)
		authed.Get("/{sheetSlug}/progress", h.getProgress)
		authed.Post("/{sheetSlug}/progress/toggle", h.toggleProgress)
		authed.Post("/{sheetSlug}/progress/import", h.importProgress)
	})

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireAdmin)
		admin.Post("/", h.createSheet)
		admin.Put("/{sheetSlug}", h.updateSheet)
		admin.Delete("/{sheetSlug}", h.deleteSheet)
	})
}

func (h *SheetHandler) listSheets(w http.ResponseWriter, r *http.Request) {
	sheets, err := h.sheetService.ListSheets(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sheets)
}

func (h *SheetHandler) getSheet(w http.ResponseWriter, r *http.Request) {
	sheetSlug := chi.URLParam(r, "sheetSlug")
	sheet, err := h.sheetService.GetSheet(r.Context(), sheetSlug)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sheet)
}

func (h *SheetHandler) createSheet(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req service.CreateSheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	sheet, err := h.sheetService.CreateSheet(r.Context(), user.ID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, sheet)
}

func (h *SheetHandler) updateSheet(w http.ResponseWriter, r *http.Request) {
	sheetSlug := chi.URLParam(r, "sheetSlug")

	var req service.CreateSheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	sheet, err := h.sheetService.UpdateSheet(r.Context(), sheetSlug, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sheet)
}

func (h *SheetHandler) deleteSheet(w http.ResponseWriter, r *http.Request) {
	sheetSlug := chi.URLParam(r, "sheetSlug")
	if err := h.sheetService.DeleteSheet(r.Context(), sheetSlug); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Sheet deleted"})
}

func (h *SheetHandler) getProgress(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	sheetSlug := chi.URLParam(r, "sheetSlug")

	progress, err := h.progressService.GetProgress(r.Context(), user.ID, sheetSlug)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, progress)
}

func (h *SheetHandler) toggleProgress(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	sheetSlug := chi.URLParam(r, "sheetSlug")

	var req service.ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	progress, err := h.progressService.Toggle(r.Context(), user.ID, sheetSlug, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, progress)
}

func (h *SheetHandler) importProgress(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	sheetSlug := chi.URLParam(r, "sheetSlug")

	var req service.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	progress, err := h.progressService.Import(r.Context(), user.ID, sheetSlug, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, progress)
}
