package handler

import (
	"encoding/json"
	"net/http"

	"prepsheet/internal/api/middleware"
	"prepsheet/internal/app/service"
	"prepsheet/internal/common"
	"prepsheet/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type SubmissionHandler struct {
	submissionService *service.SubmissionService
}

func NewSubmissionHandler(submissionService *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireUser)
		authed.Get("/me", h.listMine)
		authed.Get("/{submissionID}", h.getSubmission)
	})

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireAdmin)
		admin.Get("/", h.listAll)
		admin.Put("/{submissionID}/review", h.review)
	})
}

func (h *SubmissionHandler) listMine(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	page, pageSize := paginationParams(r)

	subs, total, err := h.submissionService.ListMine(r.Context(), user.ID, page, pageSize)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, PaginatedResponse{
		Items: subs, Total: total, Page: page, PageSize: pageSize,
	})
}

func (h *SubmissionHandler) getSubmission(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	submissionID := chi.URLParam(r, "submissionID")

	sub, err := h.submissionService.Get(r.Context(), user, submissionID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sub)
}

func (h *SubmissionHandler) listAll(w http.ResponseWriter, r *http.Request) {
	page, pageSize := paginationParams(r)
	status := model.SubmissionStatus(r.URL.Query().Get("status"))

	subs, total, err := h.submissionService.ListForReview(r.Context(), status, page, pageSize)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, PaginatedResponse{
		Items: subs, Total: total, Page: page, PageSize: pageSize,
	})
}

func (h *SubmissionHandler) review(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	submissionID := chi.URLParam(r, "submissionID")

	var req service.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	sub, err := h.submissionService.Review(r.Context(), user.ID, submissionID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sub)
}
