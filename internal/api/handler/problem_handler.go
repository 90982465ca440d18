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

type ProblemHandler struct {
	problemService    *service.ProblemService
	submissionService *service.SubmissionService
}

func NewProblemHandler(problemService *service.ProblemService, submissionService *service.SubmissionService) *ProblemHandler {
	return &ProblemHandler{problemService: problemService, submissionService: submissionService}
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listProblems)
	r.Get("/{problemSlug}", h.getProblem)

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireUser)
		authed.Post("/{problemSlug}/submissions", h.createSubmission)
	})

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireAdmin)
		admin.Post("/", h.createProblem)
		admin.Put("/{problemSlug}", h.updateProblem)
		admin.Delete("/{problemSlug}", h.deleteProblem)
	})
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	page, pageSize := paginationParams(r)
	difficulty := model.Difficulty(r.URL.Query().Get("difficulty"))
	if difficulty != "" && !difficulty.Valid() {
		common.RespondWithError(w, http.StatusBadRequest, "Unknown difficulty filter")
		return
	}
	tagSlugs := splitCommaList(r.URL.Query().Get("tags"))
	searchTerm := r.URL.Query().Get("search")

	problems, total, err := h.problemService.ListProblems(r.Context(), page, pageSize, difficulty, tagSlugs, searchTerm)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, PaginatedResponse{
		Items: problems, Total: total, Page: page, PageSize: pageSize,
	})
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	problemSlug := chi.URLParam(r, "problemSlug")
	problem, err := h.problemService.GetProblemDetails(r.Context(), problemSlug)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) createProblem(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req service.CreateProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	problem, err := h.problemService.CreateProblem(r.Context(), user.ID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, problem)
}

func (h *ProblemHandler) updateProblem(w http.ResponseWriter, r *http.Request) {
	problemSlug := chi.URLParam(r, "problemSlug")

	var req service.CreateProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	problem, err := h.problemService.UpdateProblem(r.Context(), problemSlug, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) deleteProblem(w http.ResponseWriter, r *http.Request) {
	problemSlug := chi.URLParam(r, "problemSlug")
	if err := h.problemService.DeleteProblem(r.Context(), problemSlug); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Problem deleted"})
}

func (h *ProblemHandler) createSubmission(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	problemSlug := chi.URLParam(r, "problemSlug")

	var req service.CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	sub, err := h.submissionService.Create(r.Context(), user.ID, problemSlug, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, sub)
}
