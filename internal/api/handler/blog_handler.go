package handler

import (
	"encoding/json"
	"net/http"

	"prepsheet/internal/api/middleware"
	"prepsheet/internal/app/service"
	"prepsheet/internal/common"

	"github.com/go-chi/chi/v5"
)

type BlogHandler struct {
	blogService *service.BlogService
}

func NewBlogHandler(blogService *service.BlogService) *BlogHandler {
	return &BlogHandler{blogService: blogService}
}

func (h *BlogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listPosts)
	r.Get("/{postSlug}", h.getPost)

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireUser)
		authed.Post("/{postSlug}/read", h.markRead)
	})

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireAdmin)
		admin.Post("/", h.createPost)
		admin.Put("/{postSlug}", h.updatePost)
		admin.Delete("/{postSlug}", h.deletePost)
	})
}

func (h *BlogHandler) listPosts(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetUserFromContext(r.Context())
	posts, err := h.blogService.ListPosts(r.Context(), viewer)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, posts)
}

func (h *BlogHandler) getPost(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetUserFromContext(r.Context())
	postSlug := chi.URLParam(r, "postSlug")

	post, err := h.blogService.GetPost(r.Context(), viewer, postSlug)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, post)
}

func (h *BlogHandler) markRead(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	postSlug := chi.URLParam(r, "postSlug")

	if err := h.blogService.MarkRead(r.Context(), user.ID, postSlug); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Marked as read"})
}

func (h *BlogHandler) createPost(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req service.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	post, err := h.blogService.CreatePost(r.Context(), user.ID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, post)
}

func (h *BlogHandler) updatePost(w http.ResponseWriter, r *http.Request) {
	postSlug := chi.URLParam(r, "postSlug")

	var req service.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	post, err := h.blogService.UpdatePost(r.Context(), postSlug, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, post)
}

func (h *BlogHandler) deletePost(w http.ResponseWriter, r *http.Request) {
	postSlug := chi.URLParam(r, "postSlug")
	if err := h.blogService.DeletePost(r.Context(), postSlug); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Post deleted"})
}
