package handler

import (
	"encoding/json"
	"net/http"

	"prepsheet/internal/api/middleware"
	"prepsheet/internal/app/service"
	"prepsheet/internal/common"

	"github.com/go-chi/chi/v5"
)

const maxAvatarBytes = 5 << 20 // 5 MiB

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{username}", h.getProfile)

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireUser)
		authed.Put("/me", h.updateProfile)
		authed.Post("/me/avatar", h.uploadAvatar)
	})

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireAdmin)
		admin.Delete("/{username}", h.deleteUser)
	})
}

func (h *UserHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	user, err := h.userService.GetProfile(r.Context(), username)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req service.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	updated, err := h.userService.UpdateProfile(r.Context(), user.ID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, updated)
}

func (h *UserHandler) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Missing avatar file: "+err.Error())
		return
	}
	defer file.Close()

	if header.Size > maxAvatarBytes {
		common.RespondWithError(w, http.StatusBadRequest, "Avatar file too large")
		return
	}
	contentType := header.Header.Get("Content-Type")

	url, err := h.userService.UploadAvatar(r.Context(), user.ID, header.Filename, contentType, file, header.Size)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"avatar_url": url})
}

func (h *UserHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	user, err := h.userService.GetProfile(r.Context(), username)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	if err := h.userService.DeleteAccount(r.Context(), user.ID); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}
