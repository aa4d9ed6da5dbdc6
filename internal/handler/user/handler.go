package user

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindbridge/counsel/backend/internal/model/counseling"
	counselingsvc "github.com/mindbridge/counsel/backend/internal/service/counseling"
	"github.com/mindbridge/counsel/backend/pkg/utils"
)

// Users registers and looks up anonymous users.
type Users interface {
	RegisterUser(ctx context.Context, in counselingsvc.NewUser) (counseling.User, error)
	User(ctx context.Context, id string) (counseling.User, error)
}

// Handler registers and looks up anonymous users.
type Handler struct {
	users Users
}

// New returns a Handler backed by users.
func New(users Users) *Handler {
	return &Handler{users: users}
}

// RegisterRoutes mounts the user routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload counselingsvc.NewUser
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.RegisterUser(r.Context(), payload)
	switch {
	case errors.Is(err, counselingsvc.ErrInvalidRequest):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		slog.ErrorContext(r.Context(), "user registration failed", "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	default:
		utils.RespondJSON(w, http.StatusCreated, user)
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.User(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, counselingsvc.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, "user not found")
	case err != nil:
		slog.ErrorContext(r.Context(), "user lookup failed", "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	default:
		utils.RespondJSON(w, http.StatusOK, user)
	}
}
