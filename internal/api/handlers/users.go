package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/arnavk09/campusswap/internal/models"
	"github.com/arnavk09/campusswap/internal/repositories"
	"github.com/arnavk09/campusswap/internal/utils"
)

// UserFinder looks up users for the public profile route.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// UsersHandler serves public profile slices for chat and item views.
type UsersHandler struct {
	Users UserFinder
}

func NewUsersHandler(users UserFinder) *UsersHandler {
	return &UsersHandler{Users: users}
}

// GET /api/users/{id}
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	user, err := h.Users.FindByID(r.Context(), id)
	if errors.Is(err, repositories.ErrUserNotFound) {
		utils.JSONResponse(w, http.StatusNotFound, utils.Payload{
			Success: false,
			Message: "User not found",
		})
		return
	}
	if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Failed to get user",
		})
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Data:    map[string]any{"user": user.Public()},
	})
}
