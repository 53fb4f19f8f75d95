package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/arnavk09/campusswap/internal/api/middleware"
	"github.com/arnavk09/campusswap/internal/messaging"
	"github.com/arnavk09/campusswap/internal/utils"
)

// Messenger is the messaging service surface the chat routes need.
type Messenger interface {
	Send(ctx context.Context, callerUID string, input messaging.SendInput) (*messaging.SendResult, error)
	Inbox(ctx context.Context, callerUID string) ([]messaging.InboxEntry, error)
	ConversationMessages(ctx context.Context, callerUID string, conversationID uuid.UUID) (*messaging.ConversationView, error)
}

// MessagesHandler serves the inbox and per-item conversation threads.
type MessagesHandler struct {
	Messaging Messenger
}

func NewMessagesHandler(m Messenger) *MessagesHandler {
	return &MessagesHandler{Messaging: m}
}

// POST /api/messages
// SendMessage godoc
// @Summary Send a message
// @Description Append to an existing conversation or open one by item id (first contact).
// @Tags Messages
// @Accept json
// @Produce json
// @Success 201 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/messages [post]
func (h *MessagesHandler) Send(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ConversationID *uuid.UUID `json:"conversationId"`
		ItemID         *uuid.UUID `json:"itemId"`
		Text           string     `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid input",
		})
		return
	}

	result, err := h.Messaging.Send(r.Context(), middleware.CallerUID(r), messaging.SendInput{
		ConversationID: input.ConversationID,
		ItemID:         input.ItemID,
		Text:           input.Text,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusCreated, utils.Payload{
		Success: true,
		Data:    result,
	})
}

// GET /api/messages
func (h *MessagesHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Messaging.Inbox(r.Context(), middleware.CallerUID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Data:    map[string]any{"conversations": entries},
	})
}

// GET /api/messages/conversation/{id}/messages
func (h *MessagesHandler) ConversationMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	view, err := h.Messaging.ConversationMessages(r.Context(), middleware.CallerUID(r), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Data:    view,
	})
}

func (h *MessagesHandler) writeError(w http.ResponseWriter, err error) {
	var verr *messaging.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: verr.Reason,
		})
	case errors.Is(err, messaging.ErrSelfContact):
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "You cannot message yourself about your own item",
		})
	case errors.Is(err, messaging.ErrConversationNotFound):
		utils.JSONResponse(w, http.StatusNotFound, utils.Payload{
			Success: false,
			Message: "Conversation not found",
		})
	case errors.Is(err, messaging.ErrItemNotFound):
		utils.JSONResponse(w, http.StatusNotFound, utils.Payload{
			Success: false,
			Message: "Item not found",
		})
	case errors.Is(err, messaging.ErrUserNotFound):
		utils.JSONResponse(w, http.StatusNotFound, utils.Payload{
			Success: false,
			Message: "User not found",
		})
	default:
		log.Printf("messages: %v", err)
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Something went wrong",
		})
	}
}
