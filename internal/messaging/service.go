package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arnavk09/campusswap/internal/models"
)

// RecentMessageLimit caps the thread view at the newest messages.
const RecentMessageLimit = 20

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrItemNotFound         = errors.New("item not found")
	ErrUserNotFound         = errors.New("user not found")
	// ErrSelfContact rejects a seller opening a thread on their own item.
	ErrSelfContact = errors.New("cannot message yourself about your own item")
)

// ValidationError marks client-correctable input problems.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Service resolves conversations and appends messages. One conversation
// exists per (item, buyer, seller) triple; the first message creates it.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// SendInput addresses a message either at an existing conversation or at
// an item (first contact).
type SendInput struct {
	ConversationID *uuid.UUID
	ItemID         *uuid.UUID
	Text           string
}

// SendResult reports the resolved conversation and the stored message.
type SendResult struct {
	ConversationID uuid.UUID      `json:"conversationId"`
	Message        models.Message `json:"message"`
}

// InboxEntry is one conversation in the caller's inbox.
type InboxEntry struct {
	ConversationID uuid.UUID            `json:"conversationId"`
	Item           models.ItemSummary   `json:"item"`
	LastMessage    string               `json:"lastMessage"`
	UpdatedAt      time.Time            `json:"updatedAt"`
	OtherUser      models.PublicProfile `json:"otherUser"`
}

// ConversationView is the thread payload: the newest messages in
// chronological order plus the item summary.
type ConversationView struct {
	ConversationID uuid.UUID          `json:"conversationId"`
	Item           models.ItemSummary `json:"item"`
	Messages       []models.Message   `json:"messages"`
}

// Send appends one message. Every successful send mutates exactly one
// conversation row and inserts exactly one message row.
func (s *Service) Send(ctx context.Context, callerUID string, input SendInput) (*SendResult, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, &ValidationError{Reason: "message text is required"}
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLength {
		return nil, &ValidationError{Reason: fmt.Sprintf("message text exceeds %d characters", models.MaxMessageLength)}
	}

	if input.ConversationID == nil && input.ItemID == nil {
		return nil, &ValidationError{Reason: "conversationId or itemId is required"}
	}

	caller, err := s.userByUID(ctx, callerUID)
	if err != nil {
		return nil, err
	}

	// Conversation resolution and the message insert share one
	// transaction: a failed insert must not leave behind an empty
	// first-contact conversation.
	var result *SendResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv *models.Conversation
		var err error
		if input.ConversationID != nil {
			conv, err = participantConversation(tx, caller.ID, *input.ConversationID)
		} else {
			conv, err = resolveFirstContact(tx, caller.ID, *input.ItemID)
		}
		if err != nil {
			return err
		}

		msg := outboundMessage(conv, caller.ID, text)
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		err = tx.Model(&models.Conversation{}).
			Where("id = ?", conv.ID).
			Updates(map[string]any{"last_message": text, "updated_at": msg.CreatedAt}).Error
		if err != nil {
			return err
		}

		result = &SendResult{ConversationID: conv.ID, Message: *msg}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// outboundMessage addresses a message from sender to the conversation's
// other party. Sender and receiver are always the buyer/seller pair.
func outboundMessage(conv *models.Conversation, senderID uuid.UUID, text string) *models.Message {
	return &models.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		ReceiverID:     conv.OtherParty(senderID),
		Text:           text,
	}
}

// Inbox lists the caller's conversations, newest activity first.
func (s *Service) Inbox(ctx context.Context, callerUID string) ([]InboxEntry, error) {
	caller, err := s.userByUID(ctx, callerUID)
	if err != nil {
		return nil, err
	}

	var conversations []models.Conversation
	err = s.db.WithContext(ctx).
		Preload("Item").
		Preload("Buyer").
		Preload("Seller").
		Where("buyer_id = ? OR seller_id = ?", caller.ID, caller.ID).
		Order("updated_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}

	entries := make([]InboxEntry, 0, len(conversations))
	for _, c := range conversations {
		entry := InboxEntry{
			ConversationID: c.ID,
			LastMessage:    c.LastMessage,
			UpdatedAt:      c.UpdatedAt,
		}
		if c.Item != nil {
			entry.Item = c.Item.Summary()
		}
		other := c.Seller
		if c.SellerID == caller.ID {
			other = c.Buyer
		}
		if other != nil {
			entry.OtherUser = other.Public()
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ConversationMessages returns the newest RecentMessageLimit messages of
// the thread in chronological order. Non-participants get not-found.
func (s *Service) ConversationMessages(ctx context.Context, callerUID string, conversationID uuid.UUID) (*ConversationView, error) {
	caller, err := s.userByUID(ctx, callerUID)
	if err != nil {
		return nil, err
	}

	var conv models.Conversation
	err = s.db.WithContext(ctx).Preload("Item").First(&conv, "id = ?", conversationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	if !conv.Participant(caller.ID) {
		return nil, ErrConversationNotFound
	}

	var messages []models.Message
	err = s.db.WithContext(ctx).
		Where("conversation_id = ?", conv.ID).
		Order("created_at DESC").
		Limit(RecentMessageLimit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	view := &ConversationView{ConversationID: conv.ID, Messages: chronological(messages)}
	if conv.Item != nil {
		view.Item = conv.Item.Summary()
	}
	return view, nil
}

// chronological flips a newest-first page into oldest-first order for
// the client.
func chronological(messages []models.Message) []models.Message {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages
}

func participantConversation(tx *gorm.DB, callerID, conversationID uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := tx.First(&conv, "id = ?", conversationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	if !conv.Participant(callerID) {
		return nil, ErrConversationNotFound
	}
	return &conv, nil
}

// resolveFirstContact finds or creates the conversation for
// (item, buyer, item.seller). The unique triple index makes the
// check-then-create race safe: a conflicting insert affects zero rows
// and the winner's conversation is reused.
func resolveFirstContact(tx *gorm.DB, buyerID, itemID uuid.UUID) (*models.Conversation, error) {
	var item models.Item
	err := tx.First(&item, "id = ?", itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	if item.SellerID == buyerID {
		return nil, ErrSelfContact
	}

	conv := &models.Conversation{
		ItemID:   item.ID,
		BuyerID:  buyerID,
		SellerID: item.SellerID,
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(conv)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		err := tx.First(conv, "item_id = ? AND buyer_id = ? AND seller_id = ?", item.ID, buyerID, item.SellerID).Error
		if err != nil {
			return nil, err
		}
	}
	return conv, nil
}

func (s *Service) userByUID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "uid = ?", uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
