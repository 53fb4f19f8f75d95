package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxMessageLength caps a chat line after trimming.
const MaxMessageLength = 500

// Message is one immutable chat line. Sender and receiver are always the
// conversation's buyer/seller pair in some order.
type Message struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ConversationID uuid.UUID `json:"conversationId" gorm:"type:uuid;index;not null"`
	SenderID       uuid.UUID `json:"senderId" gorm:"type:uuid;not null"`
	ReceiverID     uuid.UUID `json:"receiverId" gorm:"type:uuid;not null"`
	Text           string    `json:"text" gorm:"not null"`
	CreatedAt      time.Time `json:"createdAt" gorm:"autoCreateTime;index"`
}
