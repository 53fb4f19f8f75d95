package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a thread scoped to exactly one (item, buyer, seller)
// triple. The composite unique index makes first-contact creation
// idempotent: a concurrent duplicate insert conflicts and the existing
// row is reused.
type Conversation struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ItemID      uuid.UUID `json:"itemId" gorm:"type:uuid;not null;uniqueIndex:idx_conversation_triple"`
	BuyerID     uuid.UUID `json:"buyerId" gorm:"type:uuid;not null;index;uniqueIndex:idx_conversation_triple"`
	SellerID    uuid.UUID `json:"sellerId" gorm:"type:uuid;not null;index;uniqueIndex:idx_conversation_triple"`
	LastMessage string    `json:"lastMessage"` // denormalized cache of the newest message text
	Item        *Item     `json:"item,omitempty" gorm:"foreignKey:ItemID"`
	Buyer       *User     `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
	Seller      *User     `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"autoUpdateTime;index"`
}

// Participant reports whether userID is one of the two parties.
func (c *Conversation) Participant(userID uuid.UUID) bool {
	return c.BuyerID == userID || c.SellerID == userID
}

// OtherParty returns the counterparty of userID in this conversation.
func (c *Conversation) OtherParty(userID uuid.UUID) uuid.UUID {
	if c.BuyerID == userID {
		return c.SellerID
	}
	return c.BuyerID
}
