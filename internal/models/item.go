package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Item categories and conditions are enum-like strings, not DB enums.
var (
	Categories = []string{"TextBooks", "Electronics", "Furniture", "HostelItems", "Cycles", "Others"}
	Conditions = []string{"New", "Like New", "Used", "Old"}
)

// Item is a marketplace listing owned by its seller.
type Item struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Title       string         `json:"title" gorm:"not null"`
	Description string         `json:"description"`
	Price       float64        `json:"price" gorm:"not null;check:price >= 0"`
	Category    string         `json:"category" gorm:"index;not null"`
	Condition   string         `json:"condition" gorm:"not null"`
	Images      pq.StringArray `json:"images" gorm:"type:text[]"` // ordered, 1-5 URLs
	Tags        pq.StringArray `json:"tags" gorm:"type:text[]"`   // normalized: trimmed, lowercase
	IsAvailable bool           `json:"isAvailable" gorm:"default:true"`
	SellerID    uuid.UUID      `json:"sellerId" gorm:"type:uuid;index;not null"`
	Seller      *User          `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	CreatedAt   time.Time      `json:"createdAt" gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
}

// ItemSummary is the projection embedded in inbox and chat payloads.
type ItemSummary struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Image string    `json:"image,omitempty"`
	Price float64   `json:"price"`
}

func (i *Item) Summary() ItemSummary {
	s := ItemSummary{ID: i.ID, Title: i.Title, Price: i.Price}
	if len(i.Images) > 0 {
		s.Image = i.Images[0]
	}
	return s
}

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

func ValidCondition(c string) bool {
	for _, v := range Conditions {
		if v == c {
			return true
		}
	}
	return false
}
