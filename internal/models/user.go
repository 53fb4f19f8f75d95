package models

import (
	"time"

	"github.com/google/uuid"
)

// User is one identity record. UID carries the external identity subject
// (Google/Firebase) or a synthetic "email_<unix-ms>" for local accounts.
type User struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	UID       string    `json:"uid" gorm:"uniqueIndex;not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	FullName  string    `json:"fullName" gorm:"not null"`
	Password  string    `json:"-"` // bcrypt hash, empty for external identities
	Avatar    string    `json:"avatar,omitempty"`
	Hostel    string    `json:"hostel,omitempty"`
	Year      string    `json:"year,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// PublicProfile is the slice of a user other users are allowed to see.
type PublicProfile struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
	Avatar   string    `json:"avatar,omitempty"`
	Hostel   string    `json:"hostel,omitempty"`
	Year     string    `json:"year,omitempty"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:       u.ID,
		FullName: u.FullName,
		Avatar:   u.Avatar,
		Hostel:   u.Hostel,
		Year:     u.Year,
	}
}
