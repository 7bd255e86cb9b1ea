package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an admin, a signed-in participant or an anonymous respondent.
type User struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Email     *string   `json:"email" gorm:"uniqueIndex;size:255"`
	Name      string    `json:"name" gorm:"size:255"`
	Admin     bool      `json:"admin" gorm:"default:false"`
	NRIC      string    `json:"nric" gorm:"column:nric;size:16"`
	Phone     string    `json:"phone" gorm:"size:32"`
	Won       bool      `json:"won" gorm:"default:false;index"`
	AvatarKey string    `json:"avatarKey,omitempty" gorm:"size:255"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns the id once; it is never changed afterwards.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// EmailAddress returns the email or an empty string for anonymous users.
func (u *User) EmailAddress() string {
	if u == nil || u.Email == nil {
		return ""
	}
	return *u.Email
}
