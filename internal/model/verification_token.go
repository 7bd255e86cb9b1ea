package model

import "time"

// VerificationToken is the single live OTP digest for an identifier.
type VerificationToken struct {
	Identifier string    `json:"identifier" gorm:"size:255;primaryKey"`
	Token      string    `json:"-" gorm:"size:128;not null"` // scrypt digest, never the code
	Expires    time.Time `json:"expires" gorm:"not null"`
	Attempts   int       `json:"attempts" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
