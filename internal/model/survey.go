package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuestionType enumerates supported question kinds.
type QuestionType string

const (
	QuestionText QuestionType = "text"
	QuestionMCQ  QuestionType = "mcq"
)

// Question is one entry of a survey's question list.
type Question struct {
	Type        QuestionType `json:"type" validate:"required,oneof=text mcq"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Options     []string     `json:"options"`
}

// SurveyPermission grants a non-admin email access to a survey's responses.
type SurveyPermission struct {
	Email      string `json:"email" validate:"required"`
	Permission string `json:"permission" validate:"required,oneof=read"`
}

// PermissionRead is the only permission level.
const PermissionRead = "read"

// Survey is a booth or workshop questionnaire.
type Survey struct {
	ID          string             `json:"id" gorm:"type:varchar(36);primaryKey"`
	Title       string             `json:"title" gorm:"size:255;not null"`
	Description string             `json:"description" gorm:"type:text"`
	Workshop    bool               `json:"workshop" gorm:"default:false;index"`
	Questions   []Question         `json:"questions" gorm:"serializer:json;type:text"`
	Permissions []SurveyPermission `json:"permissions" gorm:"serializer:json;type:text"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// BeforeCreate sets the id before creating the record.
func (s *Survey) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// AfterFind normalizes null JSON columns.
func (s *Survey) AfterFind(tx *gorm.DB) error {
	s.Normalize()
	return nil
}

// Normalize replaces nil lists with empty ones.
func (s *Survey) Normalize() {
	if s.Questions == nil {
		s.Questions = []Question{}
	}
	if s.Permissions == nil {
		s.Permissions = []SurveyPermission{}
	}
}

// CanRead reports whether email has read permission on the survey.
// Addresses compare case-insensitively.
func (s *Survey) CanRead(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	for _, p := range s.Permissions {
		if strings.EqualFold(strings.TrimSpace(p.Email), email) && p.Permission == PermissionRead {
			return true
		}
	}
	return false
}

// SurveySummary is a survey with its response count, as listed on dashboards.
type SurveySummary struct {
	Survey
	ResponseCount int64 `json:"responseCount"`
}
