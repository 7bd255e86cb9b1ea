package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Answer is one answer in a response; Answer is set for text questions,
// Option for mcq questions.
type Answer struct {
	Type   QuestionType `json:"type"`
	Answer *string      `json:"answer,omitempty"`
	Option *int         `json:"option,omitempty"`
}

// Response is a submission of answers to a survey.
type Response struct {
	ID           string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	SurveyID     string    `json:"surveyId" gorm:"type:varchar(36);not null;index"`
	RespondentID string    `json:"respondentId" gorm:"type:varchar(36);not null;index"`
	Data         []Answer  `json:"data" gorm:"serializer:json;type:text"`
	CreatedAt    time.Time `json:"createdAt"`

	Survey     *Survey `json:"survey,omitempty" gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE"`
	Respondent *User   `json:"respondent,omitempty" gorm:"foreignKey:RespondentID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate sets the id before creating the record.
func (r *Response) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ChartData is the per-question MCQ tally shown on analytics dashboards.
type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

// ChartDataset is a single series of a chart.
type ChartDataset struct {
	Label string `json:"label"`
	Data  []int  `json:"data"`
}
