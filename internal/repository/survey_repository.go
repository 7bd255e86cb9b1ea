package repository

import (
	"context"

	"gorm.io/gorm"

	"surveyhub/internal/model"
)

// SurveyRepository defines survey persistence operations.
type SurveyRepository interface {
	Create(ctx context.Context, survey *model.Survey) error
	// Update overwrites the editable fields of an existing survey.
	Update(ctx context.Context, survey *model.Survey) (*model.Survey, error)
	// Delete removes the survey and its responses.
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.Survey, error)
	List(ctx context.Context) ([]model.Survey, error)
}

type surveyRepository struct {
	db *gorm.DB
}

// NewSurveyRepository creates a new survey repository.
func NewSurveyRepository(db *gorm.DB) SurveyRepository {
	return &surveyRepository{db: db}
}

// Create creates a new survey.
func (r *surveyRepository) Create(ctx context.Context, survey *model.Survey) error {
	survey.Normalize()
	return r.db.WithContext(ctx).Create(survey).Error
}

// Update updates title, description, workshop flag, questions and permissions.
func (r *surveyRepository) Update(ctx context.Context, survey *model.Survey) (*model.Survey, error) {
	survey.Normalize()
	res := r.db.WithContext(ctx).Model(&model.Survey{ID: survey.ID}).
		Select("title", "description", "workshop", "questions", "permissions", "updated_at").
		Updates(survey)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, survey.ID)
}

// Delete deletes a survey and its responses in one transaction.
func (r *surveyRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("survey_id = ?", id).Delete(&model.Response{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Survey{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// FindByID finds a survey by ID.
func (r *surveyRepository) FindByID(ctx context.Context, id string) (*model.Survey, error) {
	var survey model.Survey
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&survey).Error; err != nil {
		return nil, err
	}
	return &survey, nil
}

// List lists all surveys, oldest first.
func (r *surveyRepository) List(ctx context.Context) ([]model.Survey, error) {
	surveys := []model.Survey{}
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&surveys).Error; err != nil {
		return nil, err
	}
	return surveys, nil
}
