package repository

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"surveyhub/internal/model"
)

// ResponseRepository defines survey response persistence operations.
type ResponseRepository interface {
	Create(ctx context.Context, response *model.Response) error
	// ListBySurvey returns a survey's responses with their respondents.
	ListBySurvey(ctx context.Context, surveyID string) ([]model.Response, error)
	// ListByRespondent returns a user's responses with their surveys.
	ListByRespondent(ctx context.Context, respondentID string) ([]model.Response, error)
	CountBySurvey(ctx context.Context) (map[string]int64, error)
	RespondentIDs(ctx context.Context, surveyID string) ([]string, error)
	SurveyIDs(ctx context.Context, respondentID string) ([]string, error)
	// EligibleForDraw returns ids of users that have not won and answered at
	// least two booth surveys or at least one workshop survey.
	EligibleForDraw(ctx context.Context) ([]string, error)
}

type responseRepository struct {
	db *gorm.DB
}

// NewResponseRepository creates a new response repository.
func NewResponseRepository(db *gorm.DB) ResponseRepository {
	return &responseRepository{db: db}
}

func (r *responseRepository) Create(ctx context.Context, response *model.Response) error {
	return r.db.WithContext(ctx).Create(response).Error
}

func (r *responseRepository) ListBySurvey(ctx context.Context, surveyID string) ([]model.Response, error) {
	responses := []model.Response{}
	if err := r.db.WithContext(ctx).
		Preload("Respondent").
		Where("survey_id = ?", surveyID).
		Order("created_at ASC").
		Find(&responses).Error; err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *responseRepository) ListByRespondent(ctx context.Context, respondentID string) ([]model.Response, error) {
	responses := []model.Response{}
	if err := r.db.WithContext(ctx).
		Preload("Survey").
		Where("respondent_id = ?", respondentID).
		Order("created_at ASC").
		Find(&responses).Error; err != nil {
		return nil, err
	}
	return responses, nil
}

type surveyCount struct {
	SurveyID string
	Count    int64
}

func (r *responseRepository) CountBySurvey(ctx context.Context) (map[string]int64, error) {
	var rows []surveyCount
	if err := r.db.WithContext(ctx).Model(&model.Response{}).
		Select("survey_id, COUNT(*) AS count").
		Group("survey_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.SurveyID] = row.Count
	}
	return counts, nil
}

func (r *responseRepository) RespondentIDs(ctx context.Context, surveyID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.Response{}).
		Where("survey_id = ?", surveyID).
		Distinct().
		Pluck("respondent_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *responseRepository) SurveyIDs(ctx context.Context, respondentID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.Response{}).
		Where("respondent_id = ?", respondentID).
		Distinct().
		Pluck("survey_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *responseRepository) EligibleForDraw(ctx context.Context) ([]string, error) {
	byBooths, err := r.respondentsWith(ctx, false, 2)
	if err != nil {
		return nil, err
	}
	byWorkshops, err := r.respondentsWith(ctx, true, 1)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(byBooths)+len(byWorkshops))
	pool := make([]string, 0, len(byBooths)+len(byWorkshops))
	for _, id := range append(byBooths, byWorkshops...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		pool = append(pool, id)
	}
	sort.Strings(pool)
	return pool, nil
}

// respondentsWith returns non-winning respondents with at least min distinct
// surveys of the given kind.
func (r *responseRepository) respondentsWith(ctx context.Context, workshop bool, min int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Response{}).
		Joins("JOIN surveys ON surveys.id = responses.survey_id").
		Joins("JOIN users ON users.id = responses.respondent_id").
		Where("surveys.workshop = ? AND users.won = ?", workshop, false).
		Group("responses.respondent_id").
		Having("COUNT(DISTINCT responses.survey_id) >= ?", min).
		Pluck("responses.respondent_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
