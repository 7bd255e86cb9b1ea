package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"surveyhub/internal/cache"
	"surveyhub/internal/errors"
	"surveyhub/internal/model"
	"surveyhub/internal/repository"
)

// SurveyInput is the writable part of a survey. ID is only honoured by
// Create, and only when non-empty.
type SurveyInput struct {
	ID          string
	Title       string
	Description string
	Workshop    bool
	Questions   []model.Question
	Permissions []model.SurveyPermission
}

// CloneInput overrides fields of a cloned survey. Empty values keep the base.
type CloneInput struct {
	Title       string
	Description string
}

// SurveyService exposes survey operations.
type SurveyService interface {
	Get(ctx context.Context, id string) (*model.Survey, error)
	List(ctx context.Context) ([]model.SurveySummary, error)
	Create(ctx context.Context, in SurveyInput) (*model.Survey, error)
	Update(ctx context.Context, id string, in SurveyInput) (*model.Survey, error)
	Delete(ctx context.Context, id string) error
	Clone(ctx context.Context, id string, in CloneInput) (*model.Survey, error)
}

type surveyService struct {
	repo      repository.SurveyRepository
	responses repository.ResponseRepository
	cache     *cache.Layer
	logger    *zap.Logger
}

// NewSurveyService builds a SurveyService.
func NewSurveyService(repo repository.SurveyRepository, responses repository.ResponseRepository, cache *cache.Layer, logger *zap.Logger) SurveyService {
	return &surveyService{repo: repo, responses: responses, cache: cache, logger: logger}
}

func (s *surveyService) Get(ctx context.Context, id string) (*model.Survey, error) {
	survey, err := s.cache.Survey(ctx, id, func(ctx context.Context) (*model.Survey, error) {
		survey, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.IsNotFound(err) {
				return nil, errors.NotFound("survey")
			}
			return nil, fmt.Errorf("find survey: %w", err)
		}
		return survey, nil
	})
	if err != nil {
		return nil, err
	}
	survey.Normalize()
	return survey, nil
}

func (s *surveyService) List(ctx context.Context) ([]model.SurveySummary, error) {
	surveys, err := s.cache.Surveys(ctx, s.repo.List)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	counts, err := s.cache.ResponseCounts(ctx, s.responses.CountBySurvey)
	if err != nil {
		return nil, fmt.Errorf("count responses: %w", err)
	}

	out := make([]model.SurveySummary, len(surveys))
	for i, survey := range surveys {
		survey.Normalize()
		out[i] = model.SurveySummary{Survey: survey, ResponseCount: counts[survey.ID]}
	}
	return out, nil
}

func (s *surveyService) Create(ctx context.Context, in SurveyInput) (*model.Survey, error) {
	in.Permissions = normalizePermissions(in.Permissions)
	if err := ValidateSurvey(in.Questions, in.Permissions); err != nil {
		return nil, err
	}
	survey := &model.Survey{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		Workshop:    in.Workshop,
		Questions:   in.Questions,
		Permissions: in.Permissions,
	}
	if err := s.repo.Create(ctx, survey); err != nil {
		return nil, fmt.Errorf("create survey: %w", err)
	}
	if err := s.cache.SurveySaved(ctx, survey, nil); err != nil {
		return nil, err
	}
	s.logger.Info("survey created", zap.String("survey_id", survey.ID))
	return survey, nil
}

func (s *surveyService) Update(ctx context.Context, id string, in SurveyInput) (*model.Survey, error) {
	in.Permissions = normalizePermissions(in.Permissions)
	if err := ValidateSurvey(in.Questions, in.Permissions); err != nil {
		return nil, err
	}
	survey, err := s.repo.Update(ctx, &model.Survey{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Workshop:    in.Workshop,
		Questions:   in.Questions,
		Permissions: in.Permissions,
	})
	if err != nil {
		return nil, fmt.Errorf("update survey: %w", err)
	}

	respondents, err := s.responses.RespondentIDs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list respondents: %w", err)
	}
	if err := s.cache.SurveySaved(ctx, survey, respondents); err != nil {
		return nil, err
	}
	s.logger.Info("survey updated", zap.String("survey_id", id))
	return survey, nil
}

func (s *surveyService) Delete(ctx context.Context, id string) error {
	respondents, err := s.responses.RespondentIDs(ctx, id)
	if err != nil {
		return fmt.Errorf("list respondents: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete survey: %w", err)
	}
	if err := s.cache.SurveyDeleted(ctx, id, respondents); err != nil {
		return err
	}
	s.logger.Info("survey deleted", zap.String("survey_id", id), zap.Int("respondents", len(respondents)))
	return nil
}

func (s *surveyService) Clone(ctx context.Context, id string, in CloneInput) (*model.Survey, error) {
	base, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find survey: %w", err)
	}

	clone := &model.Survey{
		Title:       "Copy of " + base.Title,
		Description: base.Description,
		Workshop:    base.Workshop,
		Questions:   append([]model.Question(nil), base.Questions...),
	}
	if in.Title != "" {
		clone.Title = in.Title
	}
	if in.Description != "" {
		clone.Description = in.Description
	}
	if err := s.repo.Create(ctx, clone); err != nil {
		return nil, fmt.Errorf("create clone: %w", err)
	}
	if err := s.cache.SurveySaved(ctx, clone, nil); err != nil {
		return nil, err
	}
	return clone, nil
}

// normalizePermissions stores grant emails the way logins store user emails.
func normalizePermissions(permissions []model.SurveyPermission) []model.SurveyPermission {
	if permissions == nil {
		return nil
	}
	out := make([]model.SurveyPermission, len(permissions))
	for i, p := range permissions {
		p.Email = NormalizeEmail(p.Email)
		out[i] = p
	}
	return out
}

// ValidateSurvey checks question and permission lists.
func ValidateSurvey(questions []model.Question, permissions []model.SurveyPermission) error {
	for i, q := range questions {
		switch q.Type {
		case model.QuestionText:
		case model.QuestionMCQ:
			if len(q.Options) == 0 {
				return errors.InvalidSchema(fmt.Sprintf("question %d: mcq needs at least one option", i+1))
			}
		default:
			return errors.InvalidSchema(fmt.Sprintf("question %d: unknown type %q", i+1, q.Type))
		}
	}
	for i, p := range permissions {
		if p.Email == "" {
			return errors.InvalidSchema(fmt.Sprintf("permission %d: email is required", i+1))
		}
		if p.Permission != model.PermissionRead {
			return errors.InvalidSchema(fmt.Sprintf("permission %d: unknown permission %q", i+1, p.Permission))
		}
	}
	return nil
}
