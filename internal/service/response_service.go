package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"surveyhub/internal/cache"
	"surveyhub/internal/captcha"
	"surveyhub/internal/errors"
	"surveyhub/internal/messaging"
	"surveyhub/internal/model"
	"surveyhub/internal/repository"
)

// CreateResponseInput is a submission to a survey.
type CreateResponseInput struct {
	SurveyID     string
	Answers      []model.Answer
	CaptchaToken string
	RemoteIP     string
}

// ResponseService exposes survey response operations.
type ResponseService interface {
	Create(ctx context.Context, user *model.User, in CreateResponseInput) (*model.Response, error)
	// List returns a survey's responses to admins and holders of read permission.
	List(ctx context.Context, user *model.User, surveyID string) ([]model.Response, error)
	Submitted(ctx context.Context, user *model.User) ([]model.Response, error)
}

type responseService struct {
	repo      repository.ResponseRepository
	surveys   SurveyService
	cache     *cache.Layer
	captcha   captcha.Verifier
	publisher messaging.Publisher
	logger    *zap.Logger
}

// NewResponseService builds a ResponseService.
func NewResponseService(
	repo repository.ResponseRepository,
	surveys SurveyService,
	cache *cache.Layer,
	verifier captcha.Verifier,
	publisher messaging.Publisher,
	logger *zap.Logger,
) ResponseService {
	return &responseService{
		repo:      repo,
		surveys:   surveys,
		cache:     cache,
		captcha:   verifier,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *responseService) Create(ctx context.Context, user *model.User, in CreateResponseInput) (*model.Response, error) {
	if err := s.captcha.Verify(ctx, in.CaptchaToken, in.RemoteIP); err != nil {
		return nil, err
	}

	survey, err := s.surveys.Get(ctx, in.SurveyID)
	if err != nil {
		return nil, err
	}
	if err := ValidateAnswers(survey.Questions, in.Answers); err != nil {
		return nil, err
	}

	response := &model.Response{
		SurveyID:     survey.ID,
		RespondentID: user.ID,
		Data:         in.Answers,
	}
	if err := s.repo.Create(ctx, response); err != nil {
		return nil, fmt.Errorf("create response: %w", err)
	}
	if err := s.cache.ResponseCreated(ctx, survey.ID, user.ID); err != nil {
		return nil, err
	}

	if err := s.publisher.PublishResponseCreated(ctx, messaging.ResponseCreatedMessage{
		ResponseID:   response.ID,
		SurveyID:     response.SurveyID,
		RespondentID: response.RespondentID,
		CreatedAt:    response.CreatedAt,
	}); err != nil {
		s.logger.Warn("response event not published", zap.String("response_id", response.ID), zap.Error(err))
	}
	return response, nil
}

func (s *responseService) List(ctx context.Context, user *model.User, surveyID string) ([]model.Response, error) {
	if err := authorizeSurveyRead(ctx, s.surveys, user, surveyID); err != nil {
		return nil, err
	}
	return s.cache.SurveyResponses(ctx, surveyID, func(ctx context.Context) ([]model.Response, error) {
		return s.repo.ListBySurvey(ctx, surveyID)
	})
}

func (s *responseService) Submitted(ctx context.Context, user *model.User) ([]model.Response, error) {
	return s.cache.Submitted(ctx, user.ID, func(ctx context.Context) ([]model.Response, error) {
		return s.repo.ListByRespondent(ctx, user.ID)
	})
}

// authorizeSurveyRead admits admins and users granted read on the survey.
func authorizeSurveyRead(ctx context.Context, surveys SurveyService, user *model.User, surveyID string) error {
	if user == nil {
		return errors.Unauthorized(errors.ReasonNoSession)
	}
	survey, err := surveys.Get(ctx, surveyID)
	if err != nil {
		return err
	}
	if user.Admin {
		return nil
	}
	if !survey.CanRead(user.EmailAddress()) {
		return errors.Unauthorized(errors.ReasonNoPermission)
	}
	return nil
}

// ValidateAnswers checks answers line up with the survey's questions.
func ValidateAnswers(questions []model.Question, answers []model.Answer) error {
	if len(answers) != len(questions) {
		return errors.InvalidSchema(fmt.Sprintf("expected %d answers, got %d", len(questions), len(answers)))
	}
	for i, a := range answers {
		q := questions[i]
		if a.Type != q.Type {
			return errors.InvalidSchema(fmt.Sprintf("answer %d: expected %s, got %q", i+1, q.Type, a.Type))
		}
		switch a.Type {
		case model.QuestionText:
			if a.Answer == nil {
				return errors.InvalidSchema(fmt.Sprintf("answer %d: text answer is required", i+1))
			}
		case model.QuestionMCQ:
			if a.Option == nil || *a.Option < 0 || *a.Option >= len(q.Options) {
				return errors.InvalidSchema(fmt.Sprintf("answer %d: option out of range", i+1))
			}
		}
	}
	return nil
}
