package cache

import (
	"context"

	"go.uber.org/zap"

	"surveyhub/internal/model"
)

const (
	allSurveysKey    = "surveys:__all_surveys"
	responseCountKey = "surveys:__response_count"
)

// UserKey is the cache key of a single user.
func UserKey(id string) string { return "users:" + id }

// SurveyKey is the cache key of a single survey.
func SurveyKey(id string) string { return "surveys:" + id }

// AllSurveysKey is the cache key of the full survey list.
func AllSurveysKey() string { return allSurveysKey }

// ResponseCountKey is the cache key of the per-survey response counts.
func ResponseCountKey() string { return responseCountKey }

// SubmittedKey is the cache key of a user's submitted responses.
func SubmittedKey(userID string) string { return "surveys:" + userID + "-submitted" }

// SurveyResponsesKey is the cache key of a survey's responses.
func SurveyResponsesKey(surveyID string) string { return "surveys:" + surveyID + "-responses" }

// Layer owns every cache key and the invalidation that follows each write.
// Callers persist to the store first, then report the write here.
type Layer struct {
	store     Store
	logger    *zap.Logger
	users     Entry[*model.User]
	surveys   Entry[*model.Survey]
	lists     Entry[[]model.Survey]
	counts    Entry[map[string]int64]
	responses Entry[[]model.Response]
}

// NewLayer builds a Layer over store.
func NewLayer(store Store, logger *zap.Logger) *Layer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Layer{
		store:     store,
		logger:    logger,
		users:     NewEntry[*model.User](store),
		surveys:   NewEntry[*model.Survey](store),
		lists:     NewEntry[[]model.Survey](store),
		counts:    NewEntry[map[string]int64](store),
		responses: NewEntry[[]model.Response](store),
	}
}

// User reads users:<id>.
func (l *Layer) User(ctx context.Context, id string, load func(context.Context) (*model.User, error)) (*model.User, error) {
	return l.users.Get(ctx, UserKey(id), load)
}

// Survey reads surveys:<id>.
func (l *Layer) Survey(ctx context.Context, id string, load func(context.Context) (*model.Survey, error)) (*model.Survey, error) {
	return l.surveys.Get(ctx, SurveyKey(id), load)
}

// Surveys reads the full survey list.
func (l *Layer) Surveys(ctx context.Context, load func(context.Context) ([]model.Survey, error)) ([]model.Survey, error) {
	return l.lists.Get(ctx, allSurveysKey, load)
}

// ResponseCounts reads the survey id to response count map.
func (l *Layer) ResponseCounts(ctx context.Context, load func(context.Context) (map[string]int64, error)) (map[string]int64, error) {
	return l.counts.Get(ctx, responseCountKey, load)
}

// Submitted reads the responses a user submitted.
func (l *Layer) Submitted(ctx context.Context, userID string, load func(context.Context) ([]model.Response, error)) ([]model.Response, error) {
	return l.responses.Get(ctx, SubmittedKey(userID), load)
}

// SurveyResponses reads the responses of a survey.
func (l *Layer) SurveyResponses(ctx context.Context, surveyID string, load func(context.Context) ([]model.Response, error)) ([]model.Response, error) {
	return l.responses.Get(ctx, SurveyResponsesKey(surveyID), load)
}

// UserSaved overwrites the user entry and drops survey response lists that
// embed the user.
func (l *Layer) UserSaved(ctx context.Context, user *model.User, respondedSurveyIDs []string) error {
	if err := l.users.Put(ctx, UserKey(user.ID), user); err != nil {
		return err
	}
	keys := make([]string, 0, len(respondedSurveyIDs))
	for _, id := range respondedSurveyIDs {
		keys = append(keys, SurveyResponsesKey(id))
	}
	return l.invalidate(ctx, keys...)
}

// SurveySaved overwrites the survey entry and drops aggregates embedding it.
func (l *Layer) SurveySaved(ctx context.Context, survey *model.Survey, respondentIDs []string) error {
	if err := l.surveys.Put(ctx, SurveyKey(survey.ID), survey); err != nil {
		return err
	}
	keys := []string{allSurveysKey}
	for _, id := range respondentIDs {
		keys = append(keys, SubmittedKey(id))
	}
	return l.invalidate(ctx, keys...)
}

// SurveyDeleted drops the survey and everything derived from it.
func (l *Layer) SurveyDeleted(ctx context.Context, surveyID string, respondentIDs []string) error {
	keys := []string{SurveyKey(surveyID), allSurveysKey, responseCountKey, SurveyResponsesKey(surveyID)}
	for _, id := range respondentIDs {
		keys = append(keys, SubmittedKey(id))
	}
	return l.invalidate(ctx, keys...)
}

// ResponseCreated drops the aggregates a new response changes.
func (l *Layer) ResponseCreated(ctx context.Context, surveyID, userID string) error {
	return l.invalidate(ctx, SubmittedKey(userID), SurveyResponsesKey(surveyID), responseCountKey)
}

// Purge flushes the whole cache.
func (l *Layer) Purge(ctx context.Context) error {
	if err := l.store.Clear(ctx); err != nil {
		return err
	}
	l.logger.Info("cache purged")
	return nil
}

// Ping checks the backend.
func (l *Layer) Ping(ctx context.Context) error {
	return l.store.Ping(ctx)
}

func (l *Layer) invalidate(ctx context.Context, keys ...string) error {
	if err := l.store.Delete(ctx, keys...); err != nil {
		return err
	}
	l.logger.Debug("cache invalidated", zap.Strings("keys", keys))
	return nil
}
