package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"surveyhub/internal/cache"
	"surveyhub/internal/errors"
	"surveyhub/internal/messaging"
	"surveyhub/internal/model"
	"surveyhub/internal/repository"
)

func newServiceDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.VerificationToken{},
		&model.Survey{},
		&model.Response{},
	))
	return db
}

// fixture bundles real repositories over sqlite and an in-memory cache.
type fixture struct {
	db        *gorm.DB
	store     *cache.MemoryStore
	layer     *cache.Layer
	users     repository.UserRepository
	tokens    repository.VerificationTokenRepository
	surveys   repository.SurveyRepository
	responses repository.ResponseRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newServiceDBForTest(t)
	store := cache.NewMemoryStore()
	return &fixture{
		db:        db,
		store:     store,
		layer:     cache.NewLayer(store, zap.NewNop()),
		users:     repository.NewUserRepository(db),
		tokens:    repository.NewVerificationTokenRepository(db),
		surveys:   repository.NewSurveyRepository(db),
		responses: repository.NewResponseRepository(db),
	}
}

func (f *fixture) cached(t *testing.T, key string) bool {
	t.Helper()
	_, ok, err := f.store.Get(context.Background(), key)
	require.NoError(t, err)
	return ok
}

func (f *fixture) user(t *testing.T, email string, admin bool) *model.User {
	t.Helper()
	u := &model.User{Admin: admin}
	if email != "" {
		u.Email = &email
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) survey(t *testing.T, title string, workshop bool, questions ...model.Question) *model.Survey {
	t.Helper()
	s := &model.Survey{Title: title, Workshop: workshop, Questions: questions}
	require.NoError(t, f.surveys.Create(context.Background(), s))
	return s
}

func (f *fixture) respond(t *testing.T, surveyID, userID string, answers ...model.Answer) {
	t.Helper()
	require.NoError(t, f.responses.Create(context.Background(), &model.Response{
		SurveyID: surveyID, RespondentID: userID, Data: answers,
	}))
}

func text(s string) model.Answer { return model.Answer{Type: model.QuestionText, Answer: &s} }

func mcq(i int) model.Answer { return model.Answer{Type: model.QuestionMCQ, Option: &i} }

// stubCaptcha accepts only the token "ok".
type stubCaptcha struct{}

func (stubCaptcha) Verify(_ context.Context, token, _ string) error {
	if token != "ok" {
		return errors.ErrCaptchaFailed
	}
	return nil
}

// recordingMailer keeps the last code sent per address.
type recordingMailer struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{codes: make(map[string]string)}
}

func (m *recordingMailer) SendOTP(_ context.Context, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[to] = code
	return m.err
}

func (m *recordingMailer) code(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[to]
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	messaging.NoopPublisher
	responses []messaging.ResponseCreatedMessage
	winners   []messaging.WinnerDrawnMessage
}

func (p *recordingPublisher) PublishResponseCreated(_ context.Context, msg messaging.ResponseCreatedMessage) error {
	p.responses = append(p.responses, msg)
	return nil
}

func (p *recordingPublisher) PublishWinnerDrawn(_ context.Context, msg messaging.WinnerDrawnMessage) error {
	p.winners = append(p.winners, msg)
	return nil
}
