package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"surveyhub/internal/cache"
	"surveyhub/internal/errors"
	"surveyhub/internal/messaging"
	"surveyhub/internal/model"
	"surveyhub/internal/repository"
)

// LuckyDrawService picks winners among eligible respondents.
type LuckyDrawService interface {
	Draw(ctx context.Context) (*model.User, error)
	PastWinners(ctx context.Context) ([]model.User, error)
	DeleteWinner(ctx context.Context, id string) (*model.User, error)
}

type luckyDrawService struct {
	users     repository.UserRepository
	responses repository.ResponseRepository
	cache     *cache.Layer
	publisher messaging.Publisher
	logger    *zap.Logger
	randIndex func(n int) (int, error)
}

// NewLuckyDrawService builds a LuckyDrawService drawing from crypto/rand.
func NewLuckyDrawService(
	users repository.UserRepository,
	responses repository.ResponseRepository,
	cache *cache.Layer,
	publisher messaging.Publisher,
	logger *zap.Logger,
) LuckyDrawService {
	return &luckyDrawService{
		users:     users,
		responses: responses,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		randIndex: cryptoIndex,
	}
}

func cryptoIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

func (s *luckyDrawService) Draw(ctx context.Context) (*model.User, error) {
	pool, err := s.responses.EligibleForDraw(ctx)
	if err != nil {
		return nil, fmt.Errorf("compute draw pool: %w", err)
	}
	if len(pool) == 0 {
		return nil, errors.ErrNoEligibleCandidates
	}

	idx, err := s.randIndex(len(pool))
	if err != nil {
		return nil, fmt.Errorf("draw index: %w", err)
	}
	winnerID := pool[idx]

	changed, err := s.users.SetWon(ctx, winnerID, true)
	if err != nil {
		return nil, fmt.Errorf("mark winner: %w", err)
	}
	if !changed {
		// Another draw marked the same user in between.
		return nil, errors.ErrNoEligibleCandidates
	}

	winner, err := s.saved(ctx, winnerID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("lucky draw winner", zap.String("user_id", winnerID), zap.Int("pool_size", len(pool)))

	if err := s.publisher.PublishWinnerDrawn(ctx, messaging.WinnerDrawnMessage{
		UserID:   winnerID,
		PoolSize: len(pool),
		DrawnAt:  time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("draw event not published", zap.Error(err))
	}
	return winner, nil
}

func (s *luckyDrawService) PastWinners(ctx context.Context) ([]model.User, error) {
	return s.users.ListWinners(ctx)
}

func (s *luckyDrawService) DeleteWinner(ctx context.Context, id string) (*model.User, error) {
	if _, err := s.users.SetWon(ctx, id, false); err != nil {
		return nil, fmt.Errorf("clear winner: %w", err)
	}
	return s.saved(ctx, id)
}

// saved reloads the user and refreshes its cache entries.
func (s *luckyDrawService) saved(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	surveyIDs, err := s.responses.SurveyIDs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list responded surveys: %w", err)
	}
	if err := s.cache.UserSaved(ctx, user, surveyIDs); err != nil {
		return nil, err
	}
	return user, nil
}
