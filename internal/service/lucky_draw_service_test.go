package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"surveyhub/internal/cache"
	"surveyhub/internal/errors"
	"surveyhub/internal/model"
)

func newLuckyDrawServiceForTest(f *fixture, pub *recordingPublisher, pick func(n int) (int, error)) LuckyDrawService {
	svc := NewLuckyDrawService(f.users, f.responses, f.layer, pub, zap.NewNop()).(*luckyDrawService)
	if pick != nil {
		svc.randIndex = pick
	}
	return svc
}

func first(int) (int, error) { return 0, nil }

func TestLuckyDrawService_DrawNeverRepeatsWinner(t *testing.T) {
	f := newFixture(t)
	pub := &recordingPublisher{}
	svc := newLuckyDrawServiceForTest(f, pub, first)
	ctx := context.Background()

	booth1 := f.survey(t, "Booth 1", false)
	booth2 := f.survey(t, "Booth 2", false)
	workshop := f.survey(t, "Workshop", true)

	a := f.user(t, "a@example.com", false)
	b := f.user(t, "b@example.com", false)
	loner := f.user(t, "c@example.com", false)
	f.respond(t, booth1.ID, a.ID)
	f.respond(t, booth2.ID, a.ID)
	f.respond(t, workshop.ID, b.ID)
	f.respond(t, booth1.ID, loner.ID)
	f.respond(t, booth1.ID, loner.ID)

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		winner, err := svc.Draw(ctx)
		require.NoError(t, err)
		assert.True(t, winner.Won)
		assert.False(t, seen[winner.ID], "winner drawn twice")
		seen[winner.ID] = true

		cached, err := f.layer.User(ctx, winner.ID, func(context.Context) (*model.User, error) {
			return nil, errors.ErrNotFound
		})
		require.NoError(t, err)
		assert.True(t, cached.Won)
	}
	assert.Equal(t, map[string]bool{a.ID: true, b.ID: true}, seen)
	assert.Len(t, pub.winners, 2)

	_, err := svc.Draw(ctx)
	assert.ErrorIs(t, err, errors.ErrNoEligibleCandidates)
	assert.Len(t, pub.winners, 2)

	winners, err := svc.PastWinners(ctx)
	require.NoError(t, err)
	assert.Len(t, winners, 2)
}

func TestLuckyDrawService_DrawEmptyPool(t *testing.T) {
	f := newFixture(t)
	svc := newLuckyDrawServiceForTest(f, &recordingPublisher{}, nil)

	_, err := svc.Draw(context.Background())
	assert.ErrorIs(t, err, errors.ErrNoEligibleCandidates)
	assert.ErrorIs(t, err, errors.ErrBadRequest)
}

func TestLuckyDrawService_DrawUsesRandomIndex(t *testing.T) {
	f := newFixture(t)
	workshop := f.survey(t, "Workshop", true)
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		u := f.user(t, email, false)
		f.respond(t, workshop.ID, u.ID)
	}
	pool, err := f.responses.EligibleForDraw(context.Background())
	require.NoError(t, err)
	require.Len(t, pool, 3)

	var gotN int
	svc := newLuckyDrawServiceForTest(f, &recordingPublisher{}, func(n int) (int, error) {
		gotN = n
		return 2, nil
	})
	winner, err := svc.Draw(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, gotN)
	assert.Equal(t, pool[2], winner.ID)
}

func TestLuckyDrawService_DeleteWinner(t *testing.T) {
	f := newFixture(t)
	svc := newLuckyDrawServiceForTest(f, &recordingPublisher{}, first)
	ctx := context.Background()

	workshop := f.survey(t, "Workshop", true)
	u := f.user(t, "a@example.com", false)
	f.respond(t, workshop.ID, u.ID)
	require.NoError(t, f.store.Set(ctx, cache.SurveyResponsesKey(workshop.ID), []byte("[]")))

	winner, err := svc.Draw(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.ID, winner.ID)
	assert.False(t, f.cached(t, cache.SurveyResponsesKey(workshop.ID)))

	restored, err := svc.DeleteWinner(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, restored.Won)

	again, err := svc.Draw(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)

	_, err = svc.DeleteWinner(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))
}
