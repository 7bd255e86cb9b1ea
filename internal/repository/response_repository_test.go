package repository

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseRepository_Listings(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewResponseRepository(db)
	ctx := context.Background()
	alice := createUserForTest(t, db, "alice@example.com")
	bob := createUserForTest(t, db, "")
	s1 := createSurveyForTest(t, db, "S1", false)
	s2 := createSurveyForTest(t, db, "S2", false)
	createResponseForTest(t, db, s1.ID, alice.ID)
	createResponseForTest(t, db, s1.ID, bob.ID)
	createResponseForTest(t, db, s2.ID, alice.ID)

	bySurvey, err := repo.ListBySurvey(ctx, s1.ID)
	require.NoError(t, err)
	require.Len(t, bySurvey, 2)
	for _, r := range bySurvey {
		require.NotNil(t, r.Respondent)
	}

	byUser, err := repo.ListByRespondent(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	require.NotNil(t, byUser[0].Survey)

	counts, err := repo.CountBySurvey(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{s1.ID: 2, s2.ID: 1}, counts)

	respondents, err := repo.RespondentIDs(ctx, s1.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{alice.ID, bob.ID}, respondents)

	surveys, err := repo.SurveyIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{s1.ID, s2.ID}, surveys)
}

func TestResponseRepository_EligibleForDraw(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewResponseRepository(db)
	users := NewUserRepository(db)
	ctx := context.Background()

	booth1 := createSurveyForTest(t, db, "Booth 1", false)
	booth2 := createSurveyForTest(t, db, "Booth 2", false)
	workshop := createSurveyForTest(t, db, "Workshop", true)

	twoBooths := createUserForTest(t, db, "two@example.com")
	createResponseForTest(t, db, booth1.ID, twoBooths.ID)
	createResponseForTest(t, db, booth2.ID, twoBooths.ID)

	sameBoothTwice := createUserForTest(t, db, "same@example.com")
	createResponseForTest(t, db, booth1.ID, sameBoothTwice.ID)
	createResponseForTest(t, db, booth1.ID, sameBoothTwice.ID)

	workshopOnly := createUserForTest(t, db, "ws@example.com")
	createResponseForTest(t, db, workshop.ID, workshopOnly.ID)

	both := createUserForTest(t, db, "both@example.com")
	createResponseForTest(t, db, booth1.ID, both.ID)
	createResponseForTest(t, db, booth2.ID, both.ID)
	createResponseForTest(t, db, workshop.ID, both.ID)

	winner := createUserForTest(t, db, "won@example.com")
	createResponseForTest(t, db, workshop.ID, winner.ID)
	_, err := users.SetWon(ctx, winner.ID, true)
	require.NoError(t, err)

	pool, err := repo.EligibleForDraw(ctx)
	require.NoError(t, err)

	want := []string{twoBooths.ID, workshopOnly.ID, both.ID}
	sort.Strings(want)
	assert.Equal(t, want, pool)
}

func TestResponseRepository_EligibleForDrawEmpty(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewResponseRepository(db)

	pool, err := repo.EligibleForDraw(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pool)
}
