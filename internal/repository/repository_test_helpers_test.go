package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"surveyhub/internal/model"
)

func newRepositoryDBForTest(t *testing.T) *gorm.DB {
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

func strPtr(s string) *string { return &s }

func createUserForTest(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	user := &model.User{}
	if email != "" {
		user.Email = strPtr(email)
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createSurveyForTest(t *testing.T, db *gorm.DB, title string, workshop bool) *model.Survey {
	t.Helper()
	survey := &model.Survey{
		Title:     title,
		Workshop:  workshop,
		Questions: []model.Question{{Type: model.QuestionText, Title: "Name?"}},
	}
	require.NoError(t, db.Create(survey).Error)
	return survey
}

func createResponseForTest(t *testing.T, db *gorm.DB, surveyID, userID string) *model.Response {
	t.Helper()
	response := &model.Response{
		SurveyID:     surveyID,
		RespondentID: userID,
		Data:         []model.Answer{{Type: model.QuestionText, Answer: strPtr("hi")}},
	}
	require.NoError(t, db.Create(response).Error)
	return response
}
