package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"surveyhub/internal/cache"
	"surveyhub/internal/errors"
	"surveyhub/internal/model"
	"surveyhub/internal/storage"
)

// MockAvatarStorage is a mock implementation of storage.AvatarStorage.
type MockAvatarStorage struct {
	mock.Mock
}

func (m *MockAvatarStorage) PresignAvatarUpload(ctx context.Context, userID, contentType string) (*storage.Upload, error) {
	args := m.Called(ctx, userID, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Upload), args.Error(1)
}

func newUserServiceForTest(f *fixture, avatars storage.AvatarStorage) UserService {
	return NewUserService(f.users, f.responses, f.layer, stubCaptcha{}, avatars, zap.NewNop())
}

func TestUserService_Resolve(t *testing.T) {
	f := newFixture(t)
	svc := newUserServiceForTest(f, nil)
	ctx := context.Background()
	u := f.user(t, "a@example.com", false)

	got, err := svc.Resolve(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.EmailAddress())
	assert.True(t, f.cached(t, cache.UserKey(u.ID)))

	// Served from cache once the row is gone.
	require.NoError(t, f.db.Delete(&model.User{}, "id = ?", u.ID).Error)
	got, err = svc.Resolve(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Resolve(ctx, "missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.False(t, f.cached(t, cache.UserKey("missing")))
}

func TestUserService_CreateAnonymous(t *testing.T) {
	f := newFixture(t)
	svc := newUserServiceForTest(f, nil)

	u, err := svc.CreateAnonymous(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Nil(t, u.Email)
	assert.False(t, u.Admin)
	assert.True(t, f.cached(t, cache.UserKey(u.ID)))
}

func TestUserService_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	svc := newUserServiceForTest(f, nil)
	ctx := context.Background()
	u := f.user(t, "a@example.com", false)
	s := f.survey(t, "Booth", false)
	f.respond(t, s.ID, u.ID)

	_, err := svc.Resolve(ctx, u.ID)
	require.NoError(t, err)
	require.NoError(t, f.store.Set(ctx, cache.SurveyResponsesKey(s.ID), []byte("[]")))

	_, err = svc.UpdateProfile(ctx, u.ID, UpdateProfileInput{Name: "Ann", CaptchaToken: "bad"})
	assert.ErrorIs(t, err, errors.ErrCaptchaFailed)
	assert.True(t, f.cached(t, cache.SurveyResponsesKey(s.ID)))

	updated, err := svc.UpdateProfile(ctx, u.ID, UpdateProfileInput{
		Name: "Ann", NRIC: "123A", Phone: "9123 4567", CaptchaToken: "ok",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ann", updated.Name)
	assert.False(t, f.cached(t, cache.SurveyResponsesKey(s.ID)))

	cached, err := svc.Resolve(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", cached.Name)
	assert.Equal(t, "9123 4567", cached.Phone)

	_, err = svc.UpdateProfile(ctx, "missing", UpdateProfileInput{Name: "x", CaptchaToken: "ok"})
	assert.True(t, errors.IsNotFound(err))
}

func TestUserService_AvatarUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "a@example.com", false)

	t.Run("storage disabled", func(t *testing.T) {
		_, err := newUserServiceForTest(f, nil).AvatarUpload(ctx, u.ID, "image/png")
		assert.ErrorIs(t, err, errors.ErrBadRequest)
	})

	t.Run("presigns and records key", func(t *testing.T) {
		avatars := new(MockAvatarStorage)
		upload := &storage.Upload{
			Key:       "avatars/" + u.ID + "/x.png",
			URL:       "https://bucket.example.com/avatars/x.png",
			Method:    "PUT",
			ExpiresAt: time.Now().Add(storage.UploadExpiry),
		}
		avatars.On("PresignAvatarUpload", mock.Anything, u.ID, "image/png").Return(upload, nil)

		got, err := newUserServiceForTest(f, avatars).AvatarUpload(ctx, u.ID, "image/png")
		require.NoError(t, err)
		assert.Equal(t, upload, got)

		row, err := f.users.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, upload.Key, row.AvatarKey)
		avatars.AssertExpectations(t)
	})

	t.Run("presign rejected", func(t *testing.T) {
		avatars := new(MockAvatarStorage)
		avatars.On("PresignAvatarUpload", mock.Anything, u.ID, "text/plain").
			Return(nil, errors.BadRequest("unsupported avatar content type"))

		_, err := newUserServiceForTest(f, avatars).AvatarUpload(ctx, u.ID, "text/plain")
		assert.ErrorIs(t, err, errors.ErrBadRequest)
	})
}
