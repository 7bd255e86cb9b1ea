package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"surveyhub/internal/model"
)

// UserRepository defines persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// FindByEmailOrCreate returns the user holding user.Email, creating it when missing.
	// An existing row is returned unchanged.
	FindByEmailOrCreate(ctx context.Context, user *model.User) (*model.User, error)
	UpdateProfile(ctx context.Context, id, name, nric, phone string) (*model.User, error)
	UpdateAvatar(ctx context.Context, id, avatarKey string) (*model.User, error)
	// SetWon flips the won flag; it reports false when the flag already had that value.
	SetWon(ctx context.Context, id string, won bool) (bool, error)
	ListWinners(ctx context.Context) ([]model.User, error)
	List(ctx context.Context) ([]model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmailOrCreate(ctx context.Context, user *model.User) (*model.User, error) {
	email := user.EmailAddress()
	existing, err := r.FindByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	// A concurrent login may create the row first; keep whichever won.
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(user).Error; err != nil {
		return nil, err
	}
	return r.FindByEmail(ctx, email)
}

func (r *userRepository) UpdateProfile(ctx context.Context, id, name, nric, phone string) (*model.User, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "nric": nric, "phone": phone})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *userRepository) UpdateAvatar(ctx context.Context, id, avatarKey string) (*model.User, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("avatar_key", avatarKey)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *userRepository) SetWon(ctx context.Context, id string, won bool) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND won = ?", id, !won).
		Update("won", won)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *userRepository) ListWinners(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Where("won = ?", true).Order("updated_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
