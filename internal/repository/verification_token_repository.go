package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"surveyhub/internal/model"
)

// VerificationTokenRepository persists one OTP digest per identifier.
type VerificationTokenRepository interface {
	// Upsert replaces any token for the identifier and resets attempts.
	Upsert(ctx context.Context, identifier, digest string, expires time.Time) error
	Find(ctx context.Context, identifier string) (*model.VerificationToken, error)
	// IncrementAttempts bumps the counter and returns the new value.
	IncrementAttempts(ctx context.Context, identifier string) (int, error)
	// Consume deletes the token only if it still holds digest.
	Consume(ctx context.Context, identifier, digest string) (bool, error)
	Delete(ctx context.Context, identifier string) error
}

type verificationTokenRepository struct {
	db *gorm.DB
}

// NewVerificationTokenRepository builds a GORM-backed token repository.
func NewVerificationTokenRepository(db *gorm.DB) VerificationTokenRepository {
	return &verificationTokenRepository{db: db}
}

func (r *verificationTokenRepository) Upsert(ctx context.Context, identifier, digest string, expires time.Time) error {
	token := &model.VerificationToken{
		Identifier: identifier,
		Token:      digest,
		Expires:    expires,
		Attempts:   0,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identifier"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "expires", "attempts", "updated_at"}),
	}).Create(token).Error
}

func (r *verificationTokenRepository) Find(ctx context.Context, identifier string) (*model.VerificationToken, error) {
	var token model.VerificationToken
	if err := r.db.WithContext(ctx).Where("identifier = ?", identifier).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *verificationTokenRepository) IncrementAttempts(ctx context.Context, identifier string) (int, error) {
	var attempts []int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.VerificationToken{}).
			Where("identifier = ?", identifier).
			UpdateColumn("attempts", gorm.Expr("attempts + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&model.VerificationToken{}).
			Where("identifier = ?", identifier).
			Pluck("attempts", &attempts).Error
	})
	if err != nil {
		return 0, err
	}
	if len(attempts) == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return attempts[0], nil
}

func (r *verificationTokenRepository) Consume(ctx context.Context, identifier, digest string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("identifier = ? AND token = ?", identifier, digest).
		Delete(&model.VerificationToken{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *verificationTokenRepository) Delete(ctx context.Context, identifier string) error {
	return r.db.WithContext(ctx).
		Where("identifier = ?", identifier).
		Delete(&model.VerificationToken{}).Error
}
