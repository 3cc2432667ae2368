package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/slim-mom/backend/internal/models"
)

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *GormRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) FindByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("verification_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// MarkVerified flips the account into its terminal state: verified,
// with the activation token cleared so it can never be replayed.
func (r *GormRepo) MarkVerified(ctx context.Context, u *models.User) error {
	err := r.DB.WithContext(ctx).Model(u).
		Updates(map[string]any{"verified": true, "verification_token": nil}).Error
	if err != nil {
		return err
	}
	u.Verified = true
	u.VerificationToken = nil
	return nil
}

// SetVerificationToken replaces the stored activation token. Only one
// token exists per account, so the previous one is invalidated.
func (r *GormRepo) SetVerificationToken(ctx context.Context, u *models.User, token string) error {
	if err := r.DB.WithContext(ctx).Model(u).Update("verification_token", token).Error; err != nil {
		return err
	}
	u.VerificationToken = &token
	return nil
}

func (r *GormRepo) UpdateDailyKcal(ctx context.Context, u *models.User, kcal float64) error {
	if err := r.DB.WithContext(ctx).Model(u).Update("daily_kcal", kcal).Error; err != nil {
		return err
	}
	u.DailyKcal = &kcal
	return nil
}
