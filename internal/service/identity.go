package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/slim-mom/backend/internal/avatar"
	"github.com/slim-mom/backend/internal/events"
	"github.com/slim-mom/backend/internal/hash"
	"github.com/slim-mom/backend/internal/logging"
	"github.com/slim-mom/backend/internal/mail"
	"github.com/slim-mom/backend/internal/models"
	"github.com/slim-mom/backend/internal/repo"
	"github.com/slim-mom/backend/internal/tokens"
	"github.com/slim-mom/backend/internal/verify"
)

// IdentityService orchestrates the account lifecycle: registration,
// email activation, session issuance, refresh and revocation. All
// collaborators are injected; there is no ambient state beyond them.
type IdentityService struct {
	Repo     *repo.GormRepo
	Revoked  *repo.RevocationRegistry
	Issuer   *tokens.Issuer
	Mailer   mail.Mailer
	Producer events.Producer
	BaseURL  string
}

type RegisterResult struct {
	Email     string
	Verified  bool
	EmailSent bool
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	User         *models.User
}

func (s *IdentityService) verificationLink(token string) string {
	return fmt.Sprintf("%s/api/users/verify/%s", s.BaseURL, token)
}

func (s *IdentityService) Register(ctx context.Context, username, email, password string) (*RegisterResult, error) {
	l := logging.FromContext(ctx).With("svc", "identity.register")

	if err := firstViolation(validation.Errors{
		"username": validation.Validate(username, validation.Required),
		"email":    validation.Validate(email, validation.Required, is.Email),
		"password": validation.Validate(password, validation.Required),
	}); err != nil {
		return nil, err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	token, err := verify.NewToken()
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:          username,
		Email:             email,
		PasswordHash:      pwHash,
		AvatarURL:         avatar.URL(email),
		Verified:          false,
		VerificationToken: &token,
	}

	// No existence pre-check: the unique index on email decides
	// concurrent registrations, a duplicate insert comes back as
	// ErrEmailTaken.
	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			l.Warn("register_conflict", "status", 409)
			return nil, ErrConflict
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	// Registration never fails on mail transport problems: the account
	// exists either way and the token can be re-sent later.
	emailSent := true
	if err := s.Mailer.SendVerification(ctx, email, s.verificationLink(token)); err != nil {
		l.Warn("verification_email_failed", "error", err)
		emailSent = false
	}

	s.publish(ctx, user.ID, map[string]any{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
	})

	return &RegisterResult{Email: user.Email, Verified: user.Verified, EmailSent: emailSent}, nil
}

func (s *IdentityService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "identity.login")

	if err := firstViolation(validation.Errors{
		"email":    validation.Validate(email, validation.Required, is.Email),
		"password": validation.Validate(password, validation.Required),
	}); err != nil {
		return nil, err
	}

	user, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	if !user.Verified {
		l.Warn("login_blocked", "status", 403, "reason", "email not verified")
		return nil, ErrNotVerified
	}

	accessToken, accessExp, err := s.Issuer.NewAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExp, err := s.Issuer.NewRefreshToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, user.ID, map[string]any{
		"type":     "user_logged_in",
		"user_id":  user.ID,
		"username": user.Username,
	})

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		User:         user,
	}, nil
}

// Verify consumes an activation token. The second call with the same
// token finds nothing (the token was cleared) and reports ErrNotFound;
// a verified account that somehow still carries the token reports
// ErrAlreadyVerified, guarding against replay.
func (s *IdentityService) Verify(ctx context.Context, token string) error {
	user, err := s.Repo.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if user.Verified {
		return ErrAlreadyVerified
	}

	if err := s.Repo.MarkVerified(ctx, user); err != nil {
		return err
	}

	s.publish(ctx, user.ID, map[string]any{
		"type":    "user_verified",
		"user_id": user.ID,
	})
	return nil
}

// ResendVerification issues a brand-new token, invalidating the old
// one. Mail failures are soft here too, mirroring Register: the caller
// learns about delivery via the returned flag, and retrying is cheap.
func (s *IdentityService) ResendVerification(ctx context.Context, email string) (bool, error) {
	l := logging.FromContext(ctx).With("svc", "identity.resend_verify")

	user, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}

	if user.Verified {
		return false, ErrAlreadyVerified
	}

	token, err := verify.NewToken()
	if err != nil {
		return false, err
	}
	if err := s.Repo.SetVerificationToken(ctx, user, token); err != nil {
		return false, err
	}

	if err := s.Mailer.SendVerification(ctx, email, s.verificationLink(token)); err != nil {
		l.Warn("verification_email_failed", "error", err)
		return false, nil
	}
	return true, nil
}

// Refresh validates the refresh token and mints a new access token.
// The refresh token itself is not rotated.
func (s *IdentityService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, err := s.Issuer.ParseRefresh(refreshToken)
	if err != nil {
		return "", time.Time{}, ErrInvalidToken
	}

	userID, err := tokens.SubjectID(claims.Subject)
	if err != nil {
		return "", time.Time{}, ErrInvalidToken
	}

	return s.Issuer.NewAccessToken(userID, claims.Username)
}

// Logout revokes the exact bearer token used for the current request.
// The token was already validated by the gate; only its hash and
// signed expiry matter here.
func (s *IdentityService) Logout(ctx context.Context, user *models.User, tokenStr string, expiresAt time.Time) error {
	if err := s.Revoked.Revoke(ctx, user.ID, tokenStr, expiresAt); err != nil {
		return err
	}

	s.publish(ctx, user.ID, map[string]any{
		"type":    "user_logged_out",
		"user_id": user.ID,
	})
	return nil
}

func (s *IdentityService) SetDailyKcal(ctx context.Context, user *models.User, kcal float64) error {
	if kcal <= 0 {
		return fmt.Errorf("%w: kcal must be positive", ErrValidation)
	}
	return s.Repo.UpdateDailyKcal(ctx, user, kcal)
}

func (s *IdentityService) publish(ctx context.Context, userID uint, event map[string]any) {
	if s.Producer == nil {
		return
	}
	if err := s.Producer.PublishEvent(ctx, fmt.Sprint(userID), event); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "error", err)
	}
}
