package repo

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/slim-mom/backend/internal/models"
	"github.com/slim-mom/backend/internal/tokens"
)

// RevocationRegistry records bearer tokens invalidated by logout. The
// table is the source of truth; a read-through in-process cache keeps
// the per-request check off the database for tokens already known to
// be revoked. Cache entries expire when the underlying token would
// have expired anyway, so the hot set never outlives its usefulness.
type RevocationRegistry struct {
	DB    *gorm.DB
	cache *gocache.Cache
}

func NewRevocationRegistry(db *gorm.DB) *RevocationRegistry {
	return &RevocationRegistry{
		DB:    db,
		cache: gocache.New(gocache.NoExpiration, 10*time.Minute),
	}
}

// Revoke stores the token's hash. Revoking the same token twice is a
// no-op, not an error.
func (r *RevocationRegistry) Revoke(ctx context.Context, userID uint, tokenStr string, expiresAt time.Time) error {
	h := tokens.Sha256Hex(tokenStr)
	rec := models.RevokedToken{
		TokenHash: h,
		UserID:    userID,
		ExpiresAt: expiresAt.Unix(),
	}
	if err := r.DB.WithContext(ctx).Create(&rec).Error; err != nil && !isDuplicate(err) {
		return err
	}
	r.cacheRevoked(h, expiresAt)
	return nil
}

// IsRevoked reports whether the exact token string was revoked.
func (r *RevocationRegistry) IsRevoked(ctx context.Context, tokenStr string) (bool, error) {
	h := tokens.Sha256Hex(tokenStr)
	if _, hit := r.cache.Get(h); hit {
		return true, nil
	}

	var rec models.RevokedToken
	err := r.DB.WithContext(ctx).Where("token_hash = ?", h).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	r.cacheRevoked(h, time.Unix(rec.ExpiresAt, 0))
	return true, nil
}

func (r *RevocationRegistry) cacheRevoked(hash string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	r.cache.Set(hash, struct{}{}, ttl)
}
