package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrEmailTaken = errors.New("email already in use")
	ErrNotFound   = errors.New("record not found")
)

// GormRepo is the persistent account store. Email uniqueness is
// enforced by the database index, never by a read-then-write check.
type GormRepo struct {
	DB *gorm.DB
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// sqlite (tests) and postgres drivers that predate gorm error
	// translation report the constraint in the message.
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "duplicate key")
}
