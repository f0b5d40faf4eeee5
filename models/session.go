package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Session is the server-side half of an authenticated browser session.
// The browser only holds a signed token naming the ID.
type Session struct {
	ID            string    `gorm:"primaryKey;size:64"`
	Identity      string    `gorm:"not null"`
	Authenticated bool      `gorm:"not null"`
	ExpiresAt     time.Time `gorm:"index;not null"`
	CreatedAt     time.Time
}

func (s *Session) TableName() string {
	return "sessions"
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type SessionsRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSessionsRepository(db *gorm.DB) *SessionsRepository {
	return &SessionsRepository{db: db, now: time.Now}
}

func (r *SessionsRepository) CreateSession(ctx context.Context, s *Session) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession returns a live session. Expired rows are removed and reported
// as ErrSessionNotFound.
func (r *SessionsRepository) GetSession(ctx context.Context, id string) (*Session, error) {
	var s Session
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if s.Expired(r.now()) {
		_ = r.DeleteSession(ctx, id)
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

// DeleteSession removes a session. Unknown ids are not an error.
func (r *SessionsRepository) DeleteSession(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Session{}).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
