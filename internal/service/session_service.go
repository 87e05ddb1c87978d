package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/labgate-api/internal/models"
)

type sessionRepository interface {
	FindByID(ctx context.Context, id string) (*models.LabSession, error)
	ListBySubject(ctx context.Context, subjectID string) ([]models.LabSession, error)
}

// SessionCatalog reads lab sessions, caching lookups by id. Sessions are never mutated here.
type SessionCatalog struct {
	repo   sessionRepository
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewSessionCatalog constructs the catalog. cache may be nil.
func NewSessionCatalog(repo sessionRepository, cache *CacheService, ttl time.Duration, logger *zap.Logger) *SessionCatalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionCatalog{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

func sessionCacheKey(id string) string {
	return fmt.Sprintf("labgate:session:%s", id)
}

// Get returns a session by id. A missing session yields (nil, nil).
func (c *SessionCatalog) Get(ctx context.Context, id string) (*models.LabSession, error) {
	key := sessionCacheKey(id)
	var cached models.LabSession
	hit, err := c.cache.Get(ctx, key, &cached)
	if err == nil && hit {
		return &cached, nil
	}
	if err != nil {
		// drop entries that no longer decode
		_ = c.forget(ctx, id)
	}
	session, err := c.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	_ = c.cache.Set(ctx, key, session, c.ttl)
	return session, nil
}

// ListBySubject returns every session the subject is enrolled in. Not cached.
func (c *SessionCatalog) ListBySubject(ctx context.Context, subjectID string) ([]models.LabSession, error) {
	return c.repo.ListBySubject(ctx, subjectID)
}

func (c *SessionCatalog) forget(ctx context.Context, id string) error {
	return c.cache.Invalidate(ctx, sessionCacheKey(id))
}
