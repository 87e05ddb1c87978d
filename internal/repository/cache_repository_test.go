package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/labgate-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil)
	ctx := context.Background()

	var dest map[string]string
	assert.ErrorIs(t, repo.Get(ctx, "labgate:session:lab-1", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "labgate:session:lab-1", map[string]string{"id": "lab-1"}, time.Minute))
	assert.NoError(t, repo.Delete(ctx, "labgate:session:lab-1"))
	assert.NoError(t, repo.DeleteByPattern(ctx, "labgate:session:*"))
	assert.NoError(t, repo.Ping(ctx))
}
