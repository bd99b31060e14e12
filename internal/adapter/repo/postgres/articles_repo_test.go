package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai2b/zena-toolserver/internal/adapter/repo/postgres"
	"github.com/ai2b/zena-toolserver/internal/domain"
)

func TestArticleRepo_BranchArticle(t *testing.T) {
	t.Parallel()

	pool := &poolStub{row: rowStub{scan: func(dest ...any) error {
		*(dest[0].(*string)) = "410112"
		return nil
	}}}
	repo := postgres.NewArticleRepo(pool, 0)

	mapped, err := repo.BranchArticle(context.Background(), "232324", 291521, 291522)
	require.NoError(t, err)
	assert.Equal(t, "410112", mapped)
	assert.Contains(t, pool.rowSQL, "FROM article_mappings")
	assert.Equal(t, []any{"232324", 291521, 291522}, pool.rowArgs)
	assert.True(t, pool.rowDeadline, "query must carry a client-side deadline")
}

func TestArticleRepo_BranchArticle_NoMapping(t *testing.T) {
	t.Parallel()

	pool := &poolStub{row: noRows()}
	repo := postgres.NewArticleRepo(pool, 0)

	_, err := repo.BranchArticle(context.Background(), "232324", 291521, 291523)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "291521->291523")
}

func TestArticleRepo_BranchArticle_QueryError(t *testing.T) {
	t.Parallel()

	pool := &poolStub{row: rowStub{scan: func(_ ...any) error { return assert.AnError }}}
	repo := postgres.NewArticleRepo(pool, 0)

	_, err := repo.BranchArticle(context.Background(), "232324", 291521, 291522)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "op=articles.branch_article")
}
