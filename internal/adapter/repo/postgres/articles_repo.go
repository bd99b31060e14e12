package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ai2b/zena-toolserver/internal/domain"
)

// ArticleRepo resolves a service article from one branch to its
// equivalent on another. Branches of the same salon catalogue the same
// service under different articles, so multi-branch availability checks
// must translate before asking the CRM.
type ArticleRepo struct {
	DB      PgxPool
	Timeout time.Duration
}

func NewArticleRepo(db PgxPool, queryTimeout time.Duration) *ArticleRepo {
	return &ArticleRepo{DB: db, Timeout: queryTimeout}
}

// BranchArticle returns toChannel's article for the given article of
// fromChannel. A missing mapping is domain.ErrNotFound; callers decide
// whether that skips the branch or fails the request.
func (r *ArticleRepo) BranchArticle(ctx domain.Context, article string, fromChannel, toChannel int) (string, error) {
	tracer := otel.Tracer("repo.articles")
	ctx, span := tracer.Start(ctx, "articles.branch_article")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "article_mappings"),
	)

	ctx, cancel := queryContext(ctx, r.Timeout)
	defer cancel()

	q := `SELECT secondary_article FROM article_mappings
	      WHERE primary_article = $1 AND primary_channel = $2 AND secondary_channel = $3`
	var mapped string
	err := r.DB.QueryRow(ctx, q, article, fromChannel, toChannel).Scan(&mapped)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("op=articles.branch_article: %w: article %q has no mapping %d->%d",
			domain.ErrNotFound, article, fromChannel, toChannel)
	}
	if err != nil {
		return "", fmt.Errorf("op=articles.branch_article: %w", err)
	}
	return mapped, nil
}
