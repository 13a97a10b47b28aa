package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/VictorSaf/ainvestorhood5/internal/domain"
	"github.com/VictorSaf/ainvestorhood5/internal/ports"
)

const uniqueViolation = "23505"

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository stores classified articles in the news_articles table.
// content_hash carries a unique constraint; the insert maps violations to
// ports.ErrDuplicateArticle so concurrent producers racing past the
// existence check still converge on a single row.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.ArticleRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Exists reports whether a row with the given content hash is stored.
func (r *PostgresRepository) Exists(ctx context.Context, contentHash string) (bool, error) {
	if r.db == nil {
		return false, nil
	}

	query, args, err := builder.
		Select("1").
		From("news_articles").
		Where(sq.Eq{"content_hash": contentHash}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query article by hash: %w", err)
	}

	return true, nil
}

// Insert writes one article row. Returns ports.ErrDuplicateArticle when the
// content hash is already stored; any other failure is a storage error and
// the row is not written.
func (r *PostgresRepository) Insert(ctx context.Context, article domain.PersistedArticle) error {
	if r.db == nil {
		return nil
	}

	query, args, err := builder.
		Insert("news_articles").
		Columns(
			"title", "summary", "instrument_type", "instrument_name",
			"recommendation", "confidence_score", "source_url",
			"content_hash", "published_at",
		).
		Values(
			article.Title,
			article.Summary,
			string(article.InstrumentType),
			article.InstrumentName,
			string(article.Recommendation),
			article.ConfidenceScore,
			article.SourceURL,
			article.ContentHash,
			article.PublishedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ports.ErrDuplicateArticle
	}
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}

	return nil
}
