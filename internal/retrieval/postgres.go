package retrieval

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSource reads documents from a table with name and content columns.
type PostgresSource struct {
	pool  *pgxpool.Pool
	table string
	limit int
}

// NewPostgresSource connects a pool to dsn. The connection is verified lazily.
func NewPostgresSource(ctx context.Context, dsn, table string, limit int) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	return &PostgresSource{pool: pool, table: table, limit: limit}, nil
}

func (s *PostgresSource) Name() string { return "postgres:" + s.table }

func (s *PostgresSource) TestConnection(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresSource) Load(ctx context.Context) ([]Document, error) {
	query := fmt.Sprintf(
		"SELECT name, content FROM %s WHERE content <> '' ORDER BY name LIMIT $1",
		pgx.Identifier{s.table}.Sanitize(),
	)
	rows, err := s.pool.Query(ctx, query, s.limit)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	docs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Document, error) {
		var d Document
		err := row.Scan(&d.Name, &d.Content)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	return docs, nil
}

func (s *PostgresSource) Close() {
	s.pool.Close()
}
