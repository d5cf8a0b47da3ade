package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"HackNewsBot/internal/domain"
	"HackNewsBot/internal/ports"
)

const uniqueViolation = "23505"

var identExpr = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PostgresStore persists documents into a Postgres table with an integer version column.
type PostgresStore struct {
	db    *sql.DB
	table string
	sb    sq.StatementBuilderType
}

var _ ports.DocumentStore = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB, table string) (*PostgresStore, error) {
	if table == "" {
		table = "documents"
	}
	if !identExpr.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresStore{
		db:    db,
		table: table,
		sb:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

// EnsureSchema creates the documents table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
              path       TEXT PRIMARY KEY,
              content    TEXT NOT NULL,
              version    BIGINT NOT NULL,
              created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
              updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW())`

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Get loads content and version for path.
func (s *PostgresStore) Get(ctx context.Context, path string) (domain.Document, error) {
	query, args, err := s.sb.Select("content", "version").
		From(s.table).
		Where(sq.Eq{"path": path}).
		ToSql()
	if err != nil {
		return domain.Document{}, fmt.Errorf("build select: %w", err)
	}

	var (
		content string
		version int64
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&content, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("query document: %w", err)
	}

	return domain.Document{Path: path, Content: content, Version: intVersion(version)}, nil
}

// Create inserts path at version 1.
func (s *PostgresStore) Create(ctx context.Context, path, content string) (domain.Version, error) {
	query, args, err := s.sb.Insert(s.table).
		Columns("path", "content", "version").
		Values(path, content, 1).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return "", fmt.Errorf("insert %s: %w", path, domain.ErrDocumentExists)
		}
		return "", fmt.Errorf("insert %s: %w", path, err)
	}

	return intVersion(1), nil
}

// Update writes content only where the stored version equals version.
func (s *PostgresStore) Update(ctx context.Context, path, content string, version domain.Version) (domain.Version, error) {
	current, err := strconv.ParseInt(string(version), 10, 64)
	if err != nil {
		return "", fmt.Errorf("update %s: %w: malformed version %q", path, domain.ErrVersionConflict, version)
	}

	query, args, err := s.sb.Update(s.table).
		Set("content", content).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"path": path, "version": current}).
		Suffix("RETURNING version").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build update: %w", err)
	}

	var next int64
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("update %s: %w", path, domain.ErrVersionConflict)
	}
	if err != nil {
		return "", fmt.Errorf("update %s: %w", path, err)
	}

	return intVersion(next), nil
}

func intVersion(v int64) domain.Version {
	return domain.Version(strconv.FormatInt(v, 10))
}
