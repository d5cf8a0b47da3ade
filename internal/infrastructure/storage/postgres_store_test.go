package storage

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HackNewsBot/internal/domain"
)

func newPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewPostgresStore(db, "documents")
	require.NoError(t, err)
	return store, mock
}

func TestPostgresStoreGet(t *testing.T) {
	t.Parallel()

	store, mock := newPostgresStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT content, version FROM documents WHERE path = $1")).
		WithArgs("a.md").
		WillReturnRows(sqlmock.NewRows([]string{"content", "version"}).AddRow("body", int64(4)))

	doc, err := store.Get(context.Background(), "a.md")
	require.NoError(t, err)
	assert.Equal(t, "body", doc.Content)
	assert.Equal(t, domain.Version("4"), doc.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGetMissing(t *testing.T) {
	t.Parallel()

	store, mock := newPostgresStore(t)
	mock.ExpectQuery("SELECT content, version FROM documents").WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "a.md")
	require.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestPostgresStoreCreate(t *testing.T) {
	t.Parallel()

	store, mock := newPostgresStore(t)
	mock.ExpectExec("INSERT INTO documents").
		WithArgs("a.md", "body", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO documents").
		WillReturnError(&pq.Error{Code: uniqueViolation})

	v, err := store.Create(context.Background(), "a.md", "body")
	require.NoError(t, err)
	assert.Equal(t, domain.Version("1"), v)

	_, err = store.Create(context.Background(), "a.md", "body")
	require.ErrorIs(t, err, domain.ErrDocumentExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUpdate(t *testing.T) {
	t.Parallel()

	store, mock := newPostgresStore(t)
	update := regexp.QuoteMeta("UPDATE documents SET content = $1, version = version + 1")
	mock.ExpectQuery(update).
		WithArgs("new", "a.md", int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(5)))
	mock.ExpectQuery(update).
		WithArgs("stale", "a.md", int64(4)).
		WillReturnError(sql.ErrNoRows)

	v, err := store.Update(context.Background(), "a.md", "new", "4")
	require.NoError(t, err)
	assert.Equal(t, domain.Version("5"), v)

	_, err = store.Update(context.Background(), "a.md", "stale", "4")
	require.ErrorIs(t, err, domain.ErrVersionConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUpdateMalformedVersion(t *testing.T) {
	t.Parallel()

	store, _ := newPostgresStore(t)
	_, err := store.Update(context.Background(), "a.md", "x", "sha-abc")
	require.ErrorIs(t, err, domain.ErrVersionConflict)
}

func TestPostgresStoreQueryFailure(t *testing.T) {
	t.Parallel()

	store, mock := newPostgresStore(t)
	boom := errors.New("connection reset")
	mock.ExpectQuery("SELECT content, version FROM documents").WillReturnError(boom)

	_, err := store.Get(context.Background(), "a.md")
	require.ErrorIs(t, err, boom)
}

func TestNewPostgresStoreRejectsBadTable(t *testing.T) {
	t.Parallel()

	_, err := NewPostgresStore(nil, "documents; DROP TABLE x")
	assert.Error(t, err)
}
