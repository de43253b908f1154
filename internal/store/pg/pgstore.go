package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"crewbase.org/internal/directory"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

// Store implements directory.Repository on PostgreSQL.
type Store struct {
	db     *sql.DB
	hasher directory.Hasher
}

var _ directory.Repository = (*Store)(nil)

func Open(dsn string, hasher directory.Hasher) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	if hasher == nil {
		hasher = directory.Argon2Hasher{}
	}
	return &Store{db: db, hasher: hasher}, nil
}

// NewWithDB wraps an existing connection, used by tests with sqlmock.
func NewWithDB(db *sql.DB, hasher directory.Hasher) *Store {
	if hasher == nil {
		hasher = directory.Argon2Hasher{}
	}
	return &Store{db: db, hasher: hasher}
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// --- helpers ---

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// storageError keeps driver errors behind the repository boundary.
func storageError(err error) error {
	return fmt.Errorf("%w: %v", directory.ErrStorage, err)
}

func nullIfNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
