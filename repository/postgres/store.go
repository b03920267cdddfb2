// Package postgres contains the PostgreSQL implementation of the Records contract.
//
// Records live in a single key→bytes table; the value is the fixed-width
// encoding from the model package, so stored rows stay interoperable with
// records written by other runtimes. Create-once is enforced by the primary
// key, paired mutations commit in one transaction.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicchain/registry/addr"
	"github.com/civicchain/registry/errs"
	"github.com/civicchain/registry/model"
)

// PgxPool is a minimal abstraction over a Postgres connection pool.
// It is implemented by *pgxpool.Pool and pgxmock.PgxPoolIface.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Close()
}

// Store implements repository.Records on top of a pgx pool.
type Store struct{ pool PgxPool }

// NewStore wraps an existing pool (or a mock in tests).
func NewStore(pool PgxPool) *Store { return &Store{pool: pool} }

// Connect creates a pool for the given DSN and returns a store over it.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close shuts down the underlying pool.
func (s *Store) Close() { s.pool.Close() }

const (
	insRecord = `INSERT INTO records (key, data) VALUES ($1, $2)`
	getRecord = `SELECT data FROM records WHERE key=$1`
	updRecord = `UPDATE records SET data=$2, updated_at=now() WHERE key=$1`
)

// isUniqueViolation reports whether the error is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pg *pgconn.PgError
	return errors.As(err, &pg) && pg.Code == "23505"
}

func (s *Store) create(ctx context.Context, key addr.Key, data []byte) error {
	_, err := s.pool.Exec(ctx, insRecord, key[:], data)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

func (s *Store) get(ctx context.Context, key addr.Key) ([]byte, error) {
	var data []byte
	if err := s.pool.QueryRow(ctx, getRecord, key[:]).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *Store) save(ctx context.Context, key addr.Key, data []byte) error {
	tag, err := s.pool.Exec(ctx, updRecord, key[:], data)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// CreateUser stores a new user record, refusing to overwrite.
func (s *Store) CreateUser(ctx context.Context, key addr.Key, u *model.UserRecord) error {
	return s.create(ctx, key, model.EncodeUser(u))
}

// GetUser loads and decodes the user record at key.
func (s *Store) GetUser(ctx context.Context, key addr.Key) (*model.UserRecord, error) {
	data, err := s.get(ctx, key)
	if err != nil {
		return nil, err
	}
	return model.DecodeUser(data)
}

// SaveUser replaces an existing user record.
func (s *Store) SaveUser(ctx context.Context, key addr.Key, u *model.UserRecord) error {
	return s.save(ctx, key, model.EncodeUser(u))
}

// GetIssue loads and decodes the issue record at key.
func (s *Store) GetIssue(ctx context.Context, key addr.Key) (*model.IssueRecord, error) {
	data, err := s.get(ctx, key)
	if err != nil {
		return nil, err
	}
	return model.DecodeIssue(data)
}

// SaveIssue replaces an existing issue record.
func (s *Store) SaveIssue(ctx context.Context, key addr.Key, iss *model.IssueRecord) error {
	return s.save(ctx, key, model.EncodeIssue(iss))
}

// CreateIssue inserts the issue and rewrites the reporter's record in one
// transaction. A duplicate issue or a missing reporter rolls back both.
func (s *Store) CreateIssue(
	ctx context.Context, issueKey addr.Key, iss *model.IssueRecord, reporterKey addr.Key, reporter *model.UserRecord,
) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	if _, err = tx.Exec(ctx, insRecord, issueKey[:], model.EncodeIssue(iss)); err != nil {
		if isUniqueViolation(err) {
			err = errs.ErrAlreadyExists
		}
		return err
	}
	tag, err := tx.Exec(ctx, updRecord, reporterKey[:], model.EncodeUser(reporter))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		err = errs.ErrNotFound
	}
	return err
}

// SaveIssueAndUser rewrites an issue record and a user record in one
// transaction; a miss on either key rolls back both.
func (s *Store) SaveIssueAndUser(
	ctx context.Context, issueKey addr.Key, iss *model.IssueRecord, userKey addr.Key, u *model.UserRecord,
) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	for _, w := range []struct {
		key  addr.Key
		data []byte
	}{
		{issueKey, model.EncodeIssue(iss)},
		{userKey, model.EncodeUser(u)},
	} {
		tag, execErr := tx.Exec(ctx, updRecord, w.key[:], w.data)
		if execErr != nil {
			err = execErr
			return err
		}
		if tag.RowsAffected() == 0 {
			err = errs.ErrNotFound
			return err
		}
	}
	return nil
}
