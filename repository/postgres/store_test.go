package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/civicchain/registry/addr"
	"github.com/civicchain/registry/errs"
	"github.com/civicchain/registry/model"
	"github.com/civicchain/registry/repository"
)

var _ repository.Records = (*Store)(nil)

func newStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewStore(mock), mock
}

func userFixture() (addr.Key, *model.UserRecord) {
	var wallet model.Address
	for i := range wallet {
		wallet[i] = byte(i)
	}
	key, nonce := addr.Derive(addr.NamespaceUser, wallet[:])
	return key, &model.UserRecord{
		WalletAddress: wallet,
		Reputation:    7,
		Role:          model.RoleCitizen,
		CreatedAt:     1724500000,
		AddressNonce:  nonce,
	}
}

func issueFixture(reporter model.Address) (addr.Key, *model.IssueRecord) {
	var hash model.IssueHash
	for i := range hash {
		hash[i] = byte(0x80 + i)
	}
	key, nonce := addr.Derive(addr.NamespaceIssue, hash[:])
	return key, &model.IssueRecord{
		IssueHash:    hash,
		Reporter:     reporter,
		Status:       model.StatusOpen,
		Category:     model.CategoryWater,
		Priority:     3,
		CreatedAt:    1724500000,
		UpdatedAt:    1724500000,
		AddressNonce: nonce,
	}
}

func TestStore_CreateUser_OK_and_Duplicate(t *testing.T) {
	s, mock := newStore(t)
	defer mock.Close()
	ctx := context.Background()
	key, u := userFixture()

	mock.ExpectExec(`INSERT INTO records \(key, data\) VALUES \(\$1, \$2\)`).
		WithArgs(key[:], model.EncodeUser(u)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, s.CreateUser(ctx, key, u))

	mock.ExpectExec(`INSERT INTO records \(key, data\) VALUES \(\$1, \$2\)`).
		WithArgs(key[:], model.EncodeUser(u)).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, s.CreateUser(ctx, key, u), errs.ErrAlreadyExists)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetUser(t *testing.T) {
	s, mock := newStore(t)
	defer mock.Close()
	ctx := context.Background()
	key, u := userFixture()

	mock.ExpectQuery(`SELECT data FROM records WHERE key=\$1`).
		WithArgs(key[:]).
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(model.EncodeUser(u)))
	got, err := s.GetUser(ctx, key)
	require.NoError(t, err)
	require.Equal(t, u, got)

	mock.ExpectQuery(`SELECT data FROM records WHERE key=\$1`).
		WithArgs(key[:]).
		WillReturnError(pgx.ErrNoRows)
	_, err = s.GetUser(ctx, key)
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveUser_NotFound(t *testing.T) {
	s, mock := newStore(t)
	defer mock.Close()
	key, u := userFixture()

	mock.ExpectExec(`UPDATE records SET data=\$2, updated_at=now\(\) WHERE key=\$1`).
		WithArgs(key[:], model.EncodeUser(u)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, s.SaveUser(context.Background(), key, u), errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateIssue_Commits_Pair(t *testing.T) {
	s, mock := newStore(t)
	defer mock.Close()
	ctx := context.Background()
	userKey, u := userFixture()
	u.TotalIssues = 1
	issueKey, iss := issueFixture(u.WalletAddress)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO records \(key, data\) VALUES \(\$1, \$2\)`).
		WithArgs(issueKey[:], model.EncodeIssue(iss)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE records SET data=\$2, updated_at=now\(\) WHERE key=\$1`).
		WithArgs(userKey[:], model.EncodeUser(u)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, s.CreateIssue(ctx, issueKey, iss, userKey, u))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateIssue_RollsBack_OnDuplicate(t *testing.T) {
	s, mock := newStore(t)
	defer mock.Close()
	userKey, u := userFixture()
	issueKey, iss := issueFixture(u.WalletAddress)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO records \(key, data\) VALUES \(\$1, \$2\)`).
		WithArgs(issueKey[:], model.EncodeIssue(iss)).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	err := s.CreateIssue(context.Background(), issueKey, iss, userKey, u)
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateIssue_RollsBack_OnMissingReporter(t *testing.T) {
	s, mock := newStore(t)
	defer mock.Close()
	userKey, u := userFixture()
	issueKey, iss := issueFixture(u.WalletAddress)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO records \(key, data\) VALUES \(\$1, \$2\)`).
		WithArgs(issueKey[:], model.EncodeIssue(iss)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE records SET data=\$2, updated_at=now\(\) WHERE key=\$1`).
		WithArgs(userKey[:], model.EncodeUser(u)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := s.CreateIssue(context.Background(), issueKey, iss, userKey, u)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveIssueAndUser(t *testing.T) {
	s, mock := newStore(t)
	defer mock.Close()
	userKey, u := userFixture()
	issueKey, iss := issueFixture(u.WalletAddress)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE records SET data=\$2, updated_at=now\(\) WHERE key=\$1`).
		WithArgs(issueKey[:], model.EncodeIssue(iss)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE records SET data=\$2, updated_at=now\(\) WHERE key=\$1`).
		WithArgs(userKey[:], model.EncodeUser(u)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, s.SaveIssueAndUser(context.Background(), issueKey, iss, userKey, u))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveIssueAndUser_RollsBack_OnMiss(t *testing.T) {
	s, mock := newStore(t)
	defer mock.Close()
	userKey, u := userFixture()
	issueKey, iss := issueFixture(u.WalletAddress)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE records SET data=\$2, updated_at=now\(\) WHERE key=\$1`).
		WithArgs(issueKey[:], model.EncodeIssue(iss)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := s.SaveIssueAndUser(context.Background(), issueKey, iss, userKey, u)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
