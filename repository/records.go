// Package repository defines the storage contract implemented by concrete backends.
package repository

import (
	"context"

	"github.com/civicchain/registry/addr"
	"github.com/civicchain/registry/model"
)

// Records is a key→record store with create-once semantics. Keys are derived
// by the caller via the addr package. Create methods fail with
// errs.ErrAlreadyExists instead of overwriting; Save methods fail with
// errs.ErrNotFound if the key holds no record. The paired methods commit
// both records atomically: either both writes land or neither does.
type Records interface {
	// CreateUser stores a new user record under key.
	CreateUser(ctx context.Context, key addr.Key, u *model.UserRecord) error
	// GetUser loads the user record at key.
	GetUser(ctx context.Context, key addr.Key) (*model.UserRecord, error)
	// SaveUser replaces the existing user record at key.
	SaveUser(ctx context.Context, key addr.Key, u *model.UserRecord) error

	// CreateIssue stores a new issue record and, in the same commit,
	// replaces the reporter's user record (its counters changed).
	CreateIssue(ctx context.Context, issueKey addr.Key, iss *model.IssueRecord, reporterKey addr.Key, reporter *model.UserRecord) error
	// GetIssue loads the issue record at key.
	GetIssue(ctx context.Context, key addr.Key) (*model.IssueRecord, error)
	// SaveIssue replaces the existing issue record at key.
	SaveIssue(ctx context.Context, key addr.Key, iss *model.IssueRecord) error
	// SaveIssueAndUser replaces an issue record and a user record in one
	// atomic commit.
	SaveIssueAndUser(ctx context.Context, issueKey addr.Key, iss *model.IssueRecord, userKey addr.Key, u *model.UserRecord) error
}
