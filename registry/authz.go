package registry

import (
	"github.com/civicchain/registry/errs"
	"github.com/civicchain/registry/model"
)

// Action identifies a mutating operation for authorization checks.
type Action uint8

const (
	ActionCreateIssue Action = iota
	ActionRecordVote
	ActionRecordVerification
	ActionUpdateIssueStatus
	ActionUpdateReputation
)

// Authorize evaluates whether the caller's role permits the action. Only
// UpdateIssueStatus is role-gated (Government); every other mutation needs
// nothing beyond an authenticated, existing user record, which the caller
// of this function has already loaded.
func Authorize(caller *model.UserRecord, action Action) error {
	if action == ActionUpdateIssueStatus && caller.Role != model.RoleGovernment {
		return errs.ErrUnauthorized
	}
	return nil
}
