package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/civicchain/registry/errs"
	"github.com/civicchain/registry/model"
)

func TestAuthorize(t *testing.T) {
	citizen := &model.UserRecord{Role: model.RoleCitizen}
	gov := &model.UserRecord{Role: model.RoleGovernment}

	open := []Action{ActionCreateIssue, ActionRecordVote, ActionRecordVerification, ActionUpdateReputation}
	for _, action := range open {
		require.NoError(t, Authorize(citizen, action))
		require.NoError(t, Authorize(gov, action))
	}

	require.ErrorIs(t, Authorize(citizen, ActionUpdateIssueStatus), errs.ErrUnauthorized)
	require.NoError(t, Authorize(gov, ActionUpdateIssueStatus))
}
