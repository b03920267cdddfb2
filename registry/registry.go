// Package registry implements the civic issue registry account state machine.
//
// The host runtime authenticates the caller and serializes operations that
// touch the same record; each operation here loads the records it needs,
// computes the complete next state, and commits through a single store call.
// A failed operation leaves every record untouched.
package registry

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/civicchain/registry/addr"
	"github.com/civicchain/registry/clock"
	"github.com/civicchain/registry/counter"
	"github.com/civicchain/registry/errs"
	"github.com/civicchain/registry/model"
	"github.com/civicchain/registry/repository"
)

// An issue closes automatically once this many verifications are recorded.
const verificationCloseCount = 3

// Registry exposes the public operations over a record store.
type Registry struct {
	records repository.Records
	clk     clock.Clock
	log     *zap.Logger
}

// New constructs a registry. A nil clock falls back to the system clock,
// a nil logger to a no-op logger.
func New(records repository.Records, clk clock.Clock, logger *zap.Logger) *Registry {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{records: records, clk: clk, log: logger}
}

// opLog returns a logger scoped to one operation invocation. The correlation
// ID lets the host tie an audit line back to the request it forwarded.
func (r *Registry) opLog(op string) *zap.Logger {
	log := r.log.With(zap.String("op", op))
	if id, err := uuid.NewV4(); err == nil {
		log = log.With(zap.String("op_id", id.String()))
	}
	return log
}

// loadUser fetches a user record by wallet address and verifies its
// disambiguation nonce against a fresh derivation.
func (r *Registry) loadUser(ctx context.Context, op string, wallet model.Address) (addr.Key, *model.UserRecord, error) {
	key, _ := addr.Derive(addr.NamespaceUser, wallet[:])
	u, err := r.records.GetUser(ctx, key)
	if err != nil {
		return key, nil, fmt.Errorf("%s: user %s: %w", op, wallet, err)
	}
	if !addr.Verify(addr.NamespaceUser, wallet[:], u.AddressNonce) {
		return key, nil, fmt.Errorf("%s: user %s: address nonce mismatch: %w", op, wallet, errs.ErrNotFound)
	}
	return key, u, nil
}

// loadIssue fetches an issue record by hash and verifies its nonce.
func (r *Registry) loadIssue(ctx context.Context, op string, hash model.IssueHash) (addr.Key, *model.IssueRecord, error) {
	key, _ := addr.Derive(addr.NamespaceIssue, hash[:])
	iss, err := r.records.GetIssue(ctx, key)
	if err != nil {
		return key, nil, fmt.Errorf("%s: issue %s: %w", op, hash, err)
	}
	if !addr.Verify(addr.NamespaceIssue, hash[:], iss.AddressNonce) {
		return key, nil, fmt.Errorf("%s: issue %s: address nonce mismatch: %w", op, hash, errs.ErrNotFound)
	}
	return key, iss, nil
}

// InitializeUser creates the one user record for a wallet. Counters start
// at zero and the role is fixed for the record's lifetime.
func (r *Registry) InitializeUser(ctx context.Context, wallet model.Address, initialRep uint32, role model.Role) (*model.UserRecord, error) {
	key, nonce := addr.Derive(addr.NamespaceUser, wallet[:])
	u := &model.UserRecord{
		WalletAddress: wallet,
		Reputation:    initialRep,
		Role:          role,
		CreatedAt:     r.clk.Now().Unix(),
		AddressNonce:  nonce,
	}
	if err := r.records.CreateUser(ctx, key, u); err != nil {
		return nil, fmt.Errorf("initializeUser: user %s: %w", wallet, err)
	}
	r.opLog("initializeUser").Info("user initialized",
		zap.Stringer("wallet", wallet),
		zap.Stringer("role", role),
	)
	return u, nil
}

// CreateIssue creates the one issue record for a hash and bumps the
// reporter's issue counter in the same commit.
func (r *Registry) CreateIssue(ctx context.Context, hash model.IssueHash, category model.IssueCategory, priority uint8, reporter model.Address) (*model.IssueRecord, error) {
	const op = "createIssue"
	reporterKey, rep, err := r.loadUser(ctx, op, reporter)
	if err != nil {
		return nil, err
	}
	if err := Authorize(rep, ActionCreateIssue); err != nil {
		return nil, fmt.Errorf("%s: user %s: %w", op, reporter, err)
	}
	if rep.TotalIssues, err = counter.Inc(rep.TotalIssues); err != nil {
		return nil, fmt.Errorf("%s: user %s: totalIssues: %w", op, reporter, err)
	}

	issueKey, nonce := addr.Derive(addr.NamespaceIssue, hash[:])
	now := r.clk.Now().Unix()
	iss := &model.IssueRecord{
		IssueHash:    hash,
		Reporter:     reporter,
		Status:       model.StatusOpen,
		Category:     category,
		Priority:     priority,
		CreatedAt:    now,
		UpdatedAt:    now,
		AddressNonce: nonce,
	}
	if err := r.records.CreateIssue(ctx, issueKey, iss, reporterKey, rep); err != nil {
		return nil, fmt.Errorf("%s: issue %s: %w", op, hash, err)
	}
	r.opLog(op).Info("issue created",
		zap.Stringer("issue", hash),
		zap.Stringer("reporter", reporter),
		zap.Stringer("category", category),
		zap.Uint8("priority", priority),
	)
	return iss, nil
}

// RecordVote bumps the chosen vote counter. Any existing user may vote, on
// any issue, any number of times; the registry deliberately applies no
// self-vote or duplicate-vote guard.
func (r *Registry) RecordVote(ctx context.Context, hash model.IssueHash, vote model.VoteType, voter model.Address) (*model.IssueRecord, error) {
	const op = "recordVote"
	_, v, err := r.loadUser(ctx, op, voter)
	if err != nil {
		return nil, err
	}
	if err := Authorize(v, ActionRecordVote); err != nil {
		return nil, fmt.Errorf("%s: user %s: %w", op, voter, err)
	}
	issueKey, iss, err := r.loadIssue(ctx, op, hash)
	if err != nil {
		return nil, err
	}

	switch vote {
	case model.Upvote:
		if iss.Upvotes, err = counter.Inc(iss.Upvotes); err != nil {
			return nil, fmt.Errorf("%s: issue %s: upvotes: %w", op, hash, err)
		}
	case model.Downvote:
		if iss.Downvotes, err = counter.Inc(iss.Downvotes); err != nil {
			return nil, fmt.Errorf("%s: issue %s: downvotes: %w", op, hash, err)
		}
	default:
		return nil, fmt.Errorf("%s: issue %s: unknown vote type %d", op, hash, vote)
	}
	iss.UpdatedAt = r.clk.Now().Unix()

	if err := r.records.SaveIssue(ctx, issueKey, iss); err != nil {
		return nil, fmt.Errorf("%s: issue %s: %w", op, hash, err)
	}
	r.opLog(op).Info("vote recorded",
		zap.Stringer("issue", hash),
		zap.Stringer("voter", voter),
		zap.Stringer("vote", vote),
	)
	return iss, nil
}

// RecordVerification counts a community verification of a resolved issue and
// bumps the verifier's tally in the same commit. Reaching the threshold
// closes the issue, after which further attempts fail the Resolved-only
// precondition.
func (r *Registry) RecordVerification(ctx context.Context, hash model.IssueHash, verifier model.Address) (*model.IssueRecord, error) {
	const op = "recordVerification"
	verifierKey, ver, err := r.loadUser(ctx, op, verifier)
	if err != nil {
		return nil, err
	}
	if err := Authorize(ver, ActionRecordVerification); err != nil {
		return nil, fmt.Errorf("%s: user %s: %w", op, verifier, err)
	}
	issueKey, iss, err := r.loadIssue(ctx, op, hash)
	if err != nil {
		return nil, err
	}
	if iss.Status != model.StatusResolved {
		return nil, fmt.Errorf("%s: issue %s: status %s: %w", op, hash, iss.Status, errs.ErrInvalidStatus)
	}

	if iss.Verifications, err = counter.Inc(iss.Verifications); err != nil {
		return nil, fmt.Errorf("%s: issue %s: verifications: %w", op, hash, err)
	}
	if ver.TotalVerifications, err = counter.Inc(ver.TotalVerifications); err != nil {
		return nil, fmt.Errorf("%s: user %s: totalVerifications: %w", op, verifier, err)
	}
	if iss.Verifications >= verificationCloseCount {
		iss.Status = model.StatusClosed
	}
	iss.UpdatedAt = r.clk.Now().Unix()

	if err := r.records.SaveIssueAndUser(ctx, issueKey, iss, verifierKey, ver); err != nil {
		return nil, fmt.Errorf("%s: issue %s: %w", op, hash, err)
	}
	r.opLog(op).Info("verification recorded",
		zap.Stringer("issue", hash),
		zap.Stringer("verifier", verifier),
		zap.Uint32("verifications", iss.Verifications),
		zap.Stringer("status", iss.Status),
	)
	return iss, nil
}

// UpdateIssueStatus sets the status to exactly the requested value. Only
// Government callers pass; no transition graph is enforced, so backward
// moves such as Closed→Open are allowed by design.
func (r *Registry) UpdateIssueStatus(ctx context.Context, hash model.IssueHash, newStatus model.IssueStatus, caller model.Address) (*model.IssueRecord, error) {
	const op = "updateIssueStatus"
	_, c, err := r.loadUser(ctx, op, caller)
	if err != nil {
		return nil, err
	}
	if err := Authorize(c, ActionUpdateIssueStatus); err != nil {
		return nil, fmt.Errorf("%s: user %s: role %s: %w", op, caller, c.Role, err)
	}
	issueKey, iss, err := r.loadIssue(ctx, op, hash)
	if err != nil {
		return nil, err
	}

	iss.Status = newStatus
	iss.UpdatedAt = r.clk.Now().Unix()

	if err := r.records.SaveIssue(ctx, issueKey, iss); err != nil {
		return nil, fmt.Errorf("%s: issue %s: %w", op, hash, err)
	}
	r.opLog(op).Info("issue status updated",
		zap.Stringer("issue", hash),
		zap.Stringer("caller", caller),
		zap.Stringer("status", newStatus),
	)
	return iss, nil
}

// UpdateReputation overwrites a user's reputation. Any existing caller may
// retarget any user; restricting this would change observable semantics.
func (r *Registry) UpdateReputation(ctx context.Context, wallet model.Address, newRep uint32, caller model.Address) (*model.UserRecord, error) {
	const op = "updateReputation"
	targetKey, target, err := r.loadUser(ctx, op, wallet)
	if err != nil {
		return nil, err
	}
	c := target
	if caller != wallet {
		if _, c, err = r.loadUser(ctx, op, caller); err != nil {
			return nil, err
		}
	}
	if err := Authorize(c, ActionUpdateReputation); err != nil {
		return nil, fmt.Errorf("%s: user %s: %w", op, caller, err)
	}

	oldRep := target.Reputation
	target.Reputation = newRep
	if err := r.records.SaveUser(ctx, targetKey, target); err != nil {
		return nil, fmt.Errorf("%s: user %s: %w", op, wallet, err)
	}
	r.opLog(op).Info("reputation updated",
		zap.Stringer("wallet", wallet),
		zap.Uint32("old", oldRep),
		zap.Uint32("new", newRep),
	)
	return target, nil
}
