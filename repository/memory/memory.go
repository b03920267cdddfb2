// Package memory contains an in-process implementation of the Records contract.
package memory

import (
	"context"
	"sync"

	"github.com/civicchain/registry/addr"
	"github.com/civicchain/registry/errs"
	"github.com/civicchain/registry/model"
)

// Store keeps records as their serialized bytes in a map. Holding the
// encoded form (rather than pointers) means callers can never alias the
// stored state, and failed operations leave records byte-for-byte unchanged.
type Store struct {
	mu      sync.RWMutex
	records map[addr.Key][]byte
}

// New creates an empty store.
func New() *Store {
	return &Store{records: make(map[addr.Key][]byte)}
}

// CreateUser stores a new user record, refusing to overwrite.
func (s *Store) CreateUser(_ context.Context, key addr.Key, u *model.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; ok {
		return errs.ErrAlreadyExists
	}
	s.records[key] = model.EncodeUser(u)
	return nil
}

// GetUser loads and decodes the user record at key.
func (s *Store) GetUser(_ context.Context, key addr.Key) (*model.UserRecord, error) {
	s.mu.RLock()
	data, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return nil, errs.ErrNotFound
	}
	return model.DecodeUser(data)
}

// SaveUser replaces an existing user record.
func (s *Store) SaveUser(_ context.Context, key addr.Key, u *model.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return errs.ErrNotFound
	}
	s.records[key] = model.EncodeUser(u)
	return nil
}

// CreateIssue stores a new issue and the reporter's updated record together.
// Both keys are checked before either write, so a failure touches nothing.
func (s *Store) CreateIssue(_ context.Context, issueKey addr.Key, iss *model.IssueRecord, reporterKey addr.Key, reporter *model.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[issueKey]; ok {
		return errs.ErrAlreadyExists
	}
	if _, ok := s.records[reporterKey]; !ok {
		return errs.ErrNotFound
	}
	s.records[issueKey] = model.EncodeIssue(iss)
	s.records[reporterKey] = model.EncodeUser(reporter)
	return nil
}

// GetIssue loads and decodes the issue record at key.
func (s *Store) GetIssue(_ context.Context, key addr.Key) (*model.IssueRecord, error) {
	s.mu.RLock()
	data, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return nil, errs.ErrNotFound
	}
	return model.DecodeIssue(data)
}

// SaveIssue replaces an existing issue record.
func (s *Store) SaveIssue(_ context.Context, key addr.Key, iss *model.IssueRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return errs.ErrNotFound
	}
	s.records[key] = model.EncodeIssue(iss)
	return nil
}

// SaveIssueAndUser replaces an issue record and a user record atomically.
func (s *Store) SaveIssueAndUser(_ context.Context, issueKey addr.Key, iss *model.IssueRecord, userKey addr.Key, u *model.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[issueKey]; !ok {
		return errs.ErrNotFound
	}
	if _, ok := s.records[userKey]; !ok {
		return errs.ErrNotFound
	}
	s.records[issueKey] = model.EncodeIssue(iss)
	s.records[userKey] = model.EncodeUser(u)
	return nil
}
