// Package model defines the registry's record types and their persisted encoding.
package model

import "encoding/hex"

// Address is an opaque 32-byte identity handle for a user wallet.
type Address [32]byte

// String returns the hex form used in logs and error context.
func (a Address) String() string { return hex.EncodeToString(a[:]) }

// IssueHash is the 32-byte content fingerprint identifying an issue.
type IssueHash [32]byte

func (h IssueHash) String() string { return hex.EncodeToString(h[:]) }

// Role classifies a user at creation time. It never changes afterwards.
type Role uint8

const (
	RoleCitizen Role = iota
	RoleGovernment
)

func (r Role) String() string {
	switch r {
	case RoleCitizen:
		return "citizen"
	case RoleGovernment:
		return "government"
	}
	return "unknown"
}

// IssueStatus is the lifecycle state of an issue. The only transition the
// registry enforces on its own is the auto-close once an issue collects
// enough verifications; everything else is caller-driven.
type IssueStatus uint8

const (
	StatusOpen IssueStatus = iota
	StatusInProgress
	StatusResolved
	StatusClosed
)

func (s IssueStatus) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusInProgress:
		return "in_progress"
	case StatusResolved:
		return "resolved"
	case StatusClosed:
		return "closed"
	}
	return "unknown"
}

// IssueCategory labels what kind of civic problem was reported.
type IssueCategory uint8

const (
	CategoryPothole IssueCategory = iota
	CategoryGarbage
	CategoryStreetlight
	CategoryWater
	CategoryOther
)

func (c IssueCategory) String() string {
	switch c {
	case CategoryPothole:
		return "pothole"
	case CategoryGarbage:
		return "garbage"
	case CategoryStreetlight:
		return "streetlight"
	case CategoryWater:
		return "water"
	case CategoryOther:
		return "other"
	}
	return "unknown"
}

// VoteType selects which counter RecordVote bumps. Never persisted.
type VoteType uint8

const (
	Upvote VoteType = iota
	Downvote
)

func (v VoteType) String() string {
	if v == Downvote {
		return "downvote"
	}
	return "upvote"
}

// UserRecord is the per-wallet account. Counters only ever increase.
type UserRecord struct {
	WalletAddress      Address
	Reputation         uint32
	Role               Role
	TotalIssues        uint32
	TotalVerifications uint32
	CreatedAt          int64 // unix seconds, set once
	AddressNonce       uint8 // fixed at creation, proves canonical derivation
}

// IssueRecord is the per-issue account. Reporter is a lookup reference,
// not embedded data.
type IssueRecord struct {
	IssueHash     IssueHash
	Reporter      Address
	Status        IssueStatus
	Category      IssueCategory
	Priority      uint8
	Upvotes       uint32
	Downvotes     uint32
	Verifications uint32
	CreatedAt     int64 // unix seconds, set once
	UpdatedAt     int64 // refreshed on every mutation
	AddressNonce  uint8
}
