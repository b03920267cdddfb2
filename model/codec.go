package model

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Records are persisted in a fixed-width little-endian layout, fields in
// declared order with no padding, prefixed by an 8-byte kind tag. The layout
// must stay bit-exact: existing stored records are decoded against it.
const (
	tagLen = 8

	// EncodedUserLen is tag + wallet(32) + reputation(4) + role(1) +
	// totalIssues(4) + totalVerifications(4) + createdAt(8) + nonce(1).
	EncodedUserLen = tagLen + 32 + 4 + 1 + 4 + 4 + 8 + 1

	// EncodedIssueLen is tag + hash(32) + reporter(32) + status(1) +
	// category(1) + priority(1) + upvotes(4) + downvotes(4) +
	// verifications(4) + createdAt(8) + updatedAt(8) + nonce(1).
	EncodedIssueLen = tagLen + 32 + 32 + 1 + 1 + 1 + 4 + 4 + 4 + 8 + 8 + 1
)

// Kind tags are the first 8 bytes of a domain-separated BLAKE2b-256 digest,
// so the two record kinds can never be confused in storage.
var (
	userTag  = kindTag("civicchain/record/user/v1")
	issueTag = kindTag("civicchain/record/issue/v1")
)

func kindTag(domain string) [tagLen]byte {
	sum := blake2b.Sum256(append([]byte(domain), 0x00))
	var tag [tagLen]byte
	copy(tag[:], sum[:tagLen])
	return tag
}

// EncodeUser serializes a user record.
func EncodeUser(u *UserRecord) []byte {
	buf := make([]byte, 0, EncodedUserLen)
	buf = append(buf, userTag[:]...)
	buf = append(buf, u.WalletAddress[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, u.Reputation)
	buf = append(buf, byte(u.Role))
	buf = binary.LittleEndian.AppendUint32(buf, u.TotalIssues)
	buf = binary.LittleEndian.AppendUint32(buf, u.TotalVerifications)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(u.CreatedAt))
	buf = append(buf, u.AddressNonce)
	return buf
}

// DecodeUser deserializes a user record, rejecting payloads of the wrong
// kind or length.
func DecodeUser(data []byte) (*UserRecord, error) {
	if len(data) != EncodedUserLen {
		return nil, fmt.Errorf("user record: want %d bytes, got %d", EncodedUserLen, len(data))
	}
	if !bytes.Equal(data[:tagLen], userTag[:]) {
		return nil, fmt.Errorf("user record: kind tag mismatch")
	}
	var u UserRecord
	p := data[tagLen:]
	copy(u.WalletAddress[:], p[:32])
	u.Reputation = binary.LittleEndian.Uint32(p[32:])
	u.Role = Role(p[36])
	u.TotalIssues = binary.LittleEndian.Uint32(p[37:])
	u.TotalVerifications = binary.LittleEndian.Uint32(p[41:])
	u.CreatedAt = int64(binary.LittleEndian.Uint64(p[45:]))
	u.AddressNonce = p[53]
	return &u, nil
}

// EncodeIssue serializes an issue record.
func EncodeIssue(iss *IssueRecord) []byte {
	buf := make([]byte, 0, EncodedIssueLen)
	buf = append(buf, issueTag[:]...)
	buf = append(buf, iss.IssueHash[:]...)
	buf = append(buf, iss.Reporter[:]...)
	buf = append(buf, byte(iss.Status), byte(iss.Category), iss.Priority)
	buf = binary.LittleEndian.AppendUint32(buf, iss.Upvotes)
	buf = binary.LittleEndian.AppendUint32(buf, iss.Downvotes)
	buf = binary.LittleEndian.AppendUint32(buf, iss.Verifications)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(iss.CreatedAt))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(iss.UpdatedAt))
	buf = append(buf, iss.AddressNonce)
	return buf
}

// DecodeIssue deserializes an issue record, rejecting payloads of the wrong
// kind or length.
func DecodeIssue(data []byte) (*IssueRecord, error) {
	if len(data) != EncodedIssueLen {
		return nil, fmt.Errorf("issue record: want %d bytes, got %d", EncodedIssueLen, len(data))
	}
	if !bytes.Equal(data[:tagLen], issueTag[:]) {
		return nil, fmt.Errorf("issue record: kind tag mismatch")
	}
	var iss IssueRecord
	p := data[tagLen:]
	copy(iss.IssueHash[:], p[:32])
	copy(iss.Reporter[:], p[32:64])
	iss.Status = IssueStatus(p[64])
	iss.Category = IssueCategory(p[65])
	iss.Priority = p[66]
	iss.Upvotes = binary.LittleEndian.Uint32(p[67:])
	iss.Downvotes = binary.LittleEndian.Uint32(p[71:])
	iss.Verifications = binary.LittleEndian.Uint32(p[75:])
	iss.CreatedAt = int64(binary.LittleEndian.Uint64(p[79:]))
	iss.UpdatedAt = int64(binary.LittleEndian.Uint64(p[87:]))
	iss.AddressNonce = p[95]
	return &iss, nil
}
