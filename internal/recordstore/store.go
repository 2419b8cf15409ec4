// Package recordstore persists KYC records as opaque values under string keys.
//
// Store is the raw key/value contract implemented by each backend. Records
// layers typed, best-effort JSON access and a read cache on top of it.
package recordstore

import (
	"context"
)

// Well-known keys.
const (
	KeySubmissionList  = "verifications-list"
	KeyUsers           = "kyc-users"
	KeyRolePermissions = "kyc-role-permissions"

	draftKeyPrefix = "kyc-draft-"
)

// Store is a key/value backend. Get returns sentinel.ErrNotFound for absent keys.
// Implementations are safe for concurrent use; concurrent writers to one key
// resolve as last write wins.
type Store interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	AppendSubmissionID(ctx context.Context, id string) error
	ListSubmissionIDs(ctx context.Context) ([]string, error)
}

// DraftKey is the autosave key for a wizard session.
func DraftKey(sessionID string) string {
	return draftKeyPrefix + sessionID
}

// ImageKey is the key holding one image of a submission.
func ImageKey(submissionID, kind string) string {
	return submissionID + "-" + kind
}
