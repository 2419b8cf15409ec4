package recordstore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	accessmodels "kycdesk/internal/access/models"
	"kycdesk/internal/kyc/models"
	"kycdesk/pkg/platform/sentinel"
	"kycdesk/pkg/requestcontext"
)

// batchGetter is implemented by backends that can fetch many keys in one round trip.
type batchGetter interface {
	GetMany(ctx context.Context, keys []string) ([][]byte, error)
}

// Records is best-effort typed access to a Store.
//
// Failures never propagate: they are logged and reads degrade to absent or
// empty results, writes report false. Submission reads go through an
// expiring LRU that is invalidated on write.
//
// A read fills the cache only if no submission write started or finished
// since the read began; gen counts those events.
type Records struct {
	store  Store
	logger *slog.Logger
	cache  *expirable.LRU[string, models.Submission]

	mu  sync.Mutex
	gen uint64
}

// Option configures Records.
type Option func(*Records)

// WithLogger sets the logger used for degraded operations.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Records) { r.logger = logger }
}

// WithCache enables the submission read cache.
func WithCache(size int, ttl time.Duration) Option {
	return func(r *Records) {
		if size > 0 {
			r.cache = expirable.NewLRU[string, models.Submission](size, nil, ttl)
		}
	}
}

// NewRecords wraps store.
func NewRecords(store Store, opts ...Option) *Records {
	r := &Records{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store exposes the underlying backend.
func (r *Records) Store() Store { return r.store }

func (r *Records) warn(ctx context.Context, msg, key string, err error) {
	r.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"key", key,
		"error", err,
	)
}

// LoadJSON decodes the value at key into dst. Absent or unreadable values report false.
func (r *Records) LoadJSON(ctx context.Context, key string, dst any) bool {
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			r.warn(ctx, "record read failed", key, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		r.warn(ctx, "record decode failed", key, err)
		return false
	}
	return true
}

// SaveJSON encodes v and writes it under key.
func (r *Records) SaveJSON(ctx context.Context, key string, v any) bool {
	raw, err := json.Marshal(v)
	if err != nil {
		r.warn(ctx, "record encode failed", key, err)
		return false
	}
	if err := r.store.Put(ctx, key, raw); err != nil {
		r.warn(ctx, "record write failed", key, err)
		return false
	}
	return true
}

// Delete removes key, logging failures.
func (r *Records) Delete(ctx context.Context, key string) bool {
	if err := r.store.Delete(ctx, key); err != nil {
		r.warn(ctx, "record delete failed", key, err)
		return false
	}
	return true
}

// -----------------------------------------------------------------------------
// Submissions
// -----------------------------------------------------------------------------

// SaveSubmission writes sub under its ID. It does not touch the ID index.
func (r *Records) SaveSubmission(ctx context.Context, sub *models.Submission) bool {
	if sub == nil || sub.ID == "" {
		return false
	}
	r.invalidate(sub.ID)
	defer r.invalidate(sub.ID)
	return r.SaveJSON(ctx, sub.ID, sub)
}

// AppendSubmissionID adds id to the ordered submission index.
func (r *Records) AppendSubmissionID(ctx context.Context, id string) bool {
	if err := r.store.AppendSubmissionID(ctx, id); err != nil {
		r.warn(ctx, "submission index append failed", KeySubmissionList, err)
		return false
	}
	return true
}

// SubmissionIDs returns the index in insertion order, or empty on failure.
func (r *Records) SubmissionIDs(ctx context.Context) []string {
	ids, err := r.store.ListSubmissionIDs(ctx)
	if err != nil {
		r.warn(ctx, "submission index read failed", KeySubmissionList, err)
		return []string{}
	}
	if ids == nil {
		return []string{}
	}
	return ids
}

// Submission returns the stored submission or nil.
func (r *Records) Submission(ctx context.Context, id string) *models.Submission {
	if r.cache != nil {
		if sub, ok := r.cache.Get(id); ok {
			return &sub
		}
	}
	gen := r.generation()
	var sub models.Submission
	if !r.LoadJSON(ctx, id, &sub) {
		return nil
	}
	r.remember(gen, sub)
	return &sub
}

func (r *Records) generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

func (r *Records) invalidate(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	if r.cache != nil {
		r.cache.Remove(id)
	}
}

// remember caches sub unless a write happened after gen was taken.
func (r *Records) remember(gen uint64, sub models.Submission) {
	if r.cache == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen == gen {
		r.cache.Add(sub.ID, sub)
	}
}

// Submissions loads every indexed submission in index order.
// IDs whose record is missing or unreadable are skipped.
func (r *Records) Submissions(ctx context.Context) []*models.Submission {
	ids := r.SubmissionIDs(ctx)
	out := make([]*models.Submission, 0, len(ids))

	bg, ok := r.store.(batchGetter)
	if !ok {
		for _, id := range ids {
			if sub := r.Submission(ctx, id); sub != nil {
				out = append(out, sub)
			}
		}
		return out
	}

	missing := make([]string, 0, len(ids))
	found := make(map[string]*models.Submission, len(ids))
	for _, id := range ids {
		if r.cache != nil {
			if sub, hit := r.cache.Get(id); hit {
				found[id] = &sub
				continue
			}
		}
		missing = append(missing, id)
	}
	if len(missing) > 0 {
		gen := r.generation()
		values, err := bg.GetMany(ctx, missing)
		if err != nil {
			r.warn(ctx, "batch submission read failed", KeySubmissionList, err)
			values = make([][]byte, len(missing))
		}
		for i, raw := range values {
			if raw == nil {
				continue
			}
			var sub models.Submission
			if err := json.Unmarshal(raw, &sub); err != nil {
				r.warn(ctx, "record decode failed", missing[i], err)
				continue
			}
			r.remember(gen, sub)
			found[missing[i]] = &sub
		}
	}
	for _, id := range ids {
		if sub, ok := found[id]; ok {
			out = append(out, sub)
		}
	}
	return out
}

// SaveImage stores one submission image payload.
func (r *Records) SaveImage(ctx context.Context, submissionID string, kind models.ImageKind, payload string) bool {
	key := ImageKey(submissionID, string(kind))
	if err := r.store.Put(ctx, key, []byte(payload)); err != nil {
		r.warn(ctx, "image write failed", key, err)
		return false
	}
	return true
}

// Image returns one submission image payload.
func (r *Records) Image(ctx context.Context, submissionID string, kind models.ImageKind) (string, bool) {
	key := ImageKey(submissionID, string(kind))
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			r.warn(ctx, "image read failed", key, err)
		}
		return "", false
	}
	return string(raw), true
}

// -----------------------------------------------------------------------------
// Drafts
// -----------------------------------------------------------------------------

// SaveDraft autosaves a wizard draft.
func (r *Records) SaveDraft(ctx context.Context, sessionID string, draft *models.KycData) bool {
	return r.SaveJSON(ctx, DraftKey(sessionID), draft)
}

// Draft loads a wizard draft.
func (r *Records) Draft(ctx context.Context, sessionID string) (*models.KycData, bool) {
	var d models.KycData
	if !r.LoadJSON(ctx, DraftKey(sessionID), &d) {
		return nil, false
	}
	return &d, true
}

// DeleteDraft removes a wizard draft.
func (r *Records) DeleteDraft(ctx context.Context, sessionID string) bool {
	return r.Delete(ctx, DraftKey(sessionID))
}

// -----------------------------------------------------------------------------
// Users and roles
// -----------------------------------------------------------------------------

// Users returns the stored admin user list, or nil when absent.
func (r *Records) Users(ctx context.Context) []accessmodels.User {
	var users []accessmodels.User
	if !r.LoadJSON(ctx, KeyUsers, &users) {
		return nil
	}
	return users
}

// SaveUsers replaces the admin user list.
func (r *Records) SaveUsers(ctx context.Context, users []accessmodels.User) bool {
	return r.SaveJSON(ctx, KeyUsers, users)
}

// RolePermissions returns the stored role table, or nil when absent.
func (r *Records) RolePermissions(ctx context.Context) []accessmodels.RolePermissions {
	var table []accessmodels.RolePermissions
	if !r.LoadJSON(ctx, KeyRolePermissions, &table) {
		return nil
	}
	return table
}

// SaveRolePermissions replaces the role table.
func (r *Records) SaveRolePermissions(ctx context.Context, table []accessmodels.RolePermissions) bool {
	return r.SaveJSON(ctx, KeyRolePermissions, table)
}
