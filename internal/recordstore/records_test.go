package recordstore

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	accessmodels "kycdesk/internal/access/models"
	"kycdesk/internal/kyc/models"
)

var errBackendDown = errors.New("backend down")

// brokenStore fails every operation.
type brokenStore struct{}

func (brokenStore) Put(context.Context, string, []byte) error      { return errBackendDown }
func (brokenStore) Get(context.Context, string) ([]byte, error)    { return nil, errBackendDown }
func (brokenStore) Delete(context.Context, string) error           { return errBackendDown }
func (brokenStore) AppendSubmissionID(context.Context, string) error { return errBackendDown }
func (brokenStore) ListSubmissionIDs(context.Context) ([]string, error) {
	return nil, errBackendDown
}

// countingStore counts Get calls to observe the cache.
type countingStore struct {
	*InMemoryStore
	gets int
}

func (c *countingStore) Get(ctx context.Context, key string) ([]byte, error) {
	c.gets++
	return c.InMemoryStore.Get(ctx, key)
}

// stalledStore parks the first Get of key after it has read the value, so a
// test can land a write between the read and the cache fill.
type stalledStore struct {
	*InMemoryStore
	key     string
	once    sync.Once
	fetched chan struct{}
	release chan struct{}
}

func (s *stalledStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.InMemoryStore.Get(ctx, key)
	if key == s.key {
		s.once.Do(func() {
			close(s.fetched)
			<-s.release
		})
	}
	return v, err
}

type RecordsSuite struct {
	suite.Suite
	ctx     context.Context
	store   *InMemoryStore
	records *Records
}

func TestRecordsSuite(t *testing.T) {
	suite.Run(t, new(RecordsSuite))
}

func (s *RecordsSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
	s.records = NewRecords(s.store)
}

func submission(id string) *models.Submission {
	return &models.Submission{
		ID:           id,
		PersonalInfo: models.PersonalInfo{FirstName: "Ada", LastName: "Lovelace", DocumentType: models.DocumentPassport},
		Status:       models.StatusPending,
		SubmittedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		VerificationResult: &models.VerificationResult{
			IsVerified: true, Score: 0.9, Message: "match",
			Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		},
	}
}

func (s *RecordsSuite) TestSubmissionRoundTrip() {
	sub := submission("verification-1")
	s.Require().True(s.records.SaveSubmission(s.ctx, sub))

	got := s.records.Submission(s.ctx, "verification-1")
	s.Require().NotNil(got)
	s.Equal(*sub.VerificationResult, *got.VerificationResult)
	s.Equal(sub.PersonalInfo, got.PersonalInfo)
	s.Equal(sub.SubmittedAt, got.SubmittedAt)
}

func (s *RecordsSuite) TestSubmissionsSkipsOrphansAndCorruptRecords() {
	s.Require().True(s.records.SaveSubmission(s.ctx, submission("verification-1")))
	s.Require().True(s.records.AppendSubmissionID(s.ctx, "verification-1"))
	s.Require().True(s.records.AppendSubmissionID(s.ctx, "verification-orphan"))
	s.Require().NoError(s.store.Put(s.ctx, "verification-bad", []byte("{not json")))
	s.Require().True(s.records.AppendSubmissionID(s.ctx, "verification-bad"))
	s.Require().True(s.records.SaveSubmission(s.ctx, submission("verification-2")))
	s.Require().True(s.records.AppendSubmissionID(s.ctx, "verification-2"))

	subs := s.records.Submissions(s.ctx)
	s.Require().Len(subs, 2)
	s.Equal("verification-1", subs[0].ID)
	s.Equal("verification-2", subs[1].ID)
}

func (s *RecordsSuite) TestSubmissionIDsEmptyWhenNothingStored() {
	ids := s.records.SubmissionIDs(s.ctx)
	s.NotNil(ids)
	s.Empty(ids)
}

func (s *RecordsSuite) TestImages() {
	s.Require().True(s.records.SaveImage(s.ctx, "verification-1", models.ImageIDFront, "data:image/png;base64,AAAA"))

	img, ok := s.records.Image(s.ctx, "verification-1", models.ImageIDFront)
	s.True(ok)
	s.Equal("data:image/png;base64,AAAA", img)

	raw, err := s.store.Get(s.ctx, "verification-1-id-front")
	s.Require().NoError(err)
	s.Equal("data:image/png;base64,AAAA", string(raw))

	_, ok = s.records.Image(s.ctx, "verification-1", models.ImageFacial)
	s.False(ok)
}

func (s *RecordsSuite) TestDrafts() {
	draft := &models.KycData{PersonalInfo: models.PersonalInfo{FirstName: "Ada"}, FacialImage: "data:x"}
	s.Require().True(s.records.SaveDraft(s.ctx, "session-1", draft))

	got, ok := s.records.Draft(s.ctx, "session-1")
	s.Require().True(ok)
	s.Equal(*draft, *got)

	s.True(s.records.DeleteDraft(s.ctx, "session-1"))
	_, ok = s.records.Draft(s.ctx, "session-1")
	s.False(ok)
}

func (s *RecordsSuite) TestUsersAndRoles() {
	s.Nil(s.records.Users(s.ctx))
	s.Nil(s.records.RolePermissions(s.ctx))

	users := []accessmodels.User{{ID: "u1", Email: "a@example.com", Role: accessmodels.RoleAdmin, Active: true}}
	s.Require().True(s.records.SaveUsers(s.ctx, users))
	s.Equal(users[0].Email, s.records.Users(s.ctx)[0].Email)

	table := accessmodels.DefaultRolePermissions()
	s.Require().True(s.records.SaveRolePermissions(s.ctx, table))
	s.Equal(table, s.records.RolePermissions(s.ctx))
}

func TestRecordsDegradeOnBackendFailure(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	records := NewRecords(brokenStore{}, WithLogger(logger))
	ctx := context.Background()

	assert.False(t, records.SaveSubmission(ctx, submission("verification-1")))
	assert.False(t, records.AppendSubmissionID(ctx, "verification-1"))
	assert.Nil(t, records.Submission(ctx, "verification-1"))
	assert.Empty(t, records.Submissions(ctx))
	assert.Empty(t, records.SubmissionIDs(ctx))
	assert.Nil(t, records.Users(ctx))
	_, ok := records.Draft(ctx, "s")
	assert.False(t, ok)

	assert.Contains(t, logs.String(), "backend down")
}

func TestRecordsCacheInvalidatedOnWrite(t *testing.T) {
	store := &countingStore{InMemoryStore: NewInMemory()}
	records := NewRecords(store, WithCache(8, time.Minute))
	ctx := context.Background()

	sub := submission("verification-1")
	require.True(t, records.SaveSubmission(ctx, sub))

	require.NotNil(t, records.Submission(ctx, "verification-1"))
	require.NotNil(t, records.Submission(ctx, "verification-1"))
	assert.Equal(t, 1, store.gets)

	sub.Status = models.StatusApproved
	require.True(t, records.SaveSubmission(ctx, sub))

	got := records.Submission(ctx, "verification-1")
	require.NotNil(t, got)
	assert.Equal(t, models.StatusApproved, got.Status)
	assert.Equal(t, 2, store.gets)
}

func TestRecordsCacheIgnoresReadOverlappingWrite(t *testing.T) {
	ctx := context.Background()
	store := &stalledStore{
		InMemoryStore: NewInMemory(),
		key:           "verification-1",
		fetched:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	records := NewRecords(store, WithCache(8, time.Minute))

	sub := submission("verification-1")
	require.True(t, records.SaveSubmission(ctx, sub))

	read := make(chan *models.Submission)
	go func() { read <- records.Submission(ctx, "verification-1") }()
	<-store.fetched

	sub.Status = models.StatusApproved
	require.True(t, records.SaveSubmission(ctx, sub))
	close(store.release)

	concurrent := <-read
	require.NotNil(t, concurrent)
	assert.Equal(t, models.StatusPending, concurrent.Status)

	got := records.Submission(ctx, "verification-1")
	require.NotNil(t, got)
	assert.Equal(t, models.StatusApproved, got.Status)
}

func TestSaveSubmissionRejectsMissingID(t *testing.T) {
	records := NewRecords(NewInMemory())
	assert.False(t, records.SaveSubmission(context.Background(), &models.Submission{}))
	assert.False(t, records.SaveSubmission(context.Background(), nil))
}
