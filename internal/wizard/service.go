// Package wizard drives the six-stage intake flow: personal info, the three
// image captures, review with verification, and completion.
package wizard

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Verifier,Submitter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"kycdesk/internal/kyc/images"
	"kycdesk/internal/kyc/models"
	"kycdesk/internal/verification"
	dErrors "kycdesk/pkg/domain-errors"
	"kycdesk/pkg/requestcontext"
)

const (
	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
	outcomeError     = "error"
)

// Verifier scores a complete draft.
type Verifier interface {
	Verify(ctx context.Context, draft *models.KycData) (*models.VerificationResult, error)
}

// Submitter persists verified drafts and answers the duplicate check.
type Submitter interface {
	FindDuplicates(ctx context.Context, info models.PersonalInfo) []*models.Submission
	Create(ctx context.Context, draft *models.KycData, result *models.VerificationResult) (*models.Submission, bool)
}

// DraftStore autosaves drafts so an expired session can be resumed.
type DraftStore interface {
	SaveDraft(ctx context.Context, sessionID string, draft *models.KycData) bool
	Draft(ctx context.Context, sessionID string) (*models.KycData, bool)
	DeleteDraft(ctx context.Context, sessionID string) bool
}

// Export is a downloadable copy of a draft.
type Export struct {
	FileName string
	Body     []byte
}

// Service owns the wizard sessions.
type Service struct {
	verifier  Verifier
	submitter Submitter
	drafts    DraftStore
	sessions  *registry
	logger    *slog.Logger
	metrics   *Metrics
	newID     func() string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithSessionLimits bounds the in-memory registry. A size of zero is unbounded.
func WithSessionLimits(size int, ttl time.Duration) Option {
	return func(s *Service) { s.sessions = newRegistry(size, ttl) }
}

// WithIDGenerator overrides session ID generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// New constructs a Service.
func New(verifier Verifier, submitter Submitter, drafts DraftStore, opts ...Option) *Service {
	s := &Service{
		verifier:  verifier,
		submitter: submitter,
		drafts:    drafts,
		logger:    slog.Default(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = newRegistry(0, time.Hour)
	}
	return s
}

var (
	errRestartRequired = dErrors.New(dErrors.CodeConflict, "verification failed; restart the wizard to try again")
	errVerifying       = dErrors.New(dErrors.CodeConflict, "a verification is already in progress")
	errCompleted       = dErrors.New(dErrors.CodeConflict, "the application has been submitted; restart to begin a new one")
)

// Start opens a new wizard on the personal info stage.
func (s *Service) Start(ctx context.Context) *State {
	sess := &session{id: s.newID(), updatedAt: requestcontext.Now(ctx).UTC()}
	s.sessions.put(sess)
	s.metrics.started()
	s.logger.InfoContext(ctx, "wizard started",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", sess.id,
	)
	return sess.snapshot()
}

// Get returns the wizard state. A session that expired from memory is resumed
// from its autosaved draft on the first stage.
func (s *Service) Get(ctx context.Context, id string) (*State, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(), nil
}

// UpdatePersonalInfo replaces the personal info of the draft. Completeness is
// checked when leaving the stage, so partial forms can be saved.
func (s *Service) UpdatePersonalInfo(ctx context.Context, id string, info models.PersonalInfo) (*State, error) {
	info.Normalize()
	if info.DocumentType != "" && !info.DocumentType.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "document_type must be one of national-id, passport, driving-license")
	}
	return s.mutate(ctx, id, func(sess *session) error {
		if sess.stage != StagePersonalInfo {
			return dErrors.New(dErrors.CodeConflict, "personal info can only be edited on the personal_info stage")
		}
		sess.draft.PersonalInfo = info
		return nil
	})
}

// AttachImage stores an uploaded image on the stage that captures it. The
// payload must be a JPEG or PNG of at most 5MB, as a data URL or raw base64.
func (s *Service) AttachImage(ctx context.Context, id string, kind models.ImageKind, payload string) (*State, error) {
	want, ok := captureStage(kind)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown image kind: "+string(kind))
	}
	img, err := images.DecodeUpload(payload)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(sess *session) error {
		if sess.stage != want {
			return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("%s image can only be attached on the %s stage", kind, want))
		}
		sess.draft.SetImage(kind, img.DataURL())
		return nil
	})
}

// Next advances one stage once the current stage is complete. From review it submits.
func (s *Service) Next(ctx context.Context, id string) (*State, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	if sess.stage == StageReview {
		sess.mu.Unlock()
		return s.Submit(ctx, id)
	}
	sess.mu.Unlock()

	return s.mutate(ctx, id, func(sess *session) error {
		if sess.stage == StageComplete {
			return errCompleted
		}
		if err := stageComplete(sess.stage, &sess.draft); err != nil {
			return err
		}
		sess.stage = clamp(sess.stage + 1)
		return nil
	})
}

// Previous moves back one stage. A completed application cannot be reopened.
func (s *Service) Previous(ctx context.Context, id string) (*State, error) {
	return s.mutate(ctx, id, func(sess *session) error {
		if sess.stage == StageComplete {
			return errCompleted
		}
		sess.stage = clamp(sess.stage - 1)
		return nil
	})
}

// Submit runs verification on the review stage and persists the result.
//
// A score below the verification threshold leaves the wizard on review in the
// failed state, where only Restart is accepted. Verification errors leave the
// wizard unchanged so the applicant can retry.
func (s *Service) Submit(ctx context.Context, id string) (*State, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	switch {
	case sess.verifying:
		sess.mu.Unlock()
		return nil, errVerifying
	case sess.failed:
		sess.mu.Unlock()
		return nil, errRestartRequired
	case sess.stage != StageReview:
		stage := sess.stage
		sess.mu.Unlock()
		return nil, dErrors.New(dErrors.CodeConflict, "submit is only available on the review stage, not "+stage.String())
	}
	sess.verifying = true
	draft := sess.draft
	sess.mu.Unlock()

	defer func() {
		sess.mu.Lock()
		sess.verifying = false
		sess.mu.Unlock()
	}()

	if dups := s.submitter.FindDuplicates(ctx, draft.PersonalInfo); len(dups) > 0 {
		s.logger.WarnContext(ctx, "possible duplicate submission",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", id,
			"document_type", draft.PersonalInfo.DocumentType,
			"matches", len(dups),
		)
	}

	result, err := s.verifier.Verify(ctx, &draft)
	if err != nil {
		s.metrics.submit(outcomeError)
		s.logger.WarnContext(ctx, "wizard verification failed",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", id,
			"error", err,
		)
		return nil, err
	}
	draft.VerificationResult = result

	sub, ok := s.submitter.Create(ctx, &draft, result)
	if !ok {
		s.metrics.submit(outcomeError)
		return nil, dErrors.New(dErrors.CodeStorage, "the application could not be saved; please try again")
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.draft.VerificationResult = result
	sess.submissionID = sub.ID
	sess.updatedAt = requestcontext.Now(ctx).UTC()
	if result.Score < verification.VerifiedThreshold {
		sess.failed = true
		sess.notice = lowScoreNotice(result.Score)
		s.metrics.submit(outcomeFailed)
	} else {
		sess.stage = StageComplete
		s.metrics.submit(outcomeCompleted)
	}
	s.autosave(ctx, sess)
	s.sessions.put(sess)

	s.logger.InfoContext(ctx, "wizard submitted",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", id,
		"submission_id", sub.ID,
		"score", result.Score,
		"failed", sess.failed,
	)
	return sess.snapshot(), nil
}

// Restart returns the wizard to the first stage with an empty draft.
func (s *Service) Restart(ctx context.Context, id string) (*State, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.verifying {
		return nil, errVerifying
	}
	sess.reset(requestcontext.Now(ctx).UTC())
	if !s.drafts.DeleteDraft(ctx, id) {
		s.logger.WarnContext(ctx, "failed to discard draft",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", id,
		)
	}
	s.sessions.put(sess)
	return sess.snapshot(), nil
}

// Export renders the full draft, images included, as a JSON download.
func (s *Service) Export(ctx context.Context, id string) (*Export, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	body, err := json.MarshalIndent(sess.draft, "", "  ")
	sess.mu.Unlock()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode draft")
	}
	return &Export{
		FileName: fmt.Sprintf("kyc-verification-%d.json", requestcontext.Now(ctx).UnixMilli()),
		Body:     body,
	}, nil
}

// ActiveSessions reports how many wizards are held in memory.
func (s *Service) ActiveSessions() int {
	return s.sessions.len()
}

// mutate applies fn under the session lock, refusing while a verification runs
// or after a failed one, then autosaves the draft.
func (s *Service) mutate(ctx context.Context, id string, fn func(*session) error) (*State, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.verifying {
		return nil, errVerifying
	}
	if sess.failed {
		return nil, errRestartRequired
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.updatedAt = requestcontext.Now(ctx).UTC()
	s.autosave(ctx, sess)
	s.sessions.put(sess)
	return sess.snapshot(), nil
}

// autosave must be called with sess.mu held.
func (s *Service) autosave(ctx context.Context, sess *session) {
	draft := sess.draft
	if !s.drafts.SaveDraft(ctx, sess.id, &draft) {
		s.logger.WarnContext(ctx, "draft autosave failed",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", sess.id,
		)
	}
}

func (s *Service) lookup(ctx context.Context, id string) (*session, error) {
	if sess, ok := s.sessions.get(id); ok {
		return sess, nil
	}
	draft, ok := s.drafts.Draft(ctx, id)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "wizard session not found")
	}
	sess := &session{id: id, draft: *draft, updatedAt: requestcontext.Now(ctx).UTC()}
	// A verified draft must not be resubmitted without a restart.
	if vr := draft.VerificationResult; vr != nil {
		if vr.Score < verification.VerifiedThreshold {
			sess.stage = StageReview
			sess.failed = true
			sess.notice = lowScoreNotice(vr.Score)
		} else {
			sess.stage = StageComplete
		}
	}
	live, resumed := s.sessions.adopt(sess)
	if resumed {
		s.logger.InfoContext(ctx, "wizard resumed from draft",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", id,
		)
	}
	return live, nil
}

func lowScoreNotice(score float64) string {
	return fmt.Sprintf("The facial comparison score is too low (%.2f). Please retake your photos and try again.", score)
}

func captureStage(kind models.ImageKind) (Stage, bool) {
	switch kind {
	case models.ImageIDFront:
		return StageIDFront, true
	case models.ImageIDBack:
		return StageIDBack, true
	case models.ImageFacial:
		return StageFacial, true
	}
	return 0, false
}

// stageComplete reports whether the draft carries what stage collects.
func stageComplete(stage Stage, draft *models.KycData) error {
	switch stage {
	case StagePersonalInfo:
		return draft.PersonalInfo.Validate()
	case StageIDFront:
		return requireImage(draft, models.ImageIDFront)
	case StageIDBack:
		return requireImage(draft, models.ImageIDBack)
	case StageFacial:
		return requireImage(draft, models.ImageFacial)
	}
	return nil
}

func requireImage(draft *models.KycData, kind models.ImageKind) error {
	if draft.Image(kind) == "" {
		return dErrors.New(dErrors.CodeValidation, string(kind)+" image is required")
	}
	return nil
}
