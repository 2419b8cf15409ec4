// Package submission manages persisted applications and their review status.
package submission

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"kycdesk/internal/events"
	"kycdesk/internal/kyc/models"
	"kycdesk/internal/recordstore"
	dErrors "kycdesk/pkg/domain-errors"
	"kycdesk/pkg/requestcontext"
)

const idPrefix = "verification-"

// Service persists submissions through the best-effort record store.
type Service struct {
	records   *recordstore.Records
	publisher events.Publisher
	logger    *slog.Logger
	newID     func() string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithIDGenerator overrides submission ID generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// New constructs a Service.
func New(records *recordstore.Records, opts ...Option) *Service {
	s := &Service{
		records: records,
		logger:  slog.Default(),
		newID:   func() string { return idPrefix + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create persists draft as a new pending submission and indexes it.
//
// The record and images are written before the index entry. These are separate
// writes, so a failure between them leaves an unindexed record behind. It
// returns false when the submission record itself could not be written.
func (s *Service) Create(ctx context.Context, draft *models.KycData, result *models.VerificationResult) (*models.Submission, bool) {
	if draft == nil {
		return nil, false
	}
	sub := &models.Submission{
		ID:                 s.newID(),
		PersonalInfo:       draft.PersonalInfo,
		VerificationResult: result,
		SubmittedAt:        requestcontext.Now(ctx).UTC(),
		Status:             models.StatusPending,
		Client:             clientInfo(ctx),
	}

	for _, kind := range []models.ImageKind{models.ImageIDFront, models.ImageIDBack, models.ImageFacial} {
		payload := draft.Image(kind)
		if payload == "" {
			continue
		}
		if s.records.SaveImage(ctx, sub.ID, kind, payload) {
			switch kind {
			case models.ImageIDFront:
				sub.HasIDFront = true
			case models.ImageIDBack:
				sub.HasIDBack = true
			case models.ImageFacial:
				sub.HasFacialImage = true
			}
		}
	}

	if !s.records.SaveSubmission(ctx, sub) {
		return nil, false
	}
	if !s.records.AppendSubmissionID(ctx, sub.ID) {
		s.logger.WarnContext(ctx, "submission saved but not indexed",
			"request_id", requestcontext.RequestID(ctx),
			"submission_id", sub.ID,
		)
	}

	attrs := map[string]string{"document_type": string(sub.PersonalInfo.DocumentType)}
	if result != nil {
		attrs["verified"] = strconv.FormatBool(result.IsVerified)
	}
	s.publish(ctx, events.SubmissionCreated, sub.ID, attrs)
	s.logger.InfoContext(ctx, "submission created",
		"request_id", requestcontext.RequestID(ctx),
		"submission_id", sub.ID,
	)
	return sub, true
}

// Get returns the submission or nil when unknown.
func (s *Service) Get(ctx context.Context, id string) *models.Submission {
	return s.records.Submission(ctx, id)
}

// List returns every indexed submission in submission order.
func (s *Service) List(ctx context.Context) []*models.Submission {
	return s.records.Submissions(ctx)
}

// Images returns the stored image payloads of a submission keyed by kind.
func (s *Service) Images(ctx context.Context, id string) map[models.ImageKind]string {
	out := make(map[models.ImageKind]string, 3)
	for _, kind := range []models.ImageKind{models.ImageIDFront, models.ImageIDBack, models.ImageFacial} {
		if img, ok := s.records.Image(ctx, id, kind); ok {
			out[kind] = img
		}
	}
	return out
}

// SetStatus moves a submission to status. It reports false, leaving the store
// unchanged, when the ID is unknown, the transition is refused, or the write fails.
func (s *Service) SetStatus(ctx context.Context, id string, status models.Status) bool {
	sub := s.records.Submission(ctx, id)
	if sub == nil {
		return false
	}
	previous := sub.Status
	if err := sub.ApplyStatus(status); err != nil {
		s.logger.WarnContext(ctx, "status change refused",
			"request_id", requestcontext.RequestID(ctx),
			"submission_id", id,
			"error", err,
		)
		return false
	}
	if !s.records.SaveSubmission(ctx, sub) {
		return false
	}
	s.publish(ctx, events.SubmissionStatusChanged, id, map[string]string{
		"from": string(previous),
		"to":   string(status),
	})
	s.logger.InfoContext(ctx, "submission status changed",
		"request_id", requestcontext.RequestID(ctx),
		"submission_id", id,
		"from", previous,
		"to", status,
	)
	return true
}

// Search filters then paginates the stored submissions.
func (s *Service) Search(ctx context.Context, f Filter, page int) Page {
	return Paginate(f.Apply(s.List(ctx)), page, DefaultPerPage)
}

// Stats summarizes the stored submissions as of the request time.
func (s *Service) Stats(ctx context.Context) Stats {
	return ComputeStats(s.List(ctx), requestcontext.Now(ctx))
}

// FindDuplicates returns stored submissions with the same name and document type.
func (s *Service) FindDuplicates(ctx context.Context, info models.PersonalInfo) []*models.Submission {
	return FindDuplicates(s.List(ctx), info)
}

// ExportDocument is the downloadable form of a submission.
type ExportDocument struct {
	Submission *models.Submission           `json:"submission"`
	Images     map[models.ImageKind]string `json:"images,omitempty"`
}

// Export renders a submission with its images as indented JSON.
func (s *Service) Export(ctx context.Context, id string) ([]byte, error) {
	sub := s.Get(ctx, id)
	if sub == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "submission not found")
	}
	body, err := json.MarshalIndent(ExportDocument{Submission: sub, Images: s.Images(ctx, id)}, "", "  ")
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode submission")
	}
	return body, nil
}

func (s *Service) publish(ctx context.Context, t events.Type, subject string, attrs map[string]string) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, events.Event{
		Type:       t,
		SubjectID:  subject,
		ActorID:    requestcontext.UserID(ctx),
		RequestID:  requestcontext.RequestID(ctx),
		OccurredAt: requestcontext.Now(ctx).UTC(),
		Attributes: attrs,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "event publish failed",
			"request_id", requestcontext.RequestID(ctx),
			"event_type", t,
			"error", err,
		)
	}
}

// clientInfo derives browser and OS from the submitting User-Agent.
func clientInfo(ctx context.Context) *models.ClientInfo {
	raw := requestcontext.UserAgent(ctx)
	ip := requestcontext.ClientIP(ctx)
	if raw == "" && ip == "" {
		return nil
	}
	info := &models.ClientInfo{IP: ip}
	if raw != "" {
		ua := useragent.New(raw)
		name, version := ua.Browser()
		info.Browser = joinNonEmpty(name, version)
		info.OS = ua.OS()
		info.Mobile = ua.Mobile()
	}
	return info
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}
