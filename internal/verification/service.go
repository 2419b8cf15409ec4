// Package verification turns a completed intake draft into a verification result
// by combining document text extraction with face comparison.
package verification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"kycdesk/internal/kyc/models"
	"kycdesk/internal/verification/providers"
	dErrors "kycdesk/pkg/domain-errors"
	"kycdesk/pkg/requestcontext"
)

// VerifiedThreshold is the face match score a result must exceed to count as verified.
const VerifiedThreshold = 0.45

const (
	outcomeVerified    = "verified"
	outcomeNotVerified = "not_verified"
	outcomeError       = "error"
)

// IsVerified applies the fixed threshold. The comparison is exclusive.
func IsVerified(score float64) bool {
	return score > VerifiedThreshold
}

// OCR extracts document text.
type OCR interface {
	Extract(ctx context.Context, image string, docType models.DocumentType) (*providers.Extraction, error)
}

// FaceMatcher compares the document photo with the facial image.
type FaceMatcher interface {
	Compare(ctx context.Context, idImage, faceImage string) (*providers.Comparison, error)
}

// Service runs verifications. It holds no per-call state.
type Service struct {
	ocr     OCR
	faces   FaceMatcher
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// New constructs a Service.
func New(ocr OCR, faces FaceMatcher, opts ...Option) (*Service, error) {
	if ocr == nil {
		return nil, errors.New("ocr provider is required")
	}
	if faces == nil {
		return nil, errors.New("face matcher is required")
	}
	s := &Service{
		ocr:    ocr,
		faces:  faces,
		logger: slog.Default(),
		tracer: otel.Tracer("kycdesk/verification"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Verify extracts document text, compares faces and builds the result.
//
// Missing inputs fail with CodeValidation before any provider is called. Any
// provider failure fails with CodeVerificationFailed; no partial result is
// returned and nothing is retried.
func (s *Service) Verify(ctx context.Context, draft *models.KycData) (*models.VerificationResult, error) {
	start := time.Now()
	requestID := requestcontext.RequestID(ctx)

	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "verification.Verify",
		trace.WithAttributes(attribute.String("kyc.document_type", string(draft.PersonalInfo.DocumentType))))
	defer span.End()

	extraction, err := s.extract(ctx, draft)
	if err != nil {
		return nil, s.fail(ctx, span, start, "Text extraction failed", err)
	}

	comparison, err := s.compare(ctx, draft)
	if err != nil {
		return nil, s.fail(ctx, span, start, "Face comparison failed", err)
	}

	result := &models.VerificationResult{
		IsVerified: IsVerified(comparison.Score),
		Score:      comparison.Score,
		Message:    comparison.Explanation,
		Timestamp:  requestcontext.Now(ctx),
		OcrData: &models.OcrData{
			ExtractedName:     extraction.Fields["name"],
			ExtractedDOB:      extraction.Fields["dob"],
			ExtractedIDNumber: extraction.IDNumber(),
			ExtractedAddress:  extraction.Fields["address"],
			ExtractedExpiry:   extraction.Fields["expiry"],
			Confidence:        extraction.Confidence,
		},
	}

	outcome := outcomeNotVerified
	if result.IsVerified {
		outcome = outcomeVerified
	}
	s.metrics.observe(outcome, result.Score, start)
	span.SetAttributes(
		attribute.Float64("kyc.score", result.Score),
		attribute.Bool("kyc.verified", result.IsVerified),
	)
	s.logger.InfoContext(ctx, "verification completed",
		"request_id", requestID,
		"score", result.Score,
		"verified", result.IsVerified,
		"document_type", draft.PersonalInfo.DocumentType,
	)
	return result, nil
}

func (s *Service) extract(ctx context.Context, draft *models.KycData) (*providers.Extraction, error) {
	ctx, span := s.tracer.Start(ctx, "verification.ocr")
	defer span.End()
	ext, err := s.ocr.Extract(ctx, draft.IDFrontImage, draft.PersonalInfo.DocumentType)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if ext == nil {
		return nil, errors.New("text extractor returned no result")
	}
	span.SetAttributes(attribute.Float64("kyc.ocr_confidence", ext.Confidence))
	return ext, nil
}

func (s *Service) compare(ctx context.Context, draft *models.KycData) (*providers.Comparison, error) {
	ctx, span := s.tracer.Start(ctx, "verification.face_compare")
	defer span.End()
	cmp, err := s.faces.Compare(ctx, draft.IDFrontImage, draft.FacialImage)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if cmp == nil {
		return nil, errors.New("face matcher returned no result")
	}
	return cmp, nil
}

func (s *Service) fail(ctx context.Context, span trace.Span, start time.Time, msg string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	s.metrics.observe(outcomeError, 0, start)
	s.logger.ErrorContext(ctx, "verification failed",
		"request_id", requestcontext.RequestID(ctx),
		"stage", msg,
		"category", providers.CategoryOf(err),
		"error", err,
	)
	return dErrors.Wrap(err, dErrors.CodeVerificationFailed, msg+": "+err.Error())
}

func validateDraft(draft *models.KycData) error {
	switch {
	case draft == nil || !draft.PersonalInfo.IsPresent():
		return dErrors.New(dErrors.CodeValidation, "Missing required verification data: personal information")
	case draft.IDFrontImage == "":
		return dErrors.New(dErrors.CodeValidation, "Missing required verification data: ID front image")
	case draft.IDBackImage == "":
		return dErrors.New(dErrors.CodeValidation, "Missing required verification data: ID back image")
	case draft.FacialImage == "":
		return dErrors.New(dErrors.CodeValidation, "Missing required verification data: facial image")
	}
	return nil
}
