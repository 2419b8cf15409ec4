// Package contract holds behavioural checks every provider implementation must pass.
package contract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycdesk/internal/kyc/models"
	"kycdesk/internal/verification/providers"
)

// FaceComparerSuite validates a FaceComparer against a matching image pair.
type FaceComparerSuite struct {
	Comparer  providers.FaceComparer
	IDImage   string
	FaceImage string
}

// Run executes the comparer checks.
func (s *FaceComparerSuite) Run(t *testing.T) {
	t.Run("declares an id", func(t *testing.T) {
		assert.NotEmpty(t, s.Comparer.ID())
	})

	t.Run("score within unit interval", func(t *testing.T) {
		cmp, err := s.Comparer.Compare(context.Background(), s.IDImage, s.FaceImage)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, cmp.Score, 0.0)
		assert.LessOrEqual(t, cmp.Score, 1.0)
		assert.NotEmpty(t, cmp.Explanation)
	})

	t.Run("cancelled context fails", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.Comparer.Compare(ctx, s.IDImage, s.FaceImage)
		require.Error(t, err)
		assert.NotEqual(t, providers.CategoryInternal, providers.CategoryOf(err))
	})
}

// TextExtractorSuite validates a TextExtractor for every document type.
type TextExtractorSuite struct {
	Extractor providers.TextExtractor
	Image     string
}

// Run executes the extractor checks.
func (s *TextExtractorSuite) Run(t *testing.T) {
	for _, docType := range []models.DocumentType{
		models.DocumentNationalID, models.DocumentPassport, models.DocumentDrivingLicense,
	} {
		t.Run(string(docType), func(t *testing.T) {
			ext, err := s.Extractor.Extract(context.Background(), s.Image, docType)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, ext.Confidence, 0.0)
			assert.LessOrEqual(t, ext.Confidence, 1.0)
			assert.NotEmpty(t, ext.Fields["name"])
			assert.NotEmpty(t, ext.IDNumber())
		})
	}

	t.Run("deterministic for the same image", func(t *testing.T) {
		a, err := s.Extractor.Extract(context.Background(), s.Image, models.DocumentPassport)
		require.NoError(t, err)
		b, err := s.Extractor.Extract(context.Background(), s.Image, models.DocumentPassport)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}
