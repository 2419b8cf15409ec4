package ocr

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycdesk/internal/kyc/models"
	"kycdesk/internal/verification/providers"
	"kycdesk/internal/verification/providers/contract"
)

var frontImage = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("\xff\xd8\xff\xe0front"))

func TestFixtureContract(t *testing.T) {
	suite := contract.TextExtractorSuite{Extractor: New(), Image: frontImage}
	suite.Run(t)
}

func TestFixtureFieldsPerDocumentType(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		docType  models.DocumentType
		idNumber string
		address  string
	}{
		{models.DocumentNationalID, "ID-12345678", "123 MAIN ST, ANYTOWN, ST 12345"},
		{models.DocumentPassport, "P12345678", ""},
		{models.DocumentDrivingLicense, "DL987654321", "123 MAIN ST, ANYTOWN, ST 12345"},
	}
	for _, tt := range tests {
		t.Run(string(tt.docType), func(t *testing.T) {
			ext, err := New().Extract(ctx, frontImage, tt.docType)
			require.NoError(t, err)
			assert.Equal(t, tt.idNumber, ext.IDNumber())
			assert.Equal(t, tt.address, ext.Fields["address"])
			assert.GreaterOrEqual(t, ext.Confidence, 0.7)
			assert.Less(t, ext.Confidence, 0.95)
		})
	}
}

func TestFixtureRejectsUnreadableImage(t *testing.T) {
	_, err := New().Extract(context.Background(), "data:image/png;base64,!!", models.DocumentPassport)
	require.Error(t, err)
	assert.Equal(t, providers.CategoryBadInput, providers.CategoryOf(err))
}

func TestFixtureCallersCannotMutateFixtures(t *testing.T) {
	ext, err := New().Extract(context.Background(), frontImage, models.DocumentPassport)
	require.NoError(t, err)
	ext.Fields["passportNumber"] = "tampered"

	again, err := New().Extract(context.Background(), frontImage, models.DocumentPassport)
	require.NoError(t, err)
	assert.Equal(t, "P12345678", again.IDNumber())
}
