package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "kycdesk/pkg/domain-errors"
)

func TestStatusCanTransitionTo(t *testing.T) {
	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			assert.True(t, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.False(t, StatusPending.CanTransitionTo("archived"))
	assert.False(t, Status("").CanTransitionTo(StatusApproved))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" Approved ")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, s)

	_, err = ParseStatus("archived")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestSubmissionApplyStatus(t *testing.T) {
	sub := &Submission{Status: StatusPending}
	require.NoError(t, sub.ApplyStatus(StatusFlagged))
	assert.Equal(t, StatusFlagged, sub.Status)

	err := sub.ApplyStatus("bogus")
	require.Error(t, err)
	assert.Equal(t, StatusFlagged, sub.Status)
}

func TestPersonalInfoValidate(t *testing.T) {
	valid := func() PersonalInfo {
		return PersonalInfo{
			FirstName: "Jane", LastName: "Doe", DateOfBirth: "1990-01-01",
			Address: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701",
			Country: "US", DocumentType: DocumentPassport,
		}
	}

	t.Run("valid", func(t *testing.T) {
		p := valid()
		assert.NoError(t, p.Validate())
	})
	t.Run("normalize trims before validation", func(t *testing.T) {
		p := valid()
		p.FirstName = "  Jane "
		p.Normalize()
		assert.Equal(t, "Jane", p.FirstName)
	})
	t.Run("missing last name", func(t *testing.T) {
		p := valid()
		p.LastName = ""
		err := p.Validate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
	t.Run("bad document type", func(t *testing.T) {
		p := valid()
		p.DocumentType = "library-card"
		assert.Error(t, p.Validate())
	})
	t.Run("middle name optional", func(t *testing.T) {
		p := valid()
		p.MiddleName = ""
		assert.NoError(t, p.Validate())
	})
}

func TestKycDataImages(t *testing.T) {
	var d KycData
	d.SetImage(ImageIDBack, "data:image/png;base64,AAAA")
	assert.Equal(t, "data:image/png;base64,AAAA", d.Image(ImageIDBack))
	assert.Empty(t, d.Image(ImageIDFront))

	_, ok := ParseImageKind("selfie")
	assert.False(t, ok)
	k, ok := ParseImageKind("facial")
	assert.True(t, ok)
	assert.Equal(t, ImageFacial, k)
}
