package images

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "kycdesk/pkg/domain-errors"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
)

func TestDecodeUpload(t *testing.T) {
	t.Run("png data url", func(t *testing.T) {
		payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)
		img, err := DecodeUpload(payload)
		require.NoError(t, err)
		assert.Equal(t, MIMEPNG, img.MIME)
		assert.Equal(t, payload, img.DataURL())
	})

	t.Run("raw base64 jpeg", func(t *testing.T) {
		img, err := DecodeUpload(base64.StdEncoding.EncodeToString(jpegHeader))
		require.NoError(t, err)
		assert.Equal(t, MIMEJPEG, img.MIME)
	})

	t.Run("gif rejected", func(t *testing.T) {
		_, err := DecodeUpload(base64.StdEncoding.EncodeToString([]byte("GIF89a......")))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("not base64", func(t *testing.T) {
		_, err := DecodeUpload("data:image/png;base64,@@@@")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := DecodeUpload("")
		assert.Error(t, err)
	})

	t.Run("over five megabytes", func(t *testing.T) {
		big := append(bytes.Clone(pngHeader), make([]byte, MaxBytes)...)
		_, err := DecodeUpload(base64.StdEncoding.EncodeToString(big))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "5MB")
	})
}

func TestStripDataURL(t *testing.T) {
	assert.Equal(t, "QUJD", StripDataURL("data:image/jpeg;base64,QUJD"))
	assert.Equal(t, "QUJD", StripDataURL("QUJD"))
}
