// Package images decodes and guards the image payloads uploaded through the wizard.
package images

import (
	"encoding/base64"
	"net/http"
	"strings"

	dErrors "kycdesk/pkg/domain-errors"
)

// MaxBytes is the largest accepted decoded image.
const MaxBytes = 5 * 1024 * 1024

const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
)

// Image is a decoded payload.
type Image struct {
	MIME string
	Data []byte
}

// Base64 returns the standard base64 encoding of the image bytes.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURL renders the image as a data URL.
func (i Image) DataURL() string {
	return "data:" + i.MIME + ";base64," + i.Base64()
}

// StripDataURL returns the base64 part of payload, which may be a data URL or raw base64.
func StripDataURL(payload string) string {
	if _, data, ok := strings.Cut(payload, "base64,"); ok {
		return data
	}
	return payload
}

// Decode parses a data URL or raw base64 payload and sniffs its content type.
func Decode(payload string) (Image, error) {
	raw := strings.TrimSpace(StripDataURL(payload))
	if raw == "" {
		return Image{}, dErrors.New(dErrors.CodeValidation, "image is empty")
	}
	if base64.StdEncoding.DecodedLen(len(raw)) > MaxBytes+3 {
		return Image{}, dErrors.New(dErrors.CodeValidation, "image exceeds 5MB")
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return Image{}, dErrors.Wrap(err, dErrors.CodeValidation, "image is not valid base64")
	}
	return Image{MIME: http.DetectContentType(data), Data: data}, nil
}

// DecodeUpload decodes payload and enforces the upload guard: JPEG or PNG, at most 5MB.
func DecodeUpload(payload string) (Image, error) {
	img, err := Decode(payload)
	if err != nil {
		return Image{}, err
	}
	if len(img.Data) > MaxBytes {
		return Image{}, dErrors.New(dErrors.CodeValidation, "image exceeds 5MB")
	}
	if img.MIME != MIMEJPEG && img.MIME != MIMEPNG {
		return Image{}, dErrors.New(dErrors.CodeValidation, "image must be JPEG or PNG")
	}
	return img, nil
}
