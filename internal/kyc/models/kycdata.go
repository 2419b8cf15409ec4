package models

// ImageKind names the three images an application carries.
type ImageKind string

const (
	ImageIDFront ImageKind = "id-front"
	ImageIDBack  ImageKind = "id-back"
	ImageFacial  ImageKind = "facial"
)

// ParseImageKind validates a path segment naming an image.
func ParseImageKind(s string) (ImageKind, bool) {
	switch k := ImageKind(s); k {
	case ImageIDFront, ImageIDBack, ImageFacial:
		return k, true
	}
	return "", false
}

// KycData is the in-progress application assembled by the wizard.
// Images are kept as data URLs so the export is self-contained.
type KycData struct {
	PersonalInfo       PersonalInfo        `json:"personal_info"`
	IDFrontImage       string              `json:"id_front_image,omitempty"`
	IDBackImage        string              `json:"id_back_image,omitempty"`
	FacialImage        string              `json:"facial_image,omitempty"`
	VerificationResult *VerificationResult `json:"verification_result,omitempty"`
}

// Image returns the payload stored for kind.
func (k *KycData) Image(kind ImageKind) string {
	switch kind {
	case ImageIDFront:
		return k.IDFrontImage
	case ImageIDBack:
		return k.IDBackImage
	case ImageFacial:
		return k.FacialImage
	}
	return ""
}

// SetImage stores payload under kind.
func (k *KycData) SetImage(kind ImageKind, payload string) {
	switch kind {
	case ImageIDFront:
		k.IDFrontImage = payload
	case ImageIDBack:
		k.IDBackImage = payload
	case ImageFacial:
		k.FacialImage = payload
	}
}
