package domain

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// RequestKind enumerates supported generation categories.
type RequestKind string

const (
	RequestImage     RequestKind = "image"
	RequestImageEdit RequestKind = "image_edit"
	RequestVideo     RequestKind = "video"
)

// AspectRatio is the output frame shape accepted from callers.
type AspectRatio string

const (
	AspectLandscape AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"

	DefaultVideoAspect = AspectLandscape
)

// MaxReferenceImageBytes caps uploaded reference images.
const MaxReferenceImageBytes = 4 << 20

var supportedImageTypes = []string{"image/png", "image/jpeg", "image/webp"}

// ParseAspectRatio accepts the two supported ratios; an empty value yields "".
func ParseAspectRatio(raw string) (AspectRatio, error) {
	switch AspectRatio(strings.TrimSpace(raw)) {
	case "":
		return "", nil
	case AspectLandscape:
		return AspectLandscape, nil
	case AspectPortrait:
		return AspectPortrait, nil
	default:
		return "", Validationf("unsupported aspect ratio %q (use 16:9 or 9:16)", raw)
	}
}

// ReferenceImage is the conditioning image of an edit or video request.
type ReferenceImage struct {
	Data     []byte
	MIMEType string
}

// NewReferenceImage sniffs the payload type and enforces the upload limits.
func NewReferenceImage(data []byte) (ReferenceImage, error) {
	if len(data) == 0 {
		return ReferenceImage{}, Validationf("reference image is empty")
	}
	if len(data) > MaxReferenceImageBytes {
		return ReferenceImage{}, Validationf("File size must be less than 4MB.")
	}
	detected := mimetype.Detect(data)
	for _, allowed := range supportedImageTypes {
		if detected.Is(allowed) {
			return ReferenceImage{Data: data, MIMEType: allowed}, nil
		}
	}
	return ReferenceImage{}, Validationf("unsupported image type %s (use png, jpeg or webp)", detected.String())
}

func (img *ReferenceImage) validate() error {
	if img == nil || len(img.Data) == 0 {
		return Validationf("reference image is required")
	}
	if len(img.Data) > MaxReferenceImageBytes {
		return Validationf("File size must be less than 4MB.")
	}
	for _, allowed := range supportedImageTypes {
		if img.MIMEType == allowed {
			return nil
		}
	}
	return Validationf("unsupported image type %q (use png, jpeg or webp)", img.MIMEType)
}

// GenerationRequest is created once per submission and never mutated.
type GenerationRequest struct {
	Kind           RequestKind
	Prompt         string
	ReferenceImage *ReferenceImage
	AspectRatio    AspectRatio
}

// Validate enforces the request invariants without touching the network.
func (r GenerationRequest) Validate() error {
	switch r.Kind {
	case RequestImage, RequestImageEdit, RequestVideo:
	default:
		return Validationf("unsupported request kind %q", r.Kind)
	}
	if strings.TrimSpace(r.Prompt) == "" {
		return Validationf("Please enter a prompt.")
	}
	if r.Kind == RequestImageEdit || r.Kind == RequestVideo {
		if err := r.ReferenceImage.validate(); err != nil {
			return err
		}
	} else if r.ReferenceImage != nil {
		if err := r.ReferenceImage.validate(); err != nil {
			return err
		}
	}
	if _, err := ParseAspectRatio(string(r.AspectRatio)); err != nil {
		return err
	}
	return nil
}

// WithDefaults returns a copy with the implied defaults filled in.
func (r GenerationRequest) WithDefaults() GenerationRequest {
	r.Prompt = strings.TrimSpace(r.Prompt)
	if r.Kind == RequestVideo && r.AspectRatio == "" {
		r.AspectRatio = DefaultVideoAspect
	}
	return r
}
