package domain

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestNewReferenceImageSniffsPNG(t *testing.T) {
	img, err := NewReferenceImage(pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
}

func TestNewReferenceImageRejectsText(t *testing.T) {
	_, err := NewReferenceImage([]byte("just some text"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestNewReferenceImageRejectsOversize(t *testing.T) {
	data := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, MaxReferenceImageBytes)...)
	_, err := NewReferenceImage(data)
	require.Error(t, err)
	assert.Equal(t, ErrorValidation, KindOf(err))
	assert.Equal(t, "File size must be less than 4MB.", err.Error())
}

func TestGenerationRequestValidate(t *testing.T) {
	ref := &ReferenceImage{Data: pngHeader, MIMEType: "image/png"}
	tests := []struct {
		name    string
		req     GenerationRequest
		wantErr bool
	}{
		{name: "image ok", req: GenerationRequest{Kind: RequestImage, Prompt: "a cat"}},
		{name: "blank prompt", req: GenerationRequest{Kind: RequestImage, Prompt: "   \t"}, wantErr: true},
		{name: "edit without image", req: GenerationRequest{Kind: RequestImageEdit, Prompt: "make it blue"}, wantErr: true},
		{name: "edit ok", req: GenerationRequest{Kind: RequestImageEdit, Prompt: "make it blue", ReferenceImage: ref}},
		{name: "video without image", req: GenerationRequest{Kind: RequestVideo, Prompt: "pan left"}, wantErr: true},
		{name: "video ok", req: GenerationRequest{Kind: RequestVideo, Prompt: "pan left", ReferenceImage: ref, AspectRatio: AspectPortrait}},
		{name: "bad aspect", req: GenerationRequest{Kind: RequestVideo, Prompt: "pan", ReferenceImage: ref, AspectRatio: "4:3"}, wantErr: true},
		{name: "bad mime", req: GenerationRequest{Kind: RequestImageEdit, Prompt: "x", ReferenceImage: &ReferenceImage{Data: []byte("x"), MIMEType: "image/gif"}}, wantErr: true},
		{name: "unknown kind", req: GenerationRequest{Kind: "audio", Prompt: "x"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestWithDefaultsVideoAspect(t *testing.T) {
	req := GenerationRequest{Kind: RequestVideo, Prompt: "  spin  "}.WithDefaults()
	assert.Equal(t, AspectLandscape, req.AspectRatio)
	assert.Equal(t, "spin", req.Prompt)

	img := GenerationRequest{Kind: RequestImage, Prompt: "x"}.WithDefaults()
	assert.Empty(t, img.AspectRatio)
}
