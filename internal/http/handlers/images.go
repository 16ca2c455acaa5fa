package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"genstudio/internal/domain"
)

// multipart overhead allowed on top of the reference image
const formOverhead = 1 << 20

type imageGenerateRequest struct {
	Prompt string `json:"prompt"`
}

type resultResponse struct {
	Kind            domain.RequestKind `json:"kind"`
	ResourceLocator string             `json:"resource_locator"`
	BlobID          string             `json:"blob_id"`
	MIMEType        string             `json:"mime_type"`
	Size            int                `json:"size"`
	URL             string             `json:"url"`
}

func newResultResponse(kind domain.RequestKind, res domain.JobResult) resultResponse {
	return resultResponse{
		Kind:            kind,
		ResourceLocator: res.ResourceLocator,
		BlobID:          res.BlobID,
		MIMEType:        res.MIMEType,
		Size:            res.Size,
		URL:             blobURL(res.BlobID),
	}
}

func blobURL(id string) string {
	return "/v1/blobs/" + id
}

func (a *App) ImagesGenerate(w http.ResponseWriter, r *http.Request) {
	var req imageGenerateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, string(domain.ErrorValidation), "invalid payload")
		return
	}
	if err := (domain.GenerationRequest{Kind: domain.RequestImage, Prompt: req.Prompt}).Validate(); err != nil {
		a.fail(w, r, err)
		return
	}
	cred, ok := a.credential(w, r)
	if !ok {
		return
	}
	res, err := a.Images.GenerateImage(r.Context(), cred, req.Prompt)
	a.record(domain.RequestImage, err)
	if err != nil {
		a.Gate.Observe(err)
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, newResultResponse(domain.RequestImage, res))
}

// ImagesEdit accepts multipart fields prompt and image.
func (a *App) ImagesEdit(w http.ResponseWriter, r *http.Request) {
	prompt, image, err := a.readImageForm(w, r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := (domain.GenerationRequest{Kind: domain.RequestImageEdit, Prompt: prompt, ReferenceImage: image}).Validate(); err != nil {
		a.fail(w, r, err)
		return
	}
	cred, ok := a.credential(w, r)
	if !ok {
		return
	}
	res, err := a.Images.EditImage(r.Context(), cred, prompt, image)
	a.record(domain.RequestImageEdit, err)
	if err != nil {
		a.Gate.Observe(err)
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, newResultResponse(domain.RequestImageEdit, res))
}

// readImageForm parses the prompt field and the optional image file. A missing
// file yields a nil image so request validation reports it.
func (a *App) readImageForm(w http.ResponseWriter, r *http.Request) (string, *domain.ReferenceImage, error) {
	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxReferenceImageBytes+formOverhead)
	if err := r.ParseMultipartForm(domain.MaxReferenceImageBytes + formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, domain.Validationf("File size must be less than 4MB.")
		}
		return "", nil, domain.Validationf("invalid multipart form")
	}
	prompt := r.FormValue("prompt")

	file, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return prompt, nil, nil
	}
	if err != nil {
		return "", nil, domain.Validationf("invalid image upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, domain.MaxReferenceImageBytes+1))
	if err != nil {
		return "", nil, domain.Validationf("invalid image upload")
	}
	image, err := domain.NewReferenceImage(data)
	if err != nil {
		return "", nil, err
	}
	return prompt, &image, nil
}
