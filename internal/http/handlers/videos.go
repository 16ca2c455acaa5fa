package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"genstudio/internal/domain"
	"genstudio/internal/i18n"
	"genstudio/internal/middleware"
)

type jobResponse struct {
	ID          string             `json:"id"`
	Kind        domain.RequestKind `json:"kind"`
	State       domain.JobState    `json:"state"`
	AspectRatio domain.AspectRatio `json:"aspect_ratio"`
	Polls       int                `json:"polls"`
	Message     string             `json:"message,omitempty"`
	Result      *resultResponse    `json:"result,omitempty"`
	Error       *errorDetail       `json:"error,omitempty"`
	EventsURL   string             `json:"events_url"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func (a *App) jobResponse(r *http.Request, job *domain.Job) jobResponse {
	locale := middleware.LocaleFromContext(r.Context())
	resp := jobResponse{
		ID:          job.ID,
		Kind:        job.Kind,
		State:       job.State,
		AspectRatio: job.AspectRatio,
		Polls:       job.Polls,
		Message:     i18n.TranslateLocale(locale, job.LastMessage),
		EventsURL:   "/v1/videos/" + job.ID + "/events",
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
	}
	if job.Result != nil {
		res := newResultResponse(job.Kind, *job.Result)
		resp.Result = &res
	}
	if job.ErrorKind != "" {
		resp.Error = &errorDetail{Code: string(job.ErrorKind), Message: i18n.TranslateLocale(locale, job.ErrorMessage)}
	}
	return resp
}

// VideosCreate accepts multipart fields prompt, image and aspect_ratio and
// answers 202 with the new job.
func (a *App) VideosCreate(w http.ResponseWriter, r *http.Request) {
	prompt, image, err := a.readImageForm(w, r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	aspect, err := domain.ParseAspectRatio(r.FormValue("aspect_ratio"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	req := domain.GenerationRequest{
		Kind:           domain.RequestVideo,
		Prompt:         prompt,
		ReferenceImage: image,
		AspectRatio:    aspect,
	}.WithDefaults()
	if err := req.Validate(); err != nil {
		a.fail(w, r, err)
		return
	}
	cred, ok := a.credential(w, r)
	if !ok {
		return
	}
	job, err := a.Videos.Submit(r.Context(), cred, req)
	if err != nil {
		a.record(domain.RequestVideo, err)
		a.fail(w, r, err)
		return
	}
	hlog.FromRequest(r).Info().Str("job_id", job.ID).Msg("video job accepted")
	w.Header().Set("Location", "/v1/videos/"+job.ID)
	a.json(w, http.StatusAccepted, a.jobResponse(r, job))
}

func (a *App) VideoStatus(w http.ResponseWriter, r *http.Request) {
	job, err := a.Jobs.GetByID(r.Context(), chi.URLParam(r, "job_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, a.jobResponse(r, job))
}

// VideoEvents streams job progress as Server-Sent Events until the job
// resolves or the client leaves.
func (a *App) VideoEvents(w http.ResponseWriter, r *http.Request) {
	job, err := a.Jobs.GetByID(r.Context(), chi.URLParam(r, "job_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Events.Stream(w, r, job.ID); err != nil {
		hlog.FromRequest(r).Debug().Err(err).Str("job_id", job.ID).Msg("event stream ended")
	}
}
