package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"genstudio/internal/domain"
	"genstudio/internal/i18n"
	"genstudio/internal/middleware"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.ErrorValidation:
		return http.StatusBadRequest
	case domain.ErrorMissingCredential:
		return http.StatusUnauthorized
	case domain.ErrorInvalidCredential:
		return http.StatusForbidden
	case domain.ErrorNoOutput, domain.ErrorDownloadFailed:
		return http.StatusBadGateway
	case domain.ErrorTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (a *App) error(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	locale := middleware.LocaleFromContext(r.Context())
	a.json(w, status, errorBody{Error: errorDetail{Code: code, Message: i18n.TranslateLocale(locale, message)}})
}

// fail renders err with the status and code of its kind.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, r, http.StatusNotFound, "not_found", "resource not found")
		return
	}
	jobErr := domain.AsJobError(err)
	status := StatusFor(jobErr.Kind)
	if status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Str("error_kind", string(jobErr.Kind)).Msg("request failed")
	}
	a.error(w, r, status, string(jobErr.Kind), jobErr.Error())
}
