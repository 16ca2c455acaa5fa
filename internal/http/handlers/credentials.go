package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"genstudio/internal/domain"
)

type credentialStatus struct {
	Available bool `json:"available"`
	Selected  bool `json:"selected"`
}

type selectKeyRequest struct {
	APIKey string `json:"api_key"`
}

// CredentialStatus reports whether a key is selected. The UI re-prompts when
// selected turns false after an invalid-key failure.
func (a *App) CredentialStatus(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, credentialStatus{
		Available: a.Gate.Available(),
		Selected:  a.Gate.Check(r.Context()),
	})
}

// SelectCredential stores an optional key from the body and runs the gate's
// selection flow.
func (a *App) SelectCredential(w http.ResponseWriter, r *http.Request) {
	var req selectKeyRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4<<10)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		a.error(w, r, http.StatusBadRequest, string(domain.ErrorValidation), "invalid payload")
		return
	}
	if key := strings.TrimSpace(req.APIKey); key != "" && a.Keys != nil {
		a.Keys.Select(key)
	}
	if !a.Gate.Request(r.Context()) {
		err := a.Gate.Err()
		if err == nil {
			err = domain.ErrMissingCredential
		}
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, credentialStatus{Available: true, Selected: true})
}
