package handlers

import (
	"net/http"
)

type healthResponse struct {
	Status         string `json:"status"`
	CredentialHost bool   `json:"credential_host"`
}

// Health reports liveness and whether a key-selection host is attached.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, healthResponse{
		Status:         "ok",
		CredentialHost: a.Gate != nil && a.Gate.Available(),
	})
}
