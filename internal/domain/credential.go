package domain

import "strings"

// Credential is the API key used for a single operation. It is passed
// explicitly instead of being read from the process environment.
type Credential struct {
	APIKey string
}

func NewCredential(apiKey string) Credential {
	return Credential{APIKey: strings.TrimSpace(apiKey)}
}

func (c Credential) IsZero() bool {
	return strings.TrimSpace(c.APIKey) == ""
}

// Require fails with a missing-credential error when no key is configured.
func (c Credential) Require() error {
	if c.IsZero() {
		return NewJobError(ErrorMissingCredential, "", nil)
	}
	return nil
}

// String redacts the key so credentials can be logged safely.
func (c Credential) String() string {
	if c.IsZero() {
		return "<none>"
	}
	if len(c.APIKey) <= 4 {
		return "****"
	}
	return "****" + c.APIKey[len(c.APIKey)-4:]
}
