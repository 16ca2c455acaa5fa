package credentials

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"genstudio/internal/domain"
)

// ErrHostUnavailable reports that no key selection mechanism is reachable.
var ErrHostUnavailable = domain.NewJobError(domain.ErrorMissingCredential, "API key selection utility is not available.", nil)

// Host is the key-selection capability provided by whoever embeds the core.
type Host interface {
	HasSelectedKey(ctx context.Context) (bool, error)
	OpenSelectKey(ctx context.Context) error
	APIKey(ctx context.Context) (string, error)
}

// forgetter is implemented by hosts that can drop a key reported as invalid.
type forgetter interface {
	Forget()
}

// Gate verifies that a credential is selected before billable calls are made.
type Gate struct {
	host   Host
	logger zerolog.Logger

	mu       sync.Mutex
	selected bool
	lastErr  error
}

func NewGate(host Host, logger zerolog.Logger) *Gate {
	return &Gate{host: host, logger: logger.With().Str("component", "credential_gate").Logger()}
}

// Available reports whether a host capability is wired at all.
func (g *Gate) Available() bool {
	return g != nil && g.host != nil
}

// Check asks the host whether a key is selected. Host errors and a missing
// host both read as false.
func (g *Gate) Check(ctx context.Context) bool {
	if !g.Available() {
		return false
	}
	ok, err := g.host.HasSelectedKey(ctx)
	if err != nil {
		g.logger.Warn().Err(err).Msg("host key check failed")
		ok = false
	}
	g.mu.Lock()
	g.selected = ok
	g.mu.Unlock()
	return ok
}

// Request opens the host selection flow and optimistically reports success
// as soon as it returns. The key is validated by the first real API call.
func (g *Gate) Request(ctx context.Context) bool {
	if !g.Available() {
		g.record(ErrHostUnavailable)
		return false
	}
	if err := g.host.OpenSelectKey(ctx); err != nil {
		g.logger.Warn().Err(err).Msg("host key selection failed")
		g.record(domain.NewJobError(domain.ErrorMissingCredential, "", err))
		return false
	}
	g.mu.Lock()
	g.selected = true
	g.lastErr = nil
	g.mu.Unlock()
	return true
}

// Credential resolves the selected key for an outgoing call.
func (g *Gate) Credential(ctx context.Context) (domain.Credential, error) {
	if !g.Available() {
		return domain.Credential{}, ErrHostUnavailable
	}
	key, err := g.host.APIKey(ctx)
	if err != nil {
		return domain.Credential{}, domain.NewJobError(domain.ErrorMissingCredential, "", err)
	}
	cred := domain.NewCredential(key)
	if err := cred.Require(); err != nil {
		return domain.Credential{}, err
	}
	return cred, nil
}

// Reset marks the credential as unselected so callers re-prompt before the
// next attempt. Used after an invalid-credential failure.
func (g *Gate) Reset() {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.selected = false
	g.mu.Unlock()
	if f, ok := g.host.(forgetter); ok {
		f.Forget()
	}
	g.logger.Info().Msg("credential reset after invalid key")
}

// Observe resets the gate when err is an invalid-credential failure.
func (g *Gate) Observe(err error) {
	if errors.Is(err, domain.ErrInvalidCredential) {
		g.Reset()
	}
}

// Selected reports the last known selection state without asking the host.
func (g *Gate) Selected() bool {
	if g == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.selected
}

// Err returns the failure recorded by the last unsuccessful Request.
func (g *Gate) Err() error {
	if g == nil {
		return ErrHostUnavailable
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastErr
}

func (g *Gate) record(err error) {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.selected = false
	g.lastErr = err
	g.mu.Unlock()
}

func trimKey(key string) string {
	return strings.TrimSpace(key)
}
