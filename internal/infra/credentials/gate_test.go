package credentials

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genstudio/internal/domain"
)

type stubHost struct {
	selected  bool
	checkErr  error
	openErr   error
	key       string
	openCalls int
}

func (s *stubHost) HasSelectedKey(context.Context) (bool, error) { return s.selected, s.checkErr }
func (s *stubHost) OpenSelectKey(context.Context) error {
	s.openCalls++
	return s.openErr
}
func (s *stubHost) APIKey(context.Context) (string, error) { return s.key, nil }

func TestGateWithoutHost(t *testing.T) {
	gate := NewGate(nil, zerolog.Nop())
	ctx := context.Background()

	assert.False(t, gate.Check(ctx))
	assert.False(t, gate.Request(ctx))
	assert.ErrorIs(t, gate.Err(), domain.ErrMissingCredential)
	assert.Equal(t, "API key selection utility is not available.", gate.Err().Error())

	_, err := gate.Credential(ctx)
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
}

func TestGateCheckTreatsHostErrorAsFalse(t *testing.T) {
	gate := NewGate(&stubHost{selected: true, checkErr: errors.New("bridge gone")}, zerolog.Nop())
	assert.False(t, gate.Check(context.Background()))
	assert.False(t, gate.Selected())
}

func TestGateRequestIsOptimistic(t *testing.T) {
	host := &stubHost{}
	gate := NewGate(host, zerolog.Nop())
	ctx := context.Background()

	require.True(t, gate.Request(ctx))
	assert.Equal(t, 1, host.openCalls)
	assert.True(t, gate.Selected(), "selection is trusted without re-checking the host")

	_, err := gate.Credential(ctx)
	assert.ErrorIs(t, err, domain.ErrMissingCredential, "blank key is still caught before the network")
}

func TestGateRequestFailure(t *testing.T) {
	gate := NewGate(&stubHost{openErr: errors.New("cancelled")}, zerolog.Nop())
	assert.False(t, gate.Request(context.Background()))
	assert.ErrorIs(t, gate.Err(), domain.ErrMissingCredential)
}

func TestGateObserveInvalidCredentialResets(t *testing.T) {
	host := NewSessionHost("")
	host.Select("key-1")
	gate := NewGate(host, zerolog.Nop())
	ctx := context.Background()
	require.True(t, gate.Check(ctx))

	gate.Observe(domain.NewJobError(domain.ErrorTransient, "", nil))
	assert.True(t, gate.Selected())

	gate.Observe(domain.NewJobError(domain.ErrorInvalidCredential, "", domain.ErrEntityNotFound))
	assert.False(t, gate.Selected())
	assert.False(t, gate.Check(ctx), "session key is forgotten")
}

func TestSessionHostFallback(t *testing.T) {
	host := NewSessionHost(" env-key ")
	gate := NewGate(host, zerolog.Nop())
	ctx := context.Background()

	host.Forget()
	require.True(t, gate.Request(ctx))
	cred, err := gate.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cred.APIKey)
}

func TestPromptHostReadsKey(t *testing.T) {
	var out strings.Builder
	host := NewPromptHost(strings.NewReader("  typed-key \n"), &out, "")
	gate := NewGate(host, zerolog.Nop())
	ctx := context.Background()

	assert.False(t, gate.Check(ctx))
	require.True(t, gate.Request(ctx))
	assert.Contains(t, out.String(), "API key")

	cred, err := gate.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "typed-key", cred.APIKey)
}

func TestPromptHostEmptyInput(t *testing.T) {
	gate := NewGate(NewPromptHost(strings.NewReader("\n"), nil, ""), zerolog.Nop())
	assert.False(t, gate.Request(context.Background()))
}

func TestStaticHost(t *testing.T) {
	gate := NewGate(StaticHost{Key: "k"}, zerolog.Nop())
	assert.True(t, gate.Check(context.Background()))
	assert.False(t, NewGate(StaticHost{}, zerolog.Nop()).Request(context.Background()))
}

func TestSessionHostWithoutKeyFailsSelection(t *testing.T) {
	gate := NewGate(NewSessionHost(""), zerolog.Nop())
	assert.False(t, gate.Request(context.Background()))
	assert.ErrorIs(t, gate.Err(), domain.ErrMissingCredential)
}
