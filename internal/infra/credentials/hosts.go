package credentials

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

var errNoKey = errors.New("no api key selected")

// StaticHost serves a key fixed at startup (flag or GEMINI_API_KEY).
type StaticHost struct {
	Key string
}

func (h StaticHost) HasSelectedKey(context.Context) (bool, error) {
	return trimKey(h.Key) != "", nil
}

func (h StaticHost) OpenSelectKey(context.Context) error {
	if trimKey(h.Key) == "" {
		return errNoKey
	}
	return nil
}

func (h StaticHost) APIKey(context.Context) (string, error) {
	return trimKey(h.Key), nil
}

// SessionHost holds a key handed over by the local UI. It starts from an
// optional fallback key.
type SessionHost struct {
	mu       sync.RWMutex
	key      string
	fallback string
}

func NewSessionHost(fallback string) *SessionHost {
	fallback = trimKey(fallback)
	return &SessionHost{key: fallback, fallback: fallback}
}

// Select stores a key posted by the user.
func (h *SessionHost) Select(key string) {
	h.mu.Lock()
	h.key = trimKey(key)
	h.mu.Unlock()
}

func (h *SessionHost) HasSelectedKey(context.Context) (bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.key != "", nil
}

// OpenSelectKey restores the fallback key when nothing was posted.
func (h *SessionHost) OpenSelectKey(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.key == "" {
		h.key = h.fallback
	}
	if h.key == "" {
		return errNoKey
	}
	return nil
}

func (h *SessionHost) APIKey(context.Context) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.key, nil
}

// Forget drops the posted key; the fallback stays available to OpenSelectKey.
func (h *SessionHost) Forget() {
	h.mu.Lock()
	h.key = ""
	h.mu.Unlock()
}

// PromptHost asks for the key on an interactive terminal.
type PromptHost struct {
	In  io.Reader
	Out io.Writer

	mu  sync.Mutex
	key string
}

func NewPromptHost(in io.Reader, out io.Writer, initial string) *PromptHost {
	return &PromptHost{In: in, Out: out, key: trimKey(initial)}
}

func (h *PromptHost) HasSelectedKey(context.Context) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.key != "", nil
}

func (h *PromptHost) OpenSelectKey(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if h.In == nil {
		return errors.New("no terminal available")
	}
	if h.Out != nil {
		fmt.Fprint(h.Out, "Gemini API key: ")
	}
	line, err := bufio.NewReader(h.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read api key: %w", err)
	}
	key := trimKey(line)
	if key == "" {
		return errors.New("no api key entered")
	}
	h.mu.Lock()
	h.key = key
	h.mu.Unlock()
	return nil
}

func (h *PromptHost) APIKey(context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.key, nil
}

func (h *PromptHost) Forget() {
	h.mu.Lock()
	h.key = ""
	h.mu.Unlock()
}
