package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"genstudio/internal/domain"
)

const (
	locatorScheme       = "blob:"
	defaultBlobTTL      = 60 * time.Minute
	blobCleanupInterval = 15 * time.Minute
)

// Blob is a produced media payload addressable by id.
type Blob struct {
	ID        string
	MIMEType  string
	Data      []byte
	CreatedAt time.Time
}

// Locator returns the in-memory resource reference for the blob.
func (b Blob) Locator() string {
	return locatorScheme + b.ID
}

// MemoryStore keeps generated media in process memory until it expires. It is
// the server-side counterpart of a browser object URL: nothing touches disk.
type MemoryStore struct {
	items *cache.Cache
	ttl   time.Duration
}

// NewMemoryStore initializes a store whose entries expire after ttl.
// A non-positive ttl falls back to one hour.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = defaultBlobTTL
	}
	cleanup := blobCleanupInterval
	if ttl < cleanup {
		cleanup = ttl
	}
	return &MemoryStore{items: cache.New(ttl, cleanup), ttl: ttl}
}

// TTL returns the configured retention.
func (s *MemoryStore) TTL() time.Duration {
	if s == nil {
		return 0
	}
	return s.ttl
}

// Put stores data and returns the new blob. An empty mimeType is sniffed from
// the payload.
func (s *MemoryStore) Put(ctx context.Context, data []byte, mimeType string) (Blob, error) {
	if s == nil {
		return Blob{}, errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return Blob{}, err
	}
	if len(data) == 0 {
		return Blob{}, errors.New("storage: empty payload")
	}
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}
	blob := Blob{
		ID:        uuid.NewString(),
		MIMEType:  mimeType,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	s.items.SetDefault(blob.ID, blob)
	return blob, nil
}

// Get returns the blob stored under id or domain.ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, id string) (Blob, error) {
	if s == nil {
		return Blob{}, errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return Blob{}, err
	}
	cleanID, err := sanitizeID(id)
	if err != nil {
		return Blob{}, err
	}
	value, ok := s.items.Get(cleanID)
	if !ok {
		return Blob{}, fmt.Errorf("storage: blob %s: %w", cleanID, domain.ErrNotFound)
	}
	return value.(Blob), nil
}

// Resolve accepts either a bare id or a "blob:" locator.
func (s *MemoryStore) Resolve(ctx context.Context, locator string) (Blob, error) {
	return s.Get(ctx, strings.TrimPrefix(strings.TrimSpace(locator), locatorScheme))
}

// Delete drops a blob; unknown ids are ignored.
func (s *MemoryStore) Delete(id string) {
	if s == nil {
		return
	}
	s.items.Delete(id)
}

// Len reports the number of live blobs.
func (s *MemoryStore) Len() int {
	if s == nil {
		return 0
	}
	return s.items.ItemCount()
}

func sanitizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New("storage: id is required")
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("storage: invalid id %q: %w", id, domain.ErrNotFound)
	}
	return parsed.String(), nil
}
