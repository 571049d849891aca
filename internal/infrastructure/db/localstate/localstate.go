// Package localstate stores the principal snapshot and the search history as
// JSON values in a key/value backend. The keys match what the browser client
// keeps in localStorage.
package localstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/artgallery/gallery-web/internal/core/domain"
)

const (
	SnapshotKey = "user"
	HistoryKey  = "searchHistory"
	// CookiesKey holds the backend cookies the browser would keep in its jar.
	CookiesKey = "cookies"
)

// ErrNotFound is returned by a KeyValue when the key is absent.
var ErrNotFound = errors.New("key not found")

// KeyValue is implemented by the sqlite, redis and mongo drivers.
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Snapshots implements ports.SnapshotRepository.
type Snapshots struct {
	kv KeyValue
}

func NewSnapshots(kv KeyValue) *Snapshots {
	return &Snapshots{kv: kv}
}

func (s *Snapshots) Load(ctx context.Context) (*domain.Principal, error) {
	b, err := s.kv.Get(ctx, SnapshotKey)
	if errors.Is(err, ErrNotFound) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var p domain.Principal
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &p, nil
}

func (s *Snapshots) Save(ctx context.Context, p *domain.Principal) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.kv.Put(ctx, SnapshotKey, b); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Delete is idempotent.
func (s *Snapshots) Delete(ctx context.Context) error {
	if err := s.kv.Delete(ctx, SnapshotKey); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// Close releases the underlying store. The session store calls it on shutdown.
func (s *Snapshots) Close() error {
	return s.kv.Close()
}

// History implements ports.SearchHistoryRepository.
type History struct {
	kv KeyValue
}

func NewHistory(kv KeyValue) *History {
	return &History{kv: kv}
}

// Load treats a missing or corrupt history as empty.
func (h *History) Load(ctx context.Context) ([]domain.SearchFilters, error) {
	b, err := h.kv.Get(ctx, HistoryKey)
	if errors.Is(err, ErrNotFound) {
		return []domain.SearchFilters{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load search history: %w", err)
	}
	var out []domain.SearchFilters
	if err := json.Unmarshal(b, &out); err != nil {
		return []domain.SearchFilters{}, nil
	}
	return out, nil
}

func (h *History) Save(ctx context.Context, entries []domain.SearchFilters) error {
	b, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode search history: %w", err)
	}
	return h.kv.Put(ctx, HistoryKey, b)
}

func (h *History) Delete(ctx context.Context) error {
	if err := h.kv.Delete(ctx, HistoryKey); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete search history: %w", err)
	}
	return nil
}

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Cookies implements backend.CookieStore.
type Cookies struct {
	kv KeyValue
}

func NewCookies(kv KeyValue) *Cookies {
	return &Cookies{kv: kv}
}

// Load treats missing or corrupt cookies as none.
func (c *Cookies) Load(ctx context.Context) ([]*http.Cookie, error) {
	b, err := c.kv.Get(ctx, CookiesKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cookies: %w", err)
	}
	var stored []storedCookie
	if err := json.Unmarshal(b, &stored); err != nil {
		return nil, nil
	}
	out := make([]*http.Cookie, 0, len(stored))
	for _, sc := range stored {
		if sc.Name == "" {
			continue
		}
		out = append(out, &http.Cookie{Name: sc.Name, Value: sc.Value})
	}
	return out, nil
}

func (c *Cookies) Save(ctx context.Context, cookies []*http.Cookie) error {
	stored := make([]storedCookie, 0, len(cookies))
	for _, ck := range cookies {
		stored = append(stored, storedCookie{Name: ck.Name, Value: ck.Value})
	}
	b, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}
	return c.kv.Put(ctx, CookiesKey, b)
}

func (c *Cookies) Delete(ctx context.Context) error {
	if err := c.kv.Delete(ctx, CookiesKey); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete cookies: %w", err)
	}
	return nil
}
