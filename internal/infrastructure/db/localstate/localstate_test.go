package localstate

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/artgallery/gallery-web/internal/core/domain"
)

type mapKV map[string][]byte

func (m mapKV) Get(_ context.Context, key string) ([]byte, error) {
	b, ok := m[key]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (m mapKV) Put(_ context.Context, key string, value []byte) error {
	m[key] = value
	return nil
}

func (m mapKV) Delete(_ context.Context, key string) error {
	if _, ok := m[key]; !ok {
		return ErrNotFound
	}
	delete(m, key)
	return nil
}

func (m mapKV) Ping(context.Context) error { return nil }
func (m mapKV) Close() error               { return nil }

func TestSnapshots(t *testing.T) {
	kv := mapKV{}
	s := NewSnapshots(kv)
	ctx := context.Background()

	if _, err := s.Load(ctx); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}

	p := &domain.Principal{ID: 1, Username: "admin", Role: domain.RoleAdmin, PhoneNumber: "+33 1 23"}
	if err := s.Save(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil || *got != *p {
		t.Fatalf("expected %+v, got %+v (%v)", p, got, err)
	}

	for i := 0; i < 2; i++ {
		if err := s.Delete(ctx); err != nil {
			t.Fatalf("delete %d: %v", i, err)
		}
	}
}

func TestSnapshots_CorruptValue(t *testing.T) {
	s := NewSnapshots(mapKV{SnapshotKey: []byte("{not json")})
	_, err := s.Load(context.Background())
	if err == nil || errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestHistory(t *testing.T) {
	kv := mapKV{}
	h := NewHistory(kv)
	ctx := context.Background()

	got, err := h.Load(ctx)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("expected empty history, got %+v (%v)", got, err)
	}

	want := []domain.SearchFilters{{Q: "monet"}, {Style: "cubism", DateMin: "1900-01-01"}}
	if err := h.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _ = h.Load(ctx)
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	kv[HistoryKey] = []byte("garbage")
	got, err = h.Load(ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("corrupt history must read as empty, got %+v (%v)", got, err)
	}
}

func TestCookies(t *testing.T) {
	kv := mapKV{}
	c := NewCookies(kv)
	ctx := context.Background()

	got, err := c.Load(ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected no cookies, got %v (%v)", got, err)
	}

	in := []*http.Cookie{{Name: "sessionid", Value: "s1"}, {Name: "csrftoken", Value: "tok"}}
	if err := c.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err = c.Load(ctx)
	if err != nil || len(got) != 2 || got[0].Name != "sessionid" || got[0].Value != "s1" {
		t.Fatalf("unexpected cookies %v (%v)", got, err)
	}

	if err := c.Delete(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.Delete(ctx); err != nil {
		t.Fatalf("delete must be idempotent: %v", err)
	}
	if _, ok := kv[CookiesKey]; ok {
		t.Fatalf("expected key removed")
	}
}
