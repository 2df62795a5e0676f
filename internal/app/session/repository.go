package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

// ErrNotFound is returned by a Repository for an unknown session ID.
var ErrNotFound = errors.New("session: not found")

// StoredCookie is a backend cookie kept across restarts.
type StoredCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Record is the durable part of a browser session.
type Record struct {
	ID        string
	CSRFToken string
	Cookies   []StoredCookie
	UpdatedAt time.Time
}

// Repository persists Records.
type Repository interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// ToStored converts jar cookies for persistence.
func ToStored(cookies []*http.Cookie) []StoredCookie {
	out := make([]StoredCookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, StoredCookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// FromStored converts persisted cookies back for a cookie jar.
func FromStored(stored []StoredCookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// MemoryRepository keeps records in process memory. Sessions survive
// eviction from the Manager but not a restart.
type MemoryRepository struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]Record)}
}

func (m *MemoryRepository) Save(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.Cookies = append([]StoredCookie(nil), rec.Cookies...)
	m.records[rec.ID] = rec
	return nil
}

func (m *MemoryRepository) Load(_ context.Context, id string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec.Cookies = append([]StoredCookie(nil), rec.Cookies...)
	return rec, nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, id)
	return nil
}

func (m *MemoryRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, rec := range m.records {
		if rec.UpdatedAt.Before(before) {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}
