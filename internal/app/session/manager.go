package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"profilelounge/internal/app/api"
	"profilelounge/internal/app/notify"
	"profilelounge/internal/app/profile"
	"profilelounge/internal/pkg/logx"
	"profilelounge/internal/pkg/randx"
)

// Client is a backend client whose cookies can be saved and restored.
type Client interface {
	api.Client
	Cookies() []*http.Cookie
	SetCookies(cookies []*http.Cookie)
}

// ClientFactory builds a fresh backend client for one browser. Failures of
// mutating calls must be reported to notifier.
type ClientFactory func(notifier notify.Notifier) (Client, error)

// Entry is everything the server keeps for one browser.
type Entry struct {
	ID        string
	CSRFToken string
	Client    Client
	Store     *Store
	Editor    *profile.Editor
	Flash     *notify.Flash

	lastSeen atomic.Int64
}

func (e *Entry) touch(now time.Time) {
	e.lastSeen.Store(now.UnixNano())
}

// LastSeen returns when the entry was last opened.
func (e *Entry) LastSeen() time.Time {
	return time.Unix(0, e.lastSeen.Load())
}

// Options tunes a Manager.
type Options struct {
	// IdleTimeout evicts entries from memory after this long without a request.
	IdleTimeout time.Duration

	// Retention deletes persisted records not saved for this long.
	Retention time.Duration

	// ProbeTimeout bounds every CurrentUser probe of an entry.
	ProbeTimeout time.Duration

	// JanitorInterval is how often eviction runs.
	JanitorInterval time.Duration
}

func (o *Options) setDefaults() {
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 24 * time.Hour
	}
	if o.Retention <= 0 {
		o.Retention = 30 * 24 * time.Hour
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = 10 * time.Second
	}
	if o.JanitorInterval <= 0 {
		o.JanitorInterval = time.Minute
	}
}

// Manager maps browser session IDs to entries.
type Manager struct {
	repo      Repository
	newClient ClientFactory
	opts      Options

	mu      sync.Mutex
	entries map[string]*Entry

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager starts a manager and its janitor. Call Shutdown to stop it.
func NewManager(repo Repository, factory ClientFactory, opts Options) *Manager {
	opts.setDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		repo:      repo,
		newClient: factory,
		opts:      opts,
		entries:   make(map[string]*Entry),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go m.janitor()

	return m
}

// Open returns the entry for id. A live entry is reused, and rechecked when
// its last probe found the backend unreachable; otherwise the
// session is restored from the repository, or a new one is created when id
// is empty or unknown. created reports whether the caller must issue a new
// session cookie.
func (m *Manager) Open(ctx context.Context, id string) (*Entry, bool, error) {
	now := time.Now()

	if id != "" {
		m.mu.Lock()
		entry, ok := m.entries[id]
		m.mu.Unlock()
		if ok {
			entry.touch(now)
			if entry.Store.Recheck(m.ctx, m.opts.ProbeTimeout) {
				logx.Debug("Rechecking session after an unreachable backend", "session_id", id)
			}
			return entry, false, nil
		}

		if randx.IsValidSessionID(id) {
			rec, err := m.repo.Load(ctx, id)
			switch {
			case err == nil && !randx.IsValidCSRFToken(rec.CSRFToken):
				logx.Warn("Discarding stored session with a malformed CSRF token", "session_id", id)
				if err := m.repo.Delete(ctx, id); err != nil {
					logx.Error(err, "Failed to delete stored session", "session_id", id)
				}
			case err == nil:
				entry, err := m.build(rec.ID, rec.CSRFToken, rec.Cookies)
				if err != nil {
					return nil, false, err
				}
				entry = m.adopt(entry, now)
				logx.Debug("Session restored", "session_id", id)
				return entry, false, nil
			case !errors.Is(err, ErrNotFound):
				return nil, false, fmt.Errorf("failed to load session: %w", err)
			}
		}
	}

	csrf, err := randx.CSRFToken()
	if err != nil {
		return nil, false, err
	}

	entry, err := m.build(randx.SessionID(), csrf, nil)
	if err != nil {
		return nil, false, err
	}

	return m.adopt(entry, now), true, nil
}

func (m *Manager) build(id, csrf string, cookies []StoredCookie) (*Entry, error) {
	flash := notify.NewFlash()

	client, err := m.newClient(flash)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	if len(cookies) > 0 {
		client.SetCookies(FromStored(cookies))
	}

	return &Entry{
		ID:        id,
		CSRFToken: csrf,
		Client:    client,
		Store:     NewStore(client, notify.Multi(flash, notify.Log{})),
		Editor:    profile.NewEditor(client, flash),
		Flash:     flash,
	}, nil
}

// adopt registers entry unless another request registered the same ID first,
// and starts its probe.
func (m *Manager) adopt(entry *Entry, now time.Time) *Entry {
	m.mu.Lock()
	if existing, ok := m.entries[entry.ID]; ok {
		m.mu.Unlock()
		existing.touch(now)
		return existing
	}
	m.entries[entry.ID] = entry
	m.mu.Unlock()

	entry.touch(now)
	entry.Store.Start(m.ctx, m.opts.ProbeTimeout)
	return entry
}

// Persist saves the entry's backend cookies and CSRF token.
func (m *Manager) Persist(ctx context.Context, entry *Entry) error {
	rec := Record{
		ID:        entry.ID,
		CSRFToken: entry.CSRFToken,
		Cookies:   ToStored(entry.Client.Cookies()),
		UpdatedAt: time.Now(),
	}
	if err := m.repo.Save(ctx, rec); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// Len returns the number of live entries.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// evict drops idle entries from memory and expired records from the repository.
func (m *Manager) evict(ctx context.Context, now time.Time) {
	cutoff := now.Add(-m.opts.IdleTimeout)

	m.mu.Lock()
	evicted := 0
	for id, entry := range m.entries {
		if entry.LastSeen().Before(cutoff) {
			delete(m.entries, id)
			evicted++
		}
	}
	m.mu.Unlock()

	removed, err := m.repo.DeleteExpired(ctx, now.Add(-m.opts.Retention))
	if err != nil {
		logx.Error(err, "Failed to delete expired sessions")
	}

	if evicted > 0 || removed > 0 {
		logx.Debug("Session cleanup", "evicted", evicted, "expired_records", removed)
	}
}

func (m *Manager) janitor() {
	defer close(m.done)

	ticker := time.NewTicker(m.opts.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case now := <-ticker.C:
			ctx, cancel := context.WithTimeout(m.ctx, 30*time.Second)
			m.evict(ctx, now)
			cancel()
		}
	}
}

// Shutdown stops the janitor and cancels outstanding probes.
func (m *Manager) Shutdown() {
	m.cancel()
	<-m.done
}
