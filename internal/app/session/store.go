/*
Package session holds the per-browser authentication state.

A Store answers "who is signed in" for one browser. It starts out loading
and resolves itself with a CurrentUser probe, repeated only while the
backend is unreachable. Afterwards it changes through its own Login,
Register and Logout operations, or Expire when the backend answers 401. The Manager owns one
Store per browser session, together with that browser's backend client,
profile editor and pending notifications.
*/
package session

import (
	"context"
	"sync"
	"time"

	"profilelounge/internal/app/api"
	"profilelounge/internal/app/domain"
	"profilelounge/internal/app/notify"
	"profilelounge/internal/pkg/logx"
)

// Status is what the store knows about the backend session.
type Status int

const (
	// StatusUnknown means the initial probe has not finished.
	StatusUnknown Status = iota
	StatusAuthenticated
	StatusAnonymous
	// StatusUnreachable means the probe failed for a reason other than a 401.
	StatusUnreachable
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	case StatusUnreachable:
		return "unreachable"
	default:
		return "invalid"
	}
}

// Snapshot is a consistent copy of the store state.
type Snapshot struct {
	User    *domain.User
	Loading bool
	Status  Status
}

// Authenticated reports whether a user is present. Callers deciding on
// redirects must check Loading first.
func (s Snapshot) Authenticated() bool {
	return s.User != nil
}

// Store is the auth session state of one browser. Safe for concurrent use.
type Store struct {
	client   api.Client
	notifier notify.Notifier

	mu       sync.RWMutex
	user     *domain.User
	status   Status
	inflight int
	// version increments on every user change so a slow probe cannot
	// overwrite the result of a later login or logout.
	version uint64

	probeOnce sync.Once
}

// NewStore returns a store in the loading state; the initial probe counts as in flight.
func NewStore(client api.Client, notifier notify.Notifier) *Store {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Store{
		client:   client,
		notifier: notifier,
		inflight: 1,
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{Loading: s.inflight > 0, Status: s.status}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// User returns the signed-in user or nil.
func (s *Store) User() *domain.User {
	return s.Snapshot().User
}

// Loading reports whether an operation, including the initial probe, is in flight.
func (s *Store) Loading() bool {
	return s.Snapshot().Loading
}

// Start runs the initial probe in the background, bounded by timeout.
func (s *Store) Start(ctx context.Context, timeout time.Duration) {
	go func() {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		s.Probe(ctx)
	}()
}

// Probe resolves the initial state from CurrentUser. Only the first call
// does anything; later calls return immediately.
func (s *Store) Probe(ctx context.Context) {
	s.probeOnce.Do(func() { s.resolve(ctx) })
}

// Recheck probes again in the background when the last probe could not
// reach the backend. The store reports loading until it finishes. It
// reports whether a check was started.
func (s *Store) Recheck(ctx context.Context, timeout time.Duration) bool {
	s.mu.Lock()
	if s.status != StatusUnreachable || s.inflight > 0 {
		s.mu.Unlock()
		return false
	}
	s.inflight++
	s.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		s.resolve(ctx)
	}()
	return true
}

// resolve applies one CurrentUser answer. The caller has counted it in inflight.
func (s *Store) resolve(ctx context.Context) {
	s.mu.RLock()
	version := s.version
	s.mu.RUnlock()

	user, err := s.client.CurrentUser(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--

	if s.version != version {
		return
	}

	switch {
	case err != nil:
		logx.Warn("Session probe failed, treating browser as signed out", "error", err.Error())
		s.user = nil
		s.status = StatusUnreachable
	case user == nil:
		s.user = nil
		s.status = StatusAnonymous
	default:
		s.user = user
		s.status = StatusAuthenticated
	}
}

func (s *Store) begin() {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()
}

func (s *Store) end() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
}

func (s *Store) setUser(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.version++
	s.user = user
	if user != nil {
		s.status = StatusAuthenticated
	} else {
		s.status = StatusAnonymous
	}
}

// Login signs in through the backend and stores the returned user.
// The error is returned unchanged; the api client has already notified.
func (s *Store) Login(ctx context.Context, username, password string) error {
	s.begin()
	defer s.end()

	res, err := s.client.Login(ctx, username, password)
	if err != nil {
		logx.Debug("Login failed", "username", username, "error", err.Error())
		return err
	}

	user := res.User
	s.setUser(&user)
	s.notifier.Success("Logged in successfully")
	return nil
}

// Register creates an account. The stored user is left unchanged: the new
// account still has to log in.
func (s *Store) Register(ctx context.Context, input domain.RegisterInput) error {
	s.begin()
	defer s.end()

	if _, err := s.client.Register(ctx, input); err != nil {
		logx.Debug("Registration failed", "username", input.Username, "error", err.Error())
		return err
	}

	s.notifier.Success("Registration successful. You can now log in.")
	return nil
}

// Logout ends the backend session and clears the stored user whatever the
// reply body says. A 401 means the backend session is already gone, so the
// user is cleared as well.
func (s *Store) Logout(ctx context.Context) error {
	s.begin()
	defer s.end()

	if _, err := s.client.Logout(ctx); err != nil {
		if !api.IsUnauthorized(err) {
			logx.Debug("Logout failed", "error", err.Error())
			return err
		}
		logx.Debug("Backend session already ended at logout")
		s.setUser(nil)
		return nil
	}

	s.setUser(nil)
	s.notifier.Success("Logged out successfully")
	return nil
}

// Expire drops the user after the backend reported the session as unauthenticated.
func (s *Store) Expire() {
	s.setUser(nil)
}
