/*
Package apitest provides test doubles for the api package: Backend, an
in-memory api.Client, and Server, an httptest server speaking the backend's
REST contract.
*/
package apitest

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"profilelounge/internal/app/api"
	"profilelounge/internal/app/domain"
	"profilelounge/internal/app/notify"
)

type account struct {
	user     domain.User
	password string
}

// Backend is an in-memory api.Client. Failing mutating calls notify like the
// real client does. The zero value is not usable; call NewBackend.
type Backend struct {
	mu sync.Mutex

	accounts map[string]*account
	profiles map[int64]*domain.Profile
	current  *domain.User
	nextID   int64

	notifier notify.Notifier
	failures map[string]*api.RequestError
	probeErr error

	// ProbeGate, when set, blocks CurrentUser until it is closed or ctx ends.
	ProbeGate chan struct{}

	calls      []string
	lastUpdate *domain.ProfileUpdate
}

var _ api.Client = (*Backend)(nil)

// NewBackend returns an empty backend reporting failures to notifier.
func NewBackend(notifier notify.Notifier) *Backend {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Backend{
		accounts: make(map[string]*account),
		profiles: make(map[int64]*domain.Profile),
		notifier: notifier,
		failures: make(map[string]*api.RequestError),
	}
}

// AddUser registers an account with an empty profile and returns the profile.
func (b *Backend) AddUser(u domain.User, password string) *domain.Profile {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addLocked(u, password)
}

func (b *Backend) addLocked(u domain.User, password string) *domain.Profile {
	b.nextID++
	if u.ID == 0 {
		u.ID = b.nextID
	}
	b.accounts[u.Username] = &account{user: u, password: password}

	p := &domain.Profile{ID: u.ID, User: u, Image: "/media/profile_images/default.png"}
	b.profiles[u.ID] = p
	return p
}

// SignIn makes u the current backend session user without a Login call.
func (b *Backend) SignIn(username string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if acc, ok := b.accounts[username]; ok {
		u := acc.user
		b.current = &u
	}
}

// DeleteProfile removes the profile of the given user.
func (b *Backend) DeleteProfile(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.profiles, userID)
}

// Fail makes the next call of op ("Login", "Register", "Logout", "UpdateProfile") fail with err.
func (b *Backend) Fail(op string, err *api.RequestError) {
	b.mu.Lock()
	defer b.mu.Unlock()
	err.Op = op
	b.failures[op] = err
}

// FailProbes makes CurrentUser and Profile fail as if the backend were down.
// Passing nil restores them.
func (b *Backend) FailProbes(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probeErr = err
}

// Calls returns the operations invoked so far, in order.
func (b *Backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// LastUpdate returns the last update passed to UpdateProfile.
func (b *Backend) LastUpdate() *domain.ProfileUpdate {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastUpdate
}

func (b *Backend) takeFailure(op string) error {
	b.calls = append(b.calls, op)
	if err, ok := b.failures[op]; ok {
		delete(b.failures, op)
		b.notifier.Error(err.Message)
		return err
	}
	return nil
}

func (b *Backend) reject(op string, status int, msg string) error {
	err := &api.RequestError{Op: op, Status: status, Message: msg}
	b.notifier.Error(msg)
	return err
}

func (b *Backend) Login(ctx context.Context, username, password string) (*domain.LoginResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.takeFailure("Login"); err != nil {
		return nil, err
	}

	acc, ok := b.accounts[username]
	if !ok || acc.password != password {
		return nil, b.reject("Login", 401, "Invalid credentials")
	}

	u := acc.user
	b.current = &u
	return &domain.LoginResult{User: u, Message: "Login successful"}, nil
}

func (b *Backend) Register(ctx context.Context, input domain.RegisterInput) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.takeFailure("Register"); err != nil {
		return "", err
	}

	if _, exists := b.accounts[input.Username]; exists {
		return "", b.reject("Register", 400, "username: A user with that username already exists.")
	}

	b.addLocked(domain.User{
		Username:  input.Username,
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
	}, input.Password)
	return "Registration successful", nil
}

func (b *Backend) Logout(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.takeFailure("Logout"); err != nil {
		return "", err
	}

	b.current = nil
	return "Logged out successfully", nil
}

func (b *Backend) CurrentUser(ctx context.Context) (*domain.User, error) {
	b.mu.Lock()
	gate := b.ProbeGate
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", api.ErrUnreachable, ctx.Err())
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, "CurrentUser")
	if b.probeErr != nil {
		return nil, fmt.Errorf("%w: %v", api.ErrUnreachable, b.probeErr)
	}
	if b.current == nil {
		return nil, nil
	}
	u := *b.current
	return &u, nil
}

func (b *Backend) Profile(ctx context.Context) (*domain.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, "Profile")
	if b.probeErr != nil {
		return nil, fmt.Errorf("%w: %v", api.ErrUnreachable, b.probeErr)
	}
	if b.current == nil {
		return nil, nil
	}
	p, ok := b.profiles[b.current.ID]
	if !ok {
		return nil, nil
	}
	out := *p
	return &out, nil
}

func (b *Backend) UpdateProfile(ctx context.Context, profileID int64, update domain.ProfileUpdate) (*domain.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	u := update
	b.lastUpdate = &u

	if err := b.takeFailure("UpdateProfile"); err != nil {
		return nil, err
	}
	if b.current == nil {
		return nil, b.reject("UpdateProfile", 403, "Authentication credentials were not provided.")
	}

	p, ok := b.profiles[profileID]
	if !ok || p.User.ID != b.current.ID {
		return nil, b.reject("UpdateProfile", 404, "Not found.")
	}

	if update.Bio != "" {
		p.Bio = update.Bio
	}
	if update.Image != nil {
		p.Image = "/media/profile_images/" + update.Image.Filename
	}

	out := *p
	return &out, nil
}

// Cookies models the backend session cookie as the signed-in username.
func (b *Backend) Cookies() []*http.Cookie {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return nil
	}
	return []*http.Cookie{{Name: sessionCookie, Value: b.current.Username}}
}

// SetCookies restores the session written by Cookies.
func (b *Backend) SetCookies(cookies []*http.Cookie) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range cookies {
		if c.Name != sessionCookie {
			continue
		}
		if acc, ok := b.accounts[c.Value]; ok {
			u := acc.user
			b.current = &u
		}
	}
}
