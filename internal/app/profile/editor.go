/*
Package profile implements the profile view/edit component: it loads the
signed-in user's profile, stages a draft bio and avatar, and submits the
changes through the api client.
*/
package profile

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"profilelounge/internal/app/api"
	"profilelounge/internal/app/domain"
	"profilelounge/internal/app/notify"
	"profilelounge/internal/pkg/logx"
)

// State is the load state of the component.
type State int

const (
	StateLoading State = iota
	StateLoaded
	StateNotFound
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateNotFound:
		return "not-found"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

var (
	ErrNoProfile   = errors.New("profile: no profile loaded")
	ErrNotEditing  = errors.New("profile: not in edit mode")
	ErrNotAnImage  = errors.New("profile: file is not an image")
	ErrSubmitting  = errors.New("profile: an update is already in flight")
	ErrEmptyUpload = errors.New("profile: empty file")
	ErrSignedOut   = errors.New("profile: backend session has ended")
)

// Editor holds one browser's profile component state. Safe for concurrent use.
type Editor struct {
	client   api.Client
	notifier notify.Notifier

	mu         sync.Mutex
	state      State
	profile    *domain.Profile
	loadedFor  int64
	editing    bool
	submitting bool
	draftBio   string
	image      *domain.ImageFile
	preview    string
}

// NewEditor returns an editor in the loading state.
func NewEditor(client api.Client, notifier notify.Notifier) *Editor {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Editor{client: client, notifier: notifier}
}

// Mount fetches the profile for user. Without a user it does nothing and the
// editor stays in the loading state. An open edit for the same user is kept
// as-is so redirects between form posts do not lose the draft; otherwise the
// profile is refetched. A nil profile means not-found; there is no retry.
//
// The backend answers a signed-out profile request with nothing, just like a
// missing profile, so a nil profile is confirmed with CurrentUser. When the
// backend session is gone the editor resets and Mount returns ErrSignedOut.
func (e *Editor) Mount(ctx context.Context, user *domain.User) error {
	if user == nil {
		return nil
	}

	e.mu.Lock()
	if e.loadedFor == user.ID && e.editing {
		e.mu.Unlock()
		return nil
	}
	if e.loadedFor != user.ID {
		e.resetLocked()
		e.loadedFor = user.ID
	}
	e.state = StateLoading
	e.mu.Unlock()

	p, err := e.client.Profile(ctx)

	signedOut := false
	if err == nil && p == nil {
		current, userErr := e.client.CurrentUser(ctx)
		signedOut = userErr == nil && current == nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loadedFor != user.ID {
		// A different user mounted while the fetch was in flight.
		return nil
	}

	switch {
	case signedOut:
		logx.Info("Backend session ended, profile not loaded", "user_id", user.ID)
		e.resetLocked()
		return ErrSignedOut
	case err != nil:
		logx.Warn("Profile fetch failed", "user_id", user.ID, "error", err.Error())
		e.state = StateUnavailable
		e.profile = nil
	case p == nil:
		e.state = StateNotFound
		e.profile = nil
	default:
		e.state = StateLoaded
		e.profile = p
		e.draftBio = p.Bio
	}
	return nil
}

// Reset forgets everything, e.g. after logout.
func (e *Editor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *Editor) resetLocked() {
	e.state = StateLoading
	e.profile = nil
	e.loadedFor = 0
	e.editing = false
	e.submitting = false
	e.draftBio = ""
	e.image = nil
	e.preview = ""
}

// BeginEdit enters edit mode with the draft bio seeded from the loaded profile.
func (e *Editor) BeginEdit() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateLoaded || e.profile == nil {
		return ErrNoProfile
	}
	if e.editing {
		return nil
	}

	e.editing = true
	e.draftBio = e.profile.Bio
	return nil
}

// SetDraftBio replaces the draft bio.
func (e *Editor) SetDraftBio(bio string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.editing {
		return ErrNotEditing
	}
	e.draftBio = bio
	return nil
}

// StageImage keeps an avatar for the next submit and computes a data URL
// preview. Nothing is sent to the backend.
func (e *Editor) StageImage(filename string, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyUpload
	}

	mtype := mimetype.Detect(data)
	contentType, _, _ := strings.Cut(mtype.String(), ";")
	if !strings.HasPrefix(contentType, "image/") {
		return ErrNotAnImage
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.editing {
		return ErrNotEditing
	}

	if filename == "" {
		filename = "avatar" + mtype.Extension()
	}

	e.image = &domain.ImageFile{Filename: filename, ContentType: contentType, Data: data}
	e.preview = "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
	return nil
}

// Cancel leaves edit mode and drops the draft and staged image without any request.
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.editing = false
	e.image = nil
	e.preview = ""
	e.draftBio = ""
	if e.profile != nil {
		e.draftBio = e.profile.Bio
	}
}

// Submit sends the staged changes. Bio is sent when non-empty and different
// from the loaded bio; the image when one is staged. With nothing to send the
// editor simply returns to viewing. On failure the editor stays in edit mode
// with the draft intact; the api client has already notified the user.
func (e *Editor) Submit(ctx context.Context) error {
	e.mu.Lock()

	if !e.editing {
		e.mu.Unlock()
		return ErrNotEditing
	}
	if e.profile == nil {
		e.mu.Unlock()
		return ErrNoProfile
	}
	if e.submitting {
		e.mu.Unlock()
		return ErrSubmitting
	}

	update := domain.ProfileUpdate{Image: e.image}
	if e.draftBio != "" && e.draftBio != e.profile.Bio {
		update.Bio = e.draftBio
	}

	if update.Empty() {
		e.editing = false
		e.draftBio = e.profile.Bio
		e.preview = ""
		e.mu.Unlock()
		e.notifier.Success("Nothing to update")
		return nil
	}

	profileID := e.profile.ID
	e.submitting = true
	e.mu.Unlock()

	updated, err := e.client.UpdateProfile(ctx, profileID, update)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.submitting = false

	if err != nil {
		return err
	}

	e.profile = updated
	e.state = StateLoaded
	e.editing = false
	e.draftBio = updated.Bio
	e.image = nil
	e.preview = ""

	e.notifier.Success("Profile updated successfully")
	return nil
}

// View is a read-only copy of the editor state for rendering.
type View struct {
	State      State
	Profile    *domain.Profile
	Editing    bool
	Submitting bool
	DraftBio   string
	HasImage   bool

	// Preview is the data URL of the staged image, if any.
	Preview string
}

// DisplayName follows domain.DisplayName for the loaded profile's user.
func (v View) DisplayName() string {
	if v.Profile == nil {
		return ""
	}
	return domain.DisplayName(v.Profile.User)
}

// AvatarSrc prefers the staged preview over the stored image.
func (v View) AvatarSrc() string {
	if v.Preview != "" {
		return v.Preview
	}
	if v.Profile != nil {
		return v.Profile.Image
	}
	return ""
}

// View returns a snapshot of the state.
func (e *Editor) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := View{
		State:      e.state,
		Editing:    e.editing,
		Submitting: e.submitting,
		DraftBio:   e.draftBio,
		HasImage:   e.image != nil,
		Preview:    e.preview,
	}
	if e.profile != nil {
		p := *e.profile
		v.Profile = &p
	}
	return v
}
