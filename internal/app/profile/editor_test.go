package profile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"profilelounge/internal/app/api"
	"profilelounge/internal/app/api/apitest"
	"profilelounge/internal/app/domain"
	"profilelounge/internal/app/notify"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type fixture struct {
	backend *apitest.Backend
	flash   *notify.Flash
	editor  *Editor
	user    *domain.User
	profile *domain.Profile
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	flash := notify.NewFlash()
	backend := apitest.NewBackend(flash)
	p := backend.AddUser(domain.User{Username: "ada99", FirstName: "Ada", LastName: "Lovelace"}, "pw")
	backend.SignIn("ada99")

	u := p.User
	f := &fixture{
		backend: backend,
		flash:   flash,
		editor:  NewEditor(backend, flash),
		user:    &u,
		profile: p,
	}
	return f
}

func (f *fixture) mountWithBio(t *testing.T, bio string) {
	t.Helper()
	f.profile.Bio = bio
	f.editor.Mount(context.Background(), f.user)
	if v := f.editor.View(); v.State != StateLoaded {
		t.Fatalf("state after mount = %v", v.State)
	}
}

func TestMountWithoutUserStaysLoading(t *testing.T) {
	f := newFixture(t)
	f.editor.Mount(context.Background(), nil)

	if v := f.editor.View(); v.State != StateLoading {
		t.Fatalf("state = %v, want loading", v.State)
	}
	if calls := f.backend.Calls(); len(calls) != 0 {
		t.Fatalf("backend called without a user: %v", calls)
	}
}

func TestMountNotFoundAndUnavailable(t *testing.T) {
	f := newFixture(t)
	f.backend.DeleteProfile(f.user.ID)

	f.editor.Mount(context.Background(), f.user)
	if v := f.editor.View(); v.State != StateNotFound {
		t.Fatalf("state = %v, want not-found", v.State)
	}

	g := newFixture(t)
	g.backend.FailProbes(errors.New("connection refused"))
	g.editor.Mount(context.Background(), g.user)
	if v := g.editor.View(); v.State != StateUnavailable {
		t.Fatalf("state = %v, want unavailable", v.State)
	}
}

func TestEditThenCancelRestoresBio(t *testing.T) {
	f := newFixture(t)
	f.mountWithBio(t, "Original bio")

	if err := f.editor.BeginEdit(); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	if v := f.editor.View(); !v.Editing || v.DraftBio != "Original bio" {
		t.Fatalf("view after BeginEdit = %+v", v)
	}

	_ = f.editor.SetDraftBio("Something else")
	if err := f.editor.StageImage("me.png", pngBytes); err != nil {
		t.Fatalf("StageImage: %v", err)
	}

	f.editor.Cancel()

	v := f.editor.View()
	if v.Editing || v.DraftBio != "Original bio" || v.HasImage || v.Preview != "" {
		t.Fatalf("view after Cancel = %+v", v)
	}
	for _, c := range f.backend.Calls() {
		if c == "UpdateProfile" {
			t.Fatal("Cancel made a network call")
		}
	}
}

func TestBeginEditSeedsEmptyBio(t *testing.T) {
	f := newFixture(t)
	f.mountWithBio(t, "")

	_ = f.editor.BeginEdit()
	if v := f.editor.View(); v.DraftBio != "" {
		t.Fatalf("DraftBio = %q, want empty", v.DraftBio)
	}
}

func TestStageImage(t *testing.T) {
	f := newFixture(t)
	f.mountWithBio(t, "")

	if err := f.editor.StageImage("me.png", pngBytes); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("StageImage outside edit mode = %v", err)
	}

	_ = f.editor.BeginEdit()

	if err := f.editor.StageImage("notes.txt", []byte("just some text")); !errors.Is(err, ErrNotAnImage) {
		t.Fatalf("StageImage(text) = %v, want ErrNotAnImage", err)
	}
	if err := f.editor.StageImage("empty.png", nil); !errors.Is(err, ErrEmptyUpload) {
		t.Fatalf("StageImage(empty) = %v, want ErrEmptyUpload", err)
	}

	if err := f.editor.StageImage("me.png", pngBytes); err != nil {
		t.Fatalf("StageImage: %v", err)
	}
	v := f.editor.View()
	if !strings.HasPrefix(v.Preview, "data:image/png;base64,") {
		t.Fatalf("Preview = %q", v.Preview)
	}
	if v.AvatarSrc() != v.Preview {
		t.Fatal("AvatarSrc does not prefer the preview")
	}
}

func TestSubmitBioOnly(t *testing.T) {
	f := newFixture(t)
	f.mountWithBio(t, "")

	_ = f.editor.BeginEdit()
	_ = f.editor.SetDraftBio("Analyst")

	if err := f.editor.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	sent := f.backend.LastUpdate()
	if sent == nil || sent.Bio != "Analyst" || sent.Image != nil {
		t.Fatalf("sent update = %+v", sent)
	}

	v := f.editor.View()
	if v.Editing || v.Profile.Bio != "Analyst" {
		t.Fatalf("view after Submit = %+v", v)
	}

	msgs := f.flash.Drain()
	if len(msgs) != 1 || msgs[0].Text != "Profile updated successfully" {
		t.Fatalf("notifications = %v", msgs)
	}
}

func TestSubmitImageOnly(t *testing.T) {
	f := newFixture(t)
	f.mountWithBio(t, "")

	_ = f.editor.BeginEdit()
	_ = f.editor.StageImage("me.png", pngBytes)

	if err := f.editor.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	sent := f.backend.LastUpdate()
	if sent == nil || sent.Bio != "" || sent.Image == nil || sent.Image.ContentType != "image/png" {
		t.Fatalf("sent update = %+v", sent)
	}
	if v := f.editor.View(); v.HasImage || v.Preview != "" || v.Profile.Image != "/media/profile_images/me.png" {
		t.Fatalf("view after Submit = %+v", v)
	}
}

func TestSubmitWithoutChangesSkipsRequest(t *testing.T) {
	f := newFixture(t)
	f.mountWithBio(t, "Same")

	_ = f.editor.BeginEdit()
	if err := f.editor.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if f.backend.LastUpdate() != nil {
		t.Fatal("unchanged submit reached the backend")
	}
	if v := f.editor.View(); v.Editing || v.DraftBio != "Same" {
		t.Fatalf("view after an unchanged submit = %+v", v)
	}
	if msgs := f.flash.Drain(); len(msgs) != 1 || msgs[0].Kind != notify.KindSuccess {
		t.Fatalf("notifications = %v", msgs)
	}
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	f := newFixture(t)
	f.mountWithBio(t, "Before")

	_ = f.editor.BeginEdit()
	_ = f.editor.SetDraftBio("After")
	_ = f.editor.StageImage("me.png", pngBytes)

	f.backend.Fail("UpdateProfile", &api.RequestError{Status: 400, Message: "bio: too long"})

	err := f.editor.Submit(context.Background())
	if err == nil {
		t.Fatal("Submit succeeded")
	}

	v := f.editor.View()
	if !v.Editing || v.DraftBio != "After" || !v.HasImage || v.Profile.Bio != "Before" {
		t.Fatalf("view after failed Submit = %+v", v)
	}

	msgs := f.flash.Drain()
	if len(msgs) != 1 || msgs[0].Kind != notify.KindError || msgs[0].Text != "bio: too long" {
		t.Fatalf("notifications = %v", msgs)
	}

	if err := f.editor.Submit(context.Background()); err != nil {
		t.Fatalf("retry Submit: %v", err)
	}
	if v := f.editor.View(); v.Editing || v.Profile.Bio != "After" {
		t.Fatalf("view after retry = %+v", v)
	}
}

func TestMountKeepsOpenEdit(t *testing.T) {
	f := newFixture(t)
	f.mountWithBio(t, "Before")

	_ = f.editor.BeginEdit()
	_ = f.editor.SetDraftBio("Draft")

	f.editor.Mount(context.Background(), f.user)
	if v := f.editor.View(); !v.Editing || v.DraftBio != "Draft" {
		t.Fatalf("Mount discarded the open edit: %+v", v)
	}

	other := &domain.User{ID: f.user.ID + 100, Username: "grace"}
	f.editor.Mount(context.Background(), other)
	if v := f.editor.View(); v.Editing {
		t.Fatal("edit carried over to another user")
	}
}

func TestViewDisplayName(t *testing.T) {
	tests := []struct {
		user domain.User
		want string
	}{
		{domain.User{Username: "ada99", FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{domain.User{Username: "ada99"}, "ada99"},
	}
	for _, tt := range tests {
		v := View{Profile: &domain.Profile{User: tt.user}}
		if got := v.DisplayName(); got != tt.want {
			t.Errorf("DisplayName() = %q, want %q", got, tt.want)
		}
	}
}

func TestMountReportsEndedBackendSession(t *testing.T) {
	f := newFixture(t)
	f.mountWithBio(t, "Hello")

	_, _ = f.backend.Logout(context.Background())

	err := f.editor.Mount(context.Background(), &domain.User{ID: f.user.ID + 1, Username: "other"})
	if !errors.Is(err, ErrSignedOut) {
		t.Fatalf("Mount = %v, want ErrSignedOut", err)
	}
	if v := f.editor.View(); v.State != StateLoading || v.Profile != nil {
		t.Fatalf("view after signed-out mount = %+v", v)
	}
}

func TestSubmitClearedBioSendsNothing(t *testing.T) {
	f := newFixture(t)
	f.mountWithBio(t, "Keep me")

	_ = f.editor.BeginEdit()
	_ = f.editor.SetDraftBio("")

	if err := f.editor.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if f.backend.LastUpdate() != nil {
		t.Fatal("cleared bio reached the backend")
	}

	v := f.editor.View()
	if v.Editing || v.DraftBio != "Keep me" {
		t.Fatalf("view after Submit = %+v", v)
	}

	msgs := f.flash.Drain()
	if len(msgs) != 1 || msgs[0].Text != "Nothing to update" {
		t.Fatalf("notifications = %v", msgs)
	}
}
