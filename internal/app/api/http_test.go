package api_test

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"profilelounge/internal/app/api"
	"profilelounge/internal/app/api/apitest"
	"profilelounge/internal/app/domain"
	"profilelounge/internal/app/notify"
)

func newClient(t *testing.T, baseURL string) (*api.HTTPClient, *notify.Flash) {
	t.Helper()
	flash := notify.NewFlash()
	c, err := api.NewHTTPClient(api.Options{BaseURL: baseURL, Timeout: 5 * time.Second}, flash)
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	return c, flash
}

func newServer(t *testing.T) *apitest.Server {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	srv.AddUser(domain.User{Username: "ada99", Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"}, "correct-horse")
	return srv
}

func TestLoginEstablishesSession(t *testing.T) {
	srv := newServer(t)
	c, flash := newClient(t, srv.BaseURL())
	ctx := context.Background()

	if u, err := c.CurrentUser(ctx); u != nil || err != nil {
		t.Fatalf("CurrentUser before login = %v, %v; want nil, nil", u, err)
	}

	res, err := c.Login(ctx, "ada99", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.User.Username != "ada99" || res.Message != "Login successful" {
		t.Fatalf("Login result = %+v", res)
	}
	if len(c.Cookies()) == 0 {
		t.Fatal("no backend cookie stored after login")
	}

	u, err := c.CurrentUser(ctx)
	if err != nil || u == nil || u.Username != "ada99" {
		t.Fatalf("CurrentUser after login = %v, %v", u, err)
	}

	if msgs := flash.Drain(); len(msgs) != 0 {
		t.Fatalf("unexpected notifications %v", msgs)
	}

	if _, err := c.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if u, _ := c.CurrentUser(ctx); u != nil {
		t.Fatalf("CurrentUser after logout = %v", u)
	}
}

func TestLoginFailureNotifies(t *testing.T) {
	srv := newServer(t)
	c, flash := newClient(t, srv.BaseURL())

	_, err := c.Login(context.Background(), "ada99", "wrong")

	var reqErr *api.RequestError
	if !errors.As(err, &reqErr) || reqErr.Status != http.StatusUnauthorized {
		t.Fatalf("Login error = %v, want 401 RequestError", err)
	}
	if !api.IsUnauthorized(err) {
		t.Fatal("IsUnauthorized() = false")
	}

	msgs := flash.Drain()
	if len(msgs) != 1 || msgs[0].Kind != notify.KindError || msgs[0].Text != "Invalid credentials" {
		t.Fatalf("notifications = %v", msgs)
	}
}

func TestRegisterFieldErrors(t *testing.T) {
	srv := newServer(t)
	c, flash := newClient(t, srv.BaseURL())

	_, err := c.Register(context.Background(), domain.RegisterInput{Username: "grace", Email: "g@example.com", Password: "short"})
	var reqErr *api.RequestError
	if !errors.As(err, &reqErr) || reqErr.Message != "password: This password is too short." {
		t.Fatalf("err = %v", err)
	}
	if msgs := flash.Drain(); len(msgs) != 1 {
		t.Fatalf("notifications = %v", msgs)
	}

	rec, ok := srv.Last(http.MethodPost, "/api/register/")
	if !ok {
		t.Fatal("register request not recorded")
	}
	if string(rec.JSON) == "" {
		t.Fatal("register body empty")
	}

	msg, err := c.Register(context.Background(), domain.RegisterInput{Username: "grace", Email: "g@example.com", Password: "long-enough"})
	if err != nil || msg != "Registration successful" {
		t.Fatalf("Register = %q, %v", msg, err)
	}
	if u, _ := c.CurrentUser(context.Background()); u != nil {
		t.Fatal("registration created a session")
	}
}

func TestCurrentUserSoftFails(t *testing.T) {
	srv := newServer(t)
	c, flash := newClient(t, srv.BaseURL())
	ctx := context.Background()

	srv.Respond("/api/user/", http.StatusInternalServerError, "boom")
	u, err := c.CurrentUser(ctx)
	if u != nil || !errors.Is(err, api.ErrUnreachable) {
		t.Fatalf("CurrentUser on 500 = %v, %v", u, err)
	}

	srv.Close()
	u, err = c.CurrentUser(ctx)
	if u != nil || !errors.Is(err, api.ErrUnreachable) {
		t.Fatalf("CurrentUser with server down = %v, %v", u, err)
	}

	if msgs := flash.Drain(); len(msgs) != 0 {
		t.Fatalf("probe failures must not notify, got %v", msgs)
	}
}

func TestProfileTakesFirstElement(t *testing.T) {
	srv := newServer(t)
	c, _ := newClient(t, srv.BaseURL())
	ctx := context.Background()

	if p, err := c.Profile(ctx); p != nil || err != nil {
		t.Fatalf("Profile unauthenticated = %v, %v; want nil, nil", p, err)
	}

	if _, err := c.Login(ctx, "ada99", "correct-horse"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	p, err := c.Profile(ctx)
	if err != nil || p == nil || p.User.Username != "ada99" {
		t.Fatalf("Profile = %v, %v", p, err)
	}

	srv.Respond("/api/profile/", http.StatusOK, `[]`)
	if p, err := c.Profile(ctx); p != nil || err != nil {
		t.Fatalf("Profile on empty list = %v, %v", p, err)
	}

	srv.Respond("/api/profile/", http.StatusOK, `[{"id":7,"bio":"first"},{"id":8,"bio":"second"}]`)
	p, err = c.Profile(ctx)
	if err != nil || p == nil || p.ID != 7 || p.Bio != "first" {
		t.Fatalf("Profile = %+v, %v; want the first element", p, err)
	}
}

func TestUpdateProfileSendsOnlySetFields(t *testing.T) {
	srv := newServer(t)
	c, flash := newClient(t, srv.BaseURL())
	ctx := context.Background()

	if _, err := c.Login(ctx, "ada99", "correct-horse"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	p, _ := c.Profile(ctx)
	path := "/api/profile/" + strconv.FormatInt(p.ID, 10) + "/"

	updated, err := c.UpdateProfile(ctx, p.ID, domain.ProfileUpdate{Bio: "Analyst"})
	if err != nil || updated.Bio != "Analyst" {
		t.Fatalf("UpdateProfile bio = %+v, %v", updated, err)
	}
	rec, _ := srv.Last(http.MethodPatch, path)
	if rec.Fields["bio"] != "Analyst" {
		t.Fatalf("bio field = %q", rec.Fields["bio"])
	}
	if _, ok := rec.Files["image"]; ok {
		t.Fatal("image sent with a bio-only update")
	}

	img := &domain.ImageFile{Filename: "me.png", ContentType: "image/png", Data: []byte("\x89PNG\r\n\x1a\nrest")}
	updated, err = c.UpdateProfile(ctx, p.ID, domain.ProfileUpdate{Image: img})
	if err != nil || updated.Image != "/media/profile_images/me.png" {
		t.Fatalf("UpdateProfile image = %+v, %v", updated, err)
	}
	rec, _ = srv.Last(http.MethodPatch, path)
	if _, ok := rec.Fields["bio"]; ok {
		t.Fatal("bio sent with an image-only update")
	}
	if string(rec.Files["image"]) != string(img.Data) {
		t.Fatal("image bytes not sent")
	}

	srv.Respond(path, http.StatusBadRequest, `{"bio":["Ensure this field has no more than 500 characters."]}`)
	if _, err := c.UpdateProfile(ctx, p.ID, domain.ProfileUpdate{Bio: "x"}); err == nil {
		t.Fatal("UpdateProfile succeeded on a 400")
	}
	msgs := flash.Drain()
	if len(msgs) != 1 || msgs[0].Text != "bio: Ensure this field has no more than 500 characters." {
		t.Fatalf("notifications = %v", msgs)
	}
}

func TestCookiesRestoreSession(t *testing.T) {
	srv := newServer(t)
	first, _ := newClient(t, srv.BaseURL())
	ctx := context.Background()

	if _, err := first.Login(ctx, "ada99", "correct-horse"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	second, _ := newClient(t, srv.BaseURL())
	second.SetCookies(first.Cookies())

	u, err := second.CurrentUser(ctx)
	if err != nil || u == nil || u.Username != "ada99" {
		t.Fatalf("CurrentUser on restored client = %v, %v", u, err)
	}
}

func TestTransportFailureNotifies(t *testing.T) {
	srv := newServer(t)
	c, flash := newClient(t, srv.BaseURL())
	srv.Close()

	_, err := c.Logout(context.Background())

	var reqErr *api.RequestError
	if !errors.As(err, &reqErr) || reqErr.Status != 0 || reqErr.Message != "Logout failed" {
		t.Fatalf("Logout error = %#v", err)
	}
	if msgs := flash.Drain(); len(msgs) != 1 || msgs[0].Text != "Logout failed" {
		t.Fatalf("notifications = %v", msgs)
	}
}

func TestNewHTTPClientRejectsRelativeURL(t *testing.T) {
	if _, err := api.NewHTTPClient(api.Options{BaseURL: "/api"}, nil); err == nil {
		t.Fatal("relative base URL accepted")
	}
}
