/*
Package handler serves the Profile Lounge pages: the public index, the login
and registration forms, logout and the profile dashboard.
*/
package handler

import (
	"errors"
	"net/http"

	"profilelounge/internal/app/api"
	"profilelounge/internal/app/domain"
	"profilelounge/internal/app/nav"
	"profilelounge/internal/app/session"
	"profilelounge/internal/pkg/errs"
	"profilelounge/internal/pkg/logx"
	"profilelounge/internal/pkg/req"
)

// HandleIndex renders the public landing page.
func HandleIndex(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, http.StatusOK, "index", pageData{Title: "Home"})
	}
}

// HandleLoginPage renders the login form. Signed-in browsers are sent to the
// dashboard.
func HandleLoginPage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := entryFromContext(r)
		if _, ok := guard(w, r, entry, nav.RouteLogin, "Login"); !ok {
			return
		}
		render(w, r, http.StatusOK, "login", pageData{Title: "Login"})
	}
}

// HandleLogin signs the browser in and sends it to the dashboard. On failure
// the form is shown again with the username kept; the error message was
// already queued by the api client.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := entryFromContext(r)
		if entry.Store.Snapshot().Authenticated() {
			redirect(w, r, nav.PathDashboard)
			return
		}

		username := req.FormValue(r, "username")
		password := r.PostFormValue("password")
		form := map[string]string{"username": username}

		if username == "" || password == "" {
			entry.Flash.Error(errs.NewError(errs.ErrInvalidParams, "username, password").Message)
			render(w, r, http.StatusUnprocessableEntity, "login", pageData{Title: "Login", Form: form})
			return
		}

		if err := entry.Store.Login(r.Context(), username, password); err != nil {
			render(w, r, formStatus(err), "login", pageData{Title: "Login", Form: form})
			return
		}

		persist(r, deps, entry)
		redirect(w, r, nav.PathDashboard)
	}
}

// HandleRegisterPage renders the registration form.
func HandleRegisterPage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := entryFromContext(r)
		if _, ok := guard(w, r, entry, nav.RouteRegister, "Register"); !ok {
			return
		}
		render(w, r, http.StatusOK, "register", pageData{Title: "Register"})
	}
}

// HandleRegister creates the account and sends the browser to the login
// page. The new account is not signed in.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := entryFromContext(r)
		if entry.Store.Snapshot().Authenticated() {
			redirect(w, r, nav.PathDashboard)
			return
		}

		input := domain.RegisterInput{
			Username:  req.FormValue(r, "username"),
			Email:     req.FormValue(r, "email"),
			Password:  r.PostFormValue("password"),
			FirstName: req.FormValue(r, "first_name"),
			LastName:  req.FormValue(r, "last_name"),
		}
		form := map[string]string{
			"username":   input.Username,
			"email":      input.Email,
			"first_name": input.FirstName,
			"last_name":  input.LastName,
		}

		if input.Username == "" || input.Email == "" || input.Password == "" {
			entry.Flash.Error(errs.NewError(errs.ErrInvalidParams, "username, email, password").Message)
			render(w, r, http.StatusUnprocessableEntity, "register", pageData{Title: "Register", Form: form})
			return
		}

		if err := entry.Store.Register(r.Context(), input); err != nil {
			render(w, r, formStatus(err), "register", pageData{Title: "Register", Form: form})
			return
		}

		redirect(w, r, nav.PathLogin)
	}
}

// HandleLogout ends the backend session. The browser always lands on the
// login page. A backend that already dropped the session counts as logged
// out; any other failure leaves the user signed in and the guard there sends
// them back to the dashboard.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := entryFromContext(r)

		if err := entry.Store.Logout(r.Context()); err == nil {
			entry.Editor.Reset()
		}

		persist(r, deps, entry)
		redirect(w, r, nav.PathLogin)
	}
}

// formStatus picks the status for a form shown again after a failed call.
func formStatus(err error) int {
	var reqErr *api.RequestError
	if errors.As(err, &reqErr) && reqErr.Status == 0 {
		return http.StatusBadGateway
	}
	return http.StatusUnprocessableEntity
}

// persist saves the backend cookies after they changed. A failure only costs
// the session on the next restart, so it is logged and the request goes on.
func persist(r *http.Request, deps *AppDeps, entry *session.Entry) {
	if err := deps.Sessions.Persist(r.Context(), entry); err != nil {
		logx.Error(err, "Failed to persist session", "session_id", entry.ID)
	}
}
