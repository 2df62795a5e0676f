package handler

import (
	"errors"
	"net/http"

	"profilelounge/internal/app/api"
	"profilelounge/internal/app/nav"
	"profilelounge/internal/app/profile"
	"profilelounge/internal/app/session"
	"profilelounge/internal/pkg/errs"
	"profilelounge/internal/pkg/logx"
	"profilelounge/internal/pkg/req"
)

// HandleDashboard shows the signed-in user's profile, in view or edit mode.
func HandleDashboard(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := entryFromContext(r)
		snap, ok := guard(w, r, entry, nav.RouteDashboard, "Dashboard")
		if !ok {
			return
		}

		if err := entry.Editor.Mount(r.Context(), snap.User); errors.Is(err, profile.ErrSignedOut) {
			expireSession(w, r, deps, entry)
			return
		}
		view := entry.Editor.View()

		render(w, r, http.StatusOK, "dashboard", pageData{
			Title:   "Dashboard",
			Profile: view,
			Avatar:  avatarSource(view, deps.Config.BackendURL),
		})
	}
}

// signedIn returns the entry of a signed-in browser, or redirects to the
// login page and returns nil.
func signedIn(w http.ResponseWriter, r *http.Request) *session.Entry {
	entry := entryFromContext(r)
	if !entry.Store.Snapshot().Authenticated() {
		redirect(w, r, nav.PathLogin)
		return nil
	}
	return entry
}

// HandleBeginEdit switches the dashboard to edit mode.
func HandleBeginEdit(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := signedIn(w, r)
		if entry == nil {
			return
		}

		if err := entry.Editor.BeginEdit(); err != nil {
			entry.Flash.Error(errs.NewError(errs.ErrProfileMissing).Message)
		}
		redirect(w, r, nav.PathDashboard)
	}
}

// HandleCancelEdit discards the draft and the staged image.
func HandleCancelEdit(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := signedIn(w, r)
		if entry == nil {
			return
		}

		entry.Editor.Cancel()
		redirect(w, r, nav.PathDashboard)
	}
}

// HandleStageImage keeps the uploaded image for preview. The bio typed so
// far is kept in the draft.
func HandleStageImage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := signedIn(w, r)
		if entry == nil {
			return
		}

		if err := entry.Editor.SetDraftBio(r.PostFormValue("bio")); err != nil {
			redirect(w, r, nav.PathDashboard)
			return
		}

		if !stageUpload(w, r, entry) {
			return
		}
		redirect(w, r, nav.PathDashboard)
	}
}

// HandleSubmitProfile saves the draft bio and the image, either staged
// earlier or uploaded with this form.
func HandleSubmitProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := signedIn(w, r)
		if entry == nil {
			return
		}

		if err := entry.Editor.SetDraftBio(r.PostFormValue("bio")); err != nil {
			redirect(w, r, nav.PathDashboard)
			return
		}

		if !stageUpload(w, r, entry) {
			return
		}

		err := entry.Editor.Submit(r.Context())
		switch {
		case err == nil:
		case api.IsUnauthorized(err):
			expireSession(w, r, deps, entry)
			return
		case errors.Is(err, profile.ErrSubmitting):
			entry.Flash.Error("Your changes are already being saved")
		case errors.Is(err, profile.ErrNotEditing), errors.Is(err, profile.ErrNoProfile):
		default:
			// The api client has queued the error message.
			logx.Debug("Profile update failed", "session_id", entry.ID, "error", err.Error())
		}

		redirect(w, r, nav.PathDashboard)
	}
}

// expireSession signs the browser out after the backend dropped its session
// and sends it to the login page.
func expireSession(w http.ResponseWriter, r *http.Request, deps *AppDeps, entry *session.Entry) {
	logx.Info("Backend session expired", "session_id", entry.ID, "path", r.URL.Path)

	entry.Store.Expire()
	entry.Editor.Reset()
	entry.Flash.Error(errs.NewError(errs.ErrUnauthorized).Message)

	persist(r, deps, entry)
	redirect(w, r, nav.PathLogin)
}

// stageUpload stages the optional image part of the form. It reports false
// after answering the request itself.
func stageUpload(w http.ResponseWriter, r *http.Request, entry *session.Entry) bool {
	filename, data, ok, customErr := req.FormFile(r, "image")
	if customErr != nil {
		renderError(w, r, customErr)
		return false
	}
	if !ok {
		return true
	}

	switch err := entry.Editor.StageImage(filename, data); {
	case err == nil:
		return true
	case errors.Is(err, profile.ErrNotAnImage), errors.Is(err, profile.ErrEmptyUpload):
		entry.Flash.Error(errs.NewError(errs.ErrNotAnImage).Message)
	}

	redirect(w, r, nav.PathDashboard)
	return false
}
