package handler

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"profilelounge/internal/app/nav"
	"profilelounge/internal/app/notify"
	"profilelounge/internal/app/profile"
	"profilelounge/internal/app/session"
	"profilelounge/internal/pkg/errs"
	"profilelounge/internal/pkg/logx"
	"profilelounge/internal/pkg/resp"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = parsePages("index", "login", "register", "dashboard", "loading", "error")

func parsePages(names ...string) map[string]*template.Template {
	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		out[name] = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
	return out
}

// pageData is the root value of every template. The layout fields are filled
// by render from the request's session entry.
type pageData struct {
	Title     string
	Links     []nav.Link
	Flash     []notify.Message
	CSRFToken string
	Session   session.Snapshot

	// Notice is a banner kept on every page while it applies.
	Notice string

	// Refresh makes the page reload itself after this many seconds.
	Refresh int

	Form    map[string]string
	Profile profile.View
	Avatar  any
	Error   *errs.CustomError
}

func render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	if entry := entryFromContext(r); entry != nil {
		data.CSRFToken = entry.CSRFToken
		data.Session = entry.Store.Snapshot()
		data.Links = nav.Links(data.Session)
		data.Flash = entry.Flash.Drain()
		if data.Session.Status == session.StatusUnreachable {
			data.Notice = errs.NewError(errs.ErrBackendUnavailable).Message
		}
	}

	var buf bytes.Buffer
	if err := pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		logx.Error(err, "Failed to render page", "page", page)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderError writes customErr as JSON under /api and as an HTML page elsewhere.
func renderError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		resp.RespondError(w, r, customErr)
		return
	}
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}
	render(w, r, customErr.Status, "error", pageData{Title: "Error", Error: customErr})
}

func renderLoading(w http.ResponseWriter, r *http.Request, title string) {
	render(w, r, http.StatusOK, "loading", pageData{Title: title, Refresh: 1})
}

func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// avatarSource resolves the avatar for an img src. Staged previews are data
// URLs, which html/template only accepts as template.URL; backend media paths
// are resolved against the backend's origin.
func avatarSource(view profile.View, backendURL string) any {
	src := view.AvatarSrc()
	if src == "" {
		return nil
	}
	if strings.HasPrefix(src, "data:image/") {
		return template.URL(src)
	}
	if strings.HasPrefix(src, "/") && !strings.HasPrefix(src, "//") {
		if base, err := url.Parse(backendURL); err == nil {
			return base.Scheme + "://" + base.Host + src
		}
	}
	return src
}
