package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"profilelounge/internal/app/domain"
	"profilelounge/internal/pkg/randx"
)

const sessionCookie = "sessionid"

// Recorded is one request the Server received.
type Recorded struct {
	Method string
	Path   string
	Cookie string

	// Fields and Files are set for multipart bodies.
	Fields map[string]string
	Files  map[string][]byte

	// JSON is the raw body for JSON requests.
	JSON []byte
}

type override struct {
	status int
	body   string
}

// Server is an httptest server implementing the backend's REST endpoints
// under /api with cookie sessions.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	backend   *Backend
	sessions  map[string]string
	requests  []Recorded
	overrides map[string]override
}

// NewServer starts a server. Close it when done.
func NewServer() *Server {
	s := &Server{
		backend:   NewBackend(nil),
		sessions:  make(map[string]string),
		overrides: make(map[string]override),
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Route("/api", func(api chi.Router) {
		api.Post("/login/", s.handleLogin)
		api.Post("/register/", s.handleRegister)
		api.Post("/logout/", s.handleLogout)
		api.Get("/user/", s.handleUser)
		api.Get("/profile/", s.handleProfiles)
		api.Patch("/profile/{id}/", s.handleUpdate)
	})

	s.Server = httptest.NewServer(r)
	return s
}

// BaseURL is the API root to hand to api.Options.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// AddUser creates an account with an empty profile.
func (s *Server) AddUser(u domain.User, password string) *domain.Profile {
	return s.backend.AddUser(u, password)
}

// Respond makes the next request to path answer with status and the raw body.
func (s *Server) Respond(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[path] = override{status: status, body: body}
}

// Requests returns every request received so far.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recorded(nil), s.requests...)
}

// Last returns the most recent request for method and path.
func (s *Server) Last(method, path string) (Recorded, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Method == method && s.requests[i].Path == path {
			return s.requests[i], true
		}
	}
	return Recorded{}, false
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := Recorded{Method: r.Method, Path: r.URL.Path}
		if c, err := r.Cookie(sessionCookie); err == nil {
			rec.Cookie = c.Value
		}

		if r.Method == http.MethodPatch {
			if err := r.ParseMultipartForm(8 << 20); err == nil {
				rec.Fields = make(map[string]string)
				rec.Files = make(map[string][]byte)
				for k, v := range r.MultipartForm.Value {
					rec.Fields[k] = v[0]
				}
				for k, fh := range r.MultipartForm.File {
					f, err := fh[0].Open()
					if err == nil {
						rec.Files[k], _ = io.ReadAll(f)
						f.Close()
					}
				}
			}
		} else if r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			rec.JSON = raw
			r.Body = io.NopCloser(bytes.NewReader(raw))
		}

		s.mu.Lock()
		s.requests = append(s.requests, rec)
		ov, forced := s.overrides[r.URL.Path]
		delete(s.overrides, r.URL.Path)
		s.mu.Unlock()

		if forced {
			w.WriteHeader(ov.status)
			_, _ = io.WriteString(w, ov.body)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// sessionUser switches the shared Backend to the caller's session user.
func (s *Server) sessionUser(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	username, ok := s.sessions[c.Value]
	return username, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}

	res, err := s.backend.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		return
	}

	sid := randx.SessionID()
	s.mu.Lock()
	s.sessions[sid] = in.Username
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: sid, Path: "/", HttpOnly: true})
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in domain.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}

	fieldErrs := map[string][]string{}
	if in.Username == "" {
		fieldErrs["username"] = append(fieldErrs["username"], "This field may not be blank.")
	}
	if len(in.Password) < 8 {
		fieldErrs["password"] = append(fieldErrs["password"], "This password is too short.")
	}
	if len(fieldErrs) > 0 {
		writeJSON(w, http.StatusBadRequest, fieldErrs)
		return
	}

	if _, err := s.backend.Register(r.Context(), in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"A user with that username already exists."}})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Registration successful"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, c.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	username, ok := s.sessionUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authenticated"})
		return
	}

	s.backend.mu.Lock()
	acc := s.backend.accounts[username]
	s.backend.mu.Unlock()

	writeJSON(w, http.StatusOK, acc.user)
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	username, ok := s.sessionUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}

	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	out := []domain.Profile{}
	acc := s.backend.accounts[username]
	if p, ok := s.backend.profiles[acc.user.ID]; ok {
		out = append(out, *p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	username, ok := s.sessionUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}

	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	acc := s.backend.accounts[username]
	p, ok := s.backend.profiles[id]
	if !ok || p.User.ID != acc.user.ID {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}

	if r.MultipartForm != nil {
		if bio := r.MultipartForm.Value["bio"]; len(bio) > 0 {
			if len(bio[0]) > 500 {
				writeJSON(w, http.StatusBadRequest, map[string][]string{"bio": {"Ensure this field has no more than 500 characters."}})
				return
			}
			p.Bio = bio[0]
		}
		if files := r.MultipartForm.File["image"]; len(files) > 0 {
			p.Image = "/media/profile_images/" + files[0].Filename
		}
	}

	writeJSON(w, http.StatusOK, p)
}

// ExpireSessions forgets every backend session, as if they had timed out.
// Clients keep sending their now stale cookies.
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.sessions)
}
