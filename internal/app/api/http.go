package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	"profilelounge/internal/app/domain"
	"profilelounge/internal/app/notify"
	"profilelounge/internal/pkg/logx"
)

// maxResponseBody caps how much of a backend reply is read.
const maxResponseBody = 1 << 20

// Options configures an HTTPClient.
type Options struct {
	// BaseURL is the backend API root, e.g. http://localhost:8000/api.
	BaseURL string

	// Timeout bounds each request. Zero means no client-side timeout.
	Timeout time.Duration

	// Transport overrides the round tripper, mainly for tests.
	Transport http.RoundTripper
}

// HTTPClient talks to the REST backend with its own cookie jar.
type HTTPClient struct {
	baseURL  string
	base     *url.URL
	http     *http.Client
	jar      http.CookieJar
	notifier notify.Notifier
	log      zerolog.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client with an empty cookie jar. Failures of
// mutating calls are reported to notifier.
func NewHTTPClient(opts Options, notifier notify.Notifier) (*HTTPClient, error) {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend base URL %q", opts.BaseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	if notifier == nil {
		notifier = notify.Log{}
	}

	return &HTTPClient{
		baseURL: baseURL,
		base:    base,
		http: &http.Client{
			Jar:       jar,
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
		jar:      jar,
		notifier: notifier,
		log:      logx.Component("api"),
	}, nil
}

// Cookies returns the backend cookies currently held for the base URL.
func (c *HTTPClient) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.base)
}

// SetCookies seeds the jar, typically from a persisted session.
func (c *HTTPClient) SetCookies(cookies []*http.Cookie) {
	c.jar.SetCookies(c.base, cookies)
}

// Login posts the credentials to /login/.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (*domain.LoginResult, error) {
	body := map[string]string{"username": username, "password": password}

	var out domain.LoginResult
	if err := c.mutate(ctx, "Login", "Login failed", http.MethodPost, "/login/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register posts the registration form to /register/.
func (c *HTTPClient) Register(ctx context.Context, input domain.RegisterInput) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.mutate(ctx, "Register", "Registration failed", http.MethodPost, "/register/", input, &out); err != nil {
		return "", err
	}
	if out.Message == "" {
		out.Message = "Registration successful"
	}
	return out.Message, nil
}

// Logout posts to /logout/.
func (c *HTTPClient) Logout(ctx context.Context) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.mutate(ctx, "Logout", "Logout failed", http.MethodPost, "/logout/", nil, &out); err != nil {
		return "", err
	}
	if out.Message == "" {
		out.Message = "Logged out successfully"
	}
	return out.Message, nil
}

// CurrentUser probes /user/.
func (c *HTTPClient) CurrentUser(ctx context.Context) (*domain.User, error) {
	var user domain.User
	found, err := c.probe(ctx, "/user/", &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// Profile fetches /profile/ and returns its first element.
func (c *HTTPClient) Profile(ctx context.Context) (*domain.Profile, error) {
	var profiles []domain.Profile
	found, err := c.probe(ctx, "/profile/", &profiles)
	if err != nil || !found || len(profiles) == 0 {
		return nil, err
	}
	return &profiles[0], nil
}

// UpdateProfile PATCHes /profile/{id}/ with a multipart body holding only the set fields.
func (c *HTTPClient) UpdateProfile(ctx context.Context, profileID int64, update domain.ProfileUpdate) (*domain.Profile, error) {
	const op, fallback = "UpdateProfile", "Failed to update profile"

	body, contentType, err := encodeProfileUpdate(update)
	if err != nil {
		return nil, c.fail(op, &RequestError{Op: op, Message: fallback, Err: err})
	}

	req, err := c.newRequest(ctx, http.MethodPatch, fmt.Sprintf("/profile/%d/", profileID), body, contentType)
	if err != nil {
		return nil, c.fail(op, &RequestError{Op: op, Message: fallback, Err: err})
	}

	var out domain.Profile
	if err := c.do(req, op, fallback, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// mutate sends a JSON request (or an empty one when payload is nil) and decodes the reply into out.
func (c *HTTPClient) mutate(ctx context.Context, op, fallback, method, path string, payload, out any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return c.fail(op, &RequestError{Op: op, Message: fallback, Err: err})
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}

	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return c.fail(op, &RequestError{Op: op, Message: fallback, Err: err})
	}

	return c.do(req, op, fallback, out)
}

func (c *HTTPClient) do(req *http.Request, op, fallback string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(op, &RequestError{Op: op, Message: fallback, Err: err})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return c.fail(op, &RequestError{Op: op, Status: resp.StatusCode, Message: fallback, Err: err})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.fail(op, &RequestError{
			Op:      op,
			Status:  resp.StatusCode,
			Message: DeriveMessage(resp.StatusCode, statusText(resp), raw),
		})
	}

	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return c.fail(op, &RequestError{Op: op, Status: resp.StatusCode, Message: fallback, Err: err})
		}
	}

	return nil
}

// fail logs and notifies a failed mutating call, then hands the error back.
func (c *HTTPClient) fail(op string, reqErr *RequestError) error {
	c.log.Warn().
		Err(reqErr.Err).
		Str("op", op).
		Int("status", reqErr.Status).
		Str("message", reqErr.Message).
		Msg("Backend request failed")

	c.notifier.Error(reqErr.Message)
	return reqErr
}

// probe GETs path into out. A 401 is reported as found=false without error.
func (c *HTTPClient) probe(ctx context.Context, path string, out any) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("Backend probe failed")
		return false, fmt.Errorf("%w: GET %s: %v", ErrUnreachable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
		return false, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("Backend probe returned an error status")
		return false, fmt.Errorf("%w: GET %s: HTTP %d", ErrUnreachable, path, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(out); err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("Backend probe returned an unreadable body")
		return false, fmt.Errorf("%w: GET %s: %v", ErrUnreachable, path, err)
	}

	return true, nil
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeProfileUpdate writes bio only when non-empty and image only when staged.
func encodeProfileUpdate(update domain.ProfileUpdate) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if update.Bio != "" {
		if err := mw.WriteField("bio", update.Bio); err != nil {
			return nil, "", err
		}
	}

	if img := update.Image; img != nil {
		if len(img.Data) == 0 {
			return nil, "", errors.New("staged image is empty")
		}

		contentType := img.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		filename := img.Filename
		if filename == "" {
			filename = "avatar"
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, quoteEscaper.Replace(filename)))
		h.Set("Content-Type", contentType)

		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}

	return &buf, mw.FormDataContentType(), nil
}
