package jwt

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(&Payload{SessionID: "abc"}, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	payload, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if payload.SessionID != "abc" {
		t.Fatalf("SessionID = %q", payload.SessionID)
	}

	if _, err := ParseToken(token, "other-secret"); err == nil {
		t.Fatal("token accepted with the wrong secret")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GenerateToken(&Payload{SessionID: "abc"}, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseToken(token, testSecret); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestSessionExtractorMiddleware(t *testing.T) {
	w := httptest.NewRecorder()
	if err := SetSessionCookie(w, "sid-1", CookieOptions{Secret: testSecret}); err != nil {
		t.Fatalf("SetSessionCookie: %v", err)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookies %+v", cookies)
	}

	var seen *Payload
	h := SessionExtractorMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetPayloadFromContext(r)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookies[0])
	h.ServeHTTP(httptest.NewRecorder(), r)
	if seen == nil || seen.SessionID != "sid-1" {
		t.Fatalf("payload = %+v", seen)
	}

	seen = nil
	bad := httptest.NewRequest(http.MethodGet, "/", nil)
	bad.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	h.ServeHTTP(httptest.NewRecorder(), bad)
	if seen != nil {
		t.Fatal("garbage cookie produced a payload")
	}
}
