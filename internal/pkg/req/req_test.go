package req

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"profilelounge/internal/pkg/errs"
)

func TestParseFormURLEncoded(t *testing.T) {
	body := url.Values{"username": {"  ada99 "}}.Encode()
	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	if customErr := ParseForm(w, r); customErr != nil {
		t.Fatalf("ParseForm: %v", customErr)
	}
	if got := FormValue(r, "username"); got != "ada99" {
		t.Fatalf("FormValue = %q, want ada99", got)
	}
}

func TestFormFile(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("bio", "hello")
	part, _ := mw.CreateFormFile("image", "me.png")
	_, _ = part.Write([]byte("png-bytes"))
	_ = mw.Close()

	r := httptest.NewRequest(http.MethodPost, "/dashboard/profile", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()

	if customErr := ParseForm(w, r); customErr != nil {
		t.Fatalf("ParseForm: %v", customErr)
	}

	name, data, ok, customErr := FormFile(r, "image")
	if customErr != nil || !ok {
		t.Fatalf("FormFile ok=%v err=%v", ok, customErr)
	}
	if name != "me.png" || string(data) != "png-bytes" {
		t.Fatalf("got %q %q", name, data)
	}

	if _, _, ok, _ := FormFile(r, "missing"); ok {
		t.Fatal("missing part reported as present")
	}
}

func TestParseFormTooLarge(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("image", "big.png")
	_, _ = part.Write(bytes.Repeat([]byte{'x'}, int(MaxRequestFileSize)+1))
	_ = mw.Close()

	r := httptest.NewRequest(http.MethodPost, "/dashboard/profile/image", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()

	customErr := ParseForm(w, r)
	if customErr == nil || customErr.Code != errs.ErrRequestEntityTooLarge {
		t.Fatalf("ParseForm = %v, want ErrRequestEntityTooLarge", customErr)
	}
}
