package randx

import "testing"

func TestCSRFToken(t *testing.T) {
	a, err := CSRFToken()
	if err != nil {
		t.Fatalf("CSRFToken: %v", err)
	}
	b, _ := CSRFToken()

	if !IsValidCSRFToken(a) {
		t.Fatalf("token %q is not valid", a)
	}
	if a == b {
		t.Fatal("two tokens are equal")
	}
	if IsValidCSRFToken(a[:10]) || IsValidCSRFToken(a[:31]+"!") {
		t.Fatal("malformed token accepted")
	}
}

func TestSessionID(t *testing.T) {
	id := SessionID()
	if !IsValidSessionID(id) {
		t.Fatalf("session id %q does not parse", id)
	}
	if IsValidSessionID("nope") {
		t.Fatal("garbage accepted as session id")
	}
}
