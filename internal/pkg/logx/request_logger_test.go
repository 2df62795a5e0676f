package logx

import "testing"

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"203.0.113.42:5123", "203.0.113.0"},
		{"203.0.113.42", "203.0.113.0"},
		{"127.0.0.1:8080", "127.0.0.1"},
		{"[::1]:8080", "127.0.0.1"},
		{"[2001:db8:abcd:12:1:2:3:4]:443", "2001:db8:abcd:12::"},
		{"not-an-ip", "unknown_ip"},
	}

	for _, tt := range tests {
		if got := anonymizeIP(tt.in); got != tt.want {
			t.Errorf("anonymizeIP(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
