package domain

import "testing"

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"first and last", User{Username: "ada99", FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{"first only", User{Username: "ada99", FirstName: "Ada"}, "Ada "},
		{"no first name", User{Username: "ada99", LastName: "Lovelace"}, "ada99"},
		{"nothing", User{Username: "ada99"}, "ada99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayName(tt.user); got != tt.want {
				t.Fatalf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProfileUpdateEmpty(t *testing.T) {
	if !(ProfileUpdate{}).Empty() {
		t.Fatal("zero update should be empty")
	}
	if (ProfileUpdate{Bio: "x"}).Empty() {
		t.Fatal("bio update reported empty")
	}
	if (ProfileUpdate{Image: &ImageFile{}}).Empty() {
		t.Fatal("image update reported empty")
	}
}
