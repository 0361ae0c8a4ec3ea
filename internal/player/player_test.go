package player

import "testing"

func TestDisplayName(t *testing.T) {
	cases := []struct {
		name string
		in   Identity
		want string
	}{
		{"username", Identity{ID: "42", Username: "seal_fan", FirstName: "Ann"}, "@seal_fan"},
		{"full name", Identity{ID: "42", FirstName: "Ann", LastName: "Lee"}, "Ann Lee"},
		{"first only", Identity{ID: "42", FirstName: "Ann"}, "Ann"},
		{"id fallback", Identity{ID: "123456789"}, "user_123456"},
		{"short id", Identity{ID: "77"}, "user_77"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.DisplayName(); got != tc.want {
				t.Errorf("DisplayName() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValid(t *testing.T) {
	if (Identity{}).Valid() {
		t.Error("empty identity should be invalid")
	}
	if (Identity{ID: "  "}).Valid() {
		t.Error("blank id should be invalid")
	}
	if !(Identity{ID: "1"}).Valid() {
		t.Error("identity with id should be valid")
	}
}
