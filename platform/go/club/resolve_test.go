package club

import "testing"

func TestShortNameFromHost(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{"subdomain", "bentley.clubreserve.com", "bentley"},
		{"subdomain with port", "bentley.clubreserve.com:443", "bentley"},
		{"local dev", "clearlake.localhost:3000", "clearlake"},
		{"mixed case", "Bentley.ClubReserve.com", "bentley"},
		{"bare apex", "clubreserve.com", "clubreserve"},
		{"bare host", "localhost", ""},
		{"reserved www", "www.clubreserve.com", ""},
		{"reserved api", "api.clubreserve.com", ""},
		{"reserved admin", "admin.clubreserve.com", ""},
		{"reserved mail", "mail.clubreserve.com", ""},
		{"empty label", ".clubreserve.com", ""},
		{"empty host", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShortNameFromHost(tt.host); got != tt.want {
				t.Errorf("ShortNameFromHost(%q) = %q, want %q", tt.host, got, tt.want)
			}
		})
	}
}
