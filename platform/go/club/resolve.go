package club

import "strings"

// reservedLabels are host labels that can never name a club.
var reservedLabels = map[string]struct{}{
	"www":        {},
	"api":        {},
	"admin":      {},
	"superadmin": {},
	"mail":       {},
}

// ShortNameFromHost extracts a club short name from a request host: the
// first label of any dotted host. "bentley.clubreserve.com" and
// "bentley.localhost" both yield "bentley"; single-label hosts ("localhost")
// and reserved labels yield "". A bare apex yields its first label, which the
// registry then fails to resolve.
func ShortNameFromHost(host string) string {
	hostOnly := host
	if i := strings.IndexByte(hostOnly, ':'); i >= 0 {
		hostOnly = hostOnly[:i]
	}
	hostOnly = strings.ToLower(hostOnly)

	parts := strings.Split(hostOnly, ".")
	if len(parts) < 2 {
		return ""
	}

	candidate := parts[0]
	if candidate == "" {
		return ""
	}
	if _, reserved := reservedLabels[candidate]; reserved {
		return ""
	}
	return candidate
}
