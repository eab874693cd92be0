// Package secrets resolves named secrets for per-club connection credentials.
package secrets

import (
	"os"
	"strings"
)

// Store looks up secrets by name. Absence is not an error: a missing secret
// means the caller falls back to the shared single-club connection target.
type Store interface {
	Lookup(name string) (string, bool)
}

// DBPasswordName derives the deterministic secret name for a club database
// user: DB_PASS_<DB_USER_UPPER>, e.g. club_bentley_user -> DB_PASS_CLUB_BENTLEY_USER.
func DBPasswordName(dbUser string) string {
	return "DB_PASS_" + strings.ToUpper(dbUser)
}

// EnvStore resolves secrets from process environment variables.
type EnvStore struct{}

func (EnvStore) Lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// StaticStore is a fixed map of secrets, used by tests.
type StaticStore map[string]string

func (s StaticStore) Lookup(name string) (string, bool) {
	v, ok := s[name]
	return v, ok && v != ""
}
