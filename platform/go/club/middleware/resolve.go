// Package middleware resolves the club for every inbound request.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	registryservice "github.com/clubreserve/clubreserve/domains/registry/be/service"
	"github.com/clubreserve/clubreserve/platform/go/club"
	"github.com/clubreserve/clubreserve/platform/go/logging"
	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

// Resolver is the minimal registry capability the middleware needs.
type Resolver interface {
	Resolve(ctx context.Context, host string) (club.Club, error)
	DSN(c club.Club) string
}

// WithClub resolves the club from the request host, opens its connection
// handle, and attaches both to the request context. Requests that resolve to
// no active club get 404 — never a default club.
func WithClub(resolver Resolver, clubDB *persistence.ClubDB, fallback *zap.Logger) func(http.Handler) http.Handler {
	if resolver == nil {
		panic("club middleware: resolver is required")
	}
	if clubDB == nil {
		panic("club middleware: club db is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logging.FromRequest(r, fallback)

			resolved, err := resolver.Resolve(r.Context(), r.Host)
			if err != nil {
				if errors.Is(err, registryservice.ErrNotFound) {
					logger.Warn("no club resolved", zap.String("host", r.Host))
					http.Error(w, "unknown club", http.StatusNotFound)
					return
				}
				logger.Error("club resolution failed", zap.String("host", r.Host), zap.Error(err))
				http.Error(w, "club resolution failed", http.StatusServiceUnavailable)
				return
			}

			handle, err := clubDB.Handle(r.Context(), resolver.DSN(resolved))
			if err != nil {
				logger.Error("club database unavailable",
					zap.String("club", resolved.ShortName), zap.Error(err))
				http.Error(w, "club database unavailable", http.StatusServiceUnavailable)
				return
			}

			ctx := club.WithContext(r.Context(), club.Context{Club: resolved, DB: handle})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
