package club

import (
	"context"

	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

// Context captures the routing state resolved once at request entry: the club
// record and the connection handle for its isolated database. The handle is
// fetched at request start and discarded at request end; it is never shared
// across requests for different clubs.
type Context struct {
	Club Club
	DB   *persistence.Handle
}

type ctxKey struct{}

// WithContext returns a derived context carrying the resolved club state.
func WithContext(ctx context.Context, cc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, cc)
}

// FromContext extracts the resolved club state and whether it is present.
func FromContext(ctx context.Context) (Context, bool) {
	v := ctx.Value(ctxKey{})
	if v == nil {
		return Context{}, false
	}
	cc, ok := v.(Context)
	return cc, ok
}
