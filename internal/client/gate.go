package client

import (
	"context"
	"time"

	"github.com/assetverse/assetverse-api/internal/domain/access"
	"github.com/assetverse/assetverse-api/internal/domain/entity"
)

// Gate compuerta de autorización del lado cliente para una sesión.
type Gate struct {
	resolver access.Resolver
	timeout  time.Duration
}

// NewGate crea la compuerta. Con resolver nil se usa la resolución guardada en la sesión;
// con un resolver se vuelve a resolver en cada evaluación (p. ej. tras un cambio de rol).
func NewGate(resolver access.Resolver, timeout time.Duration) *Gate {
	return &Gate{resolver: resolver, timeout: timeout}
}

// Evaluate decide si la sesión accede a un subárbol restringido a allowed.
// Sin sesión → Denied(unauthenticated).
func (g *Gate) Evaluate(ctx context.Context, s *Session, allowed ...entity.Role) access.Decision {
	if !s.Authenticated() {
		return access.Decision{State: access.StateDenied, Reason: access.ReasonUnauthenticated}
	}
	var r access.Resolver = sessionResolver{s}
	if g.resolver != nil {
		r = g.resolver
	}
	return access.NewGate(r, g.timeout).Evaluate(ctx, s.Email(), allowed...)
}

type sessionResolver struct{ s *Session }

func (r sessionResolver) Resolve(context.Context, string) access.Resolution {
	return r.s.Resolution()
}
