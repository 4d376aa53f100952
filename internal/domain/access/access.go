// Package access modela la autorización por rol: el resultado de resolver el rol de
// una identidad y la compuerta que decide si un subárbol protegido se muestra.
package access

import (
	"context"
	"time"

	"github.com/assetverse/assetverse-api/internal/domain/entity"
)

// Resolution resultado de resolver el rol de una identidad.
// Defaulted indica que el rol no pudo confirmarse (fallo de red o registro sin rol).
type Resolution struct {
	Role      entity.Role `json:"role"`
	Defaulted bool        `json:"defaulted"`
}

// Confirmed construye una resolución confirmada.
func Confirmed(r entity.Role) Resolution {
	return Resolution{Role: r}
}

// Defaulted construye la resolución de mínimo privilegio.
func Defaulted() Resolution {
	return Resolution{Role: entity.RoleUnknown, Defaulted: true}
}

// Effective rol con el que se autoriza: unknown se trata como employee.
func (r Resolution) Effective() entity.Role {
	if r.Role == entity.RoleUnknown || r.Role == "" {
		return entity.RoleEmployee
	}
	return r.Role
}

// Permits informa si el rol efectivo está entre los permitidos.
// Sin roles permitidos basta con estar autenticado.
func Permits(r Resolution, allowed ...entity.Role) bool {
	if len(allowed) == 0 {
		return true
	}
	eff := r.Effective()
	for _, a := range allowed {
		if eff == a {
			return true
		}
	}
	return false
}

// Principal identidad autenticada con su rol resuelto, tal como llega a los casos de uso.
type Principal struct {
	UserID     string
	Email      string
	Resolution Resolution
}

// Role atajo al rol efectivo.
func (p Principal) Role() entity.Role { return p.Resolution.Effective() }

// Resolver resuelve el rol de una identidad. Nunca falla: ante error devuelve Defaulted().
type Resolver interface {
	Resolve(ctx context.Context, email string) Resolution
}

// State estado de la compuerta de autorización.
type State string

const (
	StateVerifying  State = "verifying"
	StateDenied     State = "denied"
	StateAuthorized State = "authorized"
)

// DenyReason motivo de un Denied; define qué se muestra al usuario.
type DenyReason string

const (
	ReasonUnauthenticated DenyReason = "unauthenticated" // pedir login
	ReasonForbidden       DenyReason = "forbidden"       // mensaje de permisos, sin redirección
	ReasonTimeout         DenyReason = "timeout"         // ofrecer reintento
)

// Decision resultado de evaluar la compuerta.
type Decision struct {
	State      State      `json:"state"`
	Reason     DenyReason `json:"reason,omitempty"`
	Resolution Resolution `json:"resolution"`
	Retryable  bool       `json:"retryable"`
}

// Authorized atajo para State == StateAuthorized.
func (d Decision) Authorized() bool { return d.State == StateAuthorized }

// Verifying decisión inicial mientras la resolución está en curso.
func Verifying() Decision { return Decision{State: StateVerifying} }

// DefaultGateTimeout tiempo máximo en Verifying antes de pasar a Denied.
const DefaultGateTimeout = 10 * time.Second

// Gate compuerta por ruta: Verifying → Denied | Authorized.
type Gate struct {
	resolver Resolver
	timeout  time.Duration
}

// NewGate construye la compuerta. timeout <= 0 usa DefaultGateTimeout.
func NewGate(resolver Resolver, timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = DefaultGateTimeout
	}
	return &Gate{resolver: resolver, timeout: timeout}
}

// Evaluate resuelve el rol de email y decide. Sin identidad → Denied(unauthenticated).
// Si la resolución no termina dentro del timeout → Denied(timeout) reintentable.
func (g *Gate) Evaluate(ctx context.Context, email string, allowed ...entity.Role) Decision {
	if email == "" {
		return Decision{State: StateDenied, Reason: ReasonUnauthenticated}
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan Resolution, 1)
	go func() { done <- g.resolver.Resolve(ctx, email) }()

	select {
	case res := <-done:
		return Decide(res, allowed...)
	case <-ctx.Done():
		return Decision{State: StateDenied, Reason: ReasonTimeout, Retryable: true}
	}
}

// Decide aplica la política a una resolución ya obtenida.
func Decide(res Resolution, allowed ...entity.Role) Decision {
	if !Permits(res, allowed...) {
		return Decision{State: StateDenied, Reason: ReasonForbidden, Resolution: res}
	}
	return Decision{State: StateAuthorized, Resolution: res}
}
