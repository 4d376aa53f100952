// Package role resuelve el rol efectivo de una identidad.
//
// Precedencia: la membresía de administradores es autoritativa y se consulta primero;
// si no es admin se usa el rol guardado en el registro del usuario. Cualquier fallo
// (red, registro ausente, rol inválido) termina en access.Defaulted(): nunca se
// concede más privilegio del confirmado y nunca se propaga el error.
package role

import (
	"context"
	"fmt"
	"time"

	"github.com/assetverse/assetverse-api/internal/domain/access"
	"github.com/assetverse/assetverse-api/internal/domain/entity"
	"github.com/assetverse/assetverse-api/pkg/logger"
)

// AdminChecker consulta si el email pertenece a un administrador de plataforma.
type AdminChecker interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
}

// UserRoleSource devuelve el campo role del registro del usuario ("" si no existe).
type UserRoleSource interface {
	UserRole(ctx context.Context, email string) (string, error)
}

// Cache almacenamiento clave/valor con TTL para resoluciones confirmadas.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Observer recibe cada resolución (métricas).
type Observer interface {
	ObserveResolution(role entity.Role, defaulted, cached bool)
}

// Purpose propósito de la clave de caché.
const Purpose = "role"

// CacheKey clave (propósito, email) de una resolución.
func CacheKey(purpose, email string) string {
	return fmt.Sprintf("assetverse:%s:%s", purpose, email)
}

// Resolver implementa access.Resolver.
type Resolver struct {
	admins   AdminChecker
	users    UserRoleSource
	cache    Cache
	ttl      time.Duration
	observer Observer
	log      *logger.Logger
}

var _ access.Resolver = (*Resolver)(nil)

// Option configura el Resolver.
type Option func(*Resolver)

// WithCache activa la caché de resoluciones confirmadas.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(r *Resolver) {
		r.cache = c
		r.ttl = ttl
	}
}

// WithObserver registra un observador de resoluciones.
func WithObserver(o Observer) Option {
	return func(r *Resolver) { r.observer = o }
}

// WithLogger inyecta el logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Resolver) { r.log = logger.OrNop(l) }
}

// NewResolver construye el resolver.
func NewResolver(admins AdminChecker, users UserRoleSource, opts ...Option) *Resolver {
	r := &Resolver{admins: admins, users: users, log: logger.Nop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve devuelve el rol de email. Solo se cachean resoluciones confirmadas para que un
// fallo transitorio no deje al usuario con menos privilegios más allá de esta petición.
func (r *Resolver) Resolve(ctx context.Context, email string) access.Resolution {
	email = entity.NormalizeEmail(email)
	if email == "" {
		return r.observe(access.Defaulted(), false)
	}
	key := CacheKey(Purpose, email)

	if r.cache != nil {
		v, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			r.log.Warn().Err(err).Str("email", email).Msg("caché de roles no disponible")
		} else if ok {
			if role, valid := entity.ParseRole(v); valid {
				return r.observe(access.Confirmed(role), true)
			}
		}
	}

	res := r.resolve(ctx, email)
	if !res.Defaulted && r.cache != nil {
		if err := r.cache.Set(ctx, key, res.Role.String(), r.ttl); err != nil {
			r.log.Warn().Err(err).Str("email", email).Msg("no se pudo cachear el rol")
		}
	}
	return r.observe(res, false)
}

func (r *Resolver) resolve(ctx context.Context, email string) access.Resolution {
	isAdmin, err := r.admins.IsAdmin(ctx, email)
	if err != nil {
		r.log.Warn().Err(err).Str("email", email).Msg("verificación de admin fallida, rol por defecto")
		return access.Defaulted()
	}
	if isAdmin {
		return access.Confirmed(entity.RoleAdmin)
	}

	stored, err := r.users.UserRole(ctx, email)
	if err != nil {
		r.log.Warn().Err(err).Str("email", email).Msg("consulta de rol fallida, rol por defecto")
		return access.Defaulted()
	}
	role, ok := entity.ParseRole(stored)
	// Un "admin" guardado sin membresía autoritativa no se respeta.
	if !ok || role == entity.RoleAdmin {
		return access.Defaulted()
	}
	return access.Confirmed(role)
}

func (r *Resolver) observe(res access.Resolution, cached bool) access.Resolution {
	if r.observer != nil {
		r.observer.ObserveResolution(res.Role, res.Defaulted, cached)
	}
	return res
}

// Invalidate borra la resolución cacheada de email (borrado de usuario, cambio de admin).
func (r *Resolver) Invalidate(ctx context.Context, email string) {
	if r.cache == nil {
		return
	}
	email = entity.NormalizeEmail(email)
	if err := r.cache.Delete(ctx, CacheKey(Purpose, email)); err != nil {
		r.log.Warn().Err(err).Str("email", email).Msg("no se pudo invalidar el rol cacheado")
	}
}
