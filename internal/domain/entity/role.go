package entity

import "strings"

// Role nivel de permisos efectivo de un usuario.
type Role string

// Roles válidos. RoleUnknown marca una resolución que no pudo confirmarse
// (se trata como employee, pero se distingue de un employee confirmado).
const (
	RoleAdmin    Role = "admin"
	RoleHR       Role = "hr"
	RoleEmployee Role = "employee"
	RoleUnknown  Role = "unknown"
)

// ParseRole interpreta el rol almacenado en el registro del usuario.
// Devuelve false para valores vacíos o desconocidos.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleHR:
		return RoleHR, true
	case RoleEmployee:
		return RoleEmployee, true
	default:
		return RoleUnknown, false
	}
}

// Registrable informa si el rol puede elegirse al registrarse (admin nunca).
func (r Role) Registrable() bool {
	return r == RoleHR || r == RoleEmployee
}

func (r Role) String() string { return string(r) }
