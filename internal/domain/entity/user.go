package entity

import "time"

// User representa un usuario de la plataforma. Email es la clave de identidad.
// Los campos de empresa solo aplican a usuarios hr.
type User struct {
	ID               string
	Email            string
	Name             string
	PasswordHash     string // bcrypt hash, nunca plano en dominio después de persistir
	Role             Role   // asignado al registrarse: hr o employee
	CompanyName      string
	CompanyLogo      string
	PackageLimit     *int // nil = sin límite
	CurrentEmployees int
	Subscription     string
	Paid             bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasCapacity informa si un hr puede afiliar un empleado más.
func (u *User) HasCapacity() bool {
	if u.PackageLimit == nil {
		return true
	}
	return u.CurrentEmployees < *u.PackageLimit
}

// AssetRef referencia a un activo asignado a un empleado (derivado de solicitudes aprobadas).
type AssetRef struct {
	RequestID   string
	AssetID     string
	ProductName string
	ProductType ProductType
	CompanyName string
	AssignedAt  time.Time
}

// Affiliation vincula un empleado con la empresa de un hr. Se crea en la primera aprobación.
type Affiliation struct {
	EmployeeEmail string
	EmployeeName  string
	HREmail       string
	CompanyName   string
	AffiliatedAt  time.Time
}
