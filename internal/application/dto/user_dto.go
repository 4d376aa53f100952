package dto

import "time"

// RegisterRequest entrada de registro. Role: "hr" (con datos de empresa) o "employee".
type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	CompanyName  string `json:"companyName,omitempty"`
	CompanyLogo  string `json:"companyLogo,omitempty"`
	PackageLimit *int   `json:"packageLimit,omitempty"`
}

// LoginRequest entrada de login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse token JWT + usuario.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UpdateProfileRequest campos editables por el propio usuario.
type UpdateProfileRequest struct {
	Name        *string `json:"name"`
	CompanyLogo *string `json:"companyLogo"`
}

// AssetRefResponse activo asignado a un empleado.
type AssetRefResponse struct {
	RequestID   string    `json:"requestId"`
	AssetID     string    `json:"assetId"`
	ProductName string    `json:"productName"`
	ProductType string    `json:"productType"`
	CompanyName string    `json:"companyName"`
	AssignedAt  time.Time `json:"assignedAt"`
}

// UserResponse salida de un usuario (sin password). Role es el campo guardado.
type UserResponse struct {
	ID               string             `json:"id"`
	Email            string             `json:"email"`
	Name             string             `json:"name"`
	Role             string             `json:"role"`
	CompanyName      string             `json:"companyName,omitempty"`
	CompanyLogo      string             `json:"companyLogo,omitempty"`
	PackageLimit     *int               `json:"packageLimit,omitempty"`
	CurrentEmployees *int               `json:"currentEmployees,omitempty"`
	Subscription     string             `json:"subscription,omitempty"`
	Paid             *bool              `json:"paid,omitempty"`
	Assets           []AssetRefResponse `json:"assets"`
	CreatedAt        time.Time          `json:"createdAt"`
}

// UserListResponse lista paginada de usuarios.
type UserListResponse struct {
	Items []UserResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// AdminCheckResponse respuesta de GET /admin/check/{email}.
type AdminCheckResponse struct {
	IsAdmin bool `json:"isAdmin"`
}

// EmployeeResponse empleado afiliado a la empresa de un hr.
type EmployeeResponse struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	CompanyName  string    `json:"companyName"`
	AffiliatedAt time.Time `json:"affiliatedAt"`
}

// AuditEntryResponse entrada del registro de auditoría.
type AuditEntryResponse struct {
	ID         string    `json:"id"`
	ActorEmail string    `json:"actorEmail"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
