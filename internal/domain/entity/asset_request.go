package entity

import "time"

// RequestStatus estado de una solicitud de activo.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
	StatusReturned RequestStatus = "returned"
)

// ParseStatus interpreta un estado recibido por la API.
func ParseStatus(s string) (RequestStatus, bool) {
	switch st := RequestStatus(s); st {
	case StatusPending, StatusApproved, StatusRejected, StatusReturned:
		return st, true
	}
	return "", false
}

// AssetRequest solicitud de un empleado sobre un activo. Los datos del activo se copian
// al crearla para que el historial sobreviva a cambios del activo.
// Version se incrementa en cada transición (control de concurrencia optimista).
type AssetRequest struct {
	ID            string
	AssetID       string
	EmployeeEmail string
	EmployeeName  string
	ProductName   string
	ProductType   ProductType
	CompanyName   string
	HREmail       string
	RequestDate   time.Time
	Status        RequestStatus
	ActionDate    *time.Time
	ReturnDate    *time.Time
	Note          string
	Version       int
}

// AuditEntry registro de una acción sobre el sistema (transiciones, borrados).
type AuditEntry struct {
	ID         string
	ActorEmail string
	Action     string
	EntityType string
	EntityID   string
	Detail     string
	CreatedAt  time.Time
}
