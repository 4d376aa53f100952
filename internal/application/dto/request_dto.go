package dto

import "time"

// CreateAssetRequestRequest entrada de POST /asset-requests.
type CreateAssetRequestRequest struct {
	AssetID string `json:"assetId"`
	Note    string `json:"note,omitempty"`
}

// UpdateStatusRequest entrada de PATCH /requests/{id}/status.
// Version es opcional: si viene, la transición solo aplica sobre esa versión.
type UpdateStatusRequest struct {
	Status  string `json:"status"`
	Version *int   `json:"version,omitempty"`
}

// ReturnAssetRequest entrada de PATCH /assets/return.
// RequestID desambigua cuando el empleado tiene varias unidades del mismo activo.
type ReturnAssetRequest struct {
	AssetID   string `json:"assetId"`
	RequestID string `json:"requestId,omitempty"`
}

// RequestQuery filtros de GET /requests.
type RequestQuery struct {
	PageRequest
	Status string `query:"status"`
	Search string `query:"search"`
}

// RequestResponse salida de una solicitud.
type RequestResponse struct {
	ID            string     `json:"id"`
	AssetID       string     `json:"assetId"`
	EmployeeEmail string     `json:"employeeEmail"`
	EmployeeName  string     `json:"employeeName"`
	ProductName   string     `json:"productName"`
	ProductType   string     `json:"productType"`
	CompanyName   string     `json:"companyName"`
	HREmail       string     `json:"hrEmail"`
	RequestDate   time.Time  `json:"requestDate"`
	Status        string     `json:"status"`
	ActionDate    *time.Time `json:"actionDate,omitempty"`
	ReturnDate    *time.Time `json:"returnDate,omitempty"`
	Note          string     `json:"note,omitempty"`
	Version       int        `json:"version"`
}

// RequestListResponse lista paginada de solicitudes.
type RequestListResponse struct {
	Items []RequestResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
