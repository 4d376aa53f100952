package dto

import "time"

// CreateAssetRequest entrada para registrar un activo.
type CreateAssetRequest struct {
	ProductName     string `json:"productName"`
	ProductType     string `json:"productType"`
	ProductQuantity int    `json:"productQuantity"`
}

// UpdateAssetRequest entrada para actualizar un activo (campos opcionales).
type UpdateAssetRequest struct {
	ProductName     *string `json:"productName"`
	ProductType     *string `json:"productType"`
	ProductQuantity *int    `json:"productQuantity"`
}

// AssetQuery filtros de GET /assets.
type AssetQuery struct {
	PageRequest
	Search    string `query:"search"`
	Type      string `query:"type"`
	Available bool   `query:"available"`
}

// AssetResponse salida de un activo.
type AssetResponse struct {
	ID              string    `json:"id"`
	ProductName     string    `json:"productName"`
	ProductType     string    `json:"productType"`
	ProductQuantity int       `json:"productQuantity"`
	Available       bool      `json:"available"`
	CompanyName     string    `json:"companyName"`
	HREmail         string    `json:"hrEmail"`
	CreatedAt       time.Time `json:"createdAt"`
}

// AssetListResponse lista paginada de activos.
type AssetListResponse struct {
	Items []AssetResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}
