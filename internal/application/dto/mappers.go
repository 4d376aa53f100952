package dto

import "github.com/assetverse/assetverse-api/internal/domain/entity"

// ToAssetResponse convierte la entidad a su salida HTTP.
func ToAssetResponse(a *entity.Asset) *AssetResponse {
	if a == nil {
		return nil
	}
	return &AssetResponse{
		ID:              a.ID,
		ProductName:     a.ProductName,
		ProductType:     string(a.ProductType),
		ProductQuantity: a.ProductQuantity,
		Available:       a.Available(),
		CompanyName:     a.CompanyName,
		HREmail:         a.HREmail,
		CreatedAt:       a.CreatedAt,
	}
}

// ToRequestResponse convierte la entidad a su salida HTTP.
func ToRequestResponse(r *entity.AssetRequest) *RequestResponse {
	if r == nil {
		return nil
	}
	return &RequestResponse{
		ID:            r.ID,
		AssetID:       r.AssetID,
		EmployeeEmail: r.EmployeeEmail,
		EmployeeName:  r.EmployeeName,
		ProductName:   r.ProductName,
		ProductType:   string(r.ProductType),
		CompanyName:   r.CompanyName,
		HREmail:       r.HREmail,
		RequestDate:   r.RequestDate,
		Status:        string(r.Status),
		ActionDate:    r.ActionDate,
		ReturnDate:    r.ReturnDate,
		Note:          r.Note,
		Version:       r.Version,
	}
}

// ToUserResponse convierte la entidad a su salida HTTP. Los campos de empresa solo se
// exponen para hr.
func ToUserResponse(u *entity.User, assets []entity.AssetRef) *UserResponse {
	if u == nil {
		return nil
	}
	out := &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		Assets:    make([]AssetRefResponse, 0, len(assets)),
		CreatedAt: u.CreatedAt,
	}
	if u.Role == entity.RoleHR {
		current := u.CurrentEmployees
		paid := u.Paid
		out.CompanyName = u.CompanyName
		out.CompanyLogo = u.CompanyLogo
		out.PackageLimit = u.PackageLimit
		out.CurrentEmployees = &current
		out.Subscription = u.Subscription
		out.Paid = &paid
	}
	for _, a := range assets {
		out.Assets = append(out.Assets, AssetRefResponse{
			RequestID:   a.RequestID,
			AssetID:     a.AssetID,
			ProductName: a.ProductName,
			ProductType: string(a.ProductType),
			CompanyName: a.CompanyName,
			AssignedAt:  a.AssignedAt,
		})
	}
	return out
}

// ToAuditEntryResponse convierte la entidad a su salida HTTP.
func ToAuditEntryResponse(e *entity.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:         e.ID,
		ActorEmail: e.ActorEmail,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Detail:     e.Detail,
		CreatedAt:  e.CreatedAt,
	}
}
