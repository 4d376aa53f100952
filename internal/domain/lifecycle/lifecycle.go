// Package lifecycle define la máquina de estados de una solicitud de activo:
//
//	(nueva) ──employee──▶ pending ──hr──▶ approved ──employee──▶ returned
//	                          │                    (solo returnable)
//	                          └──hr──▶ rejected
//
// El borrado por hr es una limpieza independiente del estado y no es una transición.
package lifecycle

import (
	"time"

	"github.com/assetverse/assetverse-api/internal/domain"
	"github.com/assetverse/assetverse-api/internal/domain/entity"
)

// Action acción de usuario sobre una solicitud.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionReturn  Action = "return"
	ActionDelete  Action = "delete"
)

// Target devuelve el estado destino de una acción. Delete no tiene destino.
func Target(a Action) (entity.RequestStatus, bool) {
	switch a {
	case ActionApprove:
		return entity.StatusApproved, true
	case ActionReject:
		return entity.StatusRejected, true
	case ActionReturn:
		return entity.StatusReturned, true
	}
	return "", false
}

// ActorFor devuelve el rol que ejecuta la transición hacia to.
func ActorFor(to entity.RequestStatus) entity.Role {
	switch to {
	case entity.StatusApproved, entity.StatusRejected:
		return entity.RoleHR
	default:
		return entity.RoleEmployee
	}
}

// CanTransition valida una arista de la máquina de estados.
func CanTransition(from, to entity.RequestStatus, pt entity.ProductType) error {
	switch from {
	case entity.StatusPending:
		if to == entity.StatusApproved || to == entity.StatusRejected {
			return nil
		}
	case entity.StatusApproved:
		if to == entity.StatusReturned && pt == entity.ProductReturnable {
			return nil
		}
	}
	return domain.ErrIllegalTransition
}

// QuantityDelta efecto sobre ProductQuantity del activo al pasar de from a to:
// -1 al aprobar, +1 al devolver un returnable, 0 en otro caso.
func QuantityDelta(from, to entity.RequestStatus, pt entity.ProductType) int {
	if CanTransition(from, to, pt) != nil {
		return 0
	}
	switch to {
	case entity.StatusApproved:
		return -1
	case entity.StatusReturned:
		return 1
	}
	return 0
}

// Apply ejecuta la acción sobre la solicitud si el actor y la arista son válidos.
// Actualiza estado, fechas y versión; no toca la solicitud si devuelve error.
func Apply(req *entity.AssetRequest, a Action, actor entity.Role, now time.Time) error {
	to, ok := Target(a)
	if !ok {
		return domain.ErrInvalidInput
	}
	if actor != ActorFor(to) {
		return domain.ErrForbidden
	}
	if err := CanTransition(req.Status, to, req.ProductType); err != nil {
		return err
	}
	req.Status = to
	t := now
	if to == entity.StatusReturned {
		req.ReturnDate = &t
	} else {
		req.ActionDate = &t
	}
	req.Version++
	return nil
}

// ActionSet acciones habilitadas para quien ve la solicitud (botones activos).
type ActionSet struct {
	Approve bool `json:"approve"`
	Reject  bool `json:"reject"`
	Return  bool `json:"return"`
	Delete  bool `json:"delete"`
}

// Allows informa si la acción está habilitada.
func (s ActionSet) Allows(a Action) bool {
	switch a {
	case ActionApprove:
		return s.Approve
	case ActionReject:
		return s.Reject
	case ActionReturn:
		return s.Return
	case ActionDelete:
		return s.Delete
	}
	return false
}

// Actions calcula las acciones habilitadas según el estado y el rol efectivo.
// Aprobar o rechazar una solicitud ya resuelta queda deshabilitado, lo que hace
// idempotente un segundo clic.
func Actions(req *entity.AssetRequest, viewer entity.Role) ActionSet {
	var s ActionSet
	if req == nil {
		return s
	}
	switch viewer {
	case entity.RoleHR:
		s.Approve = CanTransition(req.Status, entity.StatusApproved, req.ProductType) == nil
		s.Reject = CanTransition(req.Status, entity.StatusRejected, req.ProductType) == nil
		s.Delete = true
	case entity.RoleEmployee:
		s.Return = CanTransition(req.Status, entity.StatusReturned, req.ProductType) == nil
	}
	return s
}

// CanRequest informa si un empleado puede crear una solicitud sobre el activo.
func CanRequest(a *entity.Asset) bool {
	return a.Available()
}
