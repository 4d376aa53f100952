package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/assetverse/assetverse-api/internal/application/dto"
	"github.com/assetverse/assetverse-api/internal/domain"
	"github.com/assetverse/assetverse-api/internal/domain/entity"
	"github.com/assetverse/assetverse-api/internal/domain/lifecycle"
)

var (
	// ErrCancelled el usuario no confirmó la acción; no hubo llamada a la API.
	ErrCancelled = errors.New("acción cancelada")
	// ErrInFlight ya hay una solicitud en curso para el mismo activo.
	ErrInFlight = errors.New("solicitud en curso para este activo")
	// ErrActionDisabled la acción no está habilitada para el estado y rol actuales.
	ErrActionDisabled = errors.New("acción no habilitada")
)

// Prompt lo que se muestra al pedir confirmación.
type Prompt struct {
	Action      lifecycle.Action
	RequestID   string
	ProductName string
	Employee    string
}

// Confirmer pide confirmación antes de una mutación.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// ConfirmFunc adapta una función a Confirmer.
type ConfirmFunc func(ctx context.Context, p Prompt) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, p Prompt) (bool, error) { return f(ctx, p) }

// AlwaysConfirm confirma todo (scripts y herramientas sin interacción).
var AlwaysConfirm = ConfirmFunc(func(context.Context, Prompt) (bool, error) { return true, nil })

// Prefijos de clave del QueryCache.
const (
	KeyAssets     = "/api/assets"
	KeyRequests   = "/api/requests"
	KeyMyRequests = "/api/requests/mine"
)

// Workflow ciclo de vida de solicitudes visto desde el cliente: cada mutación se confirma,
// se envía y luego se invalida y se vuelve a leer la colección afectada. Nunca se parchea
// el estado local con el resultado esperado.
type Workflow struct {
	api     *Client
	session *Session
	confirm Confirmer
	cache   *QueryCache

	mu       sync.Mutex
	inFlight map[string]struct{}
	hrQuery  dto.RequestQuery
	myQuery  dto.RequestQuery
}

// NewWorkflow crea el flujo para una sesión. confirm nil equivale a AlwaysConfirm.
func NewWorkflow(c *Client, s *Session, confirm Confirmer, cache *QueryCache) (*Workflow, error) {
	api, err := c.For(s)
	if err != nil {
		return nil, err
	}
	if confirm == nil {
		confirm = AlwaysConfirm
	}
	if cache == nil {
		cache = NewQueryCache()
	}
	return &Workflow{api: api, session: s, confirm: confirm, cache: cache, inFlight: map[string]struct{}{}}, nil
}

// Cache cache de lecturas del flujo.
func (w *Workflow) Cache() *QueryCache { return w.cache }

// Assets lista activos (read-through).
func (w *Workflow) Assets(ctx context.Context, q dto.AssetQuery) (*dto.AssetListResponse, error) {
	return Fetch(ctx, w.cache, Key(KeyAssets, assetParams(q)), func(ctx context.Context) (*dto.AssetListResponse, error) {
		return w.api.ListAssets(ctx, q)
	})
}

// Requests lista las solicitudes del hr y recuerda el filtro para las recargas.
func (w *Workflow) Requests(ctx context.Context, q dto.RequestQuery) (*dto.RequestListResponse, error) {
	w.mu.Lock()
	w.hrQuery = q
	w.mu.Unlock()
	return Fetch(ctx, w.cache, Key(KeyRequests, requestParams(q)), func(ctx context.Context) (*dto.RequestListResponse, error) {
		return w.api.ListRequests(ctx, q)
	})
}

// MyRequests lista las solicitudes del empleado y recuerda el filtro para las recargas.
func (w *Workflow) MyRequests(ctx context.Context, q dto.RequestQuery) (*dto.RequestListResponse, error) {
	w.mu.Lock()
	w.myQuery = q
	w.mu.Unlock()
	return Fetch(ctx, w.cache, Key(KeyMyRequests, requestParams(q)), func(ctx context.Context) (*dto.RequestListResponse, error) {
		return w.api.ListMyRequests(ctx, q)
	})
}

// Actions acciones habilitadas sobre req para el rol de la sesión.
func (w *Workflow) Actions(req dto.RequestResponse) lifecycle.ActionSet {
	return lifecycle.Actions(&entity.AssetRequest{
		Status:      entity.RequestStatus(req.Status),
		ProductType: entity.ProductType(req.ProductType),
	}, w.session.Role())
}

// RequestAsset crea una solicitud y devuelve las solicitudes del empleado recargadas.
// Deshabilitado sin unidades; una sola solicitud en curso por activo (un segundo envío
// concurrente devuelve ErrInFlight).
func (w *Workflow) RequestAsset(ctx context.Context, asset dto.AssetResponse, note string) (*dto.RequestListResponse, error) {
	if asset.ProductQuantity <= 0 {
		return nil, domain.ErrUnavailable
	}
	w.mu.Lock()
	if _, busy := w.inFlight[asset.ID]; busy {
		w.mu.Unlock()
		return nil, ErrInFlight
	}
	w.inFlight[asset.ID] = struct{}{}
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		delete(w.inFlight, asset.ID)
		w.mu.Unlock()
	}()

	if _, err := w.api.CreateRequest(ctx, dto.CreateAssetRequestRequest{AssetID: asset.ID, Note: note}); err != nil {
		return nil, err
	}
	return w.refetchMine(ctx)
}

// Approve aprueba req y devuelve la lista del hr recargada.
func (w *Workflow) Approve(ctx context.Context, req dto.RequestResponse) (*dto.RequestListResponse, error) {
	return w.decide(ctx, req, lifecycle.ActionApprove)
}

// Reject rechaza req y devuelve la lista del hr recargada.
func (w *Workflow) Reject(ctx context.Context, req dto.RequestResponse) (*dto.RequestListResponse, error) {
	return w.decide(ctx, req, lifecycle.ActionReject)
}

func (w *Workflow) decide(ctx context.Context, req dto.RequestResponse, action lifecycle.Action) (*dto.RequestListResponse, error) {
	if err := w.guard(ctx, req, action); err != nil {
		return nil, err
	}
	to, _ := lifecycle.Target(action)
	if _, err := w.api.UpdateStatus(ctx, req.ID, string(to), req.Version); err != nil {
		return nil, err
	}
	if action == lifecycle.ActionApprove {
		w.cache.Invalidate(KeyAssets)
	}
	return w.refetchHR(ctx)
}

// Delete borra req (hr) y devuelve la lista recargada.
func (w *Workflow) Delete(ctx context.Context, req dto.RequestResponse) (*dto.RequestListResponse, error) {
	if err := w.guard(ctx, req, lifecycle.ActionDelete); err != nil {
		return nil, err
	}
	if err := w.api.DeleteRequest(ctx, req.ID); err != nil {
		return nil, err
	}
	return w.refetchHR(ctx)
}

// Return devuelve el activo de req (employee) y devuelve la lista propia recargada.
func (w *Workflow) Return(ctx context.Context, req dto.RequestResponse) (*dto.RequestListResponse, error) {
	if err := w.guard(ctx, req, lifecycle.ActionReturn); err != nil {
		return nil, err
	}
	if _, err := w.api.ReturnAsset(ctx, dto.ReturnAssetRequest{AssetID: req.AssetID, RequestID: req.ID}); err != nil {
		return nil, err
	}
	w.cache.Invalidate(KeyAssets)
	return w.refetchMine(ctx)
}

func (w *Workflow) guard(ctx context.Context, req dto.RequestResponse, action lifecycle.Action) error {
	if !w.Actions(req).Allows(action) {
		return fmt.Errorf("%w: %s sobre %s", ErrActionDisabled, action, req.Status)
	}
	ok, err := w.confirm.Confirm(ctx, Prompt{
		Action:      action,
		RequestID:   req.ID,
		ProductName: req.ProductName,
		Employee:    req.EmployeeEmail,
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrCancelled
	}
	return nil
}

func (w *Workflow) refetchHR(ctx context.Context) (*dto.RequestListResponse, error) {
	// KeyRequests también cubre KeyMyRequests.
	w.cache.Invalidate(KeyRequests)
	w.mu.Lock()
	q := w.hrQuery
	w.mu.Unlock()
	return w.Requests(ctx, q)
}

func (w *Workflow) refetchMine(ctx context.Context) (*dto.RequestListResponse, error) {
	w.cache.Invalidate(KeyMyRequests)
	w.mu.Lock()
	q := w.myQuery
	w.mu.Unlock()
	return w.MyRequests(ctx, q)
}
