package lifecycle_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetverse/assetverse-api/internal/domain"
	"github.com/assetverse/assetverse-api/internal/domain/entity"
	"github.com/assetverse/assetverse-api/internal/domain/lifecycle"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func pendingRequest(pt entity.ProductType) *entity.AssetRequest {
	return &entity.AssetRequest{
		ID:          "req-1",
		AssetID:     "asset-1",
		ProductType: pt,
		Status:      entity.StatusPending,
		Version:     1,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Tabla de transiciones
// ──────────────────────────────────────────────────────────────────────────────

func TestCanTransition_Tabla(t *testing.T) {
	cases := []struct {
		from, to entity.RequestStatus
		pt       entity.ProductType
		ok       bool
	}{
		{entity.StatusPending, entity.StatusApproved, entity.ProductNonReturnable, true},
		{entity.StatusPending, entity.StatusRejected, entity.ProductReturnable, true},
		{entity.StatusApproved, entity.StatusReturned, entity.ProductReturnable, true},
		{entity.StatusApproved, entity.StatusReturned, entity.ProductNonReturnable, false},
		{entity.StatusPending, entity.StatusReturned, entity.ProductReturnable, false},
		{entity.StatusRejected, entity.StatusReturned, entity.ProductReturnable, false},
		{entity.StatusApproved, entity.StatusApproved, entity.ProductReturnable, false},
		{entity.StatusRejected, entity.StatusApproved, entity.ProductReturnable, false},
		{entity.StatusReturned, entity.StatusApproved, entity.ProductReturnable, false},
	}
	for _, c := range cases {
		err := lifecycle.CanTransition(c.from, c.to, c.pt)
		if c.ok {
			assert.NoError(t, err, "%s → %s (%s)", c.from, c.to, c.pt)
		} else {
			assert.ErrorIs(t, err, domain.ErrIllegalTransition, "%s → %s (%s)", c.from, c.to, c.pt)
		}
	}
}

func TestQuantityDelta(t *testing.T) {
	assert.Equal(t, -1, lifecycle.QuantityDelta(entity.StatusPending, entity.StatusApproved, entity.ProductReturnable))
	assert.Equal(t, 0, lifecycle.QuantityDelta(entity.StatusPending, entity.StatusRejected, entity.ProductReturnable))
	assert.Equal(t, 1, lifecycle.QuantityDelta(entity.StatusApproved, entity.StatusReturned, entity.ProductReturnable))
	assert.Equal(t, 0, lifecycle.QuantityDelta(entity.StatusApproved, entity.StatusReturned, entity.ProductNonReturnable))
}

// ──────────────────────────────────────────────────────────────────────────────
// Apply
// ──────────────────────────────────────────────────────────────────────────────

func TestApply_AprobarFijaActionDateYVersion(t *testing.T) {
	req := pendingRequest(entity.ProductReturnable)
	require.NoError(t, lifecycle.Apply(req, lifecycle.ActionApprove, entity.RoleHR, testNow))

	assert.Equal(t, entity.StatusApproved, req.Status)
	require.NotNil(t, req.ActionDate)
	assert.Equal(t, testNow, *req.ActionDate)
	assert.Nil(t, req.ReturnDate)
	assert.Equal(t, 2, req.Version)
}

func TestApply_ActorEquivocado_Forbidden(t *testing.T) {
	req := pendingRequest(entity.ProductReturnable)
	err := lifecycle.Apply(req, lifecycle.ActionApprove, entity.RoleEmployee, testNow)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, entity.StatusPending, req.Status, "un error no debe modificar la solicitud")
}

func TestApply_DeleteNoEsTransicion(t *testing.T) {
	req := pendingRequest(entity.ProductReturnable)
	err := lifecycle.Apply(req, lifecycle.ActionDelete, entity.RoleHR, testNow)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Escenario 4: una solicitud approved + returnable devuelta queda returned
// y la acción "Return" deja de ofrecerse.
func TestApply_DevolucionRetiraAccionReturn(t *testing.T) {
	req := pendingRequest(entity.ProductReturnable)
	require.NoError(t, lifecycle.Apply(req, lifecycle.ActionApprove, entity.RoleHR, testNow))
	assert.True(t, lifecycle.Actions(req, entity.RoleEmployee).Return)

	require.NoError(t, lifecycle.Apply(req, lifecycle.ActionReturn, entity.RoleEmployee, testNow.Add(time.Hour)))
	assert.Equal(t, entity.StatusReturned, req.Status)
	require.NotNil(t, req.ReturnDate)
	assert.False(t, lifecycle.Actions(req, entity.RoleEmployee).Return)
}

// ──────────────────────────────────────────────────────────────────────────────
// Acciones habilitadas
// ──────────────────────────────────────────────────────────────────────────────

func TestActions_AprobarDeshabilitadoTrasResolver(t *testing.T) {
	req := pendingRequest(entity.ProductNonReturnable)
	assert.Equal(t, lifecycle.ActionSet{Approve: true, Reject: true, Delete: true}, lifecycle.Actions(req, entity.RoleHR))

	require.NoError(t, lifecycle.Apply(req, lifecycle.ActionApprove, entity.RoleHR, testNow))
	set := lifecycle.Actions(req, entity.RoleHR)
	assert.False(t, set.Approve, "aprobar dos veces debe ser un no-op de UI")
	assert.False(t, set.Reject)
	assert.True(t, set.Delete, "borrar es independiente del estado")
}

func TestActions_AdminYUnknownSinAcciones(t *testing.T) {
	req := pendingRequest(entity.ProductReturnable)
	assert.Equal(t, lifecycle.ActionSet{}, lifecycle.Actions(req, entity.RoleAdmin))
	assert.Equal(t, lifecycle.ActionSet{}, lifecycle.Actions(req, entity.RoleUnknown))
	assert.Equal(t, lifecycle.ActionSet{}, lifecycle.Actions(nil, entity.RoleHR))
}

func TestCanRequest_CantidadCero(t *testing.T) {
	assert.False(t, lifecycle.CanRequest(&entity.Asset{ProductQuantity: 0}))
	assert.False(t, lifecycle.CanRequest(nil))
	assert.True(t, lifecycle.CanRequest(&entity.Asset{ProductQuantity: 3}))
}

// ──────────────────────────────────────────────────────────────────────────────
// Propiedad: secuencias aleatorias de acciones nunca alcanzan returned sin pasar
// por approved, ni returned para non-returnable.
// ──────────────────────────────────────────────────────────────────────────────

func TestApply_SecuenciasAleatorias(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	actions := []lifecycle.Action{lifecycle.ActionApprove, lifecycle.ActionReject, lifecycle.ActionReturn, lifecycle.ActionDelete}
	roles := []entity.Role{entity.RoleHR, entity.RoleEmployee, entity.RoleAdmin, entity.RoleUnknown}
	types := []entity.ProductType{entity.ProductReturnable, entity.ProductNonReturnable}

	for i := 0; i < 2000; i++ {
		req := pendingRequest(types[rng.Intn(len(types))])
		history := []entity.RequestStatus{req.Status}
		quantity := 5

		for step := 0; step < 8; step++ {
			prev := req.Status
			a := actions[rng.Intn(len(actions))]
			err := lifecycle.Apply(req, a, roles[rng.Intn(len(roles))], testNow)
			if err != nil {
				assert.Equal(t, prev, req.Status)
				continue
			}
			quantity += lifecycle.QuantityDelta(prev, req.Status, req.ProductType)
			history = append(history, req.Status)
		}

		for j, st := range history {
			if st != entity.StatusReturned {
				continue
			}
			require.Equal(t, entity.ProductReturnable, req.ProductType, "returned solo para returnable")
			require.Equal(t, entity.StatusApproved, history[j-1], "returned solo desde approved")
		}
		assert.GreaterOrEqual(t, quantity, 4, "una solicitud consume a lo sumo una unidad")
		assert.LessOrEqual(t, quantity, 5)
	}
}
