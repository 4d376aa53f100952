package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetverse/assetverse-api/internal/application/auth"
	"github.com/assetverse/assetverse-api/internal/application/dto"
	"github.com/assetverse/assetverse-api/internal/application/request"
	"github.com/assetverse/assetverse-api/internal/application/role"
	"github.com/assetverse/assetverse-api/internal/application/usecase"
	"github.com/assetverse/assetverse-api/internal/domain"
	"github.com/assetverse/assetverse-api/internal/domain/access"
	"github.com/assetverse/assetverse-api/internal/domain/entity"
	"github.com/assetverse/assetverse-api/internal/domain/lifecycle"
	"github.com/assetverse/assetverse-api/internal/infrastructure/memstore"
	"github.com/assetverse/assetverse-api/internal/infrastructure/pdf"
	apphttp "github.com/assetverse/assetverse-api/internal/interfaces/http"
	"github.com/assetverse/assetverse-api/internal/client"
)

const testSecret = "test-secret-key-for-unit-tests"

// newAPI levanta la API completa sobre memstore detrás de un httptest.Server.
func newAPI(t *testing.T) (*client.Client, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	resolver := role.NewResolver(store.Admins(), store.Users())
	app := apphttp.NewApp(apphttp.RouterDeps{
		AuthUC:    auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: testSecret, ExpMinutes: 60, Issuer: "test"}),
		UserUC:    usecase.NewUserUseCase(store.Repos(), store.Admins(), store, resolver),
		AssetUC:   usecase.NewAssetUseCase(store.Assets(), store.Users()),
		RequestUC: request.NewUseCase(store, store.Repos(), pdf.NewReceiptGenerator(), nil),
		Gate:      access.NewGate(resolver, time.Second),
		JWTSecret: testSecret,
	})
	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)
	return client.New(srv.URL, client.WithHTTPClient(srv.Client())), store
}

func signup(t *testing.T, c *client.Client, in dto.RegisterRequest) *client.Session {
	t.Helper()
	ctx := context.Background()
	if in.Password == "" {
		in.Password = "supersecret"
	}
	_, err := c.Register(ctx, in)
	require.NoError(t, err)
	s, err := c.Login(ctx, in.Email, in.Password)
	require.NoError(t, err)
	return s
}

func workflow(t *testing.T, c *client.Client, s *client.Session, confirm client.Confirmer) *client.Workflow {
	t.Helper()
	wf, err := client.NewWorkflow(c, s, confirm, nil)
	require.NoError(t, err)
	return wf
}

type countingConfirmer struct {
	answer bool
	asked  atomic.Int32
}

func (c *countingConfirmer) Confirm(context.Context, client.Prompt) (bool, error) {
	c.asked.Add(1)
	return c.answer, nil
}

func TestLogin_SesionConRolResuelto(t *testing.T) {
	c, store := newAPI(t)
	limit := 3
	hr := signup(t, c, dto.RegisterRequest{Email: "HR@Acme.com", Role: "hr", CompanyName: "Acme", PackageLimit: &limit})
	emp := signup(t, c, dto.RegisterRequest{Email: "emp@acme.com"})

	assert.Equal(t, "hr@acme.com", hr.Email())
	assert.Equal(t, access.Confirmed(entity.RoleHR), hr.Resolution())
	assert.Equal(t, entity.RoleEmployee, emp.Role())
	assert.NotEmpty(t, emp.Token())

	// La membresía de admin tiene precedencia sobre el rol guardado.
	_, err := c.Register(context.Background(), dto.RegisterRequest{Email: "root@assetverse.io", Password: "supersecret"})
	require.NoError(t, err)
	store.GrantAdmin("root@assetverse.io")
	root, err := c.Login(context.Background(), "root@assetverse.io", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, root.Role())
	assert.False(t, root.Resolution().Defaulted)
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	c, _ := newAPI(t)
	signup(t, c, dto.RegisterRequest{Email: "emp@acme.com"})

	_, err := c.Login(context.Background(), "emp@acme.com", "incorrecta")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsUnauthorized())
	assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
}

func TestClient_ErrTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	_, err := client.New(srv.URL).Authenticate(context.Background(), "a@b.com", "x")
	assert.ErrorIs(t, err, client.ErrTransport)
}

func TestClient_ErroresMapeados(t *testing.T) {
	c, _ := newAPI(t)
	hr := signup(t, c, dto.RegisterRequest{Email: "hr@acme.com", Role: "hr", CompanyName: "Acme"})
	api, err := c.For(hr)
	require.NoError(t, err)

	_, err = api.CreateAsset(context.Background(), dto.CreateAssetRequest{ProductName: "", ProductType: "returnable"})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsValidation())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = api.GetAsset(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = api.ListMyRequests(context.Background(), dto.RequestQuery{})
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsForbidden())

	_, err = c.For(nil)
	assert.ErrorIs(t, err, client.ErrNoSession)
}

type slowResolver struct{}

func (slowResolver) Resolve(ctx context.Context, _ string) access.Resolution {
	<-ctx.Done()
	return access.Defaulted()
}

func TestGate_Sesiones(t *testing.T) {
	ctx := context.Background()
	gate := client.NewGate(nil, time.Second)

	d := gate.Evaluate(ctx, nil, entity.RoleHR)
	assert.Equal(t, access.StateDenied, d.State)
	assert.Equal(t, access.ReasonUnauthenticated, d.Reason)

	emp := client.NewSession("emp@acme.com", "tok", access.Confirmed(entity.RoleEmployee))
	d = gate.Evaluate(ctx, emp, entity.RoleHR)
	assert.Equal(t, access.ReasonForbidden, d.Reason)
	assert.False(t, d.Retryable)

	unknown := client.NewSession("x@acme.com", "tok", access.Defaulted())
	assert.True(t, gate.Evaluate(ctx, unknown, entity.RoleEmployee).Authorized())

	slow := client.NewGate(slowResolver{}, 20*time.Millisecond)
	d = slow.Evaluate(ctx, emp, entity.RoleEmployee)
	assert.Equal(t, access.ReasonTimeout, d.Reason)
	assert.True(t, d.Retryable)
}

func TestWorkflow_CicloCompleto(t *testing.T) {
	ctx := context.Background()
	c, _ := newAPI(t)
	limit := 5
	hrS := signup(t, c, dto.RegisterRequest{Email: "hr@acme.com", Role: "hr", CompanyName: "Acme", PackageLimit: &limit})
	empS := signup(t, c, dto.RegisterRequest{Email: "emp@acme.com", Name: "Emilio"})

	hrAPI, err := c.For(hrS)
	require.NoError(t, err)
	laptop, err := hrAPI.CreateAsset(ctx, dto.CreateAssetRequest{ProductName: "Laptop", ProductType: "returnable", ProductQuantity: 1})
	require.NoError(t, err)

	confirm := &countingConfirmer{answer: true}
	hr := workflow(t, c, hrS, confirm)
	emp := workflow(t, c, empS, confirm)

	assets, err := hr.Assets(ctx, dto.AssetQuery{})
	require.NoError(t, err)
	require.Len(t, assets.Items, 1)
	assert.Equal(t, 1, assets.Items[0].ProductQuantity)

	requested, err := emp.RequestAsset(ctx, *laptop, "proyecto")
	require.NoError(t, err)
	require.Len(t, requested.Items, 1, "crear recarga las solicitudes del empleado")
	created := requested.Items[0]
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "proyecto", created.Note)

	list, err := hr.Requests(ctx, dto.RequestQuery{Status: "all"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	pending := list.Items[0]
	assert.Equal(t, lifecycle.ActionSet{Approve: true, Reject: true, Delete: true}, hr.Actions(pending))

	list, err = hr.Approve(ctx, pending)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "approved", list.Items[0].Status, "la lista se recarga del servidor")
	assert.Equal(t, int32(1), confirm.asked.Load())

	// Segundo clic con la vista vieja: el servidor rechaza por versión.
	_, err = hr.Approve(ctx, pending)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsConflict())

	// Con la vista recargada la acción ya no está habilitada y no se pide confirmación.
	asked := confirm.asked.Load()
	_, err = hr.Reject(ctx, list.Items[0])
	assert.ErrorIs(t, err, client.ErrActionDisabled)
	assert.Equal(t, asked, confirm.asked.Load())

	assets, err = hr.Assets(ctx, dto.AssetQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0, assets.Items[0].ProductQuantity, "la aprobación invalida el cache de activos")

	_, err = emp.RequestAsset(ctx, assets.Items[0], "")
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	mine, err := emp.MyRequests(ctx, dto.RequestQuery{})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.True(t, emp.Actions(mine.Items[0]).Return)

	mine, err = emp.Return(ctx, mine.Items[0])
	require.NoError(t, err)
	assert.Equal(t, "returned", mine.Items[0].Status)

	_, err = emp.Return(ctx, mine.Items[0])
	assert.ErrorIs(t, err, client.ErrActionDisabled)

	hr.Cache().Invalidate(client.KeyAssets)
	assets, err = hr.Assets(ctx, dto.AssetQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, assets.Items[0].ProductQuantity)

	pdfBytes, err := hrAPI.Receipt(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdfBytes[:4]))
}

func TestWorkflow_CancelarNoLlamaALaAPI(t *testing.T) {
	ctx := context.Background()
	c, store := newAPI(t)
	hrS := signup(t, c, dto.RegisterRequest{Email: "hr@acme.com", Role: "hr", CompanyName: "Acme"})
	empS := signup(t, c, dto.RegisterRequest{Email: "emp@acme.com"})
	hrAPI, err := c.For(hrS)
	require.NoError(t, err)
	asset, err := hrAPI.CreateAsset(ctx, dto.CreateAssetRequest{ProductName: "Mouse", ProductType: "non-returnable", ProductQuantity: 3})
	require.NoError(t, err)
	_, err = workflow(t, c, empS, nil).RequestAsset(ctx, *asset, "")
	require.NoError(t, err)

	no := &countingConfirmer{answer: false}
	hr := workflow(t, c, hrS, no)
	list, err := hr.Requests(ctx, dto.RequestQuery{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)

	_, err = hr.Delete(ctx, list.Items[0])
	assert.ErrorIs(t, err, client.ErrCancelled)
	_, err = hr.Approve(ctx, list.Items[0])
	assert.ErrorIs(t, err, client.ErrCancelled)
	assert.Equal(t, int32(2), no.asked.Load())

	req, err := store.Requests().GetByID(ctx, list.Items[0].ID)
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, entity.StatusPending, req.Status)

	// Confirmando, el borrado recarga una lista vacía.
	hrYes := workflow(t, c, hrS, client.AlwaysConfirm)
	_, err = hrYes.Requests(ctx, dto.RequestQuery{})
	require.NoError(t, err)
	list, err = hrYes.Delete(ctx, list.Items[0])
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestRequestAsset_UnaSolaEnCurso(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	var posts, gets atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/requests/mine", func(w http.ResponseWriter, r *http.Request) {
		gets.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"r1","assetId":"a1","status":"pending","version":1}],"page":{"limit":20,"offset":0,"total":1}}`))
	})
	mux.HandleFunc("/api/asset-requests", func(w http.ResponseWriter, r *http.Request) {
		if posts.Add(1) == 1 {
			close(arrived)
			<-release
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"r1","assetId":"a1","status":"pending","version":1}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := client.NewSession("emp@acme.com", "tok", access.Confirmed(entity.RoleEmployee))
	wf, err := client.NewWorkflow(client.New(srv.URL), s, nil, nil)
	require.NoError(t, err)
	asset := dto.AssetResponse{ID: "a1", ProductQuantity: 2}

	first := make(chan error, 1)
	go func() {
		_, err := wf.RequestAsset(context.Background(), asset, "")
		first <- err
	}()
	<-arrived

	_, err = wf.RequestAsset(context.Background(), asset, "")
	assert.ErrorIs(t, err, client.ErrInFlight)

	close(release)
	require.NoError(t, <-first)

	out, err := wf.RequestAsset(context.Background(), asset, "")
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "r1", out.Items[0].ID)
	assert.Equal(t, int32(2), posts.Load())
	assert.Equal(t, int32(2), gets.Load(), "cada creación exitosa recarga la lista")

	_, err = wf.RequestAsset(context.Background(), dto.AssetResponse{ID: "a2"}, "")
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
}
