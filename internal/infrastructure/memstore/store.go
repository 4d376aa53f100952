// Package memstore implementa los puertos de persistencia en memoria.
// Se usa en tests y con STORAGE=memory para desarrollo local sin PostgreSQL.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/assetverse/assetverse-api/internal/application/request"
	"github.com/assetverse/assetverse-api/internal/domain"
	"github.com/assetverse/assetverse-api/internal/domain/entity"
	"github.com/assetverse/assetverse-api/internal/domain/repository"
)

// Store datos en memoria. Las transacciones se serializan y se deshacen restaurando
// una copia del estado previo. Las escrituras fuera de una transacción esperan a que
// termine la que esté en curso, así un rollback nunca las borra.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	users        map[string]*entity.User
	admins       map[string]bool
	assets       map[string]*entity.Asset
	requests     map[string]*entity.AssetRequest
	affiliations map[string]*entity.Affiliation
	audit        []*entity.AuditEntry
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		users:        map[string]*entity.User{},
		admins:       map[string]bool{},
		assets:       map[string]*entity.Asset{},
		requests:     map[string]*entity.AssetRequest{},
		affiliations: map[string]*entity.Affiliation{},
	}
}

// Users, Admins, Assets, Requests, Affiliations, Audit devuelven los repositorios.
func (s *Store) Users() *UserRepo               { return &UserRepo{s: s} }
func (s *Store) Admins() *AdminRepo             { return &AdminRepo{s: s} }
func (s *Store) Assets() *AssetRepo             { return &AssetRepo{s: s} }
func (s *Store) Requests() *RequestRepo         { return &RequestRepo{s: s} }
func (s *Store) Affiliations() *AffiliationRepo { return &AffiliationRepo{s: s} }
func (s *Store) Audit() *AuditRepo              { return &AuditRepo{s: s} }

// Repos agrupa los repositorios para el caso de uso de solicitudes.
func (s *Store) Repos() request.LifecycleRepos {
	return request.LifecycleRepos{
		Assets:       s.Assets(),
		Requests:     s.Requests(),
		Users:        s.Users(),
		Affiliations: s.Affiliations(),
		Audit:        s.Audit(),
	}
}

// txRepos repositorios atados a la transacción en curso: escriben sin tomar txMu.
func (s *Store) txRepos() request.LifecycleRepos {
	return request.LifecycleRepos{
		Assets:       &AssetRepo{s: s, tx: true},
		Requests:     &RequestRepo{s: s, tx: true},
		Users:        &UserRepo{s: s, tx: true},
		Affiliations: &AffiliationRepo{s: s, tx: true},
		Audit:        &AuditRepo{s: s, tx: true},
	}
}

// lock toma mu para escribir. Fuera de una transacción toma antes txMu.
// Devuelve la función que libera ambos.
func (s *Store) lock(inTx bool) func() {
	if !inTx {
		s.txMu.Lock()
	}
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		if !inTx {
			s.txMu.Unlock()
		}
	}
}

// GrantAdmin agrega email a la membresía de administradores.
func (s *Store) GrantAdmin(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[entity.NormalizeEmail(email)] = true
}

var _ request.TxRunner = (*Store)(nil)

// RunLifecycle ejecuta fn de forma serializada; si fn falla el estado vuelve al previo.
func (s *Store) RunLifecycle(_ context.Context, fn func(r request.LifecycleRepos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(s.txRepos()); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	users        map[string]entity.User
	assets       map[string]entity.Asset
	requests     map[string]entity.AssetRequest
	affiliations map[string]entity.Affiliation
	auditLen     int
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := snapshot{
		users:        make(map[string]entity.User, len(s.users)),
		assets:       make(map[string]entity.Asset, len(s.assets)),
		requests:     make(map[string]entity.AssetRequest, len(s.requests)),
		affiliations: make(map[string]entity.Affiliation, len(s.affiliations)),
		auditLen:     len(s.audit),
	}
	for k, v := range s.users {
		snap.users[k] = *v
	}
	for k, v := range s.assets {
		snap.assets[k] = *v
	}
	for k, v := range s.requests {
		snap.requests[k] = *v
	}
	for k, v := range s.affiliations {
		snap.affiliations[k] = *v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = map[string]*entity.User{}
	for k, v := range snap.users {
		v := v
		s.users[k] = &v
	}
	s.assets = map[string]*entity.Asset{}
	for k, v := range snap.assets {
		v := v
		s.assets[k] = &v
	}
	s.requests = map[string]*entity.AssetRequest{}
	for k, v := range snap.requests {
		v := v
		s.requests[k] = &v
	}
	s.affiliations = map[string]*entity.Affiliation{}
	for k, v := range snap.affiliations {
		v := v
		s.affiliations[k] = &v
	}
	s.audit = s.audit[:snap.auditLen]
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end]
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// ── Users ─────────────────────────────────────────────────────────────────────

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo repositorio de usuarios en memoria.
type UserRepo struct {
	s  *Store
	tx bool
}

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	defer r.s.lock(r.tx)()
	if _, ok := r.s.users[u.Email]; ok {
		return domain.ErrEmailAlreadyExists
	}
	c := *u
	r.s.users[u.Email] = &c
	return nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[email]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *UserRepo) Update(_ context.Context, u *entity.User) error {
	defer r.s.lock(r.tx)()
	if _, ok := r.s.users[u.Email]; !ok {
		return domain.ErrNotFound
	}
	c := *u
	r.s.users[u.Email] = &c
	return nil
}

func (r *UserRepo) List(_ context.Context, role entity.Role, limit, offset int) ([]*entity.User, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.User
	for _, u := range r.s.users {
		if role != "" && u.Role != role {
			continue
		}
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return page(out, limit, offset), len(out), nil
}

func (r *UserRepo) Delete(_ context.Context, email string) error {
	defer r.s.lock(r.tx)()
	if _, ok := r.s.users[email]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.users, email)
	return nil
}

func (r *UserRepo) AdjustEmployees(_ context.Context, hrEmail string, delta int) error {
	defer r.s.lock(r.tx)()
	u, ok := r.s.users[hrEmail]
	if !ok {
		return domain.ErrNotFound
	}
	next := u.CurrentEmployees + delta
	if delta > 0 && u.PackageLimit != nil && next > *u.PackageLimit {
		return domain.ErrPackageLimit
	}
	if next < 0 {
		next = 0
	}
	u.CurrentEmployees = next
	return nil
}

// UserRole implementa role.UserRoleSource.
func (r *UserRepo) UserRole(ctx context.Context, email string) (string, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return "", err
	}
	return string(u.Role), nil
}

// ── Admins ────────────────────────────────────────────────────────────────────

var _ repository.AdminRepository = (*AdminRepo)(nil)

// AdminRepo membresía de administradores en memoria.
type AdminRepo struct {
	s *Store
}

func (r *AdminRepo) IsAdmin(_ context.Context, email string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.admins[email], nil
}

// ── Assets ────────────────────────────────────────────────────────────────────

var _ repository.AssetRepository = (*AssetRepo)(nil)

// AssetRepo repositorio de activos en memoria.
type AssetRepo struct {
	s  *Store
	tx bool
}

func (r *AssetRepo) Create(_ context.Context, a *entity.Asset) error {
	defer r.s.lock(r.tx)()
	c := *a
	r.s.assets[a.ID] = &c
	return nil
}

func (r *AssetRepo) GetByID(_ context.Context, id string) (*entity.Asset, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.assets[id]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (r *AssetRepo) Update(_ context.Context, a *entity.Asset) error {
	defer r.s.lock(r.tx)()
	cur, ok := r.s.assets[a.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.ProductName = a.ProductName
	cur.ProductType = a.ProductType
	cur.UpdatedAt = a.UpdatedAt
	return nil
}

func (r *AssetRepo) Delete(_ context.Context, id string) error {
	defer r.s.lock(r.tx)()
	delete(r.s.assets, id)
	for k, req := range r.s.requests {
		if req.AssetID == id {
			delete(r.s.requests, k)
		}
	}
	return nil
}

func (r *AssetRepo) List(_ context.Context, f repository.AssetFilter) ([]*entity.Asset, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Asset
	for _, a := range r.s.assets {
		if f.HREmail != "" && a.HREmail != f.HREmail {
			continue
		}
		if f.ProductType != "" && a.ProductType != f.ProductType {
			continue
		}
		if f.OnlyAvailable && !a.Available() {
			continue
		}
		if f.Search != "" && !contains(a.ProductName, f.Search) {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (r *AssetRepo) AdjustQuantity(_ context.Context, id string, delta int) error {
	defer r.s.lock(r.tx)()
	a, ok := r.s.assets[id]
	if !ok {
		return domain.ErrNotFound
	}
	if a.ProductQuantity+delta < 0 {
		return domain.ErrInsufficientStock
	}
	a.ProductQuantity += delta
	return nil
}

func (r *AssetRepo) SetQuantity(_ context.Context, id string, from, to int) error {
	defer r.s.lock(r.tx)()
	a, ok := r.s.assets[id]
	if !ok {
		return domain.ErrNotFound
	}
	if to < 0 {
		return domain.ErrInvalidInput
	}
	if a.ProductQuantity != from {
		return domain.ErrConflict
	}
	a.ProductQuantity = to
	return nil
}

// ── Requests ──────────────────────────────────────────────────────────────────

var _ repository.AssetRequestRepository = (*RequestRepo)(nil)

// RequestRepo repositorio de solicitudes en memoria.
type RequestRepo struct {
	s  *Store
	tx bool
}

func (r *RequestRepo) Create(_ context.Context, req *entity.AssetRequest) error {
	defer r.s.lock(r.tx)()
	c := *req
	r.s.requests[req.ID] = &c
	return nil
}

func (r *RequestRepo) GetByID(_ context.Context, id string) (*entity.AssetRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, nil
	}
	c := *req
	return &c, nil
}

func (r *RequestRepo) List(_ context.Context, f repository.RequestFilter) ([]*entity.AssetRequest, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.AssetRequest
	for _, req := range r.s.requests {
		if f.HREmail != "" && req.HREmail != f.HREmail {
			continue
		}
		if f.EmployeeEmail != "" && req.EmployeeEmail != f.EmployeeEmail {
			continue
		}
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		if f.Search != "" && !contains(req.ProductName, f.Search) && !contains(req.EmployeeName, f.Search) && !contains(req.EmployeeEmail, f.Search) {
			continue
		}
		c := *req
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RequestDate.Equal(out[j].RequestDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].RequestDate.After(out[j].RequestDate)
	})
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (r *RequestRepo) find(assetID, employeeEmail string, st entity.RequestStatus) *entity.AssetRequest {
	var found *entity.AssetRequest
	for _, req := range r.s.requests {
		if req.AssetID != assetID || req.EmployeeEmail != employeeEmail || req.Status != st {
			continue
		}
		if found == nil || req.RequestDate.Before(found.RequestDate) {
			found = req
		}
	}
	if found == nil {
		return nil
	}
	c := *found
	return &c
}

func (r *RequestRepo) FindPending(_ context.Context, assetID, employeeEmail string) (*entity.AssetRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.find(assetID, employeeEmail, entity.StatusPending), nil
}

func (r *RequestRepo) FindApproved(_ context.Context, assetID, employeeEmail string) (*entity.AssetRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.find(assetID, employeeEmail, entity.StatusApproved), nil
}

func (r *RequestRepo) UpdateStatus(_ context.Context, req *entity.AssetRequest, from entity.RequestStatus, prevVersion int) error {
	defer r.s.lock(r.tx)()
	cur, ok := r.s.requests[req.ID]
	if !ok || cur.Status != from || cur.Version != prevVersion {
		return domain.ErrConflict
	}
	c := *req
	r.s.requests[req.ID] = &c
	return nil
}

func (r *RequestRepo) Delete(_ context.Context, id string) error {
	defer r.s.lock(r.tx)()
	if _, ok := r.s.requests[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.requests, id)
	return nil
}

func (r *RequestRepo) AssignedTo(_ context.Context, employeeEmail string) ([]entity.AssetRef, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []entity.AssetRef
	for _, req := range r.s.requests {
		if req.EmployeeEmail != employeeEmail || req.Status != entity.StatusApproved {
			continue
		}
		ref := entity.AssetRef{
			RequestID:   req.ID,
			AssetID:     req.AssetID,
			ProductName: req.ProductName,
			ProductType: req.ProductType,
			CompanyName: req.CompanyName,
		}
		if req.ActionDate != nil {
			ref.AssignedAt = *req.ActionDate
		}
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestID < out[j].RequestID })
	return out, nil
}

// ── Affiliations / Audit ──────────────────────────────────────────────────────

var (
	_ repository.AffiliationRepository = (*AffiliationRepo)(nil)
	_ repository.AuditRepository       = (*AuditRepo)(nil)
)

// AffiliationRepo afiliaciones en memoria.
type AffiliationRepo struct {
	s  *Store
	tx bool
}

func affKey(employeeEmail, hrEmail string) string { return employeeEmail + "|" + hrEmail }

func (r *AffiliationRepo) Exists(_ context.Context, employeeEmail, hrEmail string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.affiliations[affKey(employeeEmail, hrEmail)]
	return ok, nil
}

func (r *AffiliationRepo) Create(_ context.Context, a *entity.Affiliation) error {
	defer r.s.lock(r.tx)()
	// Igual que las FK de PostgreSQL: ambos usuarios deben existir.
	if r.s.users[a.EmployeeEmail] == nil || r.s.users[a.HREmail] == nil {
		return domain.ErrNotFound
	}
	k := affKey(a.EmployeeEmail, a.HREmail)
	if _, ok := r.s.affiliations[k]; ok {
		return domain.ErrDuplicate
	}
	c := *a
	r.s.affiliations[k] = &c
	return nil
}

func (r *AffiliationRepo) ListByHR(_ context.Context, hrEmail string) ([]*entity.Affiliation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Affiliation
	for _, a := range r.s.affiliations {
		if a.HREmail == hrEmail {
			c := *a
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeEmail < out[j].EmployeeEmail })
	return out, nil
}

func (r *AffiliationRepo) Delete(_ context.Context, employeeEmail, hrEmail string) error {
	defer r.s.lock(r.tx)()
	k := affKey(employeeEmail, hrEmail)
	if _, ok := r.s.affiliations[k]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.affiliations, k)
	return nil
}

// AuditRepo auditoría en memoria.
type AuditRepo struct {
	s  *Store
	tx bool
}

func (r *AuditRepo) Append(_ context.Context, e *entity.AuditEntry) error {
	defer r.s.lock(r.tx)()
	c := *e
	r.s.audit = append(r.s.audit, &c)
	return nil
}

func (r *AuditRepo) List(_ context.Context, limit, offset int) ([]*entity.AuditEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.AuditEntry, 0, len(r.s.audit))
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		c := *r.s.audit[i]
		out = append(out, &c)
	}
	return page(out, limit, offset), nil
}
