package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"surveillance/internal/auth"
	"surveillance/internal/config"
	"surveillance/internal/events"
	"surveillance/internal/model"
	"surveillance/internal/repository"
	"surveillance/internal/tasks"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// memStore is an in-memory table keyed by the row's UUID primary key.
type memStore[T any] struct {
	mu   sync.Mutex
	rows map[uuid.UUID]T
	key  func(*T) *uuid.UUID
}

func newMemStore[T any](key func(*T) *uuid.UUID) *memStore[T] {
	return &memStore[T]{rows: map[uuid.UUID]T{}, key: key}
}

func (m *memStore[T]) Create(_ context.Context, row *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.key(row)
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	m.rows[*id] = *row
	return nil
}

func (m *memStore[T]) FindByID(_ context.Context, id uuid.UUID) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

func (m *memStore[T]) Update(_ context.Context, row *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[*m.key(row)] = *row
	return nil
}

func (m *memStore[T]) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memStore[T]) all() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]T, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	return out
}

func (m *memStore[T]) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// --- transactions ---

// serialTx runs transactions one at a time, which is what row locks give the real repository.
type serialTx struct {
	mu sync.Mutex
}

func (t *serialTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

// --- users, roles, tokens ---

type fakeUsers struct {
	*memStore[model.User]
	roles    *fakeRoles
	attached map[uuid.UUID][]uuid.UUID
}

func newFakeUsers(roles *fakeRoles) *fakeUsers {
	return &fakeUsers{
		memStore: newMemStore(func(u *model.User) *uuid.UUID { return &u.ID }),
		roles:    roles,
		attached: map[uuid.UUID][]uuid.UUID{},
	}
}

func (f *fakeUsers) withRoles(u *model.User) *model.User {
	f.mu.Lock()
	ids := f.attached[u.ID]
	f.mu.Unlock()
	u.Roles = nil
	for _, id := range ids {
		if r, err := f.roles.FindByID(context.Background(), id); err == nil {
			u.Roles = append(u.Roles, *r)
		}
	}
	return u
}

func (f *fakeUsers) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := f.memStore.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return f.withRoles(u), nil
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range f.all() {
		if u.Username == username {
			return f.withRoles(&u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) UsernameExists(_ context.Context, username string) (bool, error) {
	for _, u := range f.all() {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) EmailExists(_ context.Context, email string, excludeID uuid.UUID) (bool, error) {
	for _, u := range f.all() {
		if strings.EqualFold(u.Email, email) && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) AttachRole(_ context.Context, userID, roleID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attached[userID] = append(f.attached[userID], roleID)
	return nil
}

type fakeRoles struct {
	*memStore[model.Role]
}

func newFakeRoles(names ...string) *fakeRoles {
	f := &fakeRoles{newMemStore(func(r *model.Role) *uuid.UUID { return &r.ID })}
	for _, name := range names {
		_ = f.Create(context.Background(), &model.Role{Name: name})
	}
	return f
}

func (f *fakeRoles) FindByName(_ context.Context, name string) (*model.Role, error) {
	for _, r := range f.all() {
		if r.Name == name {
			return &r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRoles) ListAll(_ context.Context) ([]model.Role, error) {
	roles := f.all()
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

func (f *fakeRoles) FirstOrCreate(ctx context.Context, role *model.Role) error {
	if existing, err := f.FindByName(ctx, role.Name); err == nil {
		*role = *existing
		return nil
	}
	return f.Create(ctx, role)
}

func (f *fakeRoles) mustID(name string) uuid.UUID {
	r, err := f.FindByName(context.Background(), name)
	if err != nil {
		panic("unknown role " + name)
	}
	return r.ID
}

type fakeTokens struct {
	*memStore[model.RefreshToken]
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{newMemStore(func(t *model.RefreshToken) *uuid.UUID { return &t.ID })}
}

func (f *fakeTokens) FindByToken(_ context.Context, token string) (*model.RefreshToken, error) {
	for _, t := range f.all() {
		if t.Token == token {
			return &t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// --- registrations ---

type fakeRegistrations struct {
	*memStore[model.UserRegistration]
}

func newFakeRegistrations() *fakeRegistrations {
	return &fakeRegistrations{newMemStore(func(r *model.UserRegistration) *uuid.UUID { return &r.ID })}
}

func (f *fakeRegistrations) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.UserRegistration, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeRegistrations) UsernameExists(_ context.Context, username string) (bool, error) {
	for _, r := range f.all() {
		if r.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRegistrations) List(_ context.Context, status string, _, _ int) ([]model.UserRegistration, int64, error) {
	var out []model.UserRegistration
	for _, r := range f.all() {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeRegistrations) MarkReviewed(_ context.Context, id uuid.UUID, status string, reviewerID uuid.UUID, reviewedAt time.Time, notes string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.Status != model.RegistrationPending {
		return false, nil
	}
	r.Status, r.ReviewedBy, r.ReviewedAt, r.AdminNotes = status, &reviewerID, &reviewedAt, notes
	f.rows[id] = r
	return true, nil
}

// --- boundaries ---

type fakeBoundaries struct {
	districts *memStore[model.DistrictBoundary]
	villages  *memStore[model.VillageBoundary]
}

func newFakeBoundaries() *fakeBoundaries {
	return &fakeBoundaries{
		districts: newMemStore(func(d *model.DistrictBoundary) *uuid.UUID { return &d.ID }),
		villages:  newMemStore(func(v *model.VillageBoundary) *uuid.UUID { return &v.ID }),
	}
}

func (f *fakeBoundaries) addDistrict(name string) *model.DistrictBoundary {
	d := &model.DistrictBoundary{DistrictName: name, StateName: "Andhra Pradesh"}
	_ = f.districts.Create(context.Background(), d)
	return d
}

func (f *fakeBoundaries) addVillage(name string, district *model.DistrictBoundary) *model.VillageBoundary {
	v := &model.VillageBoundary{VillageName: name, DistrictID: district.ID, District: *district}
	_ = f.villages.Create(context.Background(), v)
	return v
}

func (f *fakeBoundaries) CreateDistrict(ctx context.Context, d *model.DistrictBoundary) error {
	return f.districts.Create(ctx, d)
}

func (f *fakeBoundaries) UpdateDistrict(ctx context.Context, d *model.DistrictBoundary) error {
	return f.districts.Update(ctx, d)
}

func (f *fakeBoundaries) FindDistrict(ctx context.Context, id uuid.UUID) (*model.DistrictBoundary, error) {
	return f.districts.FindByID(ctx, id)
}

func (f *fakeBoundaries) FirstDistrict(_ context.Context) (*model.DistrictBoundary, error) {
	all := f.districts.all()
	if len(all) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	sort.Slice(all, func(i, j int) bool { return all[i].DistrictName < all[j].DistrictName })
	return &all[0], nil
}

func (f *fakeBoundaries) ListDistricts(_ context.Context, _, _ int) ([]model.DistrictBoundary, int64, error) {
	all := f.districts.all()
	return all, int64(len(all)), nil
}

func (f *fakeBoundaries) CreateVillage(ctx context.Context, v *model.VillageBoundary) error {
	return f.villages.Create(ctx, v)
}

func (f *fakeBoundaries) UpdateVillage(ctx context.Context, v *model.VillageBoundary) error {
	return f.villages.Update(ctx, v)
}

func (f *fakeBoundaries) FindVillage(ctx context.Context, id uuid.UUID) (*model.VillageBoundary, error) {
	return f.villages.FindByID(ctx, id)
}

func (f *fakeBoundaries) ListVillages(_ context.Context, districtID *uuid.UUID, _, _ int) ([]model.VillageBoundary, int64, error) {
	var out []model.VillageBoundary
	for _, v := range f.villages.all() {
		if districtID == nil || v.DistrictID == *districtID {
			out = append(out, v)
		}
	}
	return out, int64(len(out)), nil
}

// --- reports ---

type fakeReports struct {
	*memStore[model.AshaReport]
}

func newFakeReports() *fakeReports {
	return &fakeReports{newMemStore(func(r *model.AshaReport) *uuid.UUID { return &r.ID })}
}

func (f *fakeReports) matching(filter repository.ReportFilter) []model.AshaReport {
	var out []model.AshaReport
	for _, r := range f.all() {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.DistrictID != nil && (r.DistrictID == nil || *r.DistrictID != *filter.DistrictID) {
			continue
		}
		if filter.VillageID != nil && (r.VillageID == nil || *r.VillageID != *filter.VillageID) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (f *fakeReports) List(_ context.Context, filter repository.ReportFilter) ([]model.AshaReport, int64, error) {
	out := f.matching(filter)
	return out, int64(len(out)), nil
}

func (f *fakeReports) ListAll(_ context.Context, filter repository.ReportFilter) ([]model.AshaReport, error) {
	return f.matching(filter), nil
}

func (f *fakeReports) TransitionStatus(_ context.Context, id uuid.UUID, from, to string, verifiedBy *uuid.UUID, verifiedAt *time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	if verifiedBy != nil && verifiedAt != nil {
		r.VerifiedBy, r.VerifiedAt = verifiedBy, verifiedAt
	}
	f.rows[id] = r
	return true, nil
}

func (f *fakeReports) UpdateDetails(_ context.Context, report *model.AshaReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[report.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.SymptomsJSON, r.DistrictID, r.VillageID = report.SymptomsJSON, report.DistrictID, report.VillageID
	f.rows[report.ID] = r
	return nil
}

// --- alerts, scores, clinical ---

type fakeAlerts struct {
	*memStore[model.DistrictAlert]
}

func newFakeAlerts() *fakeAlerts {
	return &fakeAlerts{newMemStore(func(a *model.DistrictAlert) *uuid.UUID { return &a.ID })}
}

func (f *fakeAlerts) List(_ context.Context, filter repository.AlertFilter) ([]model.DistrictAlert, int64, error) {
	var out []model.DistrictAlert
	for _, a := range f.all() {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.DistrictID != nil && a.DistrictID != *filter.DistrictID {
			continue
		}
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (f *fakeAlerts) UpdateDetails(_ context.Context, id uuid.UUID, title, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.Title, a.Description = title, description
	f.rows[id] = a
	return nil
}

func (f *fakeAlerts) TransitionStatus(_ context.Context, id uuid.UUID, from, to string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = to
	f.rows[id] = a
	return true, nil
}

type fakeScores struct {
	*memStore[model.RiskScore]
}

func newFakeScores() *fakeScores {
	return &fakeScores{newMemStore(func(s *model.RiskScore) *uuid.UUID { return &s.ID })}
}

func (f *fakeScores) List(_ context.Context, districtID *uuid.UUID, _, _ int) ([]model.RiskScore, int64, error) {
	var out []model.RiskScore
	for _, s := range f.all() {
		if districtID == nil || s.DistrictID == *districtID {
			out = append(out, s)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeScores) LatestForDistrict(_ context.Context, districtID uuid.UUID) (*model.RiskScore, error) {
	var latest *model.RiskScore
	for _, s := range f.all() {
		s := s
		if s.DistrictID == districtID && (latest == nil || s.CreatedAt.After(latest.CreatedAt)) {
			latest = &s
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

type fakeClinical struct {
	*memStore[model.ClinicalReport]
}

func newFakeClinical() *fakeClinical {
	return &fakeClinical{newMemStore(func(c *model.ClinicalReport) *uuid.UUID { return &c.ID })}
}

func (f *fakeClinical) ExistsForReport(_ context.Context, reportID uuid.UUID) (bool, error) {
	for _, c := range f.all() {
		if c.AshaReportID == reportID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeClinical) List(_ context.Context, _, _ int) ([]model.ClinicalReport, int64, error) {
	all := f.all()
	return all, int64(len(all)), nil
}

// --- audit, events, queue ---

type recordingAudit struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (r *recordingAudit) Record(_ context.Context, e AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *recordingAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingQueue struct {
	jobs []tasks.Job
}

func (q *recordingQueue) Submit(_ context.Context, job tasks.Job) (tasks.Handle, error) {
	q.jobs = append(q.jobs, job)
	return tasks.Handle("1700000000000-0"), nil
}

func (q *recordingQueue) Result(_ context.Context, _ tasks.Handle) (string, bool, error) {
	return "", false, nil
}

// --- identities ---

func adminIdentity() auth.Identity {
	return auth.Identity{UserID: uuid.New(), Username: "admin", Staff: true}
}

func identityWithRole(username, role string) auth.Identity {
	return auth.Identity{UserID: uuid.New(), Username: username, Roles: []string{role}}
}

func strPtr(s string) *string { return &s }

func bootstrapConfig() config.BootstrapConfig {
	return config.BootstrapConfig{AdminUsername: "admin", AdminEmail: "admin@dharma.com", AdminPassword: "change-me-now"}
}
