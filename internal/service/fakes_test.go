package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"bloodcare/internal/lifecycle"
	"bloodcare/internal/model"
	"bloodcare/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeTx struct{}

func (fakeTx) RunInTx(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }

type fakeUsers struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*model.User
	order []uuid.UUID
}

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{byID: map[uuid.UUID]*model.User{}}
	for _, u := range users {
		_ = f.Create(context.Background(), u)
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Status == "" {
		u.Status = model.UserStatusActive
	}
	cp := *u
	f.byID[u.ID] = &cp
	f.order = append(f.order, u.ID)
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.order {
		if u := f.byID[id]; strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) List(_ context.Context, status string, page, limit int) ([]model.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.User
	for _, id := range f.order {
		if u := f.byID[id]; status == "" || u.Status == status {
			all = append(all, *u)
		}
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

func (f *fakeUsers) Update(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Status = status
	return nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, id uuid.UUID, role lifecycle.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Role = role
	return nil
}

func (f *fakeUsers) SearchDonors(_ context.Context, q repository.DonorSearch) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.User
	for _, id := range f.order {
		u := f.byID[id]
		if u.Status != model.UserStatusActive {
			continue
		}
		if q.BloodGroup != "" && u.BloodGroup != q.BloodGroup {
			continue
		}
		if q.District != "" && !strings.EqualFold(u.District, q.District) {
			continue
		}
		if q.Upazila != "" && !strings.EqualFold(u.Upazila, q.Upazila) {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

type fakeTokens struct {
	mu     sync.Mutex
	tokens map[string]model.RefreshToken
}

func newFakeTokens() *fakeTokens { return &fakeTokens{tokens: map[string]model.RefreshToken{}} }

func (f *fakeTokens) Create(_ context.Context, t *model.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[t.Token] = *t
	return nil
}

func (f *fakeTokens) FindValid(_ context.Context, token string, now time.Time) (*model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok || !t.ExpiresAt.After(now) {
		return nil, gorm.ErrRecordNotFound
	}
	return &t, nil
}

func (f *fakeTokens) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return nil
}

func (f *fakeTokens) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, t := range f.tokens {
		if t.UserID == userID {
			delete(f.tokens, k)
		}
	}
	return nil
}

type fakeDonations struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*model.DonationRequest
	order []uuid.UUID

	// beforeWrite runs between the service's read and its conditional write
	beforeWrite func(id uuid.UUID)
}

func newFakeDonations() *fakeDonations {
	return &fakeDonations{byID: map[uuid.UUID]*model.DonationRequest{}}
}

func (f *fakeDonations) Create(_ context.Context, r *model.DonationRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	f.byID[r.ID] = &cp
	f.order = append(f.order, r.ID)
	return nil
}

func (f *fakeDonations) FindByID(_ context.Context, id uuid.UUID) (*model.DonationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeDonations) List(_ context.Context, filter repository.DonationRequestFilter, page, limit int) ([]model.DonationRequest, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.DonationRequest
	for i := len(f.order) - 1; i >= 0; i-- {
		r, ok := f.byID[f.order[i]]
		if !ok {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.RequesterEmail != "" && !strings.EqualFold(r.RequesterEmail, filter.RequesterEmail) {
			continue
		}
		all = append(all, *r)
	}
	return paginate(all, page, limit), int64(len(all)), nil
}

func (f *fakeDonations) TransitionStatus(_ context.Context, id uuid.UUID, from, to lifecycle.Status, donor *model.DonorInfo) (int64, error) {
	if f.beforeWrite != nil {
		f.beforeWrite(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok || r.Status != from {
		return 0, nil
	}
	r.Status = to
	if donor != nil {
		r.DonorName, r.DonorEmail = donor.Name, donor.Email
	}
	return 1, nil
}

func (f *fakeDonations) UpdateFields(_ context.Context, id uuid.UUID, observed lifecycle.Status, fields map[string]any) (int64, error) {
	if f.beforeWrite != nil {
		f.beforeWrite(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok || r.Status != observed {
		return 0, nil
	}
	if v, ok := fields["recipient_name"].(string); ok {
		r.RecipientName = v
	}
	if v, ok := fields["hospital_name"].(string); ok {
		r.HospitalName = v
	}
	if v, ok := fields["recipient_district"].(string); ok {
		r.RecipientDistrict = v
	}
	if v, ok := fields["recipient_upazila"].(string); ok {
		r.RecipientUpazila = v
	}
	return 1, nil
}

func (f *fakeDonations) Delete(_ context.Context, id uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return 0, nil
	}
	delete(f.byID, id)
	return 1, nil
}

func (f *fakeDonations) setStatus(id uuid.UUID, st lifecycle.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[id].Status = st
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (f *fakeAudit) Log(_ context.Context, e *model.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeAudit) List(_ context.Context, filter repository.AuditFilter, page, limit int) ([]model.AuditLog, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.AuditLog
	for _, e := range f.entries {
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.ActorEmail != "" && !strings.EqualFold(e.ActorEmail, filter.ActorEmail) {
			continue
		}
		if filter.EntityID != "" && e.EntityID != filter.EntityID {
			continue
		}
		out = append(out, e)
	}
	return paginate(out, page, limit), int64(len(out)), nil
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeFunds struct {
	mu    sync.Mutex
	funds []model.Fund
}

func (f *fakeFunds) Create(_ context.Context, fund *model.Fund) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fund.ID = uuid.New()
	fund.CreatedAt = time.Now()
	f.funds = append(f.funds, *fund)
	return nil
}

func (f *fakeFunds) FindByPaymentIntent(_ context.Context, intent string) (*model.Fund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.funds {
		if f.funds[i].PaymentIntentID == intent {
			cp := f.funds[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeFunds) List(_ context.Context, page, limit int) ([]model.Fund, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := append([]model.Fund(nil), f.funds...)
	return paginate(all, page, limit), int64(len(all)), nil
}

func (f *fakeFunds) Total(context.Context) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := decimal.Zero
	for _, fund := range f.funds {
		sum = sum.Add(fund.Amount)
	}
	return sum, nil
}

type fakeIssues struct {
	mu            sync.Mutex
	issues        []model.Issue
	contributions []model.Contribution
}

func (f *fakeIssues) Create(_ context.Context, i *model.Issue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i.ID = uuid.New()
	i.CreatedAt = time.Now().Add(time.Duration(len(f.issues)) * time.Second)
	f.issues = append(f.issues, *i)
	return nil
}

func (f *fakeIssues) FindByID(_ context.Context, id uuid.UUID) (*model.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.issues {
		if f.issues[i].ID == id {
			cp := f.issues[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeIssues) newestFirst() []model.Issue {
	out := append([]model.Issue(nil), f.issues...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeIssues) ListAll(context.Context) ([]model.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.newestFirst(), nil
}

func (f *fakeIssues) Latest(_ context.Context, limit int) ([]model.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.newestFirst()
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeIssues) ListByReporter(_ context.Context, email string) ([]model.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Issue
	for _, i := range f.newestFirst() {
		if strings.EqualFold(i.ReporterEmail, email) {
			out = append(out, i)
		}
	}
	return out, nil
}

func (f *fakeIssues) Update(_ context.Context, issue *model.Issue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.issues {
		if f.issues[i].ID == issue.ID {
			f.issues[i] = *issue
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeIssues) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.issues {
		if f.issues[i].ID == id {
			f.issues = append(f.issues[:i], f.issues[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeIssues) CreateContribution(_ context.Context, c *model.Contribution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	f.contributions = append(f.contributions, *c)
	return nil
}

func (f *fakeIssues) ListContributionsByIssue(_ context.Context, issueID uuid.UUID) ([]model.Contribution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Contribution
	for _, c := range f.contributions {
		if c.IssueID == issueID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeIssues) ListContributionsByEmail(_ context.Context, email string) ([]model.Contribution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Contribution
	for _, c := range f.contributions {
		if strings.EqualFold(c.ContributorEmail, email) {
			out = append(out, c)
		}
	}
	return out, nil
}

type recordedEvent struct {
	name    string
	payload any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (p *fakePublisher) Publish(name string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{name, payload})
	return p.err
}

func (p *fakePublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.name)
	}
	return out
}

func paginate[T any](all []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if limit <= 0 || start >= len(all) {
		return []T{}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

func newUser(name, email string, role lifecycle.Role) *model.User {
	return &model.User{
		ID:         uuid.New(),
		Name:       name,
		Email:      email,
		Role:       role,
		Status:     model.UserStatusActive,
		BloodGroup: "O+",
		District:   "Dhaka",
		Upazila:    "Savar",
	}
}
