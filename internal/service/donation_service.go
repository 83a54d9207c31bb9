package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bloodcare/internal/lifecycle"
	"bloodcare/internal/location"
	"bloodcare/internal/model"
	"bloodcare/internal/repository"
	"bloodcare/internal/sanitize"

	"go.uber.org/zap"
)

// --- DTOs ---

type CreateDonationRequestDTO struct {
	RecipientName     string `json:"recipientName" binding:"required"`
	RecipientDistrict string `json:"recipientDistrict" binding:"required"`
	RecipientUpazila  string `json:"recipientUpazila" binding:"required"`
	HospitalName      string `json:"hospitalName" binding:"required"`
	FullAddress       string `json:"fullAddress" binding:"required"`
	BloodGroup        string `json:"bloodGroup" binding:"required"`
	DonationDate      string `json:"donationDate" binding:"required"`
	DonationTime      string `json:"donationTime" binding:"required"`
	RequestMessage    string `json:"requestMessage"`
}

// UpdateDonationRequestDTO is a partial edit; nil fields are left alone.
// Status, requester and donor cannot be changed through it.
type UpdateDonationRequestDTO struct {
	RecipientName     *string `json:"recipientName"`
	RecipientDistrict *string `json:"recipientDistrict"`
	RecipientUpazila  *string `json:"recipientUpazila"`
	HospitalName      *string `json:"hospitalName"`
	FullAddress       *string `json:"fullAddress"`
	BloodGroup        *string `json:"bloodGroup"`
	DonationDate      *string `json:"donationDate"`
	DonationTime      *string `json:"donationTime"`
	RequestMessage    *string `json:"requestMessage"`
}

type UpdateStatusDTO struct {
	Status string           `json:"status" binding:"required"`
	Donor  *model.DonorInfo `json:"donor"`
}

type DonationRequestFilter struct {
	Status     string
	OwnerEmail string
	Page       int
	Limit      int
}

type DonationRequestResponse struct {
	ID                string             `json:"id"`
	RequesterName     string             `json:"requesterName"`
	RequesterEmail    string             `json:"requesterEmail"`
	RecipientName     string             `json:"recipientName"`
	RecipientDistrict string             `json:"recipientDistrict"`
	RecipientUpazila  string             `json:"recipientUpazila"`
	HospitalName      string             `json:"hospitalName"`
	FullAddress       string             `json:"fullAddress"`
	BloodGroup        string             `json:"bloodGroup"`
	DonationDate      string             `json:"donationDate"`
	DonationTime      string             `json:"donationTime"`
	RequestMessage    string             `json:"requestMessage"`
	Status            lifecycle.Status   `json:"status"`
	Donor             *model.DonorInfo   `json:"donor,omitempty"`
	PermittedActions  []lifecycle.Action `json:"permittedActions"`
	CreatedAt         string             `json:"createdAt"`
	UpdatedAt         string             `json:"updatedAt"`
}

// --- Interface ---

type DonationRequestService interface {
	Create(ctx context.Context, actor *model.User, dto CreateDonationRequestDTO) (*DonationRequestResponse, error)
	Get(ctx context.Context, actor *model.User, id string) (*DonationRequestResponse, error)
	List(ctx context.Context, actor *model.User, filter DonationRequestFilter) ([]DonationRequestResponse, int64, error)
	ListMine(ctx context.Context, actor *model.User, filter DonationRequestFilter) ([]DonationRequestResponse, int64, error)
	ListPublicPending(ctx context.Context, page, limit int) ([]DonationRequestResponse, int64, error)
	UpdateStatus(ctx context.Context, actor *model.User, id string, dto UpdateStatusDTO) (*DonationRequestResponse, error)
	UpdateFields(ctx context.Context, actor *model.User, id string, dto UpdateDonationRequestDTO) (*DonationRequestResponse, error)
	Delete(ctx context.Context, actor *model.User, id string) error
}

type donationRequestService struct {
	repo      repository.DonationRequestRepository
	users     repository.UserRepository
	audit     repository.AuditRepository
	txManager repository.TransactionManager
	catalog   *location.Catalog
	events    EventPublisher
	logger    *zap.Logger
}

func NewDonationRequestService(
	repo repository.DonationRequestRepository,
	users repository.UserRepository,
	audit repository.AuditRepository,
	txManager repository.TransactionManager,
	catalog *location.Catalog,
	events EventPublisher,
	logger *zap.Logger,
) DonationRequestService {
	if events == nil {
		events = nopPublisher{}
	}
	return &donationRequestService{
		repo:      repo,
		users:     users,
		audit:     audit,
		txManager: txManager,
		catalog:   catalog,
		events:    events,
		logger:    logger,
	}
}

// --- Implementation ---

func (s *donationRequestService) Create(ctx context.Context, actor *model.User, dto CreateDonationRequestDTO) (*DonationRequestResponse, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}

	// The stored account decides the blocked gate, not whatever the caller cached.
	fresh, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, "user not found")
	}
	if !lifecycle.CanCreate(fresh.Viewer()) {
		return nil, fmt.Errorf("%w: blocked users cannot create donation requests", ErrForbidden)
	}

	req := &model.DonationRequest{
		RequesterName:  fresh.Name,
		RequesterEmail: strings.ToLower(strings.TrimSpace(fresh.Email)),
		Status:         lifecycle.StatusPending,
	}
	fields := requestFields{
		RecipientName:     dto.RecipientName,
		RecipientDistrict: dto.RecipientDistrict,
		RecipientUpazila:  dto.RecipientUpazila,
		HospitalName:      dto.HospitalName,
		FullAddress:       dto.FullAddress,
		BloodGroup:        dto.BloodGroup,
		DonationDate:      dto.DonationDate,
		DonationTime:      dto.DonationTime,
		RequestMessage:    dto.RequestMessage,
	}
	if err := fields.validate(s.catalog); err != nil {
		return nil, err
	}
	fields.apply(req)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, req); err != nil {
			return fmt.Errorf("failed to create donation request: %w", err)
		}
		return writeAudit(txCtx, s.audit, fresh, model.ActionCreateDonationRequest, req.ID.String(), req.RecipientName, map[string]any{
			"blood_group": req.BloodGroup,
			"district":    req.RecipientDistrict,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(EventDonationRequestCreated, req)
	return mapDonationRequest(req, fresh.Viewer()), nil
}

func (s *donationRequestService) Get(ctx context.Context, actor *model.User, id string) (*DonationRequestResponse, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	req, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapDonationRequest(req, actor.Viewer()), nil
}

// List shows every request to staff and only the caller's own requests to donors
func (s *donationRequestService) List(ctx context.Context, actor *model.User, filter DonationRequestFilter) ([]DonationRequestResponse, int64, error) {
	if err := requireUser(actor); err != nil {
		return nil, 0, err
	}
	if actor.Role != lifecycle.RoleAdmin && actor.Role != lifecycle.RoleVolunteer {
		filter.OwnerEmail = actor.Email
	}
	return s.list(ctx, actor.Viewer(), filter)
}

func (s *donationRequestService) ListMine(ctx context.Context, actor *model.User, filter DonationRequestFilter) ([]DonationRequestResponse, int64, error) {
	if err := requireUser(actor); err != nil {
		return nil, 0, err
	}
	filter.OwnerEmail = actor.Email
	return s.list(ctx, actor.Viewer(), filter)
}

// ListPublicPending needs no login; it backs the public "help needed" page
func (s *donationRequestService) ListPublicPending(ctx context.Context, page, limit int) ([]DonationRequestResponse, int64, error) {
	return s.list(ctx, lifecycle.Viewer{}, DonationRequestFilter{
		Status: string(lifecycle.StatusPending),
		Page:   page,
		Limit:  limit,
	})
}

func (s *donationRequestService) list(ctx context.Context, viewer lifecycle.Viewer, filter DonationRequestFilter) ([]DonationRequestResponse, int64, error) {
	var rf repository.DonationRequestFilter
	if st := strings.TrimSpace(filter.Status); st != "" && !strings.EqualFold(st, "all") {
		status, err := lifecycle.ParseStatus(st)
		if err != nil {
			return nil, 0, lifecycleError(err)
		}
		rf.Status = status
	}
	rf.RequesterEmail = filter.OwnerEmail

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 10
	}

	reqs, total, err := s.repo.List(ctx, rf, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list donation requests: %w", err)
	}

	out := make([]DonationRequestResponse, 0, len(reqs))
	for i := range reqs {
		out = append(out, *mapDonationRequest(&reqs[i], viewer))
	}
	return out, total, nil
}

// UpdateStatus performs confirm, done and cancel. The write only lands if the row still has the
// status this call observed, so two donors racing to confirm get one success and one conflict.
func (s *donationRequestService) UpdateStatus(ctx context.Context, actor *model.User, id string, dto UpdateStatusDTO) (*DonationRequestResponse, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	viewer := actor.Viewer()

	next, err := lifecycle.ParseStatus(dto.Status)
	if err != nil {
		return nil, lifecycleError(err)
	}
	reqID, err := parseID(id, "donation request not found")
	if err != nil {
		return nil, err
	}

	var (
		req    *model.DonationRequest
		action lifecycle.Action
	)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		req, err = s.repo.FindByID(txCtx, reqID)
		if err != nil {
			return notFound(err, "donation request not found")
		}

		action, err = lifecycle.Authorize(req.Lifecycle(), viewer, next)
		if err != nil {
			return lifecycleError(err)
		}

		var donor *model.DonorInfo
		if action == lifecycle.ActionConfirmDonation {
			if dto.Donor != nil && dto.Donor.Email != "" && !lifecycle.SameEmail(dto.Donor.Email, viewer.Email) {
				return validationf("donor must be the confirming user")
			}
			donor = &model.DonorInfo{Name: viewer.Name, Email: strings.ToLower(strings.TrimSpace(viewer.Email))}
		}

		from := req.Status
		n, err := s.repo.TransitionStatus(txCtx, reqID, from, next, donor)
		if err != nil {
			return fmt.Errorf("failed to update donation request status: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: donation request is no longer %s", ErrConflict, from)
		}

		req.Status = next
		if donor != nil {
			req.DonorName, req.DonorEmail = donor.Name, donor.Email
		}
		return writeAudit(txCtx, s.audit, actor, auditActionFor(action), req.ID.String(), req.RecipientName, map[string]any{
			"from": from,
			"to":   next,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("donation request status changed",
		zap.String("id", req.ID.String()),
		zap.String("action", string(action)),
		zap.String("status", string(req.Status)),
		zap.String("by", viewer.Email))
	s.publish(EventDonationRequestStatusChanged, req)
	return mapDonationRequest(req, viewer), nil
}

func (s *donationRequestService) UpdateFields(ctx context.Context, actor *model.User, id string, dto UpdateDonationRequestDTO) (*DonationRequestResponse, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	viewer := actor.Viewer()
	reqID, err := parseID(id, "donation request not found")
	if err != nil {
		return nil, err
	}

	var req *model.DonationRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		req, err = s.repo.FindByID(txCtx, reqID)
		if err != nil {
			return notFound(err, "donation request not found")
		}
		if !lifecycle.Permits(req.Lifecycle(), viewer, lifecycle.ActionEdit) {
			if req.Status.Terminal() {
				return fmt.Errorf("%w: a %s request cannot be edited", ErrConflict, req.Status)
			}
			return fmt.Errorf("%w: only the requester or an admin may edit", ErrForbidden)
		}

		fields := fieldsOf(req)
		fields.merge(dto)
		if err := fields.validate(s.catalog); err != nil {
			return err
		}
		fields.apply(req)

		n, err := s.repo.UpdateFields(txCtx, reqID, req.Status, fields.columns())
		if err != nil {
			return fmt.Errorf("failed to update donation request: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: donation request changed while editing", ErrConflict)
		}
		return writeAudit(txCtx, s.audit, actor, model.ActionUpdateDonationRequest, req.ID.String(), req.RecipientName, map[string]any{
			"status": req.Status,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(EventDonationRequestUpdated, req)
	return mapDonationRequest(req, viewer), nil
}

func (s *donationRequestService) Delete(ctx context.Context, actor *model.User, id string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	reqID, err := parseID(id, "donation request not found")
	if err != nil {
		return err
	}

	var req *model.DonationRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		req, err = s.repo.FindByID(txCtx, reqID)
		if err != nil {
			return notFound(err, "donation request not found")
		}
		if !lifecycle.Permits(req.Lifecycle(), actor.Viewer(), lifecycle.ActionDelete) {
			return fmt.Errorf("%w: only the requester or an admin may delete", ErrForbidden)
		}
		n, err := s.repo.Delete(txCtx, reqID)
		if err != nil {
			return fmt.Errorf("failed to delete donation request: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: donation request not found", ErrNotFound)
		}
		return writeAudit(txCtx, s.audit, actor, model.ActionDeleteDonationRequest, req.ID.String(), req.RecipientName, map[string]any{
			"status": req.Status,
		})
	})
	if err != nil {
		return err
	}

	s.publish(EventDonationRequestDeleted, map[string]string{"id": req.ID.String()})
	return nil
}

func (s *donationRequestService) find(ctx context.Context, id string) (*model.DonationRequest, error) {
	reqID, err := parseID(id, "donation request not found")
	if err != nil {
		return nil, err
	}
	req, err := s.repo.FindByID(ctx, reqID)
	if err != nil {
		return nil, notFound(err, "donation request not found")
	}
	return req, nil
}

// publish runs after commit; a lost notification never fails the request
func (s *donationRequestService) publish(event string, payload any) {
	if r, ok := payload.(*model.DonationRequest); ok {
		payload = mapDonationRequest(r, lifecycle.Viewer{})
	}
	if err := s.events.Publish(event, payload); err != nil {
		s.logger.Warn("failed to publish event", zap.String("event", event), zap.Error(err))
	}
}

func auditActionFor(a lifecycle.Action) string {
	switch a {
	case lifecycle.ActionConfirmDonation:
		return model.ActionConfirmDonation
	case lifecycle.ActionMarkDone:
		return model.ActionMarkDone
	default:
		return model.ActionMarkCanceled
	}
}

func mapDonationRequest(r *model.DonationRequest, viewer lifecycle.Viewer) *DonationRequestResponse {
	return &DonationRequestResponse{
		ID:                r.ID.String(),
		RequesterName:     r.RequesterName,
		RequesterEmail:    r.RequesterEmail,
		RecipientName:     r.RecipientName,
		RecipientDistrict: r.RecipientDistrict,
		RecipientUpazila:  r.RecipientUpazila,
		HospitalName:      r.HospitalName,
		FullAddress:       r.FullAddress,
		BloodGroup:        r.BloodGroup,
		DonationDate:      r.DonationDate,
		DonationTime:      r.DonationTime,
		RequestMessage:    r.RequestMessage,
		Status:            r.Status,
		Donor:             r.Donor(),
		PermittedActions:  lifecycle.PermittedActions(r.Lifecycle(), viewer).Slice(),
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         r.UpdatedAt.Format(time.RFC3339),
	}
}

// requestFields are the user editable columns of a donation request
type requestFields struct {
	RecipientName     string
	RecipientDistrict string
	RecipientUpazila  string
	HospitalName      string
	FullAddress       string
	BloodGroup        string
	DonationDate      string
	DonationTime      string
	RequestMessage    string
}

func fieldsOf(r *model.DonationRequest) requestFields {
	return requestFields{
		RecipientName:     r.RecipientName,
		RecipientDistrict: r.RecipientDistrict,
		RecipientUpazila:  r.RecipientUpazila,
		HospitalName:      r.HospitalName,
		FullAddress:       r.FullAddress,
		BloodGroup:        r.BloodGroup,
		DonationDate:      r.DonationDate,
		DonationTime:      r.DonationTime,
		RequestMessage:    r.RequestMessage,
	}
}

func (f *requestFields) merge(dto UpdateDonationRequestDTO) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&f.RecipientName, dto.RecipientName)
	set(&f.RecipientDistrict, dto.RecipientDistrict)
	set(&f.RecipientUpazila, dto.RecipientUpazila)
	set(&f.HospitalName, dto.HospitalName)
	set(&f.FullAddress, dto.FullAddress)
	set(&f.BloodGroup, dto.BloodGroup)
	set(&f.DonationDate, dto.DonationDate)
	set(&f.DonationTime, dto.DonationTime)
	set(&f.RequestMessage, dto.RequestMessage)
}

// validate sanitizes free text in place and canonicalizes blood group and location
func (f *requestFields) validate(catalog *location.Catalog) error {
	f.RecipientName = sanitize.Line(f.RecipientName)
	f.HospitalName = sanitize.Line(f.HospitalName)
	f.FullAddress = sanitize.Text(f.FullAddress)
	f.RequestMessage = sanitize.Text(f.RequestMessage)

	switch {
	case f.RecipientName == "":
		return validationf("recipientName is required")
	case f.HospitalName == "":
		return validationf("hospitalName is required")
	case f.FullAddress == "":
		return validationf("fullAddress is required")
	}

	group, ok := model.NormalizeBloodGroup(f.BloodGroup)
	if !ok {
		return validationf("invalid blood group %q", f.BloodGroup)
	}
	f.BloodGroup = group

	district, upazila, ok := catalog.Canonical(f.RecipientDistrict, f.RecipientUpazila)
	if !ok {
		return validationf("upazila %q is not in district %q", f.RecipientUpazila, f.RecipientDistrict)
	}
	f.RecipientDistrict, f.RecipientUpazila = district, upazila

	f.DonationDate = strings.TrimSpace(f.DonationDate)
	if _, err := time.Parse("2006-01-02", f.DonationDate); err != nil {
		return validationf("donationDate must be YYYY-MM-DD")
	}
	t, err := time.Parse("15:04", strings.TrimSpace(f.DonationTime))
	if err != nil {
		return validationf("donationTime must be HH:MM")
	}
	f.DonationTime = t.Format("15:04")
	return nil
}

func (f requestFields) apply(r *model.DonationRequest) {
	r.RecipientName = f.RecipientName
	r.RecipientDistrict = f.RecipientDistrict
	r.RecipientUpazila = f.RecipientUpazila
	r.HospitalName = f.HospitalName
	r.FullAddress = f.FullAddress
	r.BloodGroup = f.BloodGroup
	r.DonationDate = f.DonationDate
	r.DonationTime = f.DonationTime
	r.RequestMessage = f.RequestMessage
}

func (f requestFields) columns() map[string]any {
	return map[string]any{
		"recipient_name":     f.RecipientName,
		"recipient_district": f.RecipientDistrict,
		"recipient_upazila":  f.RecipientUpazila,
		"hospital_name":      f.HospitalName,
		"full_address":       f.FullAddress,
		"blood_group":        f.BloodGroup,
		"donation_date":      f.DonationDate,
		"donation_time":      f.DonationTime,
		"request_message":    f.RequestMessage,
	}
}
