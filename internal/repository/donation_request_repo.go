package repository

import (
	"context"
	"strings"

	"bloodcare/internal/lifecycle"
	"bloodcare/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DonationRequestFilter narrows list queries. Empty fields match everything.
type DonationRequestFilter struct {
	Status         lifecycle.Status
	RequesterEmail string
}

type DonationRequestRepository interface {
	Create(ctx context.Context, req *model.DonationRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.DonationRequest, error)
	List(ctx context.Context, filter DonationRequestFilter, page, limit int) ([]model.DonationRequest, int64, error)
	// TransitionStatus moves a request out of status from. It returns the number of rows changed,
	// which is zero when another writer got there first.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to lifecycle.Status, donor *model.DonorInfo) (int64, error)
	// UpdateFields applies fields only while the request is still in status observed
	UpdateFields(ctx context.Context, id uuid.UUID, observed lifecycle.Status, fields map[string]any) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

type donationRequestRepository struct {
	db *gorm.DB
}

func NewDonationRequestRepository(db *gorm.DB) DonationRequestRepository {
	return &donationRequestRepository{db: db}
}

func (r *donationRequestRepository) Create(ctx context.Context, req *model.DonationRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *donationRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.DonationRequest, error) {
	var req model.DonationRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *donationRequestRepository) List(ctx context.Context, filter DonationRequestFilter, page, limit int) ([]model.DonationRequest, int64, error) {
	var reqs []model.DonationRequest
	var total int64

	query := GetDB(ctx, r.db).Model(&model.DonationRequest{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.RequesterEmail != "" {
		query = query.Where("LOWER(requester_email) = ?", strings.ToLower(strings.TrimSpace(filter.RequesterEmail)))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&reqs).Error; err != nil {
		return nil, 0, err
	}

	return reqs, total, nil
}

func (r *donationRequestRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to lifecycle.Status, donor *model.DonorInfo) (int64, error) {
	updates := map[string]any{"status": to}
	if donor != nil {
		updates["donor_name"] = donor.Name
		updates["donor_email"] = donor.Email
	}
	res := GetDB(ctx, r.db).Model(&model.DonationRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *donationRequestRepository) UpdateFields(ctx context.Context, id uuid.UUID, observed lifecycle.Status, fields map[string]any) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.DonationRequest{}).
		Where("id = ? AND status = ?", id, observed).
		Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *donationRequestRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.DonationRequest{})
	return res.RowsAffected, res.Error
}
