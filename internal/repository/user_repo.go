package repository

import (
	"context"
	"strings"

	"bloodcare/internal/lifecycle"
	"bloodcare/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DonorSearch narrows the public donor directory. Empty fields match everything.
type DonorSearch struct {
	BloodGroup string
	District   string
	Upazila    string
}

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, status string, page, limit int) ([]model.User, int64, error)
	Update(ctx context.Context, user *model.User) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateRole(ctx context.Context, id uuid.UUID, role lifecycle.Role) error
	SearchDonors(ctx context.Context, q DonorSearch) ([]model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail matches case-insensitively; emails are stored lowercased but older rows may not be
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, status string, page, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	query := GetDB(ctx, r.db).Model(&model.User{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	// Count total records
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	// Fetch paginated data
	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Save(user).Error
}

func (r *userRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.updateColumn(ctx, id, "status", status)
}

func (r *userRepository) UpdateRole(ctx context.Context, id uuid.UUID, role lifecycle.Role) error {
	return r.updateColumn(ctx, id, "role", role)
}

func (r *userRepository) updateColumn(ctx context.Context, id uuid.UUID, column string, value any) error {
	res := GetDB(ctx, r.db).Model(&model.User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) SearchDonors(ctx context.Context, q DonorSearch) ([]model.User, error) {
	var users []model.User
	query := GetDB(ctx, r.db).Where("status = ?", model.UserStatusActive)
	if q.BloodGroup != "" {
		query = query.Where("blood_group = ?", q.BloodGroup)
	}
	if q.District != "" {
		query = query.Where("LOWER(district) = ?", strings.ToLower(q.District))
	}
	if q.Upazila != "" {
		query = query.Where("LOWER(upazila) = ?", strings.ToLower(q.Upazila))
	}
	if err := query.Order("name asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
