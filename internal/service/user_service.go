package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bloodcare/internal/lifecycle"
	"bloodcare/internal/location"
	"bloodcare/internal/model"
	"bloodcare/internal/repository"
	"bloodcare/internal/sanitize"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type RegisterRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=6"`
	Avatar     string `json:"avatar"`
	BloodGroup string `json:"bloodGroup" binding:"required"`
	District   string `json:"district" binding:"required"`
	Upazila    string `json:"upazila" binding:"required"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UpdateProfileRequest only carries fields a user may change about themselves
type UpdateProfileRequest struct {
	Name       *string `json:"name"`
	Avatar     *string `json:"avatar"`
	BloodGroup *string `json:"bloodGroup"`
	District   *string `json:"district"`
	Upazila    *string `json:"upazila"`
}

type UpdateUserStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type UpdateUserRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type DonorSearchRequest struct {
	BloodGroup string `form:"bloodGroup"`
	District   string `form:"district"`
	Upazila    string `form:"upazila"`
}

type TokenResponse struct {
	AccessToken  string        `json:"token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	User         *UserResponse `json:"user"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Avatar     string    `json:"avatar"`
	BloodGroup string    `json:"bloodGroup"`
	District   string    `json:"district"`
	Upazila    string    `json:"upazila"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	CreatedAt  string    `json:"createdAt"`
	UpdatedAt  string    `json:"updatedAt"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error

	Me(ctx context.Context, actor *model.User) (*UserResponse, error)
	GetByEmail(ctx context.Context, actor *model.User, email string) (*UserResponse, error)
	UpdateProfile(ctx context.Context, actor *model.User, req UpdateProfileRequest) (*UserResponse, error)

	ListUsers(ctx context.Context, actor *model.User, status string, page, limit int) ([]UserResponse, int64, error)
	UpdateStatus(ctx context.Context, actor *model.User, id string, status string) (*UserResponse, error)
	UpdateRole(ctx context.Context, actor *model.User, id string, role string) (*UserResponse, error)

	SearchDonors(ctx context.Context, req DonorSearchRequest) ([]UserResponse, error)
}

type userService struct {
	repo      repository.UserRepository
	tokens    repository.RefreshTokenRepository
	audit     repository.AuditRepository
	txManager repository.TransactionManager
	catalog   *location.Catalog
	cfg       TokenConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewUserService returns a new instance of UserService
func NewUserService(
	repo repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	audit repository.AuditRepository,
	txManager repository.TransactionManager,
	catalog *location.Catalog,
	cfg TokenConfig,
	logger *zap.Logger,
) UserService {
	return &userService{
		repo:      repo,
		tokens:    tokens,
		audit:     audit,
		txManager: txManager,
		catalog:   catalog,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Helper: parse model to standard json API response
func mapUserToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Avatar:     user.Avatar,
		BloodGroup: user.BloodGroup,
		District:   user.District,
		Upazila:    user.Upazila,
		Role:       string(user.Role),
		Status:     user.Status,
		CreatedAt:  user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  user.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *userService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := sanitize.Line(req.Name)
	if name == "" {
		return nil, validationf("name is required")
	}
	group, ok := model.NormalizeBloodGroup(req.BloodGroup)
	if !ok {
		return nil, validationf("invalid blood group %q", req.BloodGroup)
	}
	district, upazila, ok := s.catalog.Canonical(req.District, req.Upazila)
	if !ok {
		return nil, validationf("upazila %q is not in district %q", req.Upazila, req.District)
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already exists", ErrConflict)
	} else if !errors.Is(notFound(err, "user"), ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		Name:       name,
		Email:      email,
		Password:   string(hashedPassword),
		Avatar:     strings.TrimSpace(req.Avatar),
		BloodGroup: group,
		District:   district,
		Upazila:    upazila,
		Role:       lifecycle.RoleDonor,
		Status:     model.UserStatusActive,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("email", user.Email))
	return mapUserToResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)
	}
	return s.issueTokens(ctx, user)
}

// Refresh rotates a refresh token: the presented one is consumed and a new pair is issued
func (s *userService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token is missing", ErrUnauthenticated)
	}

	var res *TokenResponse
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rt, err := s.tokens.FindValid(txCtx, refreshToken, s.now())
		if err != nil {
			return fmt.Errorf("%w: invalid or expired refresh token", ErrUnauthenticated)
		}
		user, err := s.repo.GetByID(txCtx, rt.UserID)
		if err != nil {
			return fmt.Errorf("%w: invalid or expired refresh token", ErrUnauthenticated)
		}
		if err := s.tokens.Delete(txCtx, refreshToken); err != nil {
			return err
		}
		res, err = s.issueTokens(txCtx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.Delete(ctx, refreshToken)
}

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	now := s.now()
	access, err := s.cfg.SignAccess(user, now)
	if err != nil {
		return nil, err
	}

	rt := &model.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(s.cfg.RefreshTTL),
	}
	if err := s.tokens.Create(ctx, rt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenResponse{
		AccessToken:  access,
		RefreshToken: rt.Token,
		ExpiresIn:    int64(s.cfg.AccessTTL.Seconds()),
		User:         mapUserToResponse(user),
	}, nil
}

func (s *userService) Me(ctx context.Context, actor *model.User) (*UserResponse, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	return mapUserToResponse(actor), nil
}

// GetByEmail is limited to the account owner and staff
func (s *userService) GetByEmail(ctx context.Context, actor *model.User, email string) (*UserResponse, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if !lifecycle.SameEmail(actor.Email, email) && actor.Role != lifecycle.RoleAdmin && actor.Role != lifecycle.RoleVolunteer {
		return nil, fmt.Errorf("%w: cannot read another user's profile", ErrForbidden)
	}
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, notFound(err, "user not found")
	}
	return mapUserToResponse(user), nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor *model.User, req UpdateProfileRequest) (*UserResponse, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, "user not found")
	}

	if req.Name != nil {
		name := sanitize.Line(*req.Name)
		if name == "" {
			return nil, validationf("name cannot be empty")
		}
		user.Name = name
	}
	if req.Avatar != nil {
		user.Avatar = strings.TrimSpace(*req.Avatar)
	}
	if req.BloodGroup != nil {
		group, ok := model.NormalizeBloodGroup(*req.BloodGroup)
		if !ok {
			return nil, validationf("invalid blood group %q", *req.BloodGroup)
		}
		user.BloodGroup = group
	}
	if req.District != nil || req.Upazila != nil {
		district, upazila := user.District, user.Upazila
		if req.District != nil {
			district = *req.District
		}
		if req.Upazila != nil {
			upazila = *req.Upazila
		}
		d, u, ok := s.catalog.Canonical(district, upazila)
		if !ok {
			return nil, validationf("upazila %q is not in district %q", upazila, district)
		}
		user.District, user.Upazila = d, u
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return mapUserToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, actor *model.User, status string, page, limit int) ([]UserResponse, int64, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "all" {
		status = ""
	}
	if status != "" && !model.ValidUserStatus(status) {
		return nil, 0, validationf("invalid status %q", status)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	users, total, err := s.repo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapUserToResponse(&users[i]))
	}
	return responses, total, nil
}

func (s *userService) UpdateStatus(ctx context.Context, actor *model.User, id string, status string) (*UserResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if !model.ValidUserStatus(status) {
		return nil, validationf("invalid status %q", status)
	}
	return s.adminUpdate(ctx, actor, id, model.ActionChangeUserStatus, func(txCtx context.Context, user *model.User) (map[string]any, error) {
		details := map[string]any{"from": user.Status, "to": status}
		if err := s.repo.UpdateStatus(txCtx, user.ID, status); err != nil {
			return nil, err
		}
		user.Status = status
		return details, nil
	})
}

func (s *userService) UpdateRole(ctx context.Context, actor *model.User, id string, role string) (*UserResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	r, err := lifecycle.ParseRole(role)
	if err != nil {
		return nil, lifecycleError(err)
	}
	return s.adminUpdate(ctx, actor, id, model.ActionChangeUserRole, func(txCtx context.Context, user *model.User) (map[string]any, error) {
		details := map[string]any{"from": user.Role, "to": r}
		if err := s.repo.UpdateRole(txCtx, user.ID, r); err != nil {
			return nil, err
		}
		user.Role = r
		return details, nil
	})
}

// adminUpdate loads the target user, applies change and writes the audit entry in one transaction.
// Admins cannot change their own account this way.
func (s *userService) adminUpdate(ctx context.Context, actor *model.User, id, action string, change func(context.Context, *model.User) (map[string]any, error)) (*UserResponse, error) {
	userID, err := parseID(id, "user not found")
	if err != nil {
		return nil, err
	}
	if userID == actor.ID {
		return nil, validationf("admins cannot change their own role or status")
	}

	var user *model.User
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.repo.GetByID(txCtx, userID)
		if err != nil {
			return notFound(err, "user not found")
		}
		details, err := change(txCtx, user)
		if err != nil {
			return notFound(err, "user not found")
		}
		return writeAudit(txCtx, s.audit, actor, action, user.ID.String(), user.Email, details)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user updated by admin",
		zap.String("action", action),
		zap.String("user_id", user.ID.String()),
		zap.String("admin", actor.Email))
	return mapUserToResponse(user), nil
}

func (s *userService) SearchDonors(ctx context.Context, req DonorSearchRequest) ([]UserResponse, error) {
	q := repository.DonorSearch{
		District: strings.TrimSpace(req.District),
		Upazila:  strings.TrimSpace(req.Upazila),
	}
	if strings.TrimSpace(req.BloodGroup) != "" {
		group, ok := model.NormalizeBloodGroup(req.BloodGroup)
		if !ok {
			return nil, validationf("invalid blood group %q", req.BloodGroup)
		}
		q.BloodGroup = group
	}
	if q.District != "" && !s.catalog.HasDistrict(q.District) {
		return []UserResponse{}, nil
	}

	users, err := s.repo.SearchDonors(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		if users[i].Role != lifecycle.RoleDonor {
			continue
		}
		out = append(out, *mapUserToResponse(&users[i]))
	}
	return out, nil
}
