package repository

import (
	"context"
	"strings"

	"bloodcare/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IssueRepository interface {
	Create(ctx context.Context, issue *model.Issue) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Issue, error)
	ListAll(ctx context.Context) ([]model.Issue, error)
	Latest(ctx context.Context, limit int) ([]model.Issue, error)
	ListByReporter(ctx context.Context, email string) ([]model.Issue, error)
	Update(ctx context.Context, issue *model.Issue) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateContribution(ctx context.Context, c *model.Contribution) error
	ListContributionsByIssue(ctx context.Context, issueID uuid.UUID) ([]model.Contribution, error)
	ListContributionsByEmail(ctx context.Context, email string) ([]model.Contribution, error)
}

type issueRepository struct {
	db *gorm.DB
}

func NewIssueRepository(db *gorm.DB) IssueRepository {
	return &issueRepository{db: db}
}

func (r *issueRepository) Create(ctx context.Context, issue *model.Issue) error {
	return GetDB(ctx, r.db).Create(issue).Error
}

func (r *issueRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Issue, error) {
	var issue model.Issue
	if err := GetDB(ctx, r.db).First(&issue, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &issue, nil
}

// ListAll returns every issue newest first; filtering happens in memory
func (r *issueRepository) ListAll(ctx context.Context) ([]model.Issue, error) {
	var issues []model.Issue
	if err := GetDB(ctx, r.db).Order("created_at desc").Find(&issues).Error; err != nil {
		return nil, err
	}
	return issues, nil
}

func (r *issueRepository) Latest(ctx context.Context, limit int) ([]model.Issue, error) {
	var issues []model.Issue
	if err := GetDB(ctx, r.db).Order("created_at desc").Limit(limit).Find(&issues).Error; err != nil {
		return nil, err
	}
	return issues, nil
}

func (r *issueRepository) ListByReporter(ctx context.Context, email string) ([]model.Issue, error) {
	var issues []model.Issue
	if err := GetDB(ctx, r.db).
		Where("LOWER(reporter_email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Order("created_at desc").
		Find(&issues).Error; err != nil {
		return nil, err
	}
	return issues, nil
}

func (r *issueRepository) Update(ctx context.Context, issue *model.Issue) error {
	return GetDB(ctx, r.db).Save(issue).Error
}

func (r *issueRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Issue{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *issueRepository) CreateContribution(ctx context.Context, c *model.Contribution) error {
	return GetDB(ctx, r.db).Create(c).Error
}

func (r *issueRepository) ListContributionsByIssue(ctx context.Context, issueID uuid.UUID) ([]model.Contribution, error) {
	var out []model.Contribution
	if err := GetDB(ctx, r.db).Where("issue_id = ?", issueID).Order("created_at desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *issueRepository) ListContributionsByEmail(ctx context.Context, email string) ([]model.Contribution, error) {
	var out []model.Contribution
	if err := GetDB(ctx, r.db).
		Where("LOWER(contributor_email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Order("created_at desc").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
