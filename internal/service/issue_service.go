package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bloodcare/internal/issuefilter"
	"bloodcare/internal/lifecycle"
	"bloodcare/internal/model"
	"bloodcare/internal/repository"
	"bloodcare/internal/sanitize"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const latestIssues = 6

type CreateIssueDTO struct {
	Title       string          `json:"title" binding:"required"`
	Category    string          `json:"category" binding:"required"`
	Location    string          `json:"location" binding:"required"`
	Description string          `json:"description" binding:"required"`
	Image       string          `json:"image"`
	Amount      decimal.Decimal `json:"amount"`
}

type UpdateIssueDTO struct {
	Title       *string          `json:"title"`
	Category    *string          `json:"category"`
	Location    *string          `json:"location"`
	Description *string          `json:"description"`
	Image       *string          `json:"image"`
	Amount      *decimal.Decimal `json:"amount"`
	Status      *string          `json:"status"`
}

type ContributionDTO struct {
	Amount  decimal.Decimal `json:"amount"`
	Phone   string          `json:"phone"`
	Address string          `json:"address"`
	Note    string          `json:"note"`
}

type IssueResponse struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Category      string          `json:"category"`
	Location      string          `json:"location"`
	Description   string          `json:"description"`
	Image         string          `json:"image"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	ReporterName  string          `json:"reporterName"`
	ReporterEmail string          `json:"email"`
	Date          string          `json:"date"`
}

type IssueDetailResponse struct {
	IssueResponse
	Collected     decimal.Decimal        `json:"collected"`
	Contributions []ContributionResponse `json:"contributions"`
}

type ContributionResponse struct {
	ID              string          `json:"id"`
	IssueID         string          `json:"issueId"`
	IssueTitle      string          `json:"issueTitle"`
	ContributorName string          `json:"contributorName"`
	Email           string          `json:"email"`
	Amount          decimal.Decimal `json:"amount"`
	Phone           string          `json:"phone"`
	Address         string          `json:"address"`
	Note            string          `json:"note"`
	Avatar          string          `json:"avatar"`
	Date            string          `json:"date"`
}

// IssueListResponse is a filtered page plus the category options of the whole set
type IssueListResponse struct {
	issuefilter.Page[IssueResponse]
	Categories []issuefilter.Category `json:"categories"`
}

type IssueService interface {
	Create(ctx context.Context, actor *model.User, dto CreateIssueDTO) (*IssueResponse, error)
	List(ctx context.Context, filter issuefilter.Filter, page int) (*IssueListResponse, error)
	Latest(ctx context.Context) ([]IssueResponse, error)
	Mine(ctx context.Context, actor *model.User) ([]IssueResponse, error)
	Get(ctx context.Context, id string) (*IssueDetailResponse, error)
	Update(ctx context.Context, actor *model.User, id string, dto UpdateIssueDTO) (*IssueResponse, error)
	Delete(ctx context.Context, actor *model.User, id string) error
	Contribute(ctx context.Context, actor *model.User, id string, dto ContributionDTO) (*ContributionResponse, error)
	MyContributions(ctx context.Context, actor *model.User) ([]ContributionResponse, error)
}

type issueService struct {
	repo      repository.IssueRepository
	audit     repository.AuditRepository
	txManager repository.TransactionManager
	logger    *zap.Logger
}

func NewIssueService(repo repository.IssueRepository, audit repository.AuditRepository, txManager repository.TransactionManager, logger *zap.Logger) IssueService {
	return &issueService{repo: repo, audit: audit, txManager: txManager, logger: logger}
}

func (s *issueService) Create(ctx context.Context, actor *model.User, dto CreateIssueDTO) (*IssueResponse, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	issue := &model.Issue{
		Title:         sanitize.Line(dto.Title),
		Category:      sanitize.Line(dto.Category),
		Location:      sanitize.Line(dto.Location),
		Description:   sanitize.Text(dto.Description),
		Image:         strings.TrimSpace(dto.Image),
		Amount:        dto.Amount.Round(2),
		Status:        model.IssueStatusOngoing,
		ReporterName:  actor.Name,
		ReporterEmail: actor.Email,
	}
	if err := validateIssue(issue); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, issue); err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}
	return mapIssue(issue), nil
}

// List filters in memory so search covers every text field the same way the filter does
func (s *issueService) List(ctx context.Context, filter issuefilter.Filter, page int) (*IssueListResponse, error) {
	issues, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}

	all := make([]IssueResponse, 0, len(issues))
	categories := make([]string, 0, len(issues))
	for i := range issues {
		all = append(all, *mapIssue(&issues[i]))
		categories = append(categories, issues[i].Category)
	}

	return &IssueListResponse{
		Page:       issuefilter.Apply(all, issueItem, filter, page),
		Categories: issuefilter.Categories(categories),
	}, nil
}

func issueItem(r IssueResponse) issuefilter.Item {
	return issuefilter.Item{
		Title:       r.Title,
		Location:    r.Location,
		Description: r.Description,
		Category:    r.Category,
		Status:      r.Status,
	}
}

func (s *issueService) Latest(ctx context.Context) ([]IssueResponse, error) {
	issues, err := s.repo.Latest(ctx, latestIssues)
	if err != nil {
		return nil, fmt.Errorf("failed to list latest issues: %w", err)
	}
	return mapIssues(issues), nil
}

func (s *issueService) Mine(ctx context.Context, actor *model.User) ([]IssueResponse, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	issues, err := s.repo.ListByReporter(ctx, actor.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	return mapIssues(issues), nil
}

func (s *issueService) Get(ctx context.Context, id string) (*IssueDetailResponse, error) {
	issue, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	contributions, err := s.repo.ListContributionsByIssue(ctx, issue.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributions: %w", err)
	}

	res := &IssueDetailResponse{
		IssueResponse: *mapIssue(issue),
		Collected:     decimal.Zero,
		Contributions: make([]ContributionResponse, 0, len(contributions)),
	}
	for i := range contributions {
		res.Collected = res.Collected.Add(contributions[i].Amount)
		res.Contributions = append(res.Contributions, *mapContribution(&contributions[i]))
	}
	return res, nil
}

func (s *issueService) Update(ctx context.Context, actor *model.User, id string, dto UpdateIssueDTO) (*IssueResponse, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	issue, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !lifecycle.SameEmail(issue.ReporterEmail, actor.Email) {
		return nil, fmt.Errorf("%w: only the reporter may edit this issue", ErrForbidden)
	}

	if dto.Title != nil {
		issue.Title = sanitize.Line(*dto.Title)
	}
	if dto.Category != nil {
		issue.Category = sanitize.Line(*dto.Category)
	}
	if dto.Location != nil {
		issue.Location = sanitize.Line(*dto.Location)
	}
	if dto.Description != nil {
		issue.Description = sanitize.Text(*dto.Description)
	}
	if dto.Image != nil {
		issue.Image = strings.TrimSpace(*dto.Image)
	}
	if dto.Amount != nil {
		issue.Amount = dto.Amount.Round(2)
	}
	if dto.Status != nil {
		issue.Status = strings.ToLower(strings.TrimSpace(*dto.Status))
	}
	if err := validateIssue(issue); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, issue); err != nil {
		return nil, fmt.Errorf("failed to update issue: %w", err)
	}
	return mapIssue(issue), nil
}

func (s *issueService) Delete(ctx context.Context, actor *model.User, id string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	issue, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !lifecycle.SameEmail(issue.ReporterEmail, actor.Email) && actor.Role != lifecycle.RoleAdmin {
		return fmt.Errorf("%w: only the reporter or an admin may delete this issue", ErrForbidden)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, issue.ID); err != nil {
			return notFound(err, "issue not found")
		}
		return writeAudit(txCtx, s.audit, actor, model.ActionDeleteIssue, issue.ID.String(), issue.Title, map[string]any{
			"reporter": issue.ReporterEmail,
		})
	})
}

func (s *issueService) Contribute(ctx context.Context, actor *model.User, id string, dto ContributionDTO) (*ContributionResponse, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if !dto.Amount.IsPositive() {
		return nil, validationf("amount must be positive")
	}
	issue, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if issue.Status == model.IssueStatusResolved {
		return nil, fmt.Errorf("%w: issue is already resolved", ErrConflict)
	}

	c := &model.Contribution{
		IssueID:          issue.ID,
		IssueTitle:       issue.Title,
		ContributorName:  actor.Name,
		ContributorEmail: actor.Email,
		Amount:           dto.Amount.Round(2),
		Phone:            strings.TrimSpace(dto.Phone),
		Address:          sanitize.Text(dto.Address),
		Note:             sanitize.Text(dto.Note),
		Avatar:           actor.Avatar,
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateContribution(txCtx, c); err != nil {
			return fmt.Errorf("failed to record contribution: %w", err)
		}
		return writeAudit(txCtx, s.audit, actor, model.ActionContribution, issue.ID.String(), issue.Title, map[string]any{
			"amount": c.Amount.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("contribution recorded", zap.String("issue_id", issue.ID.String()), zap.String("amount", c.Amount.String()))
	return mapContribution(c), nil
}

func (s *issueService) MyContributions(ctx context.Context, actor *model.User) ([]ContributionResponse, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	list, err := s.repo.ListContributionsByEmail(ctx, actor.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributions: %w", err)
	}
	out := make([]ContributionResponse, 0, len(list))
	for i := range list {
		out = append(out, *mapContribution(&list[i]))
	}
	return out, nil
}

func (s *issueService) find(ctx context.Context, id string) (*model.Issue, error) {
	issueID, err := parseID(id, "issue not found")
	if err != nil {
		return nil, err
	}
	issue, err := s.repo.FindByID(ctx, issueID)
	if err != nil {
		return nil, notFound(err, "issue not found")
	}
	return issue, nil
}

func validateIssue(issue *model.Issue) error {
	switch {
	case issue.Title == "":
		return validationf("title is required")
	case issue.Category == "":
		return validationf("category is required")
	case issue.Location == "":
		return validationf("location is required")
	case issue.Description == "":
		return validationf("description is required")
	case issue.Amount.IsNegative():
		return validationf("amount cannot be negative")
	case !model.ValidIssueStatus(issue.Status):
		return validationf("invalid status %q", issue.Status)
	}
	return nil
}

func mapIssue(i *model.Issue) *IssueResponse {
	return &IssueResponse{
		ID:            i.ID.String(),
		Title:         i.Title,
		Category:      i.Category,
		Location:      i.Location,
		Description:   i.Description,
		Image:         i.Image,
		Amount:        i.Amount,
		Status:        i.Status,
		ReporterName:  i.ReporterName,
		ReporterEmail: i.ReporterEmail,
		Date:          i.CreatedAt.Format(time.RFC3339),
	}
}

func mapIssues(issues []model.Issue) []IssueResponse {
	out := make([]IssueResponse, 0, len(issues))
	for i := range issues {
		out = append(out, *mapIssue(&issues[i]))
	}
	return out
}

func mapContribution(c *model.Contribution) *ContributionResponse {
	return &ContributionResponse{
		ID:              c.ID.String(),
		IssueID:         c.IssueID.String(),
		IssueTitle:      c.IssueTitle,
		ContributorName: c.ContributorName,
		Email:           c.ContributorEmail,
		Amount:          c.Amount,
		Phone:           c.Phone,
		Address:         c.Address,
		Note:            c.Note,
		Avatar:          c.Avatar,
		Date:            c.CreatedAt.Format(time.RFC3339),
	}
}
