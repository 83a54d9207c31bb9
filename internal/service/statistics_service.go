package service

import (
	"context"
	"time"

	"bloodcare/internal/model"
	"bloodcare/internal/repository"

	"github.com/shopspring/decimal"
)

// --- DTOs ---

type TrendFilter struct {
	GroupBy   string `form:"groupBy"`   // day, week, month, year
	StartDate string `form:"startDate"` // YYYY-MM-DD, inclusive
	EndDate   string `form:"endDate"`   // YYYY-MM-DD, inclusive
}

type TrendPoint struct {
	Period        string          `json:"period"`
	Funding       decimal.Decimal `json:"funding"`
	Contributions decimal.Decimal `json:"contributions"`
	Requests      int64           `json:"requests"`
}

type StatisticsService interface {
	Summary(ctx context.Context, actor *model.User) (model.StatisticsResponse, error)
	Trend(ctx context.Context, actor *model.User, filter TrendFilter) ([]TrendPoint, error)
}

type statisticsService struct {
	repo repository.StatisticsRepository
	now  func() time.Time
}

func NewStatisticsService(repo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{repo: repo, now: time.Now}
}

// Summary aggregates the dashboard counters for staff
func (s *statisticsService) Summary(ctx context.Context, actor *model.User) (model.StatisticsResponse, error) {
	var response model.StatisticsResponse
	if err := requireStaff(actor); err != nil {
		return response, err
	}

	var err error
	if response.TotalUsers, response.TotalDonors, err = s.repo.CountUsers(ctx); err != nil {
		return response, err
	}
	if response.RequestsByStatus, err = s.repo.CountRequestsByStatus(ctx); err != nil {
		return response, err
	}
	for _, n := range response.RequestsByStatus {
		response.TotalRequests += n
	}
	if response.TotalIssues, err = s.repo.CountIssues(ctx); err != nil {
		return response, err
	}
	if response.TotalFunding, err = s.repo.TotalFunding(ctx); err != nil {
		return response, err
	}
	if response.TotalContribution, err = s.repo.TotalContribution(ctx); err != nil {
		return response, err
	}
	return response, nil
}

// Trend returns activity per period. The range defaults to the last twelve months.
func (s *statisticsService) Trend(ctx context.Context, actor *model.User, filter TrendFilter) ([]TrendPoint, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	groupBy := filter.GroupBy
	switch groupBy {
	case "day", "week", "month", "year":
	default:
		groupBy = "month"
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	to := today.AddDate(0, 0, 1)
	from := to.AddDate(-1, 0, 0)
	if filter.StartDate != "" {
		d, err := time.Parse(time.DateOnly, filter.StartDate)
		if err != nil {
			return nil, validationf("startDate must be YYYY-MM-DD")
		}
		from = d
	}
	if filter.EndDate != "" {
		d, err := time.Parse(time.DateOnly, filter.EndDate)
		if err != nil {
			return nil, validationf("endDate must be YYYY-MM-DD")
		}
		to = d.AddDate(0, 0, 1)
	}
	if !from.Before(to) {
		return nil, validationf("startDate must not be after endDate")
	}

	rows, err := s.repo.Trend(ctx, groupBy, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]TrendPoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, TrendPoint{
			Period:        r.Period,
			Funding:       r.Funding,
			Contributions: r.Contributions,
			Requests:      r.Requests,
		})
	}
	return out, nil
}
