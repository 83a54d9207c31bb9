package repository

import (
	"context"
	"fmt"
	"time"

	"bloodcare/internal/lifecycle"
	"bloodcare/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StatisticsRepository interface {
	CountUsers(ctx context.Context) (total, donors int64, err error)
	CountRequestsByStatus(ctx context.Context) (map[string]int64, error)
	CountIssues(ctx context.Context) (int64, error)
	TotalFunding(ctx context.Context) (decimal.Decimal, error)
	TotalContribution(ctx context.Context) (decimal.Decimal, error)
	Trend(ctx context.Context, groupBy string, from, to time.Time) ([]TrendRow, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) CountUsers(ctx context.Context) (int64, int64, error) {
	var total, donors int64
	db := GetDB(ctx, r.db)
	if err := db.Model(&model.User{}).Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count users: %w", err)
	}
	if err := db.Model(&model.User{}).Where("role = ?", lifecycle.RoleDonor).Count(&donors).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count donors: %w", err)
	}
	return total, donors, nil
}

func (r *statisticsRepository) CountRequestsByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := GetDB(ctx, r.db).Model(&model.DonationRequest{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count donation requests: %w", err)
	}

	out := map[string]int64{
		string(lifecycle.StatusPending):    0,
		string(lifecycle.StatusInProgress): 0,
		string(lifecycle.StatusDone):       0,
		string(lifecycle.StatusCanceled):   0,
	}
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *statisticsRepository) CountIssues(ctx context.Context) (int64, error) {
	var n int64
	if err := GetDB(ctx, r.db).Model(&model.Issue{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count issues: %w", err)
	}
	return n, nil
}

func (r *statisticsRepository) TotalFunding(ctx context.Context) (decimal.Decimal, error) {
	return sumDecimal(GetDB(ctx, r.db).Model(&model.Fund{}), "amount")
}

func (r *statisticsRepository) TotalContribution(ctx context.Context) (decimal.Decimal, error) {
	return sumDecimal(GetDB(ctx, r.db).Model(&model.Contribution{}), "amount")
}
