package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TrendRow is one period of the activity chart
type TrendRow struct {
	Period        string          `gorm:"column:period"`
	Funding       decimal.Decimal `gorm:"column:funding"`
	Contributions decimal.Decimal `gorm:"column:contributions"`
	Requests      int64           `gorm:"column:requests"`
}

// Trend buckets funding, issue contributions and new donation requests by DATE_TRUNC(groupBy).
// from is inclusive, to exclusive.
func (r *statisticsRepository) Trend(ctx context.Context, groupBy string, from, to time.Time) ([]TrendRow, error) {
	query := `
		SELECT
			TO_CHAR(DATE_TRUNC($1, t.created_at), 'YYYY-MM-DD') AS period,
			COALESCE(SUM(t.funding), 0) AS funding,
			COALESCE(SUM(t.contribution), 0) AS contributions,
			COALESCE(SUM(t.request), 0) AS requests
		FROM (
			SELECT f.created_at, f.amount AS funding, 0 AS contribution, 0 AS request
			FROM funds f
			UNION ALL
			SELECT c.created_at, 0, c.amount, 0
			FROM contributions c
			UNION ALL
			SELECT d.created_at, 0, 0, 1
			FROM donation_requests d
		) t
		WHERE t.created_at >= $2 AND t.created_at < $3
		GROUP BY DATE_TRUNC($1, t.created_at)
		ORDER BY period
	`

	var rows []TrendRow
	if err := GetDB(ctx, r.db).Raw(query, groupBy, from, to).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query activity trend: %w", err)
	}
	return rows, nil
}
