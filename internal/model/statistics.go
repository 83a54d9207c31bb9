package model

import "github.com/shopspring/decimal"

// StatisticsResponse is the dashboard summary shown to admins and volunteers
type StatisticsResponse struct {
	TotalUsers        int64            `json:"totalUsers"`
	TotalDonors       int64            `json:"totalDonors"`
	TotalFunding      decimal.Decimal  `json:"totalFunding"`
	TotalRequests     int64            `json:"totalRequests"`
	RequestsByStatus  map[string]int64 `json:"requestsByStatus"`
	TotalIssues       int64            `json:"totalIssues"`
	TotalContribution decimal.Decimal  `json:"totalContribution"`
}
