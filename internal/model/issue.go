package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Issue status values
const (
	IssueStatusOngoing    = "ongoing"
	IssueStatusInProgress = "in-progress"
	IssueStatusResolved   = "resolved"
)

// Issue is a community problem report (garbage, road damage, ...) with a suggested budget
type Issue struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title         string          `gorm:"type:varchar(255);not null" json:"title"`
	Category      string          `gorm:"type:varchar(100);not null;index" json:"category"`
	Location      string          `gorm:"type:varchar(255);not null" json:"location"`
	Description   string          `gorm:"type:text;not null" json:"description"`
	Image         string          `gorm:"type:text" json:"image"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount"`
	Status        string          `gorm:"type:varchar(20);not null;default:'ongoing';index" json:"status"`
	ReporterName  string          `gorm:"type:varchar(255)" json:"reporterName"`
	ReporterEmail string          `gorm:"type:varchar(255);not null;index" json:"email"`
	CreatedAt     time.Time       `gorm:"index" json:"date"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Contribution is money pledged by a user towards fixing an issue
type Contribution struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	IssueID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"issueId"`
	Issue            *Issue          `gorm:"foreignKey:IssueID" json:"-"`
	IssueTitle       string          `gorm:"type:varchar(255)" json:"issueTitle"`
	ContributorName  string          `gorm:"type:varchar(255);not null" json:"contributorName"`
	ContributorEmail string          `gorm:"type:varchar(255);not null;index" json:"email"`
	Amount           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Phone            string          `gorm:"type:varchar(30)" json:"phone"`
	Address          string          `gorm:"type:text" json:"address"`
	Note             string          `gorm:"type:text" json:"note"`
	Avatar           string          `gorm:"type:text" json:"avatar"`
	CreatedAt        time.Time       `gorm:"index" json:"date"`
}

// ValidIssueStatus reports whether s is a known issue status
func ValidIssueStatus(s string) bool {
	switch s {
	case IssueStatusOngoing, IssueStatusInProgress, IssueStatusResolved:
		return true
	}
	return false
}
