package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fund is one successful payment to the organisation's funding ledger
type Fund struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID          *uuid.UUID      `gorm:"type:uuid;index" json:"userId"`
	DonorName       string          `gorm:"type:varchar(255);not null" json:"donorName"`
	DonorEmail      string          `gorm:"type:varchar(255);not null;index" json:"donorEmail"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency        string          `gorm:"type:varchar(3);not null;default:'usd'" json:"currency"`
	PaymentIntentID string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"paymentIntentId"`
	CreatedAt       time.Time       `gorm:"index" json:"createdAt"`
}
