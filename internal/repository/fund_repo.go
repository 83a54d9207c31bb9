package repository

import (
	"context"

	"bloodcare/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type FundRepository interface {
	Create(ctx context.Context, fund *model.Fund) error
	FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*model.Fund, error)
	List(ctx context.Context, page, limit int) ([]model.Fund, int64, error)
	Total(ctx context.Context) (decimal.Decimal, error)
}

type fundRepository struct {
	db *gorm.DB
}

func NewFundRepository(db *gorm.DB) FundRepository {
	return &fundRepository{db: db}
}

func (r *fundRepository) Create(ctx context.Context, fund *model.Fund) error {
	return GetDB(ctx, r.db).Create(fund).Error
}

func (r *fundRepository) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*model.Fund, error) {
	var fund model.Fund
	if err := GetDB(ctx, r.db).First(&fund, "payment_intent_id = ?", paymentIntentID).Error; err != nil {
		return nil, err
	}
	return &fund, nil
}

func (r *fundRepository) List(ctx context.Context, page, limit int) ([]model.Fund, int64, error) {
	var funds []model.Fund
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Fund{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&funds).Error; err != nil {
		return nil, 0, err
	}

	return funds, total, nil
}

func (r *fundRepository) Total(ctx context.Context) (decimal.Decimal, error) {
	return sumDecimal(GetDB(ctx, r.db).Model(&model.Fund{}), "amount")
}

// sumDecimal casts through text so the value keeps full precision
func sumDecimal(query *gorm.DB, column string) (decimal.Decimal, error) {
	var result struct {
		Value string
	}
	if err := query.Select("COALESCE(CAST(SUM(" + column + ") AS TEXT), '0') as value").Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	if result.Value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(result.Value)
}
