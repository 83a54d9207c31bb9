package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bloodcare/internal/model"
	"bloodcare/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecordFundDTO is posted once the payment provider reported success
type RecordFundDTO struct {
	Amount          decimal.Decimal `json:"amount"`
	PaymentIntentID string          `json:"paymentIntentId" binding:"required"`
	Currency        string          `json:"currency"`
}

type FundResponse struct {
	ID              string          `json:"id"`
	DonorName       string          `json:"donorName"`
	DonorEmail      string          `json:"donorEmail"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	PaymentIntentID string          `json:"paymentIntentId"`
	CreatedAt       string          `json:"createdAt"`
}

type FundService interface {
	Record(ctx context.Context, actor *model.User, dto RecordFundDTO) (*FundResponse, error)
	List(ctx context.Context, actor *model.User, page, limit int) ([]FundResponse, int64, decimal.Decimal, error)
}

type fundService struct {
	repo      repository.FundRepository
	audit     repository.AuditRepository
	txManager repository.TransactionManager
	logger    *zap.Logger
}

func NewFundService(repo repository.FundRepository, audit repository.AuditRepository, txManager repository.TransactionManager, logger *zap.Logger) FundService {
	return &fundService{repo: repo, audit: audit, txManager: txManager, logger: logger}
}

func (s *fundService) Record(ctx context.Context, actor *model.User, dto RecordFundDTO) (*FundResponse, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if !dto.Amount.IsPositive() {
		return nil, validationf("amount must be positive")
	}
	intent := strings.TrimSpace(dto.PaymentIntentID)
	if intent == "" {
		return nil, validationf("paymentIntentId is required")
	}
	currency := strings.ToLower(strings.TrimSpace(dto.Currency))
	if currency == "" {
		currency = "usd"
	}

	userID := actor.ID
	fund := &model.Fund{
		UserID:          &userID,
		DonorName:       actor.Name,
		DonorEmail:      actor.Email,
		Amount:          dto.Amount.Round(2),
		Currency:        currency,
		PaymentIntentID: intent,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.FindByPaymentIntent(txCtx, intent); err == nil {
			return fmt.Errorf("%w: payment %s already recorded", ErrConflict, intent)
		}
		if err := s.repo.Create(txCtx, fund); err != nil {
			return fmt.Errorf("failed to record fund: %w", err)
		}
		return writeAudit(txCtx, s.audit, actor, model.ActionRecordFund, fund.ID.String(), intent, map[string]any{
			"amount":   fund.Amount.String(),
			"currency": currency,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("fund recorded", zap.String("amount", fund.Amount.String()), zap.String("by", actor.Email))
	return mapFund(fund), nil
}

// List returns one page of the ledger and the sum of every entry
func (s *fundService) List(ctx context.Context, actor *model.User, page, limit int) ([]FundResponse, int64, decimal.Decimal, error) {
	if err := requireUser(actor); err != nil {
		return nil, 0, decimal.Zero, err
	}
	funds, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, decimal.Zero, fmt.Errorf("failed to list funds: %w", err)
	}
	sum, err := s.repo.Total(ctx)
	if err != nil {
		return nil, 0, decimal.Zero, fmt.Errorf("failed to sum funds: %w", err)
	}

	out := make([]FundResponse, 0, len(funds))
	for i := range funds {
		out = append(out, *mapFund(&funds[i]))
	}
	return out, total, sum, nil
}

func mapFund(f *model.Fund) *FundResponse {
	return &FundResponse{
		ID:              f.ID.String(),
		DonorName:       f.DonorName,
		DonorEmail:      f.DonorEmail,
		Amount:          f.Amount,
		Currency:        f.Currency,
		PaymentIntentID: f.PaymentIntentID,
		CreatedAt:       f.CreatedAt.Format(time.RFC3339),
	}
}
