package service

import (
	"context"
	"errors"
	"testing"

	"bloodcare/internal/lifecycle"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func TestRecordFund(t *testing.T) {
	repo := &fakeFunds{}
	audit := &fakeAudit{}
	svc := NewFundService(repo, audit, fakeTx{}, zap.NewNop())
	user := newUser("Fahim", "fahim@example.com", lifecycle.RoleDonor)
	ctx := context.Background()

	if _, err := svc.Record(ctx, nil, RecordFundDTO{Amount: decimal.NewFromInt(5), PaymentIntentID: "pi_1"}); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("anonymous: err = %v", err)
	}
	if _, err := svc.Record(ctx, user, RecordFundDTO{Amount: decimal.Zero, PaymentIntentID: "pi_1"}); !errors.Is(err, ErrValidation) {
		t.Errorf("zero amount: err = %v", err)
	}

	res, err := svc.Record(ctx, user, RecordFundDTO{Amount: decimal.RequireFromString("25.499"), PaymentIntentID: " pi_1 "})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !res.Amount.Equal(decimal.RequireFromString("25.50")) || res.Currency != "usd" || res.PaymentIntentID != "pi_1" {
		t.Errorf("fund = %+v", res)
	}
	if _, err := svc.Record(ctx, user, RecordFundDTO{Amount: decimal.NewFromInt(1), PaymentIntentID: "pi_1"}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate payment: err = %v", err)
	}
	if _, err := svc.Record(ctx, user, RecordFundDTO{Amount: decimal.NewFromInt(10), PaymentIntentID: "pi_2"}); err != nil {
		t.Fatal(err)
	}

	items, total, sum, err := svc.List(ctx, user, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || total != 2 || !sum.Equal(decimal.RequireFromString("35.5")) {
		t.Errorf("List = %d items, total %d, sum %s", len(items), total, sum)
	}
	if n := len(audit.actions()); n != 2 {
		t.Errorf("audit entries = %d, want 2", n)
	}
}
