package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bloodcare/internal/lifecycle"
	"bloodcare/internal/model"
	"bloodcare/internal/repository"

	"github.com/shopspring/decimal"
)

type fakeStats struct {
	groupBy  string
	from, to time.Time
}

func (*fakeStats) CountUsers(context.Context) (int64, int64, error) { return 12, 9, nil }
func (*fakeStats) CountRequestsByStatus(context.Context) (map[string]int64, error) {
	return map[string]int64{"pending": 3, "inprogress": 2, "done": 4, "canceled": 1}, nil
}
func (*fakeStats) CountIssues(context.Context) (int64, error) { return 5, nil }
func (*fakeStats) TotalFunding(context.Context) (decimal.Decimal, error) {
	return decimal.RequireFromString("1500.75"), nil
}
func (*fakeStats) TotalContribution(context.Context) (decimal.Decimal, error) {
	return decimal.NewFromInt(300), nil
}
func (f *fakeStats) Trend(_ context.Context, groupBy string, from, to time.Time) ([]repository.TrendRow, error) {
	f.groupBy, f.from, f.to = groupBy, from, to
	return []repository.TrendRow{{Period: "2026-09-01", Funding: decimal.NewFromInt(40), Requests: 3}}, nil
}

func TestStatisticsSummary(t *testing.T) {
	svc := NewStatisticsService(&fakeStats{})
	ctx := context.Background()

	if _, err := svc.Summary(ctx, newUser("D", "d@example.com", lifecycle.RoleDonor)); !errors.Is(err, ErrForbidden) {
		t.Errorf("donor: err = %v, want ErrForbidden", err)
	}

	got, err := svc.Summary(ctx, newUser("V", "v@example.com", lifecycle.RoleVolunteer))
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalUsers != 12 || got.TotalDonors != 9 || got.TotalRequests != 10 || got.TotalIssues != 5 {
		t.Errorf("summary = %+v", got)
	}
	if !got.TotalFunding.Equal(decimal.RequireFromString("1500.75")) {
		t.Errorf("TotalFunding = %s", got.TotalFunding)
	}
}

func TestStatisticsTrend(t *testing.T) {
	repo := &fakeStats{}
	svc := NewStatisticsService(repo).(*statisticsService)
	svc.now = func() time.Time { return time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC) }
	admin := newUser("Ada", "ada@example.com", lifecycle.RoleAdmin)
	ctx := context.Background()

	points, err := svc.Trend(ctx, admin, TrendFilter{GroupBy: "quarter"})
	if err != nil {
		t.Fatal(err)
	}
	if repo.groupBy != "month" {
		t.Errorf("groupBy = %q, unknown values should fall back to month", repo.groupBy)
	}
	if want := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC); !repo.to.Equal(want) {
		t.Errorf("to = %v, want %v", repo.to, want)
	}
	if want := time.Date(2025, 10, 18, 0, 0, 0, 0, time.UTC); !repo.from.Equal(want) {
		t.Errorf("from = %v, want %v", repo.from, want)
	}
	if len(points) != 1 || points[0].Requests != 3 || !points[0].Funding.Equal(decimal.NewFromInt(40)) {
		t.Errorf("points = %+v", points)
	}

	if _, err := svc.Trend(ctx, admin, TrendFilter{StartDate: "2026-10-01", EndDate: "2026-09-01"}); !errors.Is(err, ErrValidation) {
		t.Errorf("reversed range: err = %v", err)
	}
	if _, err := svc.Trend(ctx, admin, TrendFilter{StartDate: "01/10/2026"}); !errors.Is(err, ErrValidation) {
		t.Errorf("bad date: err = %v", err)
	}
	if _, err := svc.Trend(ctx, newUser("D", "d@example.com", lifecycle.RoleDonor), TrendFilter{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("donor: err = %v", err)
	}
}

func TestAuditLogs(t *testing.T) {
	repo := &fakeAudit{}
	admin := newUser("Ada", "ada@example.com", lifecycle.RoleAdmin)
	ctx := context.Background()

	for _, action := range []string{model.ActionConfirmDonation, model.ActionMarkDone, model.ActionConfirmDonation} {
		if err := writeAudit(ctx, repo, admin, action, "id", "name", map[string]any{"k": 1}); err != nil {
			t.Fatal(err)
		}
	}

	svc := NewAuditService(repo)
	if _, _, err := svc.GetAuditLogs(ctx, newUser("V", "v@example.com", lifecycle.RoleVolunteer), AuditLogFilter{}, 1, 10); !errors.Is(err, ErrForbidden) {
		t.Errorf("volunteer: err = %v", err)
	}
	logs, total, err := svc.GetAuditLogs(ctx, admin, AuditLogFilter{Action: model.ActionConfirmDonation}, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || logs[0].ActorEmail != "ada@example.com" || logs[0].Details != `{"k":1}` {
		t.Errorf("logs = %+v total=%d", logs, total)
	}
	if logs[0].UserID != admin.ID.String() || logs[0].Username != "System" {
		t.Errorf("attribution = %s %s", logs[0].UserID, logs[0].Username)
	}
	other := newUser("Bo", "bo@example.com", lifecycle.RoleVolunteer)
	if err := writeAudit(ctx, repo, other, model.ActionMarkDone, "req-7", "name", nil); err != nil {
		t.Fatal(err)
	}
	history, total, err := svc.GetAuditLogs(ctx, admin, AuditLogFilter{EntityID: "req-7"}, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || history[0].ActorEmail != "bo@example.com" {
		t.Errorf("entity history = %+v total=%d", history, total)
	}
	if _, total, _ := svc.GetAuditLogs(ctx, admin, AuditLogFilter{ActorEmail: "BO@example.com", Action: model.ActionConfirmDonation}, 1, 10); total != 0 {
		t.Errorf("actor and action combined: total = %d, want 0", total)
	}
}
