package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bloodcare/internal/lifecycle"
	"bloodcare/internal/location"
	"bloodcare/internal/model"

	"go.uber.org/zap"
)

var testTokenConfig = TokenConfig{
	Secret:     []byte("test-secret"),
	AccessTTL:  time.Hour,
	RefreshTTL: 24 * time.Hour,
}

type userFixture struct {
	svc    *userService
	users  *fakeUsers
	tokens *fakeTokens
	audit  *fakeAudit
}

func newUserFixture(users ...*model.User) *userFixture {
	f := &userFixture{users: newFakeUsers(users...), tokens: newFakeTokens(), audit: &fakeAudit{}}
	f.svc = NewUserService(f.users, f.tokens, f.audit, fakeTx{}, location.Default(), testTokenConfig, zap.NewNop()).(*userService)
	return f
}

func registerDTO() RegisterRequest {
	return RegisterRequest{
		Name:       "Nadia Islam",
		Email:      "Nadia@Example.com",
		Password:   "secret123",
		BloodGroup: "b-",
		District:   "chattogram",
		Upazila:    "anwara",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	u, err := f.svc.Register(ctx, registerDTO())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != "nadia@example.com" || u.Role != "donor" || u.Status != "active" {
		t.Errorf("registered user = %+v", u)
	}
	if u.BloodGroup != "B-" || u.District != "Chattogram" || u.Upazila != "Anwara" {
		t.Errorf("profile not canonicalized: %+v", u)
	}

	if _, err := f.svc.Register(ctx, registerDTO()); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate register: err = %v, want ErrConflict", err)
	}

	if _, err := f.svc.Login(ctx, LoginUserRequest{Email: "nadia@example.com", Password: "wrong"}); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("bad password: err = %v", err)
	}

	tok, err := f.svc.Login(ctx, LoginUserRequest{Email: "NADIA@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	id, claims, err := ParseAccessToken(testTokenConfig.Secret, tok.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if id != u.ID || claims.Role != "donor" || claims.Email != "nadia@example.com" {
		t.Errorf("claims = %s %+v", id, claims)
	}
	if _, _, err := ParseAccessToken([]byte("other"), tok.AccessToken); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("wrong secret accepted: %v", err)
	}
}

func TestRegisterRejectsBadProfile(t *testing.T) {
	f := newUserFixture()
	tests := map[string]func(*RegisterRequest){
		"blood group":       func(r *RegisterRequest) { r.BloodGroup = "Z" },
		"location mismatch": func(r *RegisterRequest) { r.Upazila = "Savar" },
		"empty name":        func(r *RegisterRequest) { r.Name = "  " },
	}
	for name, modify := range tests {
		t.Run(name, func(t *testing.T) {
			dto := registerDTO()
			modify(&dto)
			if _, err := f.svc.Register(context.Background(), dto); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()
	if _, err := f.svc.Register(ctx, registerDTO()); err != nil {
		t.Fatal(err)
	}
	first, err := f.svc.Login(ctx, LoginUserRequest{Email: "nadia@example.com", Password: "secret123"})
	if err != nil {
		t.Fatal(err)
	}

	second, err := f.svc.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Error("refresh token was not rotated")
	}
	if _, err := f.svc.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("reused refresh token: err = %v", err)
	}

	if err := f.svc.Logout(ctx, second.RefreshToken); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Refresh(ctx, second.RefreshToken); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("refresh after logout: err = %v", err)
	}

	f.svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	third, _ := f.svc.Login(ctx, LoginUserRequest{Email: "nadia@example.com", Password: "secret123"})
	f.svc.now = func() time.Time { return time.Now().Add(96 * time.Hour) }
	if _, err := f.svc.Refresh(ctx, third.RefreshToken); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expired refresh token: err = %v", err)
	}
}

func TestAdminUserManagement(t *testing.T) {
	admin := newUser("Ada", "ada@example.com", lifecycle.RoleAdmin)
	donor := newUser("Dina", "dina@example.com", lifecycle.RoleDonor)
	f := newUserFixture(admin, donor)
	ctx := context.Background()

	if _, err := f.svc.UpdateStatus(ctx, donor, admin.ID.String(), "blocked"); !errors.Is(err, ErrForbidden) {
		t.Errorf("donor blocking admin: err = %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, admin, admin.ID.String(), "blocked"); !errors.Is(err, ErrValidation) {
		t.Errorf("admin blocking self: err = %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, admin, donor.ID.String(), "frozen"); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown status: err = %v", err)
	}

	res, err := f.svc.UpdateStatus(ctx, admin, donor.ID.String(), "Blocked")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if res.Status != model.UserStatusBlocked {
		t.Errorf("Status = %s", res.Status)
	}

	res, err = f.svc.UpdateRole(ctx, admin, donor.ID.String(), "volunteer")
	if err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	if res.Role != "volunteer" {
		t.Errorf("Role = %s", res.Role)
	}
	if _, err := f.svc.UpdateRole(ctx, admin, donor.ID.String(), "superuser"); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown role: err = %v", err)
	}
	if _, err := f.svc.UpdateRole(ctx, admin, "nope", "admin"); !errors.Is(err, ErrNotFound) {
		t.Errorf("bad id: err = %v", err)
	}

	if n := len(f.audit.actions()); n != 2 {
		t.Errorf("audit entries = %d, want 2", n)
	}

	blocked, total, err := f.svc.ListUsers(ctx, admin, "blocked", 1, 10)
	if err != nil || total != 1 || blocked[0].Email != "dina@example.com" {
		t.Errorf("ListUsers(blocked) = %v %d %v", blocked, total, err)
	}
	if _, _, err := f.svc.ListUsers(ctx, donor, "", 1, 10); !errors.Is(err, ErrForbidden) {
		t.Errorf("donor listing users: err = %v", err)
	}
}

func TestGetByEmailAndProfile(t *testing.T) {
	a := newUser("Anis", "anis@example.com", lifecycle.RoleDonor)
	b := newUser("Bina", "bina@example.com", lifecycle.RoleDonor)
	vol := newUser("Vik", "vik@example.com", lifecycle.RoleVolunteer)
	f := newUserFixture(a, b, vol)
	ctx := context.Background()

	if _, err := f.svc.GetByEmail(ctx, a, "BINA@example.com"); !errors.Is(err, ErrForbidden) {
		t.Errorf("reading another profile: err = %v", err)
	}
	if got, err := f.svc.GetByEmail(ctx, vol, "bina@example.com"); err != nil || got.Name != "Bina" {
		t.Errorf("volunteer read: %v %v", got, err)
	}
	if _, err := f.svc.GetByEmail(ctx, vol, "ghost@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing user: err = %v", err)
	}

	district, upazila := "Cox's Bazar", "teknaf"
	res, err := f.svc.UpdateProfile(ctx, a, UpdateProfileRequest{District: &district, Upazila: &upazila})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if res.District != "Cox's Bazar" || res.Upazila != "Teknaf" {
		t.Errorf("location = %s/%s", res.District, res.Upazila)
	}
	onlyDistrict := "Dhaka"
	if _, err := f.svc.UpdateProfile(ctx, a, UpdateProfileRequest{District: &onlyDistrict}); !errors.Is(err, ErrValidation) {
		t.Errorf("district change leaving a foreign upazila: err = %v", err)
	}
}

func TestSearchDonors(t *testing.T) {
	match := newUser("Match", "match@example.com", lifecycle.RoleDonor)
	other := newUser("Other", "other@example.com", lifecycle.RoleDonor)
	other.BloodGroup = "AB-"
	blocked := newUser("Blocked", "blocked@example.com", lifecycle.RoleDonor)
	blocked.Status = model.UserStatusBlocked
	admin := newUser("Admin", "admin@example.com", lifecycle.RoleAdmin)
	f := newUserFixture(match, other, blocked, admin)

	got, err := f.svc.SearchDonors(context.Background(), DonorSearchRequest{BloodGroup: "o+", District: "dhaka", Upazila: "savar"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Email != "match@example.com" {
		t.Errorf("SearchDonors = %+v", got)
	}

	got, err = f.svc.SearchDonors(context.Background(), DonorSearchRequest{District: "Atlantis"})
	if err != nil || got == nil || len(got) != 0 {
		t.Errorf("unknown district = %v, %v", got, err)
	}
	if _, err := f.svc.SearchDonors(context.Background(), DonorSearchRequest{BloodGroup: "Q"}); !errors.Is(err, ErrValidation) {
		t.Errorf("bad blood group: err = %v", err)
	}
}
