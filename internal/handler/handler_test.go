package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bloodcare/internal/lifecycle"
	"bloodcare/internal/location"
	"bloodcare/internal/middleware"
	"bloodcare/internal/model"
	"bloodcare/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testTokens = service.TokenConfig{Secret: []byte("handler-secret"), AccessTTL: time.Hour, RefreshTTL: time.Hour}

type userMap map[uuid.UUID]*model.User

func (m userMap) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// stubDonations answers every call with err, or with a canned response
type stubDonations struct {
	service.DonationRequestService
	err      error
	lastID   string
	lastUser *model.User
	lastDTO  service.UpdateStatusDTO
}

func (s *stubDonations) UpdateStatus(_ context.Context, actor *model.User, id string, dto service.UpdateStatusDTO) (*service.DonationRequestResponse, error) {
	s.lastID, s.lastUser, s.lastDTO = id, actor, dto
	if s.err != nil {
		return nil, s.err
	}
	return &service.DonationRequestResponse{ID: id, Status: lifecycle.Status(dto.Status)}, nil
}

func (s *stubDonations) ListPublicPending(_ context.Context, page, limit int) ([]service.DonationRequestResponse, int64, error) {
	return nil, 0, s.err
}

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return env
}

func setup(stub *stubDonations) (*gin.Engine, *model.User) {
	gin.SetMode(gin.TestMode)
	donor := &model.User{ID: uuid.New(), Name: "Rafi", Email: "rafi@example.com", Role: lifecycle.RoleDonor, Status: model.UserStatusActive}
	auth := middleware.NewAuthenticator(testTokens.Secret, userMap{donor.ID: donor}, zap.NewNop())

	r := gin.New()
	api := r.Group("/api")
	NewDonationRequestHandler(stub, auth).RegisterRoutes(api)
	NewLocationHandler(location.Default()).RegisterRoutes(api)
	return r, donor
}

func TestRespondErrorStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad date", service.ErrValidation), http.StatusBadRequest},
		{service.ErrUnauthenticated, http.StatusUnauthorized},
		{fmt.Errorf("%w: not yours", service.ErrForbidden), http.StatusForbidden},
		{service.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: already taken", service.ErrConflict), http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, tt.err)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			env := decode(t, w)
			if env.Status != "error" || env.StatusCode != tt.want {
				t.Errorf("envelope = %+v", env)
			}
			if tt.want == http.StatusInternalServerError {
				if strings.Contains(env.Error, "connection reset") {
					t.Error("internal error detail leaked to the client")
				}
				if len(c.Errors) != 1 {
					t.Error("internal error not attached for the request logger")
				}
			}
		})
	}
}

func TestUpdateStatusRoute(t *testing.T) {
	stub := &stubDonations{}
	r, donor := setup(stub)
	token, err := testTokens.SignAccess(donor, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	body := `{"status":"inprogress"}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/donation-requests/abc/status", strings.NewReader(body))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPatch, "/api/donation-requests/abc/status", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if stub.lastID != "abc" || stub.lastUser == nil || stub.lastUser.Email != donor.Email {
		t.Errorf("service saw id=%q user=%v", stub.lastID, stub.lastUser)
	}
	if stub.lastDTO.Status != "inprogress" {
		t.Errorf("dto.Status = %q", stub.lastDTO.Status)
	}

	stub.err = fmt.Errorf("%w: request is no longer pending", service.ErrConflict)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPatch, "/api/donation-requests/abc/status", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("conflict status = %d, want 409", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPatch, "/api/donation-requests/abc/status", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", w.Code)
	}
}

func TestPublicPendingIsAnonymous(t *testing.T) {
	r, _ := setup(&stubDonations{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/public/donation-requests", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var page struct {
		Items      []json.RawMessage `json:"items"`
		TotalPages int               `json:"totalPages"`
	}
	if err := json.Unmarshal(decode(t, w).Data, &page); err != nil {
		t.Fatal(err)
	}
	if page.Items == nil || len(page.Items) != 0 {
		t.Errorf("items = %v, want empty array", page.Items)
	}
}

func TestLocationRoutes(t *testing.T) {
	r, _ := setup(&stubDonations{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/locations/districts", nil))
	var districts []string
	if err := json.Unmarshal(decode(t, w).Data, &districts); err != nil {
		t.Fatal(err)
	}
	if len(districts) != 64 {
		t.Errorf("len(districts) = %d, want 64", len(districts))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/locations/districts/Atlantis/upazilas", nil))
	var ups []string
	if err := json.Unmarshal(decode(t, w).Data, &ups); err != nil {
		t.Fatal(err)
	}
	if ups == nil || len(ups) != 0 {
		t.Errorf("unknown district upazilas = %v, want []", ups)
	}
}
