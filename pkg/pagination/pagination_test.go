package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestParse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query       string
		page, limit int
	}{
		{"", 1, DefaultLimit},
		{"?page=3&limit=5", 3, 5},
		{"?page=-2&limit=0", 1, DefaultLimit},
		{"?page=x&limit=1000", 1, MaxLimit},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/items"+tt.query, nil)
		p := Parse(c)
		if p.Page != tt.page || p.Limit != tt.limit || p.Offset != (tt.page-1)*tt.limit {
			t.Errorf("Parse(%q) = %+v", tt.query, p)
		}
	}
}

func TestNewResult(t *testing.T) {
	r := NewResult[string](nil, 0, Params{Page: 1, Limit: 10})
	if r.Items == nil || r.TotalPages != 1 {
		t.Errorf("empty result = %+v", r)
	}

	cases := map[int64]int{1: 1, 10: 1, 11: 2, 25: 3}
	for total, want := range cases {
		if got := TotalPages(total, 10); got != want {
			t.Errorf("TotalPages(%d, 10) = %d, want %d", total, got, want)
		}
	}
}
