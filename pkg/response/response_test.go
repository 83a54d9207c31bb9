package response

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestEnvelope(t *testing.T) {
	ok := Success(http.StatusCreated, map[string]string{"id": "r-1"})
	if !ok.OK() {
		t.Error("success envelope not OK")
	}
	failed := Error(http.StatusConflict, "request is no longer pending")
	if failed.OK() {
		t.Error("error envelope reported OK")
	}

	raw, err := json.Marshal(failed)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"status":"error","status_code":409,"error":"request is no longer pending"}`
	if string(raw) != want {
		t.Errorf("json = %s, want %s", raw, want)
	}
}
