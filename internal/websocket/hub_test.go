package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"bloodcare/internal/lifecycle"
	"bloodcare/internal/model"
	"bloodcare/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type users map[uuid.UUID]*model.User

func (u users) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func TestHubDeliversPublishedEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	cfg := service.TokenConfig{Secret: []byte("ws-secret"), AccessTTL: time.Minute}
	vol := &model.User{ID: uuid.New(), Email: "vol@example.com", Role: lifecycle.RoleVolunteer, Status: model.UserStatusActive}
	directory := users{vol.ID: vol}

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ServeWs(hub, c, cfg.Secret, directory) })
	srv := httptest.NewServer(r)
	defer srv.Close()

	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	if _, resp, err := gws.DefaultDialer.Dial(base, nil); err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("dial without token: err=%v resp=%v", err, resp)
	}

	token, err := cfg.SignAccess(vol, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	conn, _, err := gws.DefaultDialer.Dial(base+"?token="+token, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := hub.Publish(service.EventDonationRequestStatusChanged, map[string]string{"id": "abc"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var ev struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("decode %s: %v", msg, err)
	}
	if ev.Type != service.EventDonationRequestStatusChanged || ev.Payload["id"] != "abc" {
		t.Errorf("event = %+v", ev)
	}
}

func newTestServer(t *testing.T, hub *Hub) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := service.TokenConfig{Secret: []byte("ws-secret"), AccessTTL: time.Minute}
	vol := &model.User{ID: uuid.New(), Email: "vol@example.com", Role: lifecycle.RoleVolunteer, Status: model.UserStatusActive}

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ServeWs(hub, c, cfg.Secret, users{vol.ID: vol}) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	tok, err := cfg.SignAccess(vol, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + tok
}

// pumpsRunning counts goroutines currently inside a client's read loop
func pumpsRunning() int {
	buf := make([]byte, 1<<20)
	n := runtime.Stack(buf, true)
	return strings.Count(string(buf[:n]), "(*Client).readPump")
}

func TestStoppedHubReleasesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	url := newTestServer(t, hub)
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	<-hub.done
	_ = conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for pumpsRunning() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("%d read loops still running after the hub stopped", pumpsRunning())
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := hub.Publish("x", nil); err != ErrHubStopped {
		t.Errorf("Publish after stop: err = %v, want ErrHubStopped", err)
	}
}

func TestConnectAfterHubStopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)
	cancel()
	<-hub.done

	url := newTestServer(t, hub)
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	if !gws.IsCloseError(err, gws.CloseGoingAway) {
		t.Errorf("ReadMessage err = %v, want going-away close", err)
	}
}

func TestPublishWithoutRunningHub(t *testing.T) {
	hub := NewHub(zap.NewNop())
	if err := hub.Publish("x", nil); err != ErrHubBusy {
		t.Errorf("err = %v, want ErrHubBusy", err)
	}
}
