package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhaomeiling/kangyuan/backend/internal/mmse"
	assessmentService "github.com/zhaomeiling/kangyuan/backend/internal/service/assessment"
	"github.com/zhaomeiling/kangyuan/backend/internal/service/session"
)

var fixedNow = time.Date(2026, time.January, 15, 10, 30, 0, 0, time.UTC)

func dialTestServer(t *testing.T) (*websocket.Conn, func()) {
	t.Helper()

	items := mmse.Build(fixedNow, mmse.DefaultSiteAnswers())
	store := session.NewStore()
	driver := assessmentService.NewDriver(items, store, nil, time.Second, 6)

	r := chi.NewRouter()
	New(driver).RegisterRoutes(r)
	srv := httptest.NewServer(r)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}

	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

type wsResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		Reply            string `json:"reply"`
		SessionID        string `json:"sessionId"`
		AssessmentActive bool   `json:"assessmentActive"`
		CurrentIndex     int    `json:"currentIndex"`
	} `json:"data"`
}

func TestWebSocketTurn(t *testing.T) {
	conn, cleanup := dialTestServer(t)
	defer cleanup()

	if err := conn.WriteJSON(map[string]any{"message": "你好"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var resp wsResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}

	if !resp.Success {
		t.Fatalf("expected success, got error %q", resp.Error)
	}
	if resp.Data.SessionID == "" {
		t.Fatal("expected an assigned session id")
	}
	if resp.Data.AssessmentActive || resp.Data.CurrentIndex != -1 {
		t.Fatalf("idle turn must not touch assessment state: %+v", resp.Data)
	}

	// 连接内第二轮复用首轮分配的会话。
	if err := conn.WriteJSON(map[string]any{"message": "再说一句"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var second wsResponse
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("read: %v", err)
	}
	if second.Data.SessionID != resp.Data.SessionID {
		t.Fatalf("expected session reuse, got %q then %q", resp.Data.SessionID, second.Data.SessionID)
	}
}

func TestWebSocketRejectsEmptyMessage(t *testing.T) {
	conn, cleanup := dialTestServer(t)
	defer cleanup()

	if err := conn.WriteJSON(map[string]any{"message": "   "}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var resp wsResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Success || resp.Error == "" {
		t.Fatalf("expected error frame, got %+v", resp)
	}
}
