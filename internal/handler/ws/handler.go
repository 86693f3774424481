package ws

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	assessmentService "github.com/zhaomeiling/kangyuan/backend/internal/service/assessment"
)

// Handler 提供 WebSocket 形式的对话轮次通道，
// 供需要长连接的前端（如平板端语音界面）复用同一套评估协议。
type Handler struct {
	driver   *assessmentService.Driver
	upgrader websocket.Upgrader
}

// New 创建WebSocket处理器
func New(driver *assessmentService.Driver) *Handler {
	return &Handler{
		driver: driver,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundTurn struct {
	SessionID          string `json:"sessionId"`
	Message            string `json:"message"`
	IsAssessmentAnswer bool   `json:"isAssessmentAnswer"`
	CurrentIndex       *int   `json:"currentIndex"`
}

type outboundTurn struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// 连接未携带会话 ID 时，首轮由存储分配一个并在整个连接内复用。
	connSessionID := ""

	for {
		var payload inboundTurn
		if err := conn.ReadJSON(&payload); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[ws] read failed: %v", err)
			}
			return
		}

		if strings.TrimSpace(payload.Message) == "" {
			if err := conn.WriteJSON(outboundTurn{Success: false, Error: "消息内容不能为空"}); err != nil {
				log.Printf("[ws] write failed: %v", err)
				return
			}
			continue
		}

		sessionID := payload.SessionID
		if sessionID == "" {
			sessionID = connSessionID
		}

		currentIndex := -1
		if payload.CurrentIndex != nil {
			currentIndex = *payload.CurrentIndex
		}

		resp := h.driver.HandleTurn(r.Context(), assessmentService.TurnRequest{
			SessionID:          sessionID,
			Message:            payload.Message,
			IsAssessmentAnswer: payload.IsAssessmentAnswer,
			CurrentIndex:       currentIndex,
		})
		connSessionID = resp.SessionID

		out := outboundTurn{Success: true, Data: map[string]any{
			"reply":            resp.Reply,
			"sessionId":        resp.SessionID,
			"assessmentActive": resp.AssessmentActive,
			"currentIndex":     resp.CurrentIndex,
		}}
		if err := conn.WriteJSON(out); err != nil {
			log.Printf("[ws] write failed: %v", err)
			return
		}
	}
}
