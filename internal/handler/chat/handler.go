package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	assessmentService "github.com/zhaomeiling/kangyuan/backend/internal/service/assessment"
	"github.com/zhaomeiling/kangyuan/backend/pkg/utils"
)

// defaultSessionID 是调用方未携带会话标识时的约定值。
const defaultSessionID = "default"

// Handler 对话与评估接口的HTTP处理器
type Handler struct {
	driver *assessmentService.Driver
}

// New 创建对话处理器
func New(driver *assessmentService.Driver) *Handler {
	return &Handler{driver: driver}
}

// RegisterRoutes 注册对话与评估相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Post("/assessment/start", h.handleStartAssessment)
	r.Post("/assessment/analyze", h.handleAnalyzeReport)
	r.Get("/assessment/report", h.handleLastReport)
	r.Get("/health", h.handleHealth)
}

type turnPayload struct {
	SessionID          string `json:"sessionId"`
	Message            string `json:"message"`
	IsAssessmentAnswer bool   `json:"isAssessmentAnswer"`
	CurrentIndex       *int   `json:"currentIndex"`
}

type turnData struct {
	Reply            string `json:"reply"`
	SessionID        string `json:"sessionId"`
	AssessmentActive bool   `json:"assessmentActive"`
	CurrentIndex     int    `json:"currentIndex"`
}

// handleChat 处理一轮对话：评估作答或自由聊天。
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload turnPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(payload.Message) == "" {
		respondError(w, http.StatusBadRequest, "消息内容不能为空")
		return
	}

	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = defaultSessionID
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

	respondData(w, http.StatusOK, turnData{
		Reply:            resp.Reply,
		SessionID:        resp.SessionID,
		AssessmentActive: resp.AssessmentActive,
		CurrentIndex:     resp.CurrentIndex,
	})
}

// handleStartAssessment 启动一场评估并返回欢迎语与第一题。
func (h *Handler) handleStartAssessment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = defaultSessionID
	}

	result := h.driver.Start(r.Context(), sessionID)

	respondData(w, http.StatusOK, map[string]any{
		"firstQuestion":  result.FirstQuestion,
		"welcomeMessage": result.WelcomeMessage,
		"currentIndex":   result.CurrentIndex,
		"totalQuestions": result.TotalQuestions,
		"sessionId":      result.SessionID,
	})
}

// handleAnalyzeReport 请求大模型解读最近一次评估结果。
func (h *Handler) handleAnalyzeReport(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = defaultSessionID
	}

	resp, err := h.driver.AnalyzeLastReport(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, assessmentService.ErrNoReport) {
			respondError(w, http.StatusNotFound, "当前会话还没有完成的评估报告")
			return
		}
		respondError(w, http.StatusInternalServerError, "分析评估结果失败")
		return
	}

	respondData(w, http.StatusOK, turnData{
		Reply:            resp.Reply,
		SessionID:        resp.SessionID,
		AssessmentActive: resp.AssessmentActive,
		CurrentIndex:     resp.CurrentIndex,
	})
}

// handleLastReport 返回最近一次评估的结构化报告。
func (h *Handler) handleLastReport(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		sessionID = defaultSessionID
	}

	report, ok := h.driver.LastReport(sessionID)
	if !ok {
		respondError(w, http.StatusNotFound, "当前会话还没有完成的评估报告")
		return
	}

	respondData(w, http.StatusOK, report)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   "kangyuan cognitive assessment engine",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// respondData 按照 {success, data} 包裹成功响应。
func respondData(w http.ResponseWriter, status int, data any) {
	utils.RespondJSON(w, status, map[string]any{"success": true, "data": data})
}

// respondError 按照 {success, error} 包裹失败响应。
func respondError(w http.ResponseWriter, status int, message string) {
	utils.RespondJSON(w, status, map[string]any{"success": false, "error": message})
}
