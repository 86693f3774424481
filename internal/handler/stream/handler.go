package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/cloudwego/eino/schema"

	"github.com/zhaomeiling/kangyuan/backend/internal/model/chat"
	aiService "github.com/zhaomeiling/kangyuan/backend/internal/service/ai"
	"github.com/zhaomeiling/kangyuan/backend/internal/service/session"
	"github.com/zhaomeiling/kangyuan/backend/pkg/utils"
)

const apologyReply = "抱歉，我刚才没有听清楚，请再说一遍好吗？"

// Handler 通过 Server-Sent Events 流式推送自由聊天回复。
// 评估作答走普通的 /chat 接口，因为题目提示是固定文本，无需流式。
type Handler struct {
	aiService    *aiService.Service
	store        *session.Store
	historyLimit int
}

// New 创建流式处理器。
func New(aiSvc *aiService.Service, store *session.Store, historyLimit int) *Handler {
	if historyLimit < 1 {
		historyLimit = 6
	}
	return &Handler{aiService: aiSvc, store: store, historyLimit: historyLimit}
}

// StreamResponse 是一个SSE数据块。
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest 处理一次流式聊天请求。
// 大模型失败时以致歉语收尾，不把错误暴露给对话通道。
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID string, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	var window []chat.Message
	sessionID = h.store.Do(sessionID, func(s *session.Session) {
		window = s.RecentHistory(h.historyLimit)
		s.AppendHistory(chat.RoleUser, userMessage)
	})

	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
	})

	content, streamErr := h.dispatchAIResponse(ctx, w, flusher, sessionID, window, userMessage)
	if streamErr != nil {
		log.Printf("[stream] ai generation failed for session=%s: %v", sessionID, streamErr)
		content = apologyReply
		utils.SendSSEChunk(w, flusher, StreamResponse{
			Event:     "message",
			SessionID: sessionID,
			Content:   content,
		})
	}

	h.store.Do(sessionID, func(s *session.Session) {
		s.AppendHistory(chat.RoleAssistant, content)
	})

	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})

	log.Printf("[stream] completed response for session=%s", sessionID)
	return nil
}

// dispatchAIResponse 根据配置选择流式或一次性生成。
func (h *Handler) dispatchAIResponse(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID string, window []chat.Message, userMessage string) (string, error) {
	if h.aiService.StreamingEnabled() {
		return h.streamAIResponse(ctx, w, flusher, sessionID, window, userMessage)
	}

	content, err := h.aiService.Reply(ctx, window, userMessage)
	if err != nil {
		return "", err
	}

	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   content,
	})

	return content, nil
}

func (h *Handler) streamAIResponse(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID string, window []chat.Message, userMessage string) (string, error) {
	stream, err := h.aiService.Stream(ctx, window, userMessage)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)

	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			utils.SendSSEChunk(w, flusher, StreamResponse{
				Event:     "delta",
				SessionID: sessionID,
				Content:   chunk.Content,
			})
		}
	}

	response, err := schema.ConcatMessages(chunks)
	if err != nil {
		return "", err
	}

	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   response.Content,
	})

	return response.Content, nil
}
