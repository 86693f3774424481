package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhaomeiling/kangyuan/backend/internal/config"
	"github.com/zhaomeiling/kangyuan/backend/internal/handler/chat"
	"github.com/zhaomeiling/kangyuan/backend/internal/handler/stream"
	"github.com/zhaomeiling/kangyuan/backend/internal/handler/ws"
	middlewarePkg "github.com/zhaomeiling/kangyuan/backend/internal/middleware"
	aiService "github.com/zhaomeiling/kangyuan/backend/internal/service/ai"
	assessmentService "github.com/zhaomeiling/kangyuan/backend/internal/service/assessment"
	"github.com/zhaomeiling/kangyuan/backend/internal/service/session"
	"github.com/zhaomeiling/kangyuan/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(driver *assessmentService.Driver, aiSvc *aiService.Service, store *session.Store, chatCfg config.ChatConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler := chat.New(driver)
	wsHandler := ws.New(driver)

	// Streaming replies need a live model; without one the endpoint reports unavailable.
	var streamHandler *stream.Handler
	if aiSvc != nil {
		streamHandler = stream.New(aiSvc, store, chatCfg.HistoryLimit)
	}

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)

		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			if streamHandler == nil {
				utils.RespondError(w, http.StatusServiceUnavailable, "ai streaming unavailable")
				return
			}
			if userMessage == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := streamHandler.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				log.Printf("[stream] error handling request: %v", err)
				utils.RespondError(w, http.StatusInternalServerError, "streaming failed")
			}
		})
	})

	return r
}
