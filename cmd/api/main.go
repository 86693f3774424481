package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhaomeiling/kangyuan/backend/internal/config"
	"github.com/zhaomeiling/kangyuan/backend/internal/handler"
	"github.com/zhaomeiling/kangyuan/backend/internal/mmse"
	"github.com/zhaomeiling/kangyuan/backend/internal/service/ai"
	"github.com/zhaomeiling/kangyuan/backend/internal/service/assessment"
	"github.com/zhaomeiling/kangyuan/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// 量表目录在启动时构建一次，时间定向题的答案以当天日期为准。
	items := mmse.Build(time.Now(), cfg.Site.Answers())
	log.Printf("assessment catalog built: %d items, total score %d", len(items), mmse.TotalMax(items))

	store := session.NewStore()

	// Initialize AI service
	var aiSvc *ai.Service
	if cfg.AI.Enabled() {
		aiSvc, err = ai.NewService(ctx, cfg.AI, cfg.Chat)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without AI functionality - 请检查 Ark 模型相关环境变量")
		} else {
			log.Println("AI service initialized successfully")
		}
	} else {
		log.Println("Ark 凭证未配置，自由聊天将使用兜底回复")
	}

	var responder assessment.Responder
	if aiSvc != nil {
		responder = aiSvc
	}

	driver := assessment.NewDriver(items, store, responder,
		time.Duration(cfg.Chat.TimeoutSeconds)*time.Second, cfg.Chat.HistoryLimit)

	router := handler.NewRouter(driver, aiSvc, store, cfg.Chat)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Kangyuan backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
