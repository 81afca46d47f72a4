// Package apihttp exposes the prediction, sentiment, causal and chat
// endpoints under /api/v1.
package apihttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"cryptopredict/internal/logger"

	"github.com/gin-gonic/gin"
)

const defaultAddr = ":8000"

// Server wraps the gin engine and its listen address.
type Server struct {
	addr   string
	router *gin.Engine
}

type ServerConfig struct {
	Addr     string
	Handlers *Handlers
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Handlers == nil {
		return nil, errors.New("api server requires handlers")
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	gin.SetMode(gin.ReleaseMode)
	return &Server{addr: cfg.Addr, router: NewRouter(cfg.Handlers)}, nil
}

// NewRouter builds the engine with every route whose dependency is set.
func NewRouter(h *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(recovery(), requestLogger())
	router.GET("/healthz", liveness)
	h.Register(router.Group("/api/v1"))
	return router
}

func (h *Handlers) Register(group *gin.RouterGroup) {
	group.GET("/health", h.health)
	if h.Poll != nil {
		group.POST("/ai/predict-price-poll", h.pollPrediction)
	}
	if h.Predictor != nil {
		group.POST("/ai/predict-price", h.predictPrice)
	}
	if h.Sentiment != nil {
		group.POST("/sentiment/analyze", h.analyzeSentiment)
		group.POST("/ai/analyze/quick", h.quickSentiment)
		group.POST("/ai/analyze/batch", h.batchSentiment)
	}
	if h.Causal != nil {
		group.POST("/causal/analyze/direct", h.analyzeCausal)
	}
	if h.Line != nil {
		group.POST("/ai/prediction-line", h.predictionLine)
	}
	if h.Chat != nil {
		vip := group.Group("/ai/chat", requireVIP(detailVIPOnly))
		vip.POST("", h.sendChat)
		vip.DELETE("/:conversation_id", h.deleteChat)
	}
}

func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Infof("[api] listening on %s", s.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("[api] shutdown: %v", err)
		}
		return nil
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return err
	}
}
