package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pratszszszzz/Courtify/internal/answer"
	"github.com/pratszszszzz/Courtify/internal/config"
	"github.com/pratszszszzz/Courtify/internal/domain"
	"github.com/pratszszszzz/Courtify/internal/vectorstore"
)

// Server exposes the question pipeline over HTTP.
type Server struct {
	orchestrator *answer.Orchestrator
	retriever    domain.Retriever
	index        *vectorstore.Service
	log          *zap.Logger
	http         *http.Server
}

func New(cfg config.ServerConfig, orch *answer.Orchestrator, r domain.Retriever, index *vectorstore.Service, log *zap.Logger) *Server {
	s := &Server{orchestrator: orch, retriever: r, index: index, log: log}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger(), cors())

	router.GET("/health", s.handleHealth)
	router.POST("/chat", s.handleChat)
	router.GET("/retrieve", s.handleRetrieve)
	router.GET("/debug/index", s.handleIndexStatus)

	s.http = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: router,
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", s.http.Addr))
		errCh <- s.http.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	resp := s.orchestrator.Ask(c.Request.Context(), req.Message)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRetrieve(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	k := 5
	if raw := c.Query("k"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &k); err != nil || k < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "k must be a positive integer"})
			return
		}
	}
	results, err := s.retriever.Retrieve(c.Request.Context(), query, k)
	if err != nil {
		s.log.Error("retrieve failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	type hit struct {
		Text        string  `json:"text"`
		SourceLabel string  `json:"source_label"`
		Score       float64 `json:"score"`
	}
	hits := make([]hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, hit{Text: r.Chunk.Text, SourceLabel: r.Chunk.Label, Score: r.Score})
	}
	c.JSON(http.StatusOK, gin.H{"results": hits})
}

func (s *Server) handleIndexStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.index.Status())
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
