package server

import (
	"context"
	"net/http"
	"unicode/utf8"

	"github.com/SaiNageswarS/crag-boot/history"
	"github.com/SaiNageswarS/crag-boot/workflow"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
)

const Version = "1.0.0"

var tracer = otel.Tracer("crag-boot.server")

// Runner is the part of workflow.Engine the HTTP layer needs.
type Runner interface {
	Run(ctx context.Context, initial workflow.State, opts ...workflow.RunOption) (*workflow.State, error)
}

type Options struct {
	ServiceName       string
	DefaultMaxRetries int
	WebSearchDisabled bool
	// CountTokens measures usage; rune counting when nil.
	CountTokens func(string) int
	// Metrics serves /metrics; promhttp.Handler() when nil.
	Metrics http.Handler
}

type Server struct {
	runner   Runner
	recorder *history.Recorder
	opts     Options
}

func New(runner Runner, recorder *history.Recorder, opts Options) *Server {
	if opts.ServiceName == "" {
		opts.ServiceName = "crag-boot"
	}
	if opts.DefaultMaxRetries < 0 {
		opts.DefaultMaxRetries = workflow.DefaultMaxRetries
	}
	if opts.CountTokens == nil {
		opts.CountTokens = utf8.RuneCountInString
	}
	if opts.Metrics == nil {
		opts.Metrics = promhttp.Handler()
	}
	return &Server{runner: runner, recorder: recorder, opts: opts}
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(s.opts.ServiceName))
	router.Use(corsMiddleware())

	router.GET("/", s.handleRoot)
	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(s.opts.Metrics))

	v1 := router.Group("/v1")
	{
		v1.POST("/chat/completions", s.handleChatCompletion)
		v1.GET("/runs/:id", s.handleGetRun)
	}
	return router
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "CRAG API is running",
		"version": Version,
		"endpoints": gin.H{
			"/v1/chat/completions": "OpenAI-compatible chat completions endpoint",
			"/v1/runs/:id":         "Persisted run record",
			"/metrics":             "Prometheus metrics",
			"/health":              "Liveness probe",
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "history": s.recorder.Enabled()})
}

func corsMiddleware() gin.HandlerFunc {
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
