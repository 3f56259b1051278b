// Package api handles HTTP and WebSocket API endpoints
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/thereceipt/kot-bridge/internal/bridge"
	"github.com/thereceipt/kot-bridge/internal/dispatch"
	"github.com/thereceipt/kot-bridge/internal/orders"
	"github.com/thereceipt/kot-bridge/internal/printer"
	"github.com/thereceipt/kot-bridge/pkg/kotformat"
	"go.uber.org/zap"
)

// requestTimeout bounds bridge calls made on behalf of an HTTP request
const requestTimeout = 30 * time.Second

// Server is the API server
type Server struct {
	router     *gin.Engine
	manager    *bridge.Manager
	registry   *printer.Registry
	dispatcher *dispatch.Dispatcher
	journal    *dispatch.Journal
	orders     *orders.Client
	hub        *Hub
	upgrader   websocket.Upgrader
	logger     *zap.Logger
}

// NewServer creates a new API server
func NewServer(
	manager *bridge.Manager,
	registry *printer.Registry,
	dispatcher *dispatch.Dispatcher,
	journal *dispatch.Journal,
	orderClient *orders.Client,
	logger *zap.Logger,
) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	router.Use(corsMiddleware())

	server := &Server{
		router:     router,
		manager:    manager,
		registry:   registry,
		dispatcher: dispatcher,
		journal:    journal,
		orders:     orderClient,
		hub:        NewHub(logger),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // POS UI runs on another origin
			},
		},
		logger: logger,
	}

	dispatcher.AddSink(server.hub)
	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router.GET("/bridge", s.handleGetBridge)
	s.router.POST("/bridge/connect", s.handleConnect)
	s.router.POST("/bridge/disconnect", s.handleDisconnect)

	s.router.GET("/printers", s.handleGetPrinters)
	s.router.POST("/printers/select", s.handleSelectPrinter)

	s.router.POST("/print", s.handlePrint)
	s.router.POST("/orders/:id/print", s.handlePrintOrder)

	s.router.GET("/jobs", s.handleGetJobs)
	s.router.GET("/job/:id", s.handleGetJob)
	s.router.DELETE("/jobs", s.handleClearJobs)

	s.router.GET("/ws", s.handleWebSocket)
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the websocket event hub
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) handleGetBridge(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": s.manager.State().String()})
}

func (s *Server) handleConnect(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := s.manager.Connect(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"state": s.manager.State().String(),
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": s.manager.State().String()})
}

func (s *Server) handleDisconnect(c *gin.Context) {
	if err := s.manager.Disconnect(); err != nil {
		s.logger.Warn("bridge close failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"state": s.manager.State().String()})
}

// handleGetPrinters runs discovery and returns the printers with the current selection
func (s *Server) handleGetPrinters(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	printers, err := s.registry.Discover(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"printers": printers,
		"selected": s.registry.Selected(),
	})
}

func (s *Server) handleSelectPrinter(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	s.registry.Select(req.Name)

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"selected": req.Name,
	})
}

// handlePrint prints an order posted as JSON
func (s *Server) handlePrint(c *gin.Context) {
	var order kotformat.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, s.dispatcher.Print(c.Request.Context(), order))
}

// handlePrintOrder fetches an order from the POS API and prints it
func (s *Server) handlePrintOrder(c *gin.Context) {
	ctx := c.Request.Context()

	order, err := s.orders.Get(ctx, c.Param("id"))
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, orders.ErrOrderNotFound):
			status = http.StatusNotFound
		case errors.Is(err, orders.ErrMissingOrderID):
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, s.dispatcher.Print(ctx, order))
}

func (s *Server) handleGetJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": s.journal.All()})
}

func (s *Server) handleGetJob(c *gin.Context) {
	job, ok := s.journal.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}

func (s *Server) handleClearJobs(c *gin.Context) {
	s.journal.Clear()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
