package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KevinKickass/OpenRadarCore/internal/api/websocket"
	"github.com/KevinKickass/OpenRadarCore/internal/config"
	"github.com/KevinKickass/OpenRadarCore/internal/interfaces"
)

type Server struct {
	router *gin.Engine
	lm     interfaces.LifecycleManager
	logger *zap.Logger
	server *http.Server
	wsHub  *websocket.Hub
}

func NewServer(cfg *config.Config, lm interfaces.LifecycleManager, logger *zap.Logger, wsHub *websocket.Hub) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router: gin.New(),
		lm:     lm,
		logger: logger,
		wsHub:  wsHub,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("REST server failed", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down REST API server")
	return s.server.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Middleware
	s.router.Use(gin.Recovery())
	s.router.Use(LoggerMiddleware(s.logger))
	s.router.Use(CORSMiddleware())

	// Public routes
	s.router.GET("/health", s.healthCheck)

	// API v1
	v1 := s.router.Group("/api/v1")
	{
		// ==================== SYSTEM ====================
		system := v1.Group("/system")
		{
			system.GET("/status", s.getSystemStatus)
			system.POST("/shutdown", s.shutdown)
		}

		// ==================== SENSORS ====================
		sensors := v1.Group("/sensors")
		{
			sensors.GET("", s.listSensors)
			sensors.GET("/:id", s.getSensorInfo)
			sensors.GET("/:id/state", s.getSensorState)
			sensors.POST("/:id/power", s.powerCommand)
			sensors.POST("/:id/country", s.setCountryCode)
			sensors.POST("/:id/fifo-mode", s.setFifoMode)
			sensors.POST("/:id/log-level", s.setLogLevel)

			// Configuration slots
			sensors.GET("/:id/slots", s.listSlots)
			sensors.POST("/:id/slots/:slot/activate", s.activateSlot)
			sensors.POST("/:id/slots/:slot/deactivate", s.deactivateSlot)
			sensors.POST("/:id/slots/:slot/preset", s.applyPreset)
			sensors.GET("/:id/slots/:slot/params/:group/:param", s.getParam)
			sensors.PUT("/:id/slots/:slot/params/:group/:param", s.setParam)
			sensors.GET("/:id/params/:group/:param/range", s.getParamRange)

			// Acquisition
			sensors.POST("/:id/streaming/start", s.startStreaming)
			sensors.POST("/:id/streaming/stop", s.stopStreaming)
			sensors.GET("/:id/burst", s.readBurst)

			// Debug register access
			sensors.GET("/:id/registers", s.getAllRegisters)
			sensors.GET("/:id/registers/:address", s.getRegister)
			sensors.PUT("/:id/registers/:address", s.setRegister)
		}

		// ==================== PRESETS ====================
		presets := v1.Group("/presets")
		{
			presets.GET("", s.listPresets)
			presets.GET("/:name", s.getPreset)
		}

		// ==================== WEBSOCKET ====================
		ws := v1.Group("/ws")
		{
			ws.GET("/live", s.wsLiveConnection)
			ws.GET("/status", s.wsStatus)
		}
	}
}

// WebSocket handlers
func (s *Server) wsLiveConnection(c *gin.Context) {
	websocket.ServeWs(s.wsHub, c.Writer, c.Request)
}

func (s *Server) wsStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connected_clients": s.wsHub.GetClientCount(),
	})
}

// Health check (public)
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}
