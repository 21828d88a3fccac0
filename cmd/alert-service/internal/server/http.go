package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"alerthub/cmd/alert-service/internal/handler"
)

// HTTPServer HTTP 服务器
type HTTPServer struct {
	engine  *gin.Engine
	handler *handler.AlertHandler
	logger  *zap.Logger
}

// NewHTTPServer 创建 HTTP 服务器
func NewHTTPServer(h *handler.AlertHandler, logger *zap.Logger) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &HTTPServer{
		engine:  engine,
		handler: h,
		logger:  logger,
	}

	s.registerMiddlewares()
	s.registerRoutes()
	return s
}

// Engine 返回底层 gin 引擎
func (s *HTTPServer) Engine() *gin.Engine {
	return s.engine
}

// registerMiddlewares 注册中间件
func (s *HTTPServer) registerMiddlewares() {
	s.engine.Use(gin.Recovery())
	s.engine.Use(s.requestLogger())
	s.engine.Use(s.corsMiddleware())
}

// requestLogger 请求日志中间件
func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// corsMiddleware CORS 中间件
func (s *HTTPServer) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Tenant-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// registerRoutes 注册路由
func (s *HTTPServer) registerRoutes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.engine.Group("/v1")
	{
		tenants := v1.Group("/tenants/:tenant")
		{
			tenants.POST("/executions", s.handler.RecordExecution)
			tenants.POST("/rules", s.handler.CreateRule)
			tenants.GET("/rules", s.handler.ListRules)
			tenants.GET("/alerts", s.handler.ListAlerts)
			tenants.GET("/sla", s.handler.GetSLAStatus)
			tenants.PUT("/tier", s.handler.SetTenantTier)
			tenants.GET("/violations", s.handler.ListViolations)
		}

		v1.PUT("/rules/:id", s.handler.UpdateRule)
		v1.DELETE("/rules/:id", s.handler.DeleteRule)
		v1.POST("/alerts/:id/acknowledge", s.handler.AcknowledgeAlert)
		v1.POST("/alerts/:id/resolve", s.handler.ResolveAlert)
	}
}
