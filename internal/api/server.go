package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/credigo/credigo/internal/config"
	"github.com/credigo/credigo/internal/db"
	"github.com/credigo/credigo/internal/logger"
	"github.com/credigo/credigo/internal/models"
	"github.com/credigo/credigo/internal/scheduler"
	"github.com/credigo/credigo/internal/services"
)

// Response type aliases for handler convenience
type APIResponse = models.APIResponse
type PaginatedResponse = models.PaginatedResponse
type Pagination = models.Pagination

// Server is the HTTP API server
type Server struct {
	config         *config.Config
	db             db.Store
	companyService *services.CompanyService
	creditService  *services.CreditService
	statsService   *services.StatsService
	scheduler      *scheduler.Scheduler
	router         *gin.Engine
	httpServer     *http.Server
}

// New creates a new API server
func New(cfg *config.Config, store db.Store, sched *scheduler.Scheduler) *Server {
	creditService := services.NewCreditService(store)

	s := &Server{
		config:         cfg,
		db:             store,
		companyService: services.NewCompanyService(store),
		creditService:  creditService,
		statsService:   services.NewStatsService(store, creditService),
		scheduler:      sched,
	}

	s.setupRouter()
	return s
}

// setupRouter configures the gin engine, middleware and routes
func (s *Server) setupRouter() {
	if !logger.IsDebugEnabled() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(requestLoggerMiddleware())
	router.Use(rateLimitMiddleware(s.config.Server.RateRPS, s.config.Server.RateBurst))

	router.GET("/", s.welcome)

	base := router.Group(s.config.Server.BaseRoute)
	{
		base.GET("/health", s.healthCheck)

		base.GET("/company/:id", s.getCompany)
		base.POST("/company", s.createCompany)
		base.PUT("/company/:id", s.updateCompany)
		base.GET("/companies", s.listCompanies)

		base.POST("/company/:id/reports", s.createReport)
		base.GET("/company/:id/reports", s.listReports)

		base.GET("/credits", s.listCreditReports)
		base.GET("/credits/:company_id", s.getCreditReport)
		base.POST("/credits", s.createLoan)
		base.PUT("/credits/:company_id", s.updateLoan)
		base.DELETE("/credits/:loan_id", s.deleteLoan)

		base.GET("/stats", s.getStats)
	}

	s.router = router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.config.Server.Addr(),
		Handler: s.router,
	}

	logger.Info("HTTP server listening on %s (base route %s)", s.config.Server.Addr(), s.config.Server.BaseRoute)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the gin engine, used by tests
func (s *Server) Router() http.Handler {
	return s.router
}

// welcome handles GET /
func (s *Server) welcome(c *gin.Context) {
	s.successResponse(c, gin.H{
		"message": "Welcome to the Credit Information API",
	})
}

// healthCheck handles GET <base>/health
func (s *Server) healthCheck(c *gin.Context) {
	if err := s.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, APIResponse{
			Success: false,
			Error:   "Database connection failed",
		})
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":    "healthy",
			"timestamp": time.Now(),
			"version":   "1.0.0",
		},
	})
}

// successResponse writes a 200 envelope
func (s *Server) successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// errorResponse writes an error envelope with the given status
func (s *Server) errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   message,
	})
}

// parsePagination reads page/limit query parameters with sane bounds
func (s *Server) parsePagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	return page, limit
}
