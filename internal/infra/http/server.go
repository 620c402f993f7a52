package http

import (
	"net/http"
	"time"

	"anchord/internal/config"
	"anchord/internal/domain"
	"anchord/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Server struct {
	cfg config.Config
	r   *gin.Engine

	verifier *usecase.ReceiptVerifier
	admin    *usecase.AdminService
	registry usecase.RegistryStore
	counters usecase.CounterStore
	zk       usecase.ZKConfigStore

	rateLimiter       domain.RateLimiter
	rateLimitRequests int
	rateLimitWindow   time.Duration
}

type ServerDeps struct {
	Verifier    *usecase.ReceiptVerifier
	Admin       *usecase.AdminService
	Registry    usecase.RegistryStore
	Counters    usecase.CounterStore
	ZK          usecase.ZKConfigStore
	RateLimiter domain.RateLimiter
}

func NewServer(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:               cfg,
		r:                 r,
		verifier:          deps.Verifier,
		admin:             deps.Admin,
		registry:          deps.Registry,
		counters:          deps.Counters,
		zk:                deps.ZK,
		rateLimiter:       deps.RateLimiter,
		rateLimitRequests: cfg.RateLimitRequests,
		rateLimitWindow:   time.Duration(cfg.RateLimitWindowSeconds) * time.Second,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "chain_id": s.verifier.ChainID()})
	})

	v1 := s.r.Group("/v1")
	{
		v1.POST("/receipts/verify", s.handleVerifyV1)

		v1.GET("/nodes/:hw_id/authorized", s.handleNodeAuthorized)
		v1.GET("/nodes/:hw_id/counter", s.handleCounter)
		v1.GET("/firmware/:fw_hash/approved", s.handleFirmwareApproved)
		v1.GET("/owner", s.handleOwner)
		v1.GET("/zk", s.handleZKInfo)

		admin := v1.Group("/admin")
		{
			admin.POST("/initialize", s.handleInitialize)
			admin.POST("/nodes/:hw_id/authorize", s.handleAuthorizeNode)
			admin.POST("/nodes/:hw_id/revoke", s.handleRevokeNode)
			admin.POST("/firmware/:fw_hash/approve", s.handleApproveFirmware)
			admin.POST("/firmware/:fw_hash/revoke", s.handleRevokeFirmware)
			admin.POST("/owner/transfer", s.handleTransferOwnership)
			admin.POST("/zk/verifier", s.handleSetZKVerifier)
			admin.POST("/zk/mode", s.handleSetZKMode)
		}
	}

	v2 := s.r.Group("/v2")
	{
		v2.POST("/receipts/verify", s.handleVerifyV2)
	}

	s.r.NoRoute(s.handleNoRoute)
}

// allowRequest applies the fixed-window limit to verification submissions,
// keyed by client IP. With no limiter configured every request passes.
func (s *Server) allowRequest(c *gin.Context) bool {
	if s.rateLimiter == nil || s.rateLimitRequests <= 0 {
		return true
	}
	decision, err := s.rateLimiter.Allow(c.Request.Context(), "verify:"+c.ClientIP(), s.rateLimitRequests, s.rateLimitWindow)
	if err != nil {
		// Limiter outage must not block verification.
		return true
	}
	if !decision.Allowed {
		writeErrorCode(c, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
		return false
	}
	return true
}

func (s *Server) Run() error {
	return s.r.Run(s.cfg.HTTPAddr)
}

// Handler exposes the router for httptest.
func (s *Server) Handler() http.Handler {
	return s.r
}
