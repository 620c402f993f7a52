package main

import (
	"log"

	"anchord/internal/config"
	"anchord/internal/domain"
	"anchord/internal/infra/db"
	httpinfra "anchord/internal/infra/http"
	"anchord/internal/infra/ratelimit"
	"anchord/internal/infra/statemem"
	"anchord/internal/infra/zk"
	"anchord/internal/usecase"
)

func main() {
	cfg := config.FromEnv()

	var (
		registry usecase.RegistryStore
		counters usecase.CounterStore
		owner    usecase.OwnerStore
		zkState  usecase.ZKConfigStore
		audit    usecase.AuditSink
	)
	if cfg.PostgresDSN != "" {
		store, err := db.NewStore(cfg)
		if err != nil {
			log.Fatalf("failed to init store: %v", err)
		}
		if err := store.Migrate(); err != nil {
			log.Fatalf("failed to migrate store: %v", err)
		}
		registry = store.Registry
		counters = store.Counters
		owner = store.State
		zkState = store.State
		audit = store.Audit
	} else {
		log.Printf("POSTGRES_DSN not set; starting with in-memory state (replay protection is process-lifetime only)")
		mem := statemem.New()
		registry = mem
		counters = mem
		owner = mem
		zkState = mem
		audit = mem
	}

	gateway := usecase.NewZKGateway(zk.NewResolver(nil))
	verifier := usecase.NewReceiptVerifier(registry, counters, zkState, gateway, audit, cfg.ChainID)
	admin := usecase.NewAdminService(owner, registry, zkState, audit)

	var limiter domain.RateLimiter
	if cfg.RateLimitRequests > 0 {
		if cfg.RedisAddr != "" {
			var err error
			limiter, err = ratelimit.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, nil)
			if err != nil {
				log.Fatalf("failed to init redis rate limiter: %v", err)
			}
		} else {
			limiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{MaxKeys: cfg.RateLimitMaxKeys})
		}
	}

	srv := httpinfra.NewServer(cfg, httpinfra.ServerDeps{
		Verifier:    verifier,
		Admin:       admin,
		Registry:    registry,
		Counters:    counters,
		ZK:          zkState,
		RateLimiter: limiter,
	})
	if err := srv.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
