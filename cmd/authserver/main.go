package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"agentswarm.treasury/internal/config"
	"agentswarm.treasury/internal/httpserver"
	"agentswarm.treasury/internal/metrics"
	"agentswarm.treasury/internal/noncestore"
	"agentswarm.treasury/internal/noncestore/memstore"
	"agentswarm.treasury/internal/noncestore/redisstore"
	"agentswarm.treasury/internal/noncestore/sqlstore"
	"agentswarm.treasury/internal/signing"
	"agentswarm.treasury/pkg/logger"
	"agentswarm.treasury/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	}
	runServer = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "logger initialized", zap.String("env", cfg.Server.Env))

	metrics.Init()

	store, closeStore, err := buildNonceStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to build nonce store: %w", err)
	}
	defer closeStore()

	verifier := signing.NewVerifier(chainIDFromEnv(), store)
	verifier.SkewTolerance = cfg.Signing.SkewTolerance

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpserver.RequestIDMiddleware())
	r.Use(httpserver.LoggerMiddleware())

	r.GET("/health", httpserver.HealthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/api/v1/auth/erc8128/nonce", httpserver.NonceHandler(cfg.Signing.DefaultNonceTTL))

	protected := r.Group("/api/v1")
	protected.Use(signing.GinVerify(verifier))
	protected.GET("/auth/erc8128/whoami", func(c *gin.Context) {
		identity, ok := signing.IdentityFromContext(c)
		if !ok {
			c.JSON(401, gin.H{"error": "no verified identity"})
			return
		}
		c.JSON(200, gin.H{"address": identity.Address, "chain_id": identity.ChainID})
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("shutting down authserver...")
		cancel()
	}()

	log.Printf("authserver starting on port %s", cfg.Server.Port)
	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// buildNonceStore selects the noncestore.Store backend named by
// cfg.NonceStore.Backend, returning a no-op closer for backends that own no
// closeable resource of their own.
func buildNonceStore(cfg *config.Config) (noncestore.Store, func(), error) {
	noop := func() {}

	switch cfg.NonceStore.Backend {
	case "redis":
		if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
			return nil, noop, fmt.Errorf("failed to initialize redis: %w", err)
		}
		return redisstore.New(redis.GetClient()), noop, nil

	case "sql":
		db, err := openDB(cfg.Database.DBName + ".db")
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open nonce db: %w", err)
		}
		if err := sqlstore.Migrate(db); err != nil {
			return nil, noop, fmt.Errorf("failed to migrate nonce table: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, noop, fmt.Errorf("failed to get generic database object: %w", err)
		}
		return sqlstore.New(db), func() { sqlDB.Close() }, nil

	default:
		return memstore.New(), noop, nil
	}
}

// chainIDFromEnv resolves the chain id the verifier binds every keyid to.
// The core signs on behalf of agent wallets that are chain-agnostic in
// principle, but the ERC-8128 profile ties one signer session to one chain;
// EVM_OWNER_CHAIN_ID selects it, defaulting to Base mainnet.
func chainIDFromEnv() int64 {
	const defaultChainID = 8453
	v := os.Getenv("EVM_OWNER_CHAIN_ID")
	if v == "" {
		return defaultChainID
	}
	var id int64
	if _, err := fmt.Sscanf(v, "%d", &id); err != nil || id == 0 {
		return defaultChainID
	}
	return id
}
