package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	httpadp "lumenvault/internal/adapter/http"
	mw "lumenvault/internal/adapter/middleware"
	"lumenvault/internal/adapter/oracle"
	"lumenvault/internal/adapter/repository/mysql"
	"lumenvault/internal/config"
	"lumenvault/internal/domain/pricing"
	"lumenvault/internal/infrastructure/bus"
	"lumenvault/internal/infrastructure/cache"
	"lumenvault/internal/infrastructure/db"
	"lumenvault/internal/usecase/ledger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}

	var priceFeed pricing.Oracle = oracle.NewRedisOracle(rdb, cfg.OracleFeedKey)
	if cfg.OracleFeedKey == "" {
		log.Printf("no ORACLE_FEED_KEY set, serving static price %s (dec=%d)",
			cfg.StaticPriceValue, cfg.StaticPriceDecimals)
		priceFeed = oracle.NewStaticOracle(cfg.StaticPriceValue, cfg.StaticPriceDecimals)
	}

	broadcaster := bus.NewBroadcaster()
	go func() {
		events, _ := broadcaster.Subscribe(64)
		for e := range events {
			log.Printf("event %s kind=%s loan=%d", e.EventID, e.Kind, e.LoanID)
		}
	}()

	loans := mysql.NewLoanRepository(gdb)
	collateral := mysql.NewVaultRepository(gdb)
	rewards := mysql.NewRewardRepository(gdb)
	uc := ledger.NewUsecase(
		mysql.NewGormUoW(gdb),
		loans,
		collateral,
		rewards,
		priceFeed,
		broadcaster,
		ledger.Policy{
			CollateralRatioBps:      cfg.CollateralRatioBps,
			LiquidationThresholdBps: cfg.LiquidationThresholdBps,
			RewardBps:               cfg.RewardBps,
			Owner:                   cfg.OwnerAccount,
		},
	)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())

	h := httpadp.NewHandler()
	e.GET("/health", h.Health)

	idemp := mw.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second)
	httpadp.NewLedgerHandler(uc).Register(e, idemp)

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
