package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"marketplace-recon-api/internal/config"
	"marketplace-recon-api/internal/dal"
	"marketplace-recon-api/internal/dao"
	"marketplace-recon-api/internal/fee"
	"marketplace-recon-api/internal/handler"
	"marketplace-recon-api/internal/idgen"
	"marketplace-recon-api/internal/ledger"
	"marketplace-recon-api/internal/linker"
	"marketplace-recon-api/internal/logger"
	"marketplace-recon-api/internal/marketplace"
	"marketplace-recon-api/internal/marketplace/health"
	"marketplace-recon-api/internal/middleware"
	"marketplace-recon-api/internal/mq"
	"marketplace-recon-api/internal/notify"
	"marketplace-recon-api/internal/rules"
	"marketplace-recon-api/internal/scheduler"
	"marketplace-recon-api/internal/system"
	"marketplace-recon-api/internal/utils/timeutil"
)

func main() {
	// load config env
	config.Init()
	cfg := config.C
	if err := timeutil.SetLocation(cfg.Project.Timezone); err != nil {
		log.Printf("load timezone %s failed, using UTC-3: %v", cfg.Project.Timezone, err)
	}

	appLog := logger.Get("app")

	// init infra
	dal.InitReconDB()
	dal.InitErpDB()
	if err := dal.Migrate(); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}
	dal.InitRedis()

	if err := dal.InitRabbitMQ(); err != nil {
		appLog.WithError(err).Warn("RabbitMQ 不可用，事件暂不发布，后台重连")
	}
	pub := mq.NewPublisher(cfg.RabbitMQ.Exchange, logger.Get("mq"))

	// idgen
	idgen.Init(1)
	newID := idgen.Default()

	// system config + alerts
	kv := marketplace.NewRedisKV(dal.RedisClient)
	hash := system.NewRedisHash(dal.RedisClient)
	sysCfg := system.NewConfigSystem(dao.NewSysConfigDao(), hash, appLog)
	tg := notify.NewTelegram(notify.TokenFromEnv(), sysCfg, logger.Get("notify"))

	// fee
	feeLog := logger.Get("fee")
	resolver := fee.NewResolver(dao.NewFeePeriodDao(), kv, time.Duration(cfg.Fee.CacheTTLSec)*time.Second, feeLog)
	calc := fee.NewCalculator(resolver, sysCfg, feeLog)

	// rules
	ruleLog := logger.Get("rules")
	engine := rules.NewEngine(cfg.Ledger.InternalTransfers, ruleLog)
	ruleSvc := rules.NewService(dao.NewRuleDao(), engine, ruleLog)
	if err := ruleSvc.Reload(context.Background()); err != nil {
		appLog.WithError(err).Warn("自定义规则加载失败，仅使用系统规则")
	}

	// marketplace upstream
	upLog := logger.Get("upstream")
	hm := &health.Manager{
		Store:      kv,
		Strategy:   health.NewStrategy(cfg.Upstream.HealthStrategy, cfg.Upstream.HealthAlpha),
		Threshold:  cfg.Upstream.HealthFloor,
		TTL:        24 * time.Hour,
		BreakerTTL: time.Duration(cfg.Upstream.BreakerSec) * time.Second,
		OnTrip:     tg.BreakerTripped,
	}
	timeout := time.Duration(cfg.Upstream.Timeout.RequestSec) * time.Second
	creds := marketplace.NewCredentialProvider(kv, cfg.Upstream.Marketplaces, timeout, upLog)
	indexes := marketplace.NewIndexes(cfg.Upstream, creds, hm, upLog)

	// linker + ledger
	batchDelay := time.Duration(cfg.Batch.DelayMs) * time.Millisecond
	erpDao := dao.NewErpOrderDao()
	linkSvc := linker.NewService(dao.NewOrderLinkDao(), erpDao, indexes, pub, newID, linker.Options{
		Epsilon:         decimal.NewFromFloat(cfg.Linker.Epsilon),
		Window:          time.Duration(cfg.Linker.WindowHours) * time.Hour,
		DefaultDaysBack: cfg.Linker.DefaultDaysBack,
		BatchSize:       cfg.Batch.Size,
		BatchDelay:      batchDelay,
	}, logger.Get("linker"))
	linkSvc.OnAmbiguous = tg.AmbiguousMatch
	ledgerSvc := ledger.NewService(ledger.Deps{
		Records:   dao.NewPaymentRecordDao(),
		Links:     linkSvc,
		ErpOrders: erpDao,
		Fees:      calc,
		Tagger:    engine,
		Publisher: pub,
		Alerter:   tg,
		NewID:     newID,
	}, ledger.Options{
		Tolerance:  decimal.NewFromFloat(cfg.Ledger.Tolerance),
		BatchSize:  cfg.Batch.Size,
		BatchDelay: batchDelay,
	}, logger.Get("ledger"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start consumers
	go mq.NewDraftConsumer(cfg.RabbitMQ.DraftQueue, ledgerSvc, logger.Get("mq")).Run(ctx)

	// cron
	cronSvc := scheduler.New(linkSvc, ruleSvc, scheduler.Specs{
		AutoLink:    cfg.Cron.AutoLink,
		RulesReload: cfg.Cron.RulesReload,
	}, cfg.Linker.DefaultDaysBack, logger.Get("cron"))
	if err := cronSvc.Start(); err != nil {
		log.Fatalf("start scheduler failed: %v", err)
	}

	// http server
	if cfg.Server.Mode != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	// 设置可信代理 IP（如本地或内网）
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})
	r.Use(
		middleware.TraceAudit(logger.Get("audit"), newID),
		middleware.Recover(logger.Get("error")),
		middleware.RequestLogger(logger.Get("info"), logger.Get("error")),
	)
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	v1 := r.Group("/api/v1", middleware.InternalAuth(cfg.Server.InternalToken))
	handler.Register(v1, handler.Handlers{
		Fee:    handler.NewFeeHandler(resolver, calc, sysCfg),
		Rule:   handler.NewRuleHandler(ruleSvc),
		Link:   handler.NewLinkHandler(linkSvc),
		Ledger: handler.NewLedgerHandler(ledgerSvc),
	})

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		appLog.Infof("listening %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	appLog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	<-cronSvc.Stop().Done()
}
