package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	ledgerapp "github.com/wyfcoding/p2pexchange/internal/ledger/application"
	ledgerdomain "github.com/wyfcoding/p2pexchange/internal/ledger/domain"
	ledgermysql "github.com/wyfcoding/p2pexchange/internal/ledger/infrastructure/persistence/mysql"
	ledgerredis "github.com/wyfcoding/p2pexchange/internal/ledger/infrastructure/persistence/redis"
	ledgerconsumer "github.com/wyfcoding/p2pexchange/internal/ledger/interfaces/consumer"
	ledgerhttp "github.com/wyfcoding/p2pexchange/internal/ledger/interfaces/http"
	orderapp "github.com/wyfcoding/p2pexchange/internal/order/application"
	orderdomain "github.com/wyfcoding/p2pexchange/internal/order/domain"
	ordermysql "github.com/wyfcoding/p2pexchange/internal/order/infrastructure/persistence/mysql"
	orderhttp "github.com/wyfcoding/p2pexchange/internal/order/interfaces/http"
	refapp "github.com/wyfcoding/p2pexchange/internal/referencedata/application"
	refdomain "github.com/wyfcoding/p2pexchange/internal/referencedata/domain"
	refmysql "github.com/wyfcoding/p2pexchange/internal/referencedata/infrastructure/persistence/mysql"
	refredis "github.com/wyfcoding/p2pexchange/internal/referencedata/infrastructure/persistence/redis"
	refhttp "github.com/wyfcoding/p2pexchange/internal/referencedata/interfaces/http"
	tradeapp "github.com/wyfcoding/p2pexchange/internal/trade/application"
	tradedomain "github.com/wyfcoding/p2pexchange/internal/trade/domain"
	trademessaging "github.com/wyfcoding/p2pexchange/internal/trade/infrastructure/messaging"
	trademysql "github.com/wyfcoding/p2pexchange/internal/trade/infrastructure/persistence/mysql"
	tradehttp "github.com/wyfcoding/p2pexchange/internal/trade/interfaces/http"
	transferapp "github.com/wyfcoding/p2pexchange/internal/transfer/application"
	transferdomain "github.com/wyfcoding/p2pexchange/internal/transfer/domain"
	transfermysql "github.com/wyfcoding/p2pexchange/internal/transfer/infrastructure/persistence/mysql"
	transferhttp "github.com/wyfcoding/p2pexchange/internal/transfer/interfaces/http"
	withdrawalapp "github.com/wyfcoding/p2pexchange/internal/withdrawal/application"
	withdrawaldomain "github.com/wyfcoding/p2pexchange/internal/withdrawal/domain"
	withdrawalmysql "github.com/wyfcoding/p2pexchange/internal/withdrawal/infrastructure/persistence/mysql"
	withdrawalhttp "github.com/wyfcoding/p2pexchange/internal/withdrawal/interfaces/http"
	"github.com/wyfcoding/pkg/cache"
	"github.com/wyfcoding/pkg/config"
	"github.com/wyfcoding/pkg/database"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue/kafka"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
	"github.com/wyfcoding/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

var configPath = flag.String("config", "configs/p2pexchange/config.toml", "config file path")

func main() {
	flag.Parse()

	// 1. Config
	var cfg config.Config
	if err := config.Load(*configPath, &cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. Logger
	logCfg := &logging.Config{Service: cfg.Server.Name, Level: cfg.Log.Level}
	logger := logging.NewFromConfig(logCfg)
	slog.SetDefault(logger.Logger)

	// 3. Metrics
	metricsImpl := metrics.NewMetrics(cfg.Server.Name)

	// 4. Infrastructure
	db, err := database.NewDB(cfg.Data.Database, cfg.CircuitBreaker, logger, metricsImpl)
	if err != nil {
		slog.Error("failed to connect database", "error", err)
		os.Exit(1)
	}

	if cfg.Server.Environment == "dev" {
		if err := db.RawDB().AutoMigrate(
			&ledgerdomain.Wallet{},
			&ledgerdomain.LedgerTransaction{},
			&ledgerdomain.LedgerEntry{},
			&refdomain.Asset{},
			&refdomain.Market{},
			&orderdomain.Order{},
			&tradedomain.Trade{},
			&transferdomain.InternalTransfer{},
			&withdrawaldomain.ExternalWithdrawal{},
			&outbox.Message{},
		); err != nil {
			slog.Error("failed to migrate database", "error", err)
		}
	}

	// 5. Kafka & Outbox
	kafkaProducer := kafka.NewProducer(&cfg.MessageQueue.Kafka, logger, metricsImpl)
	outboxMgr := outbox.NewManager(db.RawDB(), logger.Logger)
	pusher := func(ctx context.Context, topic, key string, payload []byte) error {
		return kafkaProducer.PublishToTopic(ctx, topic, []byte(key), payload)
	}
	outboxProcessor := outbox.NewProcessor(outboxMgr, pusher, 100, 2*time.Second)

	redisCache, err := cache.NewRedisCache(&cfg.Data.Redis, cfg.CircuitBreaker, logger, metricsImpl)
	if err != nil {
		slog.Error("failed to init redis", "error", err)
	}

	// 6. Repositories
	walletRepo := ledgermysql.NewWalletRepository(db.RawDB())
	ledgerRepo := ledgermysql.NewLedgerRepository(db.RawDB())
	txManager := ledgermysql.NewTxManager(db.RawDB())
	walletReadRepo := ledgerredis.NewWalletRedisRepository(redisCache.GetClient())
	assetRepo := refmysql.NewAssetRepository(db.RawDB())
	marketRepo := refmysql.NewMarketRepository(db.RawDB())
	marketReadRepo := refredis.NewMarketRedisRepository(redisCache.GetClient())
	orderRepo := ordermysql.NewOrderRepository(db.RawDB())
	tradeRepo := trademysql.NewTradeRepository(db.RawDB())
	transferRepo := transfermysql.NewTransferRepository(db.RawDB())
	withdrawalRepo := withdrawalmysql.NewWithdrawalRepository(db.RawDB())

	tradePublisher := trademessaging.NewOutboxPublisher(outboxMgr)
	publisher := outbox.NewPublisher(outboxMgr)

	// 7. Application Services
	ledgerSvc := ledgerapp.NewLedgerService(walletRepo, ledgerRepo, txManager)
	projectionSvc := ledgerapp.NewWalletProjectionService(walletRepo, walletReadRepo, logger.Logger)
	refSvc := refapp.NewReferenceDataService(assetRepo, marketRepo, marketReadRepo)
	orderSvc := orderapp.NewOrderService(orderRepo, walletRepo, ledgerSvc, refSvc, txManager)
	tradeSvc := tradeapp.NewTradeService(tradeRepo, orderRepo, walletRepo, ledgerSvc, refSvc, tradePublisher, txManager)
	transferSvc := transferapp.NewTransferService(transferRepo, walletRepo, ledgerSvc, assetRepo, publisher, txManager)
	withdrawalSvc := withdrawalapp.NewWithdrawalService(withdrawalRepo, walletRepo, ledgerSvc, assetRepo, publisher, txManager)

	if cfg.Server.Environment == "dev" {
		if err := refSvc.EnsureDefaults(context.Background()); err != nil {
			slog.Error("failed to seed reference data", "error", err)
		}
	}

	// 8. Consumers
	projectionHandler := ledgerconsumer.NewWalletProjectionHandler(projectionSvc, logger.Logger)
	projectionTopics := []string{
		ledgerconsumer.TradeSettledTopic,
		ledgerconsumer.TransferCompletedTopic,
		ledgerconsumer.WithdrawalRequestedTopic,
	}
	projectionConsumers := make([]*kafka.Consumer, 0, len(projectionTopics))
	for _, topic := range projectionTopics {
		consumerCfg := cfg.MessageQueue.Kafka
		consumerCfg.Topic = topic
		if consumerCfg.GroupID == "" {
			consumerCfg.GroupID = "p2pexchange-wallet-projection"
		}
		consumer := kafka.NewConsumer(&consumerCfg, logger, metricsImpl)
		consumer.Start(context.Background(), 3, projectionHandler.Handle)
		projectionConsumers = append(projectionConsumers, consumer)
	}

	// 9. Interfaces
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	api := r.Group("/api")
	ledgerhttp.NewWalletHandler(ledgerSvc).RegisterRoutes(api)
	refhttp.NewReferenceDataHandler(refSvc).RegisterRoutes(api)
	orderhttp.NewOrderHandler(orderSvc).RegisterRoutes(api)
	tradehttp.NewTradeHandler(tradeSvc).RegisterRoutes(api)
	transferhttp.NewTransferHandler(transferSvc).RegisterRoutes(api)
	withdrawalhttp.NewWithdrawalHandler(withdrawalSvc).RegisterRoutes(api)

	// 10. Start
	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		outboxProcessor.Start()
		<-ctx.Done()
		outboxProcessor.Stop()
		return nil
	})

	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.HTTP.Port), Handler: r}
	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down servers...")
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down...")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown http server", "error", err)
		}
		for _, c := range projectionConsumers {
			if c != nil {
				_ = c.Close()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
	}
}
