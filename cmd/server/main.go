package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-management/internal/config"
	"github.com/iliyamo/hotel-management/internal/database"
	"github.com/iliyamo/hotel-management/internal/handler"
	"github.com/iliyamo/hotel-management/internal/logger"
	"github.com/iliyamo/hotel-management/internal/metrics"
	"github.com/iliyamo/hotel-management/internal/middleware"
	"github.com/iliyamo/hotel-management/internal/observability"
	"github.com/iliyamo/hotel-management/internal/queue"
	"github.com/iliyamo/hotel-management/internal/repository"
	"github.com/iliyamo/hotel-management/internal/router"
	"github.com/iliyamo/hotel-management/internal/service"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env, ServiceName: cfg.ServiceName}); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	lg := logger.L()
	lg.Info("starting", cfg.Fields()...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.OTLPEndpoint,
		Insecure:       cfg.OTLPInsecure,
	})
	if err != nil {
		lg.Fatal("tracing setup failed", zap.Error(err))
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		lg.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db, lg); err != nil {
			lg.Fatal("migration failed", zap.Error(err))
		}
	}
	store := repository.NewStore(db)

	// The outbox stays a nil interface when the queue is off, so the
	// recorder only logs and counts failed writes.
	var outbox service.LedgerOutbox
	if cfg.LedgerQueueEnabled {
		outbox = queue.NewLedgerPublisher(cfg.RabbitURL, lg)
	}
	recorder := service.NewLedgerRecorder(store, outbox)
	if cfg.LedgerQueueEnabled {
		go queue.StartLedgerConsumer(ctx, cfg.RabbitURL, recorder.Replay, lg)
	}

	identity := service.NewIdentityService(store, service.TokenConfig{
		Secret:         cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
	})
	authH := handler.NewAuthHandler(identity)
	hotelH := handler.NewHotelHandler(service.NewHotelService(store, cfg.BcryptCost))
	userH := handler.NewUserHandler(service.NewUserService(store, cfg.BcryptCost))
	productH := handler.NewProductHandler(service.NewProductService(store), service.NewStockService(store))
	orderH := handler.NewOrderHandler(service.NewOrderService(store, recorder))
	clientH := handler.NewClientHandler(service.NewClientService(store))
	roomH := handler.NewRoomHandler(service.NewRoomService(store))
	reservationH := handler.NewReservationHandler(service.NewReservationService(store, recorder))
	transactionH := handler.NewTransactionHandler(service.NewTransactionService(store))
	invoiceH := handler.NewInvoiceHandler(service.NewInvoiceService(store))

	rdb := config.NewRedisClient(ctx, config.LoadRedisConfig())
	ready := map[string]handler.Pinger{"mysql": store}
	if rdb != nil {
		defer rdb.Close()
		ready["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	} else {
		lg.Warn("redis unavailable, cache and rate limiting disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(logger.Middleware())
	e.Use(metrics.NewHTTPMetrics(cfg.ServiceName).Middleware())

	router.RegisterRoutes(e, ready)
	loginLimit := middleware.NewTokenBucket(config.LoadLoginRateLimitConfig(), rdb)
	router.RegisterAuth(e, authH, hotelH, cfg.JWTSecret, loginLimit)

	api := router.Protected(e, cfg.JWTSecret, middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cache := router.NewCache(config.LoadCacheConfig(), rdb)
	router.RegisterFrontDesk(api, roomH, clientH, reservationH, cache)
	router.RegisterRestaurant(api, productH, orderH, cache)
	router.RegisterBackOffice(api, hotelH, userH, transactionH, invoiceH, cache)

	go func() {
		addr := ":" + cfg.Port
		lg.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		lg.Error("http shutdown", zap.Error(err))
	}
	if err := shutdownTracing(sctx); err != nil {
		lg.Error("tracing shutdown", zap.Error(err))
	}
}
