package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/feastly/feastly/internal/api"
	"github.com/feastly/feastly/internal/domain/order"
	"github.com/feastly/feastly/internal/notify"
	"github.com/feastly/feastly/internal/storage/postgres"
	"github.com/feastly/feastly/pkg/health"
	"github.com/feastly/feastly/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles
// graceful shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	orderRepo := postgres.NewOrderRepository(pool)
	orderQueries := postgres.NewOrderQueries(pool)
	restaurantRepo := postgres.NewRestaurantRepository(pool)
	menuRepo := postgres.NewMenuRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	// Notification channels. Without a broker, notifications go to the log.
	var email notify.EmailSender
	var sms notify.SMSSender
	if cfg.AMQP.URL != "" {
		transport, err := notify.DialAMQP(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return errors.Wrap(err, "dial amqp")
		}
		defer func() { _ = transport.Close() }()
		email, sms = transport, transport
	} else {
		lg.Info("AMQP not configured, logging notifications")
		logTransport := notify.NewLogTransport(lg)
		email, sms = logTransport, logTransport
	}
	dispatcher := notify.NewDispatcher(
		notify.NewEmailChannel(email),
		notify.NewSMSChannel(sms),
	)

	// Domain services.
	transitions := order.LoosePolicy()
	if cfg.Orders.StrictStatus {
		transitions = order.StrictPolicy()
	}
	orderService := order.NewService(order.ServiceConfig{
		Numbers:           order.NewNumberAllocator(cfg.Orders.NumberPrefix, cfg.Orders.NumberLow, cfg.Orders.NumberHigh),
		Transitions:       transitions,
		MaxNumberAttempts: cfg.Orders.NumberAttempts,
	}, orderRepo, restaurantRepo, menuRepo, dispatcher)
	browser := order.NewBrowser(orderQueries)

	// HTTP surface: health endpoints + API routes on one mux.
	h := api.NewHandler(orderService, browser, userRepo)
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Routes(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				Origins: cfg.CORS.Origins,
				Headers: []string{"Content-Type", "Authorization"},
				MaxAge:  86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("feastly-api", m),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
