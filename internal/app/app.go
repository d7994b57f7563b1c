// Package app wires repositories, services and handlers into one gin engine.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"studiobook/internal/config"
	"studiobook/internal/database"
	"studiobook/internal/domain/admin"
	"studiobook/internal/domain/audit"
	"studiobook/internal/domain/booking"
	"studiobook/internal/domain/calendar"
	"studiobook/internal/domain/catalog"
	"studiobook/internal/domain/payment"
	"studiobook/internal/domain/ratelimit"
	"studiobook/internal/events"
	"studiobook/internal/jobs"
	"studiobook/internal/middleware"
	"studiobook/internal/pkg/jwt"
	"studiobook/internal/pkg/metrics"
	"studiobook/internal/pkg/response"
	"studiobook/internal/storage"
)

const healthTimeout = 2 * time.Second

// Models lists every table the service owns, in migration order.
func Models() []any {
	return []any{
		&admin.Admin{},
		&catalog.Service{},
		&catalog.Package{},
		&calendar.Slot{},
		&booking.Booking{},
		&booking.PaymentProof{},
		&audit.Log{},
		&ratelimit.Window{},
	}
}

// Options replaces infrastructure that tests and tools want to control.
type Options struct {
	Publisher events.Publisher
	Registry  *prometheus.Registry
	Store     storage.ObjectStore
}

type App struct {
	Engine   *gin.Engine
	DB       *gorm.DB
	Registry *prometheus.Registry

	Bookings *booking.Service
	Payments *payment.Service
	Admins   *admin.Service
	Calendar *calendar.Calendar
	Catalog  *catalog.Catalog
	Limiter  *ratelimit.Limiter
	Hub      *calendar.Hub
	Events   events.Publisher

	cfg *config.Config
	log *zap.Logger
}

func New(cfg *config.Config, db *gorm.DB, log *zap.Logger, opts Options) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	pub := opts.Publisher
	if pub == nil {
		pub = events.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}
	store := opts.Store
	if store == nil {
		disk, err := storage.NewDisk(cfg.Storage.Root)
		if err != nil {
			return nil, err
		}
		store = disk
	}

	loc := cfg.Location()
	tx := database.NewTxManager(db)
	recorder := audit.NewRecorder(db, log)
	limiter := ratelimit.NewLimiter(db, log)
	business := metrics.NewBusiness(reg)
	tokens := jwt.New(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)

	cat := catalog.NewCatalog(catalog.NewRepository(db), recorder)

	hub := calendar.NewHub(cfg.HTTP.AllowedOrigins, log)
	cal := calendar.NewCalendar(calendar.NewRepository(db), tx, recorder, hub, loc)

	bookingRepo := booking.NewRepository(db)
	bookings := booking.NewService(booking.Deps{
		Repo:     bookingRepo,
		Tx:       tx,
		Packages: cat,
		Slots:    cal,
		Limiter:  limiter,
		Audit:    recorder,
		Events:   pub,
		Metrics:  business,
		Log:      log,
	}, booking.Config{
		CodePrefix: cfg.Booking.CodePrefix,
		DPWindow:   cfg.Booking.DPWindow,
		Location:   loc,
		Bank: booking.PaymentInstructions{
			BankName:      cfg.Studio.BankName,
			AccountNumber: cfg.Studio.AccountNumber,
			AccountName:   cfg.Studio.AccountName,
		},
	})

	signer := storage.NewSigner(cfg.Storage.SigningKey, cfg.HTTP.PublicBaseURL)
	payments := payment.NewService(payment.Deps{
		Bookings:  bookingRepo,
		Lifecycle: bookings,
		Slots:     cal,
		Tx:        tx,
		Limiter:   limiter,
		Audit:     recorder,
		Store:     store,
		Signer:    signer,
		Metrics:   business,
		Log:       log,
	}, payment.Config{StoredURLTTL: cfg.Storage.SignedURLTTL})

	admins := admin.NewService(admin.NewRepository(db), tokens, limiter, recorder, log)

	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	// ClientIP keys rate limits and audit rows, so X-Forwarded-For is honored only from listed proxies.
	if err := r.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(
		middleware.RequestID(),
		middleware.ErrorLogger(log),
		middleware.CORS(cfg.HTTP.AllowedOrigins),
		middleware.NewHTTPMetrics(reg).Handler(),
	)

	a := &App{
		Engine:   r,
		DB:       db,
		Registry: reg,
		Bookings: bookings,
		Payments: payments,
		Admins:   admins,
		Calendar: cal,
		Catalog:  cat,
		Limiter:  limiter,
		Hub:      hub,
		Events:   pub,
		cfg:      cfg,
		log:      log,
	}

	r.GET("/healthz", a.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	catalogHandler := catalog.NewHandler(cat)
	calendarHandler := calendar.NewHandler(cal, hub)
	bookingHandler := booking.NewHandler(bookings)
	paymentHandler := payment.NewHandler(payments)
	adminHandler := admin.NewHandler(admins)
	auditHandler := audit.NewHandler(recorder)
	filesHandler := storage.NewHandler(store, signer, log)

	api := r.Group("/api")
	{
		catalogHandler.RegisterRoutes(api)
		calendarHandler.RegisterRoutes(api)
		bookingHandler.RegisterRoutes(api)
		paymentHandler.RegisterRoutes(api)
		filesHandler.RegisterRoutes(api)

		adminHandler.RegisterPublicRoutes(api.Group("/admin"))

		protected := api.Group("/admin")
		protected.Use(middleware.JWTAuth(tokens), middleware.AdminOnly())
		{
			adminHandler.RegisterRoutes(protected)
			bookingHandler.RegisterAdminRoutes(protected)
			paymentHandler.RegisterAdminRoutes(protected)
			calendarHandler.RegisterAdminRoutes(protected)
			catalogHandler.RegisterAdminRoutes(protected)
			auditHandler.RegisterAdminRoutes(protected)
		}
	}

	return a, nil
}

// Jobs builds the background runner over this app's limiter and booking service.
func (a *App) Jobs() *jobs.Runner {
	return jobs.NewRunner(a.Limiter, a.Bookings, jobs.Config{
		CleanupInterval: a.cfg.Jobs.CleanupInterval,
		ExpiryInterval:  a.cfg.Jobs.ExpiryInterval,
	}, a.log)
}

func (a *App) Close() error {
	return a.Events.Close()
}

func (a *App) health(c *gin.Context) {
	sqlDB, err := a.DB.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		a.log.Warn("health check failed", zap.Error(err))
		response.Error(c, http.StatusServiceUnavailable, "UNAVAILABLE", "Database tidak tersedia")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}
