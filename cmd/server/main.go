package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pclub/portal/api/internal/cache"
	"github.com/pclub/portal/api/internal/codeforces"
	"github.com/pclub/portal/api/internal/config"
	"github.com/pclub/portal/api/internal/database"
	"github.com/pclub/portal/api/internal/handler"
	"github.com/pclub/portal/api/internal/jobs"
	"github.com/pclub/portal/api/internal/logger"
	"github.com/pclub/portal/api/internal/mailer"
	"github.com/pclub/portal/api/internal/middleware"
	"github.com/pclub/portal/api/internal/repository"
	"github.com/pclub/portal/api/internal/service"
	"github.com/pclub/portal/api/internal/upload"
	"github.com/pclub/portal/api/migrations"
	"github.com/pclub/portal/api/pkg/jwt"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	log, syncLog := logger.New(cfg.IsProduction())
	slog.SetDefault(log)
	defer func() { _ = syncLog() }()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handler.SetErrorDetail(!cfg.IsProduction())

	trustedProxies, err := cfg.Server.TrustedProxyPrefixes()
	if err != nil {
		slog.Error("invalid trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	if err := database.Migrate(ctx, db, migrations.FS); err != nil {
		slog.Error("failed to apply schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize cache
	kv, err := cache.Connect(ctx, cache.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		slog.Error("failed to connect to cache", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = kv.Close() }()

	// Initialize JWT service
	jwtService, err := jwt.NewService(jwt.Config{
		Secret:    []byte(cfg.JWT.Secret),
		Issuer:    cfg.JWT.Issuer,
		AccessTTL: cfg.JWT.AccessTTL,
		OTPTTL:    cfg.JWT.OTPTTL,
	})
	if err != nil {
		slog.Error("failed to initialize JWT service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Outbound integrations
	var mail mailer.Mailer
	if cfg.Mail.Username != "" {
		mail = mailer.NewSMTP(mailer.Config{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			FromName: cfg.Mail.FromName,
		})
	} else {
		slog.Warn("SMTP credentials not set, emails will be logged")
		mail = mailer.NewLog(log)
	}

	var uploader upload.Uploader = upload.Disabled{}
	if cfg.Cloudinary.IsConfigured() {
		cld, err := upload.NewCloudinary(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
		if err != nil {
			slog.Error("failed to initialize image uploads", slog.String("error", err.Error()))
			os.Exit(1)
		}
		uploader = cld
	} else {
		slog.Warn("cloudinary not configured, image uploads disabled")
	}

	cf := codeforces.NewClient(cfg.Codeforces.BaseURL, cfg.Codeforces.Timeout)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	galleryRepo := repository.NewGalleryRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	noticeRepo := repository.NewNoticeRepository(db)
	contactRepo := repository.NewContactRepository(db)
	recruitmentRepo := repository.NewRecruitmentRepository(db)
	formRepo := repository.NewFormRepository(db)
	blogRepo := repository.NewBlogRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	cpRepo := repository.NewCPRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	// Initialize services
	authService := service.NewAuthService(service.AuthServiceConfig{
		UserRepo:    userRepo,
		EventRepo:   eventRepo,
		Store:       kv,
		Mailer:      mail,
		JWT:         jwtService,
		EmailDomain: cfg.Auth.AllowedEmailDomain,
		OTPTTL:      cfg.JWT.OTPTTL,
	})

	adminService := service.NewAdminService(service.AdminServiceConfig{
		UserRepo:  userRepo,
		EventRepo: eventRepo,
		Stats:     statsRepo,
	})

	eventService := service.NewEventService(service.EventServiceConfig{
		EventRepo:        eventRepo,
		RegistrationRepo: registrationRepo,
		Uploader:         uploader,
	})

	registrationService := service.NewRegistrationService(service.RegistrationServiceConfig{
		EventRepo:        eventRepo,
		UserRepo:         userRepo,
		RegistrationRepo: registrationRepo,
		Store:            kv,
		Mailer:           mail,
		JWT:              jwtService,
	})

	verificationService := service.NewHandleVerificationService(service.HandleVerificationServiceConfig{
		UserRepo:   userRepo,
		Store:      kv,
		Codeforces: cf,
	})

	clubService := service.NewClubService(service.ClubServiceConfig{
		GalleryRepo: galleryRepo,
		MemberRepo:  memberRepo,
		NoticeRepo:  noticeRepo,
		ContactRepo: contactRepo,
		Uploader:    uploader,
	})

	recruitmentService := service.NewRecruitmentService(recruitmentRepo, uploader)

	formService := service.NewFormService(service.FormServiceConfig{
		FormRepo:         formRepo,
		EventRepo:        eventRepo,
		RegistrationRepo: registrationRepo,
	})

	blogService := service.NewBlogService(service.BlogServiceConfig{
		BlogRepo:    blogRepo,
		CommentRepo: commentRepo,
		LikeRepo:    likeRepo,
		UserRepo:    userRepo,
	})

	cpService := service.NewCPService(service.CPServiceConfig{
		Repo:       cpRepo,
		UserRepo:   userRepo,
		Codeforces: cf,
	})

	leaderboardService := service.NewLeaderboardService(service.LeaderboardServiceConfig{
		Solves:    cpRepo,
		Users:     userRepo,
		Snapshots: snapshotRepo,
	})

	// Initialize background jobs
	snapshotJob := jobs.NewLeaderboardSnapshotJob(jobs.LeaderboardSnapshotJobConfig{
		Snapshots: leaderboardService,
	})
	snapshotJob.Start()
	defer snapshotJob.Stop()

	// Rate limiters share the Redis counters so limits hold across instances
	generalLimiter := middleware.NewRateLimiter(kv, middleware.RateLimitConfig{
		Scope:  "api",
		Rate:   100,
		Window: time.Minute,
	})
	otpLimit := middleware.RateLimit(middleware.NewRateLimiter(kv, middleware.RateLimitConfig{
		Scope:  "otp",
		Rate:   5,
		Window: 10 * time.Minute,
	}))
	requireAuth := middleware.Auth(jwtService)

	// Create router and register routes
	mux := http.NewServeMux()

	healthHandler := handler.NewHealthHandler(db, kv)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.Handle("GET /metrics", middleware.MetricsHandler())

	handler.NewAuthHandler(authService).RegisterRoutes(mux, otpLimit)
	handler.NewAdminHandler(adminService).RegisterRoutes(mux)
	handler.NewVerificationHandler(verificationService).RegisterRoutes(mux)
	handler.NewEventHandler(handler.EventHandlerConfig{
		EventService:        eventService,
		RegistrationService: registrationService,
	}).RegisterRoutes(mux, otpLimit)
	handler.NewClubHandler(clubService).RegisterRoutes(mux, otpLimit)
	handler.NewRecruitmentHandler(recruitmentService).RegisterRoutes(mux)
	handler.NewFormHandler(formService).RegisterRoutes(mux)
	handler.NewBlogHandler(blogService).RegisterRoutes(mux, requireAuth)
	handler.NewCPHandler(handler.CPHandlerConfig{
		CPService:          cpService,
		LeaderboardService: leaderboardService,
	}).RegisterRoutes(mux)

	// Apply global middleware. Metrics stays innermost so the matched
	// route pattern is visible on the request.
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.RealIP(trustedProxies),
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.OptionalAuth(jwtService),
		middleware.Gate(authService, middleware.DefaultGateRules()),
		middleware.RateLimit(generalLimiter),
		middleware.Compress,
		middleware.Metrics,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}
