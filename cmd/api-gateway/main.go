package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/mannsetu-api/api/swagger"
	"github.com/noah-isme/mannsetu-api/internal/handler"
	"github.com/noah-isme/mannsetu-api/internal/middleware"
	"github.com/noah-isme/mannsetu-api/internal/repository"
	"github.com/noah-isme/mannsetu-api/internal/service"
	"github.com/noah-isme/mannsetu-api/pkg/ai"
	"github.com/noah-isme/mannsetu-api/pkg/cache"
	"github.com/noah-isme/mannsetu-api/pkg/config"
	"github.com/noah-isme/mannsetu-api/pkg/database"
	"github.com/noah-isme/mannsetu-api/pkg/events"
	"github.com/noah-isme/mannsetu-api/pkg/export"
	"github.com/noah-isme/mannsetu-api/pkg/jobs"
	"github.com/noah-isme/mannsetu-api/pkg/logger"
	"github.com/noah-isme/mannsetu-api/pkg/storage"
)

// @title MannSetu API
// @version 1.0.0
// @description Student mental wellness platform: screenings, counselor booking, peer support and the AI companion relay.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	if cfg.RunMigrations {
		if err := database.Migrate(ctx, db.DB); err != nil {
			return err
		}
		logr.Info("migrations applied")
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, roster cache disabled", zap.Error(err))
		} else {
			redisRepo := repository.NewCacheRepository(client, logr)
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo = redisRepo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cacheRepo != nil)

	dispatcher, err := newDispatcher(cfg.Events, logr)
	if err != nil {
		return err
	}
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	generator, err := ai.New(ctx, cfg.AI)
	switch {
	case errors.Is(err, ai.ErrMissingAPIKey):
		logr.Warn("GEMINI_API_KEY not set, companion relay will answer with a configuration error")
	case err != nil:
		return fmt.Errorf("init generative model: %w", err)
	default:
		defer generator.Close() //nolint:errcheck
	}

	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)
	var documents storage.DocumentStore
	var localFiles *storage.LocalStorage
	switch cfg.Storage.Driver {
	case "cloudinary":
		documents, err = storage.NewCloudinaryStorage(cfg.Storage.CloudinaryName, cfg.Storage.CloudinaryKey, cfg.Storage.CloudinarySecret, cfg.Storage.CloudinaryFolder)
	default:
		localFiles, err = storage.NewLocalStorage(cfg.Storage.Dir, storage.VerificationBucket, cfg.Storage.PublicBaseURL, signer)
		documents = localFiles
	}
	if err != nil {
		return fmt.Errorf("init document storage: %w", err)
	}

	users := repository.NewUserRepository(db)
	students := repository.NewStudentRepository(db)
	counselors := repository.NewCounselorRepository(db)
	institutes := repository.NewInstituteRepository(db)
	bookings := repository.NewBookingRepository(db)
	availability := repository.NewAvailabilityRepository(db)
	screenings := repository.NewScreeningRepository(db)
	wellness := repository.NewWellnessRepository(db)
	forums := repository.NewForumRepository(db)
	chats := repository.NewChatRepository(db)

	authSvc := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "mannsetu-api",
	}, service.WithCounselorStatus(counselors))
	identity := service.NewIdentityService(students, counselors, institutes, logr)
	signup := service.NewSignupService(users, students, institutes, documents, validate, logr, service.SignupConfig{
		MaxDocumentBytes: cfg.Storage.MaxFileSizeBytes,
		AllowedMIMEs:     cfg.Storage.AllowedMIMEs,
	})
	studentSvc := service.NewStudentService(service.StudentServiceDeps{
		Identity:   identity,
		Profiles:   students,
		Screenings: screenings,
		Wellness:   wellness,
		Bookings:   bookings,
		Events:     dispatcher,
		Metrics:    metrics,
		Validator:  validate,
		Logger:     logr,
	})
	bookingSvc := service.NewBookingService(service.BookingServiceDeps{
		Identity:     identity,
		Counselors:   counselors,
		Availability: availability,
		Slots:        bookings,
		Cache:        cacheSvc,
		Events:       dispatcher,
		Metrics:      metrics,
		Validator:    validate,
		Logger:       logr,
		SlotDuration: cfg.Booking.SlotDuration,
	})
	exporter := service.NewExportService(export.NewCSVExporter(), export.NewPDFExporter())
	counselorSvc := service.NewCounselorService(identity, bookings, exporter, dispatcher, validate, metrics, logr)
	instituteSvc := service.NewInstituteService(service.InstituteServiceDeps{
		Identity:     identity,
		Users:        users,
		Counselors:   counselors,
		Students:     students,
		Bookings:     bookings,
		Availability: availability,
		Slots:        bookings,
		Cache:        cacheSvc,
		Validator:    validate,
		Logger:       logr,
		SlotDuration: cfg.Booking.SlotDuration,
		MaxRangeDays: cfg.Booking.MaxGenerateRangeDays,
	})
	peerSvc := service.NewPeerSupportService(identity, forums, validate, logr)
	relaySvc := service.NewRelayService(generator, chats, metrics, logr)
	adminSvc := service.NewAdminService(institutes, users, documents, metrics, validate, logr)

	materializer := service.NewSlotMaterializer(counselors, availability, bookings, service.SlotMaterializerConfig{
		Days:         cfg.Booking.MaterializeDays,
		Interval:     cfg.Booking.MaterializeInterval,
		SlotDuration: cfg.Booking.SlotDuration,
	}, logr)
	materializer.Start(ctx)
	defer materializer.Stop()

	var files *handler.FilesHandler
	if localFiles != nil {
		files = handler.NewFilesHandler(localFiles)
	}

	router := newRouter(cfg, logr, routes{
		auth:      handler.NewAuthHandler(authSvc, signup, identity),
		student:   handler.NewStudentHandler(studentSvc),
		booking:   handler.NewBookingHandler(bookingSvc),
		counselor: handler.NewCounselorHandler(counselorSvc),
		institute: handler.NewInstituteHandler(instituteSvc),
		peer:      handler.NewPeerHandler(peerSvc),
		relay:     handler.NewRelayHandler(relaySvc),
		admin:     handler.NewAdminHandler(adminSvc),
		metrics:   handler.NewMetricsHandler(metrics, db),
		files:     files,
		tokens:    authSvc,
		audit:     users,
		limiter:   middleware.NewIPRateLimiter(cfg.Relay.RatePerMinute, cfg.Relay.Burst),
		metricsMW: metrics,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newDispatcher(cfg config.EventsConfig, logr *zap.Logger) (*events.Dispatcher, error) {
	var publisher events.Publisher = events.NewLogPublisher(logr)
	if cfg.Enabled {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.Brokers, cfg.BookingTopic, logr)
		if err != nil {
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		publisher = kafkaPublisher
	}
	return events.NewDispatcher(publisher, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logr,
	}), nil
}
