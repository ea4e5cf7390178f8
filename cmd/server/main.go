package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/admin"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/audit"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/config"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/controllers"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/database"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/logging"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/middleware"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/policy"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/repositories"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/routes"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/services"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/session"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/sms"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/storage"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.Setup(cfg.Logging)
	ctx := context.Background()

	providers, err := telemetry.NewProviders(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName, cfg.Telemetry.Insecure)
	if err != nil {
		fatal("failed to initialize telemetry", err)
	}
	providers.SetGlobal()
	metrics, err := telemetry.NewMetrics(otel.Meter(cfg.Telemetry.ServiceName))
	if err != nil {
		fatal("failed to initialize metrics", err)
	}

	if err := database.RunMigrations(&cfg.Database, database.Up); err != nil {
		fatal("failed to run migrations", err)
	}
	if err := database.Connect(&cfg.Database); err != nil {
		fatal("failed to connect database", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
	}()
	db := database.GetDB()

	students := repositories.NewStudentRepository(db)
	codes := repositories.NewOTPCodeRepository(db)
	attempts := repositories.NewLoginAttemptRepository(db)
	apiLogs := repositories.NewAPILogRepository(db)

	throttle, err := buildThrottle(ctx, cfg, logger)
	if err != nil {
		fatal("failed to compile throttle policy", err)
	}

	codec, err := session.NewCodec(cfg.Session.Secret)
	if err != nil {
		fatal("failed to initialize session codec", err)
	}
	cookies := session.NewCookies(codec, cfg.Session.CookieName, cfg.Server.IsProduction())

	recorder := audit.NewRecorder(apiLogs, audit.Options{
		Publisher: buildPublisher(cfg, logger),
		Metrics:   metrics,
		Logger:    logger,
	})

	store, err := storage.New(cfg)
	if err != nil {
		fatal("failed to initialize storage", err)
	}

	// Initialize services
	authService := services.NewAuthService(students, codes, attempts, throttle, buildSender(cfg, logger), services.AuthOptions{
		OTPTTL:         cfg.OTP.GetTTL(),
		SessionTTL:     cfg.Session.GetTTL(),
		ThrottleWindow: cfg.Throttle.GetWindow(),
		SMSTimeout:     cfg.SMS.GetTimeout(),
		Metrics:        metrics,
		Logger:         logger,
	})
	studentService := services.NewStudentService(students)
	logService := services.NewLogService(apiLogs, attempts, students)
	mediaService := services.NewMediaService(store, int64(cfg.Storage.MaxFileSizeMB)<<20)

	// Initialize controllers
	handlers := routes.Handlers{
		Auth:         controllers.NewAuthController(authService, cookies),
		Admin:        controllers.NewAdminController(studentService, logService),
		Jobs:         controllers.NewJobController(services.NewJobService(db), authService),
		Tasks:        controllers.NewTaskController(services.NewTaskService(db), authService),
		Catalog:      controllers.NewCatalogController(services.NewSkillService(db), services.NewCourseService(db), authService),
		Learning:     controllers.NewLearningController(services.NewLearningService(db), authService),
		Certificates: controllers.NewCertificateController(services.NewCertificateService(db), authService),
		Dashboard:    controllers.NewDashboardController(services.NewDashboardService(db)),
		Media:        controllers.NewMediaController(mediaService),
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		middleware.Tracing(),
		middleware.RequestLogger(logger),
		middleware.SessionLoader(cookies),
	)

	api := routes.SetupRoutes(router, handlers, routes.Guards{
		Session: middleware.RequireSession(),
		Admin:   middleware.RequireAdmin(authService),
		Audit:   middleware.AuditLog(recorder),
	})
	admin.Setup(api, admin.Maintenance{
		Codes:     codes,
		Logs:      apiLogs,
		Secret:    cfg.Cleanup.Secret,
		Retention: cfg.Audit.GetRetention(),
	})

	readTimeout, _ := cfg.Server.GetReadTimeout()
	writeTimeout, _ := cfg.Server.GetWriteTimeout()
	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	go func() {
		logger.Info("server running", "addr", srv.Addr, "storage", cfg.Storage.Type, "cloud", cfg.CloudStorage.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("failed to run server", err)
		}
	}()

	waitForShutdown()

	shutdownTimeout, err := cfg.Server.GetShutdownTimeout()
	if err != nil || shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if err := recorder.Close(shutdownCtx); err != nil {
		logger.Error("audit drain failed", "error", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown failed", "error", err)
	}
}

func buildThrottle(ctx context.Context, cfg *config.Config, logger *slog.Logger) (policy.Throttle, error) {
	if !cfg.Throttle.Enabled {
		return policy.AllowAll{}, nil
	}
	opa, err := policy.NewOPAThrottle(ctx, "", cfg.Throttle.GetWindow(), cfg.Throttle.MaxAttempts)
	if err != nil {
		return nil, err
	}
	return policy.FailOpen{Throttle: opa, Logger: logger}, nil
}

func buildSender(cfg *config.Config, logger *slog.Logger) sms.Sender {
	if !cfg.SMS.Enabled {
		return sms.LogSender{Logger: logger}
	}
	return sms.NewSenderGEClient(cfg.SMS.APIKey, cfg.SMS.BaseURL, cfg.SMS.GetTimeout())
}

// buildPublisher returns nil when no brokers are configured, which keeps
// audit persistence database-only.
func buildPublisher(cfg *config.Config, logger *slog.Logger) audit.Publisher {
	if len(cfg.Audit.KafkaBrokers) == 0 {
		return nil
	}
	pub, err := audit.NewKafkaPublisher(cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic)
	if err != nil {
		logger.Warn("kafka audit publisher disabled", "error", err)
		return nil
	}
	return pub
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func waitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down server")
}
