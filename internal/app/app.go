package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vocal_eval_backend/internal/config"
	"vocal_eval_backend/internal/controller"
	"vocal_eval_backend/internal/repository"
	"vocal_eval_backend/internal/service"
	"vocal_eval_backend/pkg/configwatcher"
	"vocal_eval_backend/pkg/database"
	"vocal_eval_backend/pkg/logger"
	"vocal_eval_backend/pkg/monitoring"
	"vocal_eval_backend/pkg/security"
	"vocal_eval_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracerProvider  *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	instructor  *repository.InstructorRepository
	student     *repository.StudentRepository
	videoRecord *repository.VideoRecordRepository
	evaluation  *repository.EvaluationRepository
	report      *repository.ReportRepository
}

type services struct {
	auth        *service.AuthService
	instructor  *service.InstructorService
	student     *service.StudentService
	videoRecord *service.VideoRecordService
	evaluation  *service.EvaluationService
	storage     *service.StorageService
	generator   *service.GeneratorService
	report      *service.ReportService
}

type controllers struct {
	auth        *controller.AuthController
	student     *controller.StudentController
	videoRecord *controller.VideoRecordController
	evaluation  *controller.EvaluationController
	report      *controller.ReportController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		instructor:  repository.NewInstructorRepository(db),
		student:     repository.NewStudentRepository(db),
		videoRecord: repository.NewVideoRecordRepository(db),
		evaluation:  repository.NewEvaluationRepository(db),
		report:      repository.NewReportRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.generator = service.NewGeneratorService(cfg.Generator)
	s.auth = service.NewAuthService(repos.instructor, cfg)
	s.instructor = service.NewInstructorService(repos.instructor, rdb)
	s.student = service.NewStudentService(repos.student)
	s.videoRecord = service.NewVideoRecordService(repos.videoRecord, repos.student)
	s.evaluation = service.NewEvaluationService(repos.evaluation, repos.videoRecord)

	s.report = service.NewReportService(
		repos.report,
		repos.evaluation,
		repos.videoRecord,
		repos.student,
		s.generator,
		s.storage,
		cfg,
	)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth, s.instructor),
		student:     controller.NewStudentController(s.student),
		videoRecord: controller.NewVideoRecordController(s.videoRecord),
		evaluation:  controller.NewEvaluationController(s.evaluation),
		report:      controller.NewReportController(s.report),
		health:      controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 100000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// Redis 只承载导师资料缓存，连不上时降级为直连数据库
		logger.Log.Warn("Failed to initialize redis, profile cache disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("vocal-eval", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracerProvider = tp
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	// 配置热更新：目前只有生成器地址支持运行期替换
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		services.generator.UpdateConfig(newCfg.Generator)
	})
	go configwatcher.WatchConfig("configs/config.yaml", func(newCfg *config.Config) {
		for _, callback := range app.configCallbacks {
			callback(newCfg)
		}
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	log.Println("Server exiting")
}
