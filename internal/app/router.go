package app

import (
	"vocal_eval_backend/docs"
	"vocal_eval_backend/internal/config"
	"vocal_eval_backend/internal/middleware"
	"vocal_eval_backend/internal/model"
	"vocal_eval_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerInstructorRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		// 生成器完成回调，凭 videoRecordId 匹配处理中的报告
		public.POST("/webhook/report-completed", c.report.Callback)
	}
}

func (a *App) registerInstructorRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)
	rg.PUT("/profile", c.auth.UpdateProfile)

	// 学员管理
	rg.POST("/students", c.student.Register)
	rg.GET("/students", c.student.Search)
	rg.GET("/students/:id", c.student.Get)

	// 演唱录像
	rg.POST("/video-records", c.videoRecord.Register)
	rg.GET("/video-records/:id", c.videoRecord.Get)
	rg.GET("/students/:id/video-records", c.videoRecord.ListByStudent)

	// 评价
	rg.POST("/evaluations", c.evaluation.Submit)
	rg.GET("/video-records/:id/evaluations", c.evaluation.ListByVideoRecord)
	rg.GET("/video-records/:id/evaluations/count", c.evaluation.CountByVideoRecord)
	rg.GET("/students/:id/evaluation-summary", c.evaluation.StudentSummary)

	// 报告生成与查询
	rg.POST("/reports/generate", c.report.Generate)
	rg.GET("/reports", middleware.RoleMiddleware(model.RoleInstructor), c.report.List)
	rg.GET("/reports/:id", c.report.GetStatus)
	rg.GET("/video-records/:id/reports/latest", c.report.LatestByVideoRecord)
}
