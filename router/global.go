package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	appConfig "github.com/Xushengqwer/community_service/config"
	"github.com/Xushengqwer/community_service/constant"
	"github.com/Xushengqwer/community_service/controller"
	"github.com/Xushengqwer/community_service/core"
	"github.com/Xushengqwer/community_service/middleware"
)

// Controllers 汇总需要注册到 /api/v1/community 下的控制器
type Controllers struct {
	Community  *controller.CommunityController
	Post       *controller.PostController
	Message    *controller.MessageController
	Feed       *controller.FeedController
	User       *controller.UserController
	Moderation *controller.ModerationController
}

// SetupRouter 仅负责配置 Gin 引擎、中间件和路由注册。
// rateLimiter 为 nil 时不启用写接口限流。
func SetupRouter(
	logger *core.ZapLogger,
	cfg *appConfig.CommunityConfig,
	controllers Controllers,
	rateLimiter *middleware.RateLimiter,
) *gin.Engine {
	logger.Info("开始设置 Gin 路由...")

	router := gin.New()

	// 1. OTel 最先，后续中间件和日志都依赖它建立的 Span
	router.Use(otelgin.Middleware(constant.ServiceName))

	// 2. Panic Recovery
	router.Use(middleware.ErrorHandlingMiddleware(logger))

	// 3. 访问日志
	router.Use(middleware.RequestLoggerMiddleware(logger.Logger()))

	// 4. 请求指标
	router.Use(middleware.MetricsMiddleware())

	// 5. 跨域
	if len(cfg.CORSConfig.AllowOrigins) > 0 {
		router.Use(cors.New(buildCORSConfig(cfg.CORSConfig)))
	}

	// 6. 超时控制
	requestTimeout := time.Duration(cfg.ServerConfig.RequestTimeout) * time.Second
	router.Use(middleware.RequestTimeoutMiddleware(logger, requestTimeout))

	// 7. 用户上下文
	router.Use(middleware.UserContextMiddleware())

	// 8. 限流放在用户上下文之后，才能按用户分桶
	if rateLimiter != nil {
		router.Use(middleware.RateLimitMiddleware(rateLimiter))
	}
	logger.Debug("已注册全局中间件")

	v1 := router.Group("/api/v1/community")
	controllers.Community.RegisterRoutes(v1)
	controllers.Post.RegisterRoutes(v1)
	controllers.Message.RegisterRoutes(v1)
	controllers.Feed.RegisterRoutes(v1)
	controllers.User.RegisterRoutes(v1)
	controllers.Moderation.RegisterRoutes(v1)
	logger.Info("所有控制器路由已注册到 /api/v1/community 分组")

	// swagger.json 由 swag init 生成
	swaggerURL := ginSwagger.URL("/swagger/doc.json")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, swaggerURL))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	logger.Info("Gin 路由器设置完成")
	return router
}

func buildCORSConfig(cfg appConfig.CORSConfig) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = cfg.AllowOrigins
	corsCfg.AllowCredentials = cfg.AllowCredentials
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsCfg.AddAllowHeaders(constant.UserIDHeader, "Authorization")
	if cfg.MaxAgeSeconds > 0 {
		corsCfg.MaxAge = time.Duration(cfg.MaxAgeSeconds) * time.Second
	}
	return corsCfg
}
