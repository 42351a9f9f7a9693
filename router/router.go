package router

import (
	"context"
	"net/http"
	"time"

	"fintrack/api"
	"fintrack/config"
	_ "fintrack/docs"
	"fintrack/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// 登录限流：每 IP 15 分钟内最多 10 次
const (
	loginMaxAttempts = 10
	loginWindow      = 15 * time.Minute
)

// SetupRouter 设置路由，ctx 结束时限流清理协程随之退出
func SetupRouter(ctx context.Context, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(CORSMiddleware(cfg.Server.FrontendURL))

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiGroup := r.Group("/api")

	// 健康检查
	apiGroup.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// 认证相关路由（无需登录）
	authHandler := api.NewAuthHandler(cfg)
	passwordResetHandler := api.NewPasswordResetHandler(cfg)
	googleHandler := api.NewGoogleAuthHandler(cfg)
	auth := apiGroup.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", middleware.LoginRateLimit(ctx, loginMaxAttempts, loginWindow), authHandler.Login)
		auth.POST("/forgot-password", passwordResetHandler.ForgotPassword)
		auth.POST("/reset-password/:token", passwordResetHandler.ResetPassword)
		auth.GET("/google", googleHandler.Redirect)
		auth.GET("/google/callback", googleHandler.Callback)
	}

	// 需要 JWT 认证的路由
	authorized := apiGroup.Group("")
	authorized.Use(middleware.JWTAuth())
	{
		userHandler := api.NewUserHandler()
		user := authorized.Group("/user")
		{
			user.GET("/profile", userHandler.Profile)
			user.PUT("/profile", userHandler.UpdateProfile)
			user.PUT("/password", userHandler.ChangePassword)
		}

		accountHandler := api.NewAccountHandler()
		accounts := authorized.Group("/accounts")
		{
			accounts.GET("", accountHandler.List)
			accounts.POST("", accountHandler.Create)
			accounts.POST("/transfer", accountHandler.Transfer)
			accounts.GET("/:id", accountHandler.Get)
			accounts.PUT("/:id", accountHandler.Update)
			accounts.DELETE("/:id", accountHandler.Delete)
		}

		transactionHandler := api.NewTransactionHandler()
		transactions := authorized.Group("/transactions")
		{
			transactions.GET("", transactionHandler.List)
			transactions.POST("", transactionHandler.Create)
			transactions.GET("/:id", transactionHandler.Get)
			transactions.PUT("/:id", transactionHandler.Update)
			transactions.DELETE("/:id", transactionHandler.Delete)
		}

		budgetHandler := api.NewBudgetHandler()
		budgets := authorized.Group("/budgets")
		{
			budgets.GET("", budgetHandler.List)
			budgets.POST("", budgetHandler.Create)
			budgets.GET("/alerts/check", budgetHandler.CheckAlerts)
			budgets.GET("/:id", budgetHandler.Get)
			budgets.PUT("/:id", budgetHandler.Update)
			budgets.DELETE("/:id", budgetHandler.Delete)
		}

		dashboardHandler := api.NewDashboardHandler(cfg.Dashboard.MonthBucket)
		authorized.GET("/dashboard/stats", dashboardHandler.Stats)
	}

	r.NoRoute(func(c *gin.Context) {
		api.NotFound(c, "Route not found")
	})

	return r
}

// CORSMiddleware CORS 跨域中间件，allowOrigin 为空时允许任意来源
func CORSMiddleware(allowOrigin string) gin.HandlerFunc {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
