package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fintrack/config"
	"fintrack/database"
	"fintrack/logger"
	"fintrack/middleware"
	"fintrack/router"
	"fintrack/service"

	"github.com/joho/godotenv"
)

// @title FinTrack 个人记账 API
// @version 1.0
// @description 个人财务管理 API，支持账户、收支记录、预算提醒和仪表盘统计
// @host localhost:3001
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const version = "1.0.0"

var (
	configFile  string
	port        string
	showVersion bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "外部配置文件路径（可选）")
	flag.StringVar(&configFile, "c", "", "外部配置文件路径（简写）")
	flag.StringVar(&port, "port", "", "监听端口，如: 3001 或 :3001")
	flag.StringVar(&port, "p", "", "监听端口（简写）")
	flag.BoolVar(&showVersion, "version", false, "显示版本信息")
	flag.BoolVar(&showVersion, "v", false, "显示版本信息（简写）")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Printf("FinTrack v%s\n", version)
		return
	}

	// .env 不存在时忽略
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		logger.Log.Fatalf("加载配置失败: %v", err)
	}

	if port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
	}

	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log := logger.WithComponent("main")

	config.PrintConfig()

	if err := database.Init(cfg); err != nil {
		log.Fatalf("数据库初始化失败: %v", err)
	}

	middleware.InitJWT(cfg)

	var digest *service.AlertDigest
	if cfg.Alerts.DigestEnabled {
		digest = service.NewAlertDigest(database.DB, service.NewBudgetTracker(database.DB), service.NewEmailService(&cfg.Email))
		if err := digest.Start(cfg.Alerts.DigestCron); err != nil {
			log.Fatalf("预算提醒任务启动失败: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: router.SetupRouter(ctx, cfg),
	}

	go func() {
		log.WithField("addr", cfg.Server.Port).Info("FinTrack 已启动")
		log.Infof("Swagger: http://localhost%s/swagger/index.html", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("正在关闭服务...")

	if digest != nil {
		digest.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("服务关闭超时")
	}
}
