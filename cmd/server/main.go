package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"GuardLink/internal/alert"
	"GuardLink/internal/handler"
	"GuardLink/internal/listeners"
	"GuardLink/internal/models"
	"GuardLink/internal/presence"
	"GuardLink/internal/proximity"
	"GuardLink/internal/store"
	"GuardLink/pkg/cache"
	"GuardLink/pkg/config"
	"GuardLink/pkg/logger"
	"GuardLink/pkg/metrics"
	"GuardLink/pkg/push"
	"GuardLink/pkg/util"
	"GuardLink/pkg/websocket"
)

func main() {
	// 1. 加载配置
	if err := config.Load(); err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	cfg := config.GlobalConfig

	// 2. 初始化日志
	if err := logger.Init(cfg.Log); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer logger.Sync()

	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 3. 打开数据库并迁移表结构
	db, err := util.OpenDatabase(&gorm.Config{}, cfg.DBDriver, cfg.DSN)
	if err != nil {
		logger.Error("连接数据库失败", zap.Error(err))
		os.Exit(1)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		logger.Error("数据库迁移失败", zap.Error(err))
		os.Exit(1)
	}

	// 4. 初始化缓存
	cacheClient, err := cache.NewCache(cfg.Cache)
	if err != nil {
		logger.Error("初始化缓存失败", zap.Error(err))
		os.Exit(1)
	}
	defer cacheClient.Close()

	m := metrics.NewMetrics()

	// 5. 启动WebSocket Hub与在线表
	wsConfig := websocket.LoadConfigFromEnv()
	if err := websocket.ValidateConfig(wsConfig); err != nil {
		logger.Error("WebSocket配置无效", zap.Error(err))
		os.Exit(1)
	}
	hub := websocket.NewHub(wsConfig)
	defer hub.Close()

	registry := presence.NewMemoryRegistry()
	hub.AddLifecycleListener(presence.NewHubListener(registry, hub, m))

	// 6. 存储与业务协作方
	identity := store.NewIdentityStore(db)
	membership := store.NewMembershipStore(db, cacheClient)
	locations := store.NewLocationStore(db)
	searcher := proximity.NewScanSearcher(locations)

	provider := push.NewExpoProvider(cfg.Push)
	dispatcher := push.NewDispatcher(provider, cfg.PushBatchSize)

	orchestrator := alert.NewOrchestrator(
		identity, membership, registry, searcher, dispatcher,
		alert.WithRadiusKm(cfg.PublicAlertRadiusKm),
		alert.WithMetrics(m),
	)

	listeners.RegisterAlertListeners()

	// WebSocket上行的位置消息与HTTP上报共用同一写入口
	locationHandler := handler.NewLocationHandler(locations)
	hub.SetMessageHandler(locationHandler.WSMessageHandler())

	// 7. 位置样本定时清理
	if cfg.LocationRetentionDays > 0 {
		sweeper := cron.New()
		_, err := sweeper.AddFunc(cfg.LocationSweepSchedule, func() {
			cutoff := time.Now().AddDate(0, 0, -cfg.LocationRetentionDays)
			deleted, sweepErr := locations.DeleteOlderThan(context.Background(), cutoff)
			if sweepErr != nil {
				logger.Error("清理过期位置失败", zap.Error(sweepErr))
				return
			}
			logger.Info("过期位置已清理",
				zap.Int64("deleted", deleted),
				zap.Time("cutoff", cutoff))
		})
		if err != nil {
			logger.Error("注册清理任务失败", zap.Error(err))
			os.Exit(1)
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	// 8. 组装路由并启动HTTP服务
	router, err := handler.NewRouter(handler.Deps{
		DB:             db,
		Trigger:        orchestrator,
		Locations:      locations,
		Hub:            hub,
		Metrics:        m,
		AlertRateLimit: cfg.AlertRateLimit,
	})
	if err != nil {
		logger.Error("组装路由失败", zap.Error(err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	go func() {
		logger.Info("服务启动", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP服务异常退出", zap.Error(err))
			os.Exit(1)
		}
	}()

	// 9. 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("收到退出信号，开始关闭")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP服务关闭失败", zap.Error(err))
	}
	logger.Info("服务已退出")
}
