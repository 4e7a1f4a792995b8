package config

import (
	"log"
	"os"
	"time"

	"GuardLink/pkg/cache"
	"GuardLink/pkg/logger"
	"GuardLink/pkg/push"
	"GuardLink/pkg/util"
)

// Config 全局配置
type Config struct {
	DBDriver string `env:"DB_DRIVER"`
	DSN      string `env:"DSN"`
	Addr     string `env:"ADDR"`
	Mode     string `env:"MODE"`

	Log   logger.LogConfig
	Cache cache.Config
	Push  push.ExpoConfig

	// 公共告警的默认搜索半径（公里）
	PublicAlertRadiusKm float64 `env:"PUBLIC_ALERT_RADIUS_KM"`

	// 推送批次大小
	PushBatchSize int `env:"PUSH_BATCH_SIZE"`

	// 告警接口限流（如 "10-M"）
	AlertRateLimit string `env:"ALERT_RATE_LIMIT"`

	// 位置样本保留天数，0表示不清理
	LocationRetentionDays int `env:"LOCATION_RETENTION_DAYS"`

	// 位置清理任务的cron表达式
	LocationSweepSchedule string `env:"LOCATION_SWEEP_SCHEDULE"`
}

var GlobalConfig *Config

func Load() error {
	// 1. 根据环境加载 .env 文件
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development" // 默认使用开发环境
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	// 2. 加载全局配置
	GlobalConfig = &Config{
		DBDriver: util.GetEnv("DB_DRIVER"),
		DSN:      util.GetEnv("DSN"),
		Addr:     util.GetEnvDefault("ADDR", ":8080"),
		Mode:     util.GetEnv("MODE"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		Cache: cache.Config{
			Type: util.GetEnvDefault("CACHE_TYPE", "gocache"),
			Redis: cache.RedisConfig{
				Addr:         util.GetEnvDefault("REDIS_ADDR", "localhost:6379"),
				Password:     util.GetEnv("REDIS_PASSWORD"),
				DB:           int(util.GetIntEnv("REDIS_DB")),
				PoolSize:     int(util.GetIntEnv("REDIS_POOL_SIZE")),
				MinIdleConns: int(util.GetIntEnv("REDIS_MIN_IDLE_CONNS")),
				DialTimeout:  5 * time.Second,
				ReadTimeout:  3 * time.Second,
				WriteTimeout: 3 * time.Second,
			},
			Local: cache.LocalConfig{
				DefaultExpiration: 30 * time.Second,
				CleanupInterval:   5 * time.Minute,
			},
		},
		Push: push.ExpoConfig{
			Endpoint:    util.GetEnv("EXPO_PUSH_ENDPOINT"),
			AccessToken: util.GetEnv("EXPO_ACCESS_TOKEN"),
			Timeout:     time.Duration(util.GetIntEnv("EXPO_PUSH_TIMEOUT_SECONDS")) * time.Second,
		},
		PublicAlertRadiusKm:   util.GetFloatEnv("PUBLIC_ALERT_RADIUS_KM"),
		PushBatchSize:         int(util.GetIntEnv("PUSH_BATCH_SIZE")),
		AlertRateLimit:        util.GetEnvDefault("ALERT_RATE_LIMIT", "10-M"),
		LocationRetentionDays: int(util.GetIntEnv("LOCATION_RETENTION_DAYS")),
		LocationSweepSchedule: util.GetEnvDefault("LOCATION_SWEEP_SCHEDULE", "0 4 * * *"),
	}

	if GlobalConfig.PublicAlertRadiusKm <= 0 {
		GlobalConfig.PublicAlertRadiusKm = 3.0
	}
	return nil
}
