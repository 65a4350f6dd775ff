package queue

import (
	"context"
	"fmt"
	"tle_zone_studio/internal/platform/config"
	"tle_zone_studio/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

var RDB *redis.Client

func ConnectRedis() error {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	if _, err := RDB.Ping(context.Background()).Result(); err != nil {
		return fmt.Errorf("could not connect to Redis: %w", err)
	}
	logger.Log.Infow("connected to Redis", "addr", config.AppConfig.RedisAddr)
	return nil
}

func CloseRedis() {
	if RDB != nil {
		RDB.Close()
		logger.Log.Info("redis connection closed")
	}
}
