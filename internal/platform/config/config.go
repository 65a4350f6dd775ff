package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SubmissionModeQueue  = "queue"
	SubmissionModeDirect = "direct"
)

type Config struct {
	APIPort           string
	DraftTokenKey     []byte
	DraftTokenExp     time.Duration
	LogLevel          string
	DefaultTheme      string
	EditorHeight      string
	ProblemLevels     []string
	ProblemCategories []string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SubmissionMode           string
	SubmissionQueueName      string
	SubmissionLockTTLSeconds int
	SubmissionTimeout        time.Duration
	ProblemCacheTTL          time.Duration

	DraftIdleTimeout  time.Duration
	DraftReapSchedule string
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	AppConfig = FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() *Config {
	cfg := &Config{
		APIPort:           getEnv("API_PORT", "8080"),
		DraftTokenKey:     []byte(getEnv("DRAFT_TOKEN_SECRET", "defaultsecret")),
		DraftTokenExp:     time.Duration(getEnvAsInt("DRAFT_TOKEN_TTL_HOURS", 12)) * time.Hour,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DefaultTheme:      getEnv("DEFAULT_THEME", "vs-dark"),
		EditorHeight:      getEnv("EDITOR_HEIGHT", "100%"),
		ProblemLevels:     getEnvAsList("PROBLEM_LEVELS", []string{"Easy", "Medium", "Hard"}),
		ProblemCategories: getEnvAsList("PROBLEM_CATEGORIES", []string{"1.Array", "2.String", "3.Hash Table", "4.Linked List", "5.Tree", "6.Graph", "7.Dynamic Programming"}),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "user"),
		DBPassword:        getEnv("DB_PASSWORD", "password"),
		DBName:            getEnv("DB_NAME", "tle_zone_db"),
		DBSslMode:         getEnv("DB_SSLMODE", "disable"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvAsInt("REDIS_DB", 0),

		SubmissionMode:           getEnv("SUBMISSION_MODE", SubmissionModeQueue),
		SubmissionQueueName:      getEnv("SUBMISSION_QUEUE_NAME", "problem_submissions_queue"),
		SubmissionLockTTLSeconds: getEnvAsInt("SUBMISSION_LOCK_TTL_SECONDS", 60),
		SubmissionTimeout:        time.Duration(getEnvAsInt("SUBMISSION_TIMEOUT_SECONDS", 30)) * time.Second,
		ProblemCacheTTL:          time.Duration(getEnvAsInt("PROBLEM_CACHE_TTL_SECONDS", 600)) * time.Second,

		DraftIdleTimeout:  time.Duration(getEnvAsInt("DRAFT_IDLE_TIMEOUT_MINUTES", 30)) * time.Minute,
		DraftReapSchedule: getEnv("DRAFT_REAP_SCHEDULE", "@every 1m"),
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode
	return cfg
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsList splits a comma separated value, dropping blank entries.
// An explicitly empty variable yields an empty list.
func getEnvAsList(key string, fallback []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
