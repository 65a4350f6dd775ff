package config

import (
	"reflect"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	if cfg.APIPort != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.APIPort)
	}
	if cfg.SubmissionMode != SubmissionModeQueue {
		t.Errorf("Expected queue mode by default, got %s", cfg.SubmissionMode)
	}
	if !reflect.DeepEqual(cfg.ProblemLevels, []string{"Easy", "Medium", "Hard"}) {
		t.Errorf("Unexpected default levels: %v", cfg.ProblemLevels)
	}
	if cfg.ProblemCategories[0] != "1.Array" {
		t.Errorf("Expected first category 1.Array, got %s", cfg.ProblemCategories[0])
	}
	if cfg.SubmissionTimeout != 30*time.Second {
		t.Errorf("Expected 30s submission timeout, got %v", cfg.SubmissionTimeout)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("PROBLEM_LEVELS", " Easy , ,Hard")
	t.Setenv("PROBLEM_CATEGORIES", "")
	t.Setenv("DRAFT_IDLE_TIMEOUT_MINUTES", "5")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("DB_HOST", "db")

	cfg := FromEnv()

	if cfg.APIPort != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.APIPort)
	}
	if !reflect.DeepEqual(cfg.ProblemLevels, []string{"Easy", "Hard"}) {
		t.Errorf("Expected trimmed levels, got %v", cfg.ProblemLevels)
	}
	if len(cfg.ProblemCategories) != 0 {
		t.Errorf("Expected empty categories, got %v", cfg.ProblemCategories)
	}
	if cfg.DraftIdleTimeout != 5*time.Minute {
		t.Errorf("Expected 5m idle timeout, got %v", cfg.DraftIdleTimeout)
	}
	if cfg.RedisDB != 0 {
		t.Errorf("Expected fallback redis db 0, got %d", cfg.RedisDB)
	}
	if want := "host=db port=5432 user=user password=password dbname=tle_zone_db sslmode=disable"; cfg.DBConnStr != want {
		t.Errorf("DBConnStr = %q, want %q", cfg.DBConnStr, want)
	}
}
