package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Address != ":8080" {
		t.Errorf("Server.Address = %q, want :8080", cfg.Server.Address)
	}
	if cfg.JWT.Expiration != time.Hour {
		t.Errorf("JWT.Expiration = %v, want 1h", cfg.JWT.Expiration)
	}
	if cfg.Retrieval.TopK != 10 {
		t.Errorf("Retrieval.TopK = %d, want 10", cfg.Retrieval.TopK)
	}
	if cfg.LLM.PlanMaxTokens != 2500 {
		t.Errorf("LLM.PlanMaxTokens = %d, want 2500", cfg.LLM.PlanMaxTokens)
	}
	if cfg.LLM.Timeout != 60*time.Second {
		t.Errorf("LLM.Timeout = %v, want 60s", cfg.LLM.Timeout)
	}
	if cfg.Plan.DefaultAge != 25 || cfg.Plan.DefaultSport != "general fitness" {
		t.Errorf("unexpected plan defaults: %+v", cfg.Plan)
	}
	if len(cfg.Plan.DefaultTrainingDays) != 3 {
		t.Errorf("DefaultTrainingDays = %v, want 3 days", cfg.Plan.DefaultTrainingDays)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  address: ":9090"
retrieval:
  top_k: 5
jwt:
  expiration: 30m
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LLM_API_KEY", "env-key")
	t.Setenv("RETRIEVAL_TOP_K", "7")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Address != ":9090" {
		t.Errorf("Server.Address = %q, want :9090", cfg.Server.Address)
	}
	if cfg.JWT.Expiration != 30*time.Minute {
		t.Errorf("JWT.Expiration = %v, want 30m", cfg.JWT.Expiration)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Errorf("LLM.APIKey = %q, want env-key", cfg.LLM.APIKey)
	}
	if cfg.Retrieval.TopK != 7 {
		t.Errorf("Retrieval.TopK = %d, want env override 7", cfg.Retrieval.TopK)
	}
}

func TestS3Config_Enabled(t *testing.T) {
	if (S3Config{}).Enabled() {
		t.Error("empty S3Config should not be enabled")
	}
	if !(S3Config{BucketName: "b", Region: "eu-west-1"}).Enabled() {
		t.Error("S3Config with bucket and region should be enabled")
	}
}
