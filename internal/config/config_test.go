package config

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.MongoDatabase != "bizsurvey" || cfg.SurveyCollection != "surveys" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.JWT.TTL != 12*time.Hour || cfg.JWT.Issuer != "bizsurvey-api" || string(cfg.JWT.Secret) != testSecret {
		t.Fatalf("unexpected jwt config %+v", cfg.JWT)
	}
	if cfg.Redis.Enabled() || cfg.Redis.CacheTTL != 5*time.Minute {
		t.Fatalf("unexpected redis config %+v", cfg.Redis)
	}
	if diff := cmp.Diff([]string{"*"}, cfg.AllowedOrigins); diff != "" {
		t.Fatalf("origins mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", testSecret)
	t.Setenv("ADMIN_JWT_TTL", "30m")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("API_ALLOWED_ORIGINS", "https://admin.example.com, https://survey.example.com ,")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWT.TTL != 30*time.Minute || !cfg.Redis.Enabled() || cfg.Redis.DB != 2 || cfg.Timezone != "UTC" {
		t.Fatalf("overrides not applied %+v", cfg)
	}
	want := []string{"https://admin.example.com", "https://survey.example.com"}
	if diff := cmp.Diff(want, cfg.AllowedOrigins); diff != "" {
		t.Fatalf("origins mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{"ADMIN_JWT_SECRET": ""}, "ADMIN_JWT_SECRET"},
		{"short secret", map[string]string{"ADMIN_JWT_SECRET": "short"}, "at least 32 bytes"},
		{"bad ttl", map[string]string{"ADMIN_JWT_SECRET": testSecret, "ADMIN_JWT_TTL": "forever"}, "ADMIN_JWT_TTL"},
		{"bad redis db", map[string]string{"ADMIN_JWT_SECRET": testSecret, "REDIS_DB": "-1"}, "REDIS_DB"},
		{"bad timezone", map[string]string{"ADMIN_JWT_SECRET": testSecret, "TIMEZONE": "Mars/Olympus"}, "TIMEZONE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}
