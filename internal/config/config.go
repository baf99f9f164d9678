package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// JWTConfig は管理者トークンの署名・検証設定。
type JWTConfig struct {
	Issuer   string
	Audience string
	Secret   []byte
	TTL      time.Duration
}

// RedisConfig は集計キャッシュの接続設定。Addr が空ならキャッシュ無効。
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// Enabled reports whether a Redis address was configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr                         string
	MongoURI                     string
	MongoDatabase                string
	SurveyCollection             string
	IndustryCollection           string
	UserCollection               string
	FailedNotificationCollection string
	Timeout                      time.Duration
	Timezone                     string
	ServerLog                    *log.Logger
	JWT                          JWTConfig
	Redis                        RedisConfig
	MessengerEndpoint            string
	DiscordDestination           string
	SlackDestination             string
	MessengerTimeout             time.Duration
	AdminSurveyBaseURL           string
	AllowedOrigins               []string
}

// Load reads environment variables and returns a fully populated Config.
func Load() (Config, error) {
	timeout, err := durationOrDefault("MONGO_CONNECT_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	messengerTimeout, err := durationOrDefault("MESSENGER_GATEWAY_TIMEOUT", 3*time.Second)
	if err != nil {
		return Config{}, err
	}
	jwtTTL, err := durationOrDefault("ADMIN_JWT_TTL", 12*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := durationOrDefault("ANALYTICS_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}

	secret := strings.TrimSpace(os.Getenv("ADMIN_JWT_SECRET"))
	if secret == "" {
		return Config{}, errors.New("ADMIN_JWT_SECRET must be configured")
	}
	if len(secret) < 32 {
		return Config{}, errors.New("ADMIN_JWT_SECRET must be at least 32 bytes")
	}

	redisDB := 0
	if raw := strings.TrimSpace(os.Getenv("REDIS_DB")); raw != "" {
		redisDB, err = strconv.Atoi(raw)
		if err != nil || redisDB < 0 {
			return Config{}, fmt.Errorf("REDIS_DB must be a non-negative integer: %q", raw)
		}
	}

	timezone := envOrDefault("TIMEZONE", "Asia/Tokyo")
	if _, err := time.LoadLocation(timezone); err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE %q: %w", timezone, err)
	}

	cfg := Config{
		Addr:                         envOrDefault("HTTP_ADDR", ":8080"),
		MongoURI:                     envOrDefault("MONGO_URI", "mongodb://mongo:27017"),
		MongoDatabase:                envOrDefault("MONGO_DB", "bizsurvey"),
		SurveyCollection:             envOrDefault("SURVEY_COLLECTION", "surveys"),
		IndustryCollection:           envOrDefault("INDUSTRY_COLLECTION", "industries"),
		UserCollection:               envOrDefault("USER_COLLECTION", "admin_users"),
		FailedNotificationCollection: envOrDefault("FAILED_NOTIFICATION_COLLECTION", "failed_notifications"),
		Timeout:                      timeout,
		Timezone:                     timezone,
		ServerLog:                    log.New(os.Stdout, "[bizsurvey-api] ", log.LstdFlags|log.Lshortfile),
		JWT: JWTConfig{
			Issuer:   envOrDefault("ADMIN_JWT_ISSUER", "bizsurvey-api"),
			Audience: envOrDefault("ADMIN_JWT_AUDIENCE", "bizsurvey-admin"),
			Secret:   []byte(secret),
			TTL:      jwtTTL,
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			CacheTTL: cacheTTL,
		},
		MessengerEndpoint:  strings.TrimSpace(os.Getenv("MESSENGER_GATEWAY_URL")),
		DiscordDestination: strings.TrimSpace(os.Getenv("MESSENGER_DISCORD_INCOMING_DESTINATION")),
		SlackDestination:   strings.TrimSpace(os.Getenv("MESSENGER_SLACK_DESTINATION")),
		MessengerTimeout:   messengerTimeout,
		AdminSurveyBaseURL: strings.TrimSpace(os.Getenv("ADMIN_SURVEY_BASE_URL")),
		AllowedOrigins:     parseList("API_ALLOWED_ORIGINS", []string{"*"}),
	}

	cfg.ServerLog.Printf("loaded config: db=%q redis=%t messengerEndpoint=%q adminSurveyBaseURL=%q",
		cfg.MongoDatabase, cfg.Redis.Enabled(), cfg.MessengerEndpoint, cfg.AdminSurveyBaseURL)

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration: %q", key, raw)
	}
	return parsed, nil
}

func parseList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
