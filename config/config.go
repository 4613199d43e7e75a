package config

import (
	"errors"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		Backend        string `mapstructure:"backend"`
		Host           string `mapstructure:"host"`
		Port           string `mapstructure:"port"`
		User           string `mapstructure:"user"`
		Password       string `mapstructure:"password"`
		Name           string `mapstructure:"name"`
		SSLMode        string `mapstructure:"sslmode"`
		MigrationsPath string `mapstructure:"migrations_path"`
	} `mapstructure:"database"`
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	Redis struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Revocation RevocationConfig `mapstructure:"revocation"`
	Security   SecurityConfig   `mapstructure:"security"`
}

// JWTConfig controls bearer token issuance and validation.
type JWTConfig struct {
	SecretKey            string `mapstructure:"secret_key"`
	Issuer               string `mapstructure:"issuer"`
	Audience             string `mapstructure:"audience"`
	AccessTokenHours     int    `mapstructure:"access_token_hours"`
	LoginProvider        string `mapstructure:"login_provider"`
	EnforceSingleSession bool   `mapstructure:"enforce_single_session"`
}

// RevocationConfig selects where revoked JTIs live: "memory" or "redis".
type RevocationConfig struct {
	Backend string `mapstructure:"backend"`
}

// SecurityConfig holds every abuse-detection threshold.
type SecurityConfig struct {
	SpamHashPerMinute             int    `mapstructure:"spam_hash_per_minute"`
	SpamIPPerMinute               int    `mapstructure:"spam_ip_per_minute"`
	SpamUserPerMinute             int    `mapstructure:"spam_user_per_minute"`
	LogSpamIPPerMinute            int    `mapstructure:"log_spam_ip_per_minute"`
	LogDuplicateHashPerHour       int    `mapstructure:"log_duplicate_hash_per_hour"`
	RateLimitPerMinute            int    `mapstructure:"rate_limit_per_minute"`
	RateLimitPerHour              int    `mapstructure:"rate_limit_per_hour"`
	UserRateMultiplier            int    `mapstructure:"user_rate_multiplier"`
	DuplicateWindowHours          int    `mapstructure:"duplicate_window_hours"`
	DuplicateAttemptThreshold     int    `mapstructure:"duplicate_attempt_threshold"`
	DuplicateAttemptWindowMinutes int    `mapstructure:"duplicate_attempt_window_minutes"`
	AuditActionsPerHour           int    `mapstructure:"audit_actions_per_hour"`
	AuditSpamFlaggedPerHour       int    `mapstructure:"audit_spam_flagged_per_hour"`
	RetentionDays                 int    `mapstructure:"retention_days"`
	RetentionSchedule             string `mapstructure:"retention_schedule"`
	MaxBodyBytes                  int64  `mapstructure:"max_body_bytes"`
	FailurePolicy                 string `mapstructure:"failure_policy"`
}

var AppConfig Config

// LoadConfig reads config.yml from path, applies environment overrides
// (e.g. JWT_SECRET_KEY) and fills AppConfig. A missing file is not an error.
func LoadConfig(path string) {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("Unable to load configuration, %v", err)
	}
	AppConfig = cfg
}

// Load is LoadConfig without the global side effect.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")

	v.SetDefault("database.backend", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "workforce")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.migrations_path", "file://db/migrations")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret_key", "")
	v.SetDefault("jwt.issuer", "workforce-api")
	v.SetDefault("jwt.audience", "workforce-web")
	v.SetDefault("jwt.access_token_hours", 24)
	v.SetDefault("jwt.login_provider", "WorkforceApi")
	v.SetDefault("jwt.enforce_single_session", true)

	v.SetDefault("revocation.backend", "memory")

	v.SetDefault("security.spam_hash_per_minute", 5)
	v.SetDefault("security.spam_ip_per_minute", 100)
	v.SetDefault("security.spam_user_per_minute", 200)
	v.SetDefault("security.log_spam_ip_per_minute", 100)
	v.SetDefault("security.log_duplicate_hash_per_hour", 10)
	v.SetDefault("security.rate_limit_per_minute", 60)
	v.SetDefault("security.rate_limit_per_hour", 1000)
	v.SetDefault("security.user_rate_multiplier", 2)
	v.SetDefault("security.duplicate_window_hours", 24)
	v.SetDefault("security.duplicate_attempt_threshold", 5)
	v.SetDefault("security.duplicate_attempt_window_minutes", 60)
	v.SetDefault("security.audit_actions_per_hour", 100)
	v.SetDefault("security.audit_spam_flagged_per_hour", 10)
	v.SetDefault("security.retention_days", 30)
	v.SetDefault("security.retention_schedule", "0 0 3 * * *")
	v.SetDefault("security.max_body_bytes", 1<<20)
	v.SetDefault("security.failure_policy", "fail_open")
}
