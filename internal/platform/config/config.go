package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LevelOverride forces a minimum hierarchy level for departments whose
// description contains Pattern. Matching ignores case and accents.
type LevelOverride struct {
	Pattern  string
	MinLevel int
}

type Config struct {
	Addr               string
	DatabaseURL        string
	SessionSecret      string
	SessionCookieName  string
	SessionTTL         time.Duration
	FrontendDir        string
	Environment        string
	LogLevel           string
	MigrationsDir      string
	RunMigrations      bool
	RunSeed            bool
	SeedAdminCPF       string
	MaxBodyBytes       int64
	RateLimitPerMinute int
	MetricsEnabled     bool

	SyncInterval    time.Duration
	SyncConcurrency int

	SpecialUserCPFs       []string
	HierarchyDelimiter    string
	FullAccessDepartments []string
	LevelOverrides        []LevelOverride

	DBConnectAttempts        int
	DBInitialBackoff         time.Duration
	DBMaxBackoff             time.Duration
	DBConnectTimeout         time.Duration
	DBMaxConns               int
	DBMinConns               int
	DBFallbackConnectTimeout time.Duration
	DBFallbackMaxConns       int
	DBFallbackIdleTimeout    time.Duration

	levelOverridesErr error
}

const (
	DefaultFullAccessDepartments = "122134101,000122134,121411100,000121511,121511100"
	DefaultLevelOverrides        = "gerencia de ti=4"
)

// Load reads configuration from the environment, with an optional config file
// (config.yaml, config.env or .env in the working directory) underneath it.
func Load() Config {
	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	overrides, overridesErr := ParseLevelOverrides(getString(v, "LEVEL_OVERRIDES", DefaultLevelOverrides))

	return Config{
		levelOverridesErr:  overridesErr,
		Addr:               getString(v, "APP_ADDR", ":8080"),
		DatabaseURL:        getString(v, "DATABASE_URL", ""),
		SessionSecret:      getString(v, "SESSION_SECRET", ""),
		SessionCookieName:  getString(v, "SESSION_COOKIE_NAME", "lumigente.sid"),
		SessionTTL:         getDuration(v, "SESSION_TTL", 8*time.Hour),
		FrontendDir:        getString(v, "FRONTEND_DIR", "public"),
		Environment:        getString(v, "APP_ENV", "development"),
		LogLevel:           getString(v, "LOG_LEVEL", "info"),
		MigrationsDir:      getString(v, "MIGRATIONS_DIR", "migrations"),
		RunMigrations:      getBool(v, "RUN_MIGRATIONS", true),
		RunSeed:            getBool(v, "RUN_SEED", false),
		SeedAdminCPF:       getString(v, "SEED_ADMIN_CPF", ""),
		MaxBodyBytes:       int64(getInt(v, "MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute: getInt(v, "RATE_LIMIT_PER_MINUTE", 60),
		MetricsEnabled:     getBool(v, "METRICS_ENABLED", true),

		SyncInterval:    getDuration(v, "SYNC_INTERVAL", 30*time.Minute),
		SyncConcurrency: getInt(v, "SYNC_CONCURRENCY", 4),

		SpecialUserCPFs:       ParseList(getString(v, "SPECIAL_USERS_CPF", "")),
		HierarchyDelimiter:    getString(v, "HIERARCHY_DELIMITER", " > "),
		FullAccessDepartments: ParseList(getString(v, "FULL_ACCESS_DEPARTMENTS", DefaultFullAccessDepartments)),
		LevelOverrides:        overrides,

		DBConnectAttempts:        getInt(v, "DB_CONNECT_ATTEMPTS", 3),
		DBInitialBackoff:         getDuration(v, "DB_INITIAL_BACKOFF", time.Second),
		DBMaxBackoff:             getDuration(v, "DB_MAX_BACKOFF", 5*time.Second),
		DBConnectTimeout:         getDuration(v, "DB_CONNECT_TIMEOUT", 30*time.Second),
		DBMaxConns:               getInt(v, "DB_MAX_CONNS", 10),
		DBMinConns:               getInt(v, "DB_MIN_CONNS", 2),
		DBFallbackConnectTimeout: getDuration(v, "DB_FALLBACK_CONNECT_TIMEOUT", 60*time.Second),
		DBFallbackMaxConns:       getInt(v, "DB_FALLBACK_MAX_CONNS", 5),
		DBFallbackIdleTimeout:    getDuration(v, "DB_FALLBACK_IDLE_TIMEOUT", 60*time.Second),
	}
}

// ParseList splits a comma or semicolon separated value, dropping blanks.
func ParseList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if value := strings.TrimSpace(field); value != "" {
			out = append(out, value)
		}
	}
	return out
}

// ParseLevelOverrides reads "pattern=level;pattern=level".
func ParseLevelOverrides(raw string) ([]LevelOverride, error) {
	var out []LevelOverride
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		pattern, level, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(pattern) == "" {
			return nil, fmt.Errorf("invalid level override %q", entry)
		}
		minLevel, err := strconv.Atoi(strings.TrimSpace(level))
		if err != nil || minLevel < 0 {
			return nil, fmt.Errorf("invalid level in override %q", entry)
		}
		out = append(out, LevelOverride{Pattern: strings.TrimSpace(pattern), MinLevel: minLevel})
	}
	return out, nil
}

func getString(v *viper.Viper, key, fallback string) string {
	if v.IsSet(key) {
		if value := strings.TrimSpace(v.GetString(key)); value != "" {
			return value
		}
	}
	return fallback
}

func getBool(v *viper.Viper, key string, fallback bool) bool {
	if !v.IsSet(key) {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return fallback
	}
	return parsed
}

func getInt(v *viper.Viper, key string, fallback int) int {
	if !v.IsSet(key) {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return fallback
	}
	return parsed
}

func getDuration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	if !v.IsSet(key) {
		return fallback
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if c.levelOverridesErr != nil {
		return fmt.Errorf("LEVEL_OVERRIDES: %w", c.levelOverridesErr)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" && len(strings.TrimSpace(c.SessionSecret)) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters in production")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.HierarchyDelimiter == "" {
		return fmt.Errorf("HIERARCHY_DELIMITER must not be empty")
	}
	if c.DBConnectAttempts < 1 {
		return fmt.Errorf("DB_CONNECT_ATTEMPTS must be at least 1")
	}
	if c.SyncConcurrency < 1 {
		return fmt.Errorf("SYNC_CONCURRENCY must be at least 1")
	}
	return nil
}
