package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingRequired = errors.New("missing required configuration")

// Store backend identifiers accepted by STORE_BACKEND.
const (
	BackendRedisSet   = "redis-set"
	BackendRedisKeyed = "redis-keyed"
	BackendFirestore  = "firestore"
	BackendSQLite     = "sqlite"
	BackendMemory     = "memory"
)

// Notifier identifiers accepted by NOTIFIER.
const (
	NotifierDiscord = "discord"
	NotifierSlack   = "slack"
)

type Config struct {
	// Outbound webhook
	WebhookURL       string `mapstructure:"WEBHOOK_URL"`
	Notifier         string `mapstructure:"NOTIFIER"`
	WebhookUsername  string `mapstructure:"WEBHOOK_USERNAME"`
	WebhookAvatarURL string `mapstructure:"WEBHOOK_AVATAR_URL"`

	// Reddit feed
	RedditClientID     string `mapstructure:"REDDIT_CLIENT_ID"`
	RedditClientSecret string `mapstructure:"REDDIT_CLIENT_SECRET"`
	RedditUserAgent    string `mapstructure:"REDDIT_USER_AGENT"`
	// Subreddits separated by '+', e.g. "foo+bar+baz".
	Subreddits string `mapstructure:"SUBREDDITS"`
	Limit      int    `mapstructure:"LIMIT"`

	// Dedup policy
	RetentionWindow  time.Duration `mapstructure:"RETENTION_WINDOW"`
	FuzzyThreshold   int           `mapstructure:"FUZZY_THRESHOLD"`
	MatchWindow      time.Duration `mapstructure:"MATCH_WINDOW"`
	MaxStoredEntries int           `mapstructure:"MAX_STORED_ENTRIES"`

	// Store backend
	StoreBackend        string `mapstructure:"STORE_BACKEND"`
	RedisHost           string `mapstructure:"REDIS_HOST"`
	RedisPort           string `mapstructure:"REDIS_PORT"`
	RedisUsername       string `mapstructure:"REDIS_USERNAME"`
	RedisPassword       string `mapstructure:"REDIS_PASSWORD"`
	RedisDB             int    `mapstructure:"REDIS_DB"`
	FirestoreProjectID  string `mapstructure:"FIRESTORE_PROJECT_ID"`
	FirestoreCollection string `mapstructure:"FIRESTORE_COLLECTION"`
	SQLitePath          string `mapstructure:"SQLITE_PATH"`

	// Scheduling and service
	Schedule      string `mapstructure:"SCHEDULE"`
	ServerPort    string `mapstructure:"SERVER_PORT"`
	QueueCapacity int    `mapstructure:"QUEUE_CAPACITY"`

	// Fingerprinting
	FingerprintTimeout   time.Duration `mapstructure:"FINGERPRINT_TIMEOUT"`
	FingerprintCacheSize int           `mapstructure:"FINGERPRINT_CACHE_SIZE"`

	// Candidate pre-filters
	BlockedPhrases []string `mapstructure:"BLOCKED_PHRASES"`
	TitleLanguages []string `mapstructure:"TITLE_LANGUAGES"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// Keys without a default must be bound explicitly, otherwise AutomaticEnv
// never surfaces them through Unmarshal.
var requiredKeys = []string{
	"WEBHOOK_URL",
	"REDDIT_CLIENT_ID",
	"REDDIT_CLIENT_SECRET",
	"SUBREDDITS",
	"FIRESTORE_PROJECT_ID",
}

// Reads .env files (if any) and the environment into a Config.
// The returned Config is not validated; call Validate before use.
func LoadConfig() (*Config, error) {
	LoadDotEnvs()

	v := viper.New()

	v.SetDefault("NOTIFIER", NotifierDiscord)
	v.SetDefault("WEBHOOK_USERNAME", "Food from Reddit")
	v.SetDefault("WEBHOOK_AVATAR_URL", "https://i.imgur.com/gLP2Tl0.jpeg")

	v.SetDefault("REDDIT_USER_AGENT", "discord:food_waifu:v0.2")
	v.SetDefault("LIMIT", 24)

	v.SetDefault("RETENTION_WINDOW", "168h")
	v.SetDefault("FUZZY_THRESHOLD", 65)
	v.SetDefault("MATCH_WINDOW", "24h")
	v.SetDefault("MAX_STORED_ENTRIES", 500)

	v.SetDefault("STORE_BACKEND", BackendRedisKeyed)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_USERNAME", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("FIRESTORE_COLLECTION", "submissions")
	v.SetDefault("SQLITE_PATH", "foodpics.db")

	v.SetDefault("SCHEDULE", "0 * * * *")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("QUEUE_CAPACITY", 16)

	v.SetDefault("FINGERPRINT_TIMEOUT", "15s")
	v.SetDefault("FINGERPRINT_CACHE_SIZE", 256)

	v.SetDefault("BLOCKED_PHRASES", "")
	v.SetDefault("TITLE_LANGUAGES", "")

	v.SetDefault("LOG_LEVEL", "info")

	for _, key := range requiredKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.BlockedPhrases = compact(config.BlockedPhrases)
	config.TitleLanguages = compact(config.TitleLanguages)
	return &config, nil
}

// Checks that every required value is present and every tunable is in range.
// All problems are reported at once so a misconfigured deploy fails with a
// complete list.
func (c *Config) Validate() error {
	var missing []string
	if c.WebhookURL == "" {
		missing = append(missing, "WEBHOOK_URL")
	}
	if c.RedditClientID == "" {
		missing = append(missing, "REDDIT_CLIENT_ID")
	}
	if c.RedditClientSecret == "" {
		missing = append(missing, "REDDIT_CLIENT_SECRET")
	}
	if c.Subreddits == "" {
		missing = append(missing, "SUBREDDITS")
	}
	if c.StoreBackend == BackendFirestore && c.FirestoreProjectID == "" {
		missing = append(missing, "FIRESTORE_PROJECT_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(missing, ", "))
	}

	switch c.StoreBackend {
	case BackendRedisSet, BackendRedisKeyed, BackendFirestore, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.Notifier {
	case NotifierDiscord, NotifierSlack:
	default:
		return fmt.Errorf("unknown NOTIFIER %q", c.Notifier)
	}
	if c.Limit <= 0 {
		return fmt.Errorf("LIMIT must be positive, got %d", c.Limit)
	}
	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 100 {
		return fmt.Errorf("FUZZY_THRESHOLD must be within 0-100, got %d", c.FuzzyThreshold)
	}
	if c.RetentionWindow <= 0 {
		return fmt.Errorf("RETENTION_WINDOW must be positive, got %s", c.RetentionWindow)
	}
	if c.MatchWindow <= 0 {
		return fmt.Errorf("MATCH_WINDOW must be positive, got %s", c.MatchWindow)
	}
	return nil
}

// Loads .env files following the dotenv convention: the most specific file
// wins because godotenv never overrides a variable that is already set.
func LoadDotEnvs() {
	env := os.Getenv("FOODPICS_ENV")
	if env == "" {
		env = "dev"
	}
	_ = godotenv.Load(".env." + env + ".local")
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env." + env)
	_ = godotenv.Load(".env")
}

func compact(values []string) []string {
	var out []string
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
