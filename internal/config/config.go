package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required for the postgres store")
	ErrUnknownStore       = errors.New("FACTLINE_STORE must be one of: file, postgres")
	ErrUnknownCache       = errors.New("FACTLINE_CACHE must be one of: memory, redis")
	ErrMissingLLMKey      = errors.New("an API key is required for the configured LLM provider")
	ErrInvalidMaturity    = errors.New("FACTLINE_MATURITY_THRESHOLD must be at least 1")
	ErrInvalidConfidence  = errors.New("FACTLINE_MIN_CONFIDENCE must be within [0,100]")
)

// Load reads the .env file specified by FACTLINE_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("FACTLINE_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

// Validate reports configuration errors that must stop startup.
func Validate() error {
	switch StoreBackend() {
	case "file":
	case "postgres":
		if DatabaseURL() == "" {
			return ErrMissingDatabaseURL
		}
	default:
		return ErrUnknownStore
	}
	switch CacheBackend() {
	case "memory", "redis":
	default:
		return ErrUnknownCache
	}
	if LLMProvider() != "mock" && LLMAPIKey() == "" {
		return fmt.Errorf("%w (%s)", ErrMissingLLMKey, LLMProvider())
	}
	if MaturityThreshold() < 1 {
		return ErrInvalidMaturity
	}
	if c := MinConfidence(); c < 0 || c > 100 {
		return ErrInvalidConfidence
	}
	return nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func ServerPort() int {
	return envInt("SERVER_PORT", 8080)
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// DataDir is the root of all file-backed state.
func DataDir() string {
	return envString("FACTLINE_DATA_DIR", "data")
}

func AudioDir() string {
	return envString("FACTLINE_AUDIO_DIR", filepath.Join(DataDir(), "audio"))
}

func ArchiveDir() string {
	return envString("FACTLINE_ARCHIVE_DIR", filepath.Join(DataDir(), "archive"))
}

// PublishDir is the local directory mirrored with feeds; empty disables it.
func PublishDir() string {
	return os.Getenv("FACTLINE_PUBLISH_DIR")
}

func SourcesFile() string {
	return envString("FACTLINE_SOURCES_FILE", "sources.yaml")
}

// KillSwitchPath returns the file whose presence stops the scheduler at the next cycle boundary.
func KillSwitchPath() string {
	return envString("FACTLINE_KILL_SWITCH", filepath.Join(os.TempDir(), "factline-stop"))
}

// StoreBackend returns "file" (default) or "postgres".
func StoreBackend() string {
	return envString("FACTLINE_STORE", "file")
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// CacheBackend returns "memory" (default) or "redis".
func CacheBackend() string {
	return envString("FACTLINE_CACHE", "memory")
}

func RedisAddr() string {
	return envString("REDIS_ADDR", "localhost:6379")
}

func RedisPassword() string {
	return os.Getenv("REDIS_PASS")
}

func RedisDB() int {
	return envInt("REDIS_DB", 0)
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func AnthropicAPIKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

func GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

func CerebrasAPIKey() string {
	return os.Getenv("CEREBRAS_API_KEY")
}

// LLMProvider returns the configured oracle provider.
// Defaults to "anthropic" if not set.
// Valid values: openai, anthropic, gemini, cerebras, mock
func LLMProvider() string {
	return envString("LLM_PROVIDER", "anthropic")
}

// LLMModel overrides the provider's default model when set.
func LLMModel() string {
	return os.Getenv("LLM_MODEL")
}

// LLMAPIKey returns the API key for the configured LLM provider.
func LLMAPIKey() string {
	switch LLMProvider() {
	case "openai":
		return OpenAIAPIKey()
	case "gemini":
		return GeminiAPIKey()
	case "cerebras":
		return CerebrasAPIKey()
	case "mock":
		return ""
	default:
		return AnthropicAPIKey()
	}
}

func OracleMaxRetries() int {
	return envInt("FACTLINE_ORACLE_RETRIES", 3)
}

func OracleRetryBaseDelay() time.Duration {
	return envDuration("FACTLINE_ORACLE_RETRY_DELAY", time.Second)
}

// MaturityThreshold is the observation count after which learned ratings are purely empirical.
func MaturityThreshold() int {
	return envInt("FACTLINE_MATURITY_THRESHOLD", 5)
}

func MinConfidence() int {
	return envInt("FACTLINE_MIN_CONFIDENCE", 85)
}

func QueueTimeout() time.Duration {
	return envDuration("FACTLINE_QUEUE_TIMEOUT", 24*time.Hour)
}

// QueueBackupThreshold is the queue size that raises a queue_backup alert.
func QueueBackupThreshold() int {
	return envInt("FACTLINE_QUEUE_BACKUP", 200)
}

// RecentWindow is the number of most recent stories of the day that block
// contradicting facts; older stories are correction-eligible instead.
func RecentWindow() int {
	return envInt("FACTLINE_RECENT_WINDOW", 5)
}

func CorrectionLookbackDays() int {
	return envInt("FACTLINE_CORRECTION_LOOKBACK_DAYS", 7)
}

func RetentionDays() int {
	return envInt("FACTLINE_RETENTION_DAYS", 30)
}

// CycleSchedule is a standard cron expression for cycle boundaries.
func CycleSchedule() string {
	return envString("FACTLINE_SCHEDULE", "*/30 * * * *")
}

func HeartbeatInterval() time.Duration {
	return envDuration("FACTLINE_HEARTBEAT_INTERVAL", time.Minute)
}

func FailureAlertAfter() int {
	return envInt("FACTLINE_FAILURE_ALERT_AFTER", 3)
}

func TelegramToken() string {
	return os.Getenv("TELEGRAM_BOT_TOKEN")
}

func TelegramChatID() string {
	return os.Getenv("TELEGRAM_CHAT_ID")
}

func ElevenLabsAPIKey() string {
	return os.Getenv("ELEVENLABS_API_KEY")
}

func ElevenLabsVoiceID() string {
	return os.Getenv("ELEVENLABS_VOICE_ID")
}

func S3Bucket() string {
	return os.Getenv("FACTLINE_S3_BUCKET")
}

func S3Prefix() string {
	return envString("FACTLINE_S3_PREFIX", "factline")
}

func S3Region() string {
	return os.Getenv("AWS_REGION")
}

func S3UsePathStyle() bool {
	return envBool("FACTLINE_S3_PATH_STYLE", false)
}

// KafkaBrokers returns the comma-separated broker list; empty disables the event sink.
func KafkaBrokers() []string {
	raw := os.Getenv("KAFKA_BROKERS")
	if raw == "" {
		return nil
	}
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func KafkaTopic() string {
	return envString("KAFKA_TOPIC", "factline.stories")
}

// FeedTitle is the channel title of published feeds.
func FeedTitle() string {
	return envString("FACTLINE_FEED_TITLE", "factline")
}

func FeedLink() string {
	return envString("FACTLINE_FEED_LINK", "https://example.org/factline/")
}

// AdminToken guards the operator endpoints; empty disables them.
func AdminToken() string {
	return os.Getenv("FACTLINE_ADMIN_TOKEN")
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps := envFloat("RATE_LIMIT_RPS", 100)
	if rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst := envInt("RATE_LIMIT_BURST", 20)
	if burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	return envString("LOG_LEVEL", "info")
}
