package config

import "time"

// Config holds all application configuration loaded from environment variables.
// This struct uses github.com/caarlos0/env for automatic environment variable parsing.
//
// Use struct tags to define:
// - `env:"VAR_NAME"` - the environment variable name
// - `env:",required"` - make it required
// - `envDefault:"value"` - set a default value
//
// Heartbeat tuning lives in the YAML file at HeartbeatConfigPath, not here.
type Config struct {
	// ============================================================
	// Agent identity
	// ============================================================
	AgentName    string `env:"AGENT_NAME,required,notEmpty"`
	PlatformName string `env:"PLATFORM_NAME" envDefault:"Moltbook"`

	// ============================================================
	// Platform API
	// ============================================================
	PlatformBaseURL    string        `env:"PLATFORM_BASE_URL" envDefault:"https://www.moltbook.com/api/v1"`
	PlatformAPIKey     string        `env:"PLATFORM_API_KEY"`
	PlatformVerifyPath string        `env:"PLATFORM_VERIFY_PATH" envDefault:"/agents/verify"`
	HTTPTimeout        time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`

	// ============================================================
	// Request budget
	// ============================================================
	RequestsPerMinute  int           `env:"REQUESTS_PER_MINUTE" envDefault:"100"`
	PostCooldown       time.Duration `env:"POST_COOLDOWN" envDefault:"30m"`
	CommentCooldown    time.Duration `env:"COMMENT_COOLDOWN" envDefault:"20s"`
	DailyCommentCap    int           `env:"DAILY_COMMENT_CAP" envDefault:"50"`
	SuspensionFallback time.Duration `env:"SUSPENSION_FALLBACK" envDefault:"1h"`

	// ============================================================
	// State storage
	// ============================================================
	StateBackend    string `env:"STATE_BACKEND" envDefault:"file"`
	StateDir        string `env:"STATE_DIR" envDefault:"./data"`
	RedisHost       string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort       string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisMaxRetries int    `env:"REDIS_MAX_RETRIES" envDefault:"5"`
	RedisKeyPrefix  string `env:"REDIS_KEY_PREFIX" envDefault:"tsaheylu"`

	// ============================================================
	// Heartbeat
	// ============================================================
	HeartbeatConfigPath string        `env:"HEARTBEAT_CONFIG_PATH" envDefault:"config/heartbeat.yaml"`
	HeartbeatInterval   time.Duration `env:"HEARTBEAT_INTERVAL"`

	// ============================================================
	// Reasoning oracle (optional)
	// ============================================================
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	OracleModel  string `env:"ORACLE_MODEL" envDefault:"gemini-2.0-flash"`

	// ============================================================
	// Server configuration
	// ============================================================
	GRPCPort    int    `env:"GRPC_PORT" envDefault:"6565"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"tsaheylu-agent"`

	// ============================================================
	// Telemetry configuration
	// ============================================================
	OtelEnabled    bool   `env:"OTEL_ENABLED" envDefault:"false"`
	ZipkinEndpoint string `env:"ZIPKIN_ENDPOINT" envDefault:"http://localhost:9411/api/v2/spans"`

	AuditLogPath string `env:"AUDIT_LOG_PATH" envDefault:"./data/audit.ndjson"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
}

const (
	BackendFile  = "file"
	BackendRedis = "redis"
)
