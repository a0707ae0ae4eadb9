package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Email     EmailConfig
	Otp       OtpConfig
	Wizard    WizardConfig
	Storage   StorageConfig
	ApiKey    ApiKeyConfig
	Logging   LoggingConfig
	Server    ServerConfig
	CORS      CORSConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// RedisConfig holds the optional shared-cache connection used for OTP records
// and wizard drafts. When Enabled is false both fall back to in-memory stores.
type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
}

// EmailConfig holds the outbound email transport configuration.
// Provider selects the implementation: "smtp" or "ses".
type EmailConfig struct {
	Provider string
	From     string
	// SMTP transport
	Host     string
	Port     int
	Username string
	Password string
	// SES transport
	Region string
}

// OtpConfig controls the email verification gate
type OtpConfig struct {
	// TTL is the validity window of an issued code (seconds)
	TTL int
	// ResendInterval is the server-enforced minimum time between two
	// issuances for the same email (seconds). 0 disables throttling.
	ResendInterval int
}

// WizardConfig controls quote draft sessions
type WizardConfig struct {
	// DraftTTL is how long an untouched draft survives (seconds)
	DraftTTL int
	// CleanupCron is the schedule for sweeping expired OTP records and
	// stale drafts out of the in-memory stores
	CleanupCron string
}

type StorageConfig struct {
	Mode                  string
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
	MaxUploadSizeMB       int64
}

// ApiKeyConfig guards the admin quote-management endpoints.
// When Value is empty the endpoints are left open (development mode).
type ApiKeyConfig struct {
	Value string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeNosniff    bool
	ReferrerPolicy        string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled bool
	// RequestsPerMinute is the per-IP limit applied to all routes
	RequestsPerMinute int
	// OtpRequestsPerMinute is the tighter per-IP limit on the OTP endpoints
	OtpRequestsPerMinute int
	WhitelistIPs         []string
	WhitelistPaths       []string
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// TTLDuration returns the OTP validity window as duration
func (o *OtpConfig) TTLDuration() time.Duration {
	return time.Duration(o.TTL) * time.Second
}

// ResendIntervalDuration returns the minimum reissue interval as duration
func (o *OtpConfig) ResendIntervalDuration() time.Duration {
	return time.Duration(o.ResendInterval) * time.Second
}

// DraftTTLDuration returns the draft lifetime as duration
func (w *WizardConfig) DraftTTLDuration() time.Duration {
	return time.Duration(w.DraftTTL) * time.Second
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Credentials come from the environment, never from config files
	if cfg.ApiKey.Value == "" {
		cfg.ApiKey.Value = v.GetString("ADMIN_API_KEY")
	}
	if cfg.Email.Username == "" {
		cfg.Email.Username = v.GetString("EMAIL_USER")
	}
	if cfg.Email.Password == "" {
		cfg.Email.Password = v.GetString("EMAIL_PASS")
	}
	if cfg.Email.From == "" {
		cfg.Email.From = v.GetString("EMAIL_FROM")
	}
	if cfg.Email.From == "" {
		cfg.Email.From = cfg.Email.Username
	}
	if cfg.Redis.Password == "" {
		cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Mekrok Quote API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 3001)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "mekrok")
	v.SetDefault("database.user", "mekrok_user")
	v.SetDefault("database.password", "mekrok_password")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)

	// Redis defaults (disabled unless configured; stores fall back to memory)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)

	// Email transport defaults
	v.SetDefault("email.provider", "smtp")
	v.SetDefault("email.host", "smtp.gmail.com")
	v.SetDefault("email.port", 465)
	v.SetDefault("email.region", "eu-west-1")

	// OTP gate defaults
	v.SetDefault("otp.ttl", 300)           // codes valid for 5 minutes
	v.SetDefault("otp.resendInterval", 60) // one issuance per email per minute

	// Wizard defaults
	v.SetDefault("wizard.draftTTL", 86400) // drafts survive a day untouched
	v.SetDefault("wizard.cleanupCron", "@every 5m")

	// Storage defaults
	v.SetDefault("storage.mode", "local")
	v.SetDefault("storage.localBasePath", "./storage")
	v.SetDefault("storage.maxUploadSizeMB", 25)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Server defaults
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.requestTimeout", 60)

	// CORS defaults
	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Content-Type", "X-API-Key", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Location", "X-Request-ID"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	// Security header defaults
	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")

	// Rate limiting defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 120)
	v.SetDefault("rateLimit.otpRequestsPerMinute", 10)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/db", "/health/ready"})
}
