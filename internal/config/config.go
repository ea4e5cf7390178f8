package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const minSecretLength = 32

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Session      SessionConfig      `mapstructure:"session"`
	OTP          OTPConfig          `mapstructure:"otp"`
	Throttle     ThrottleConfig     `mapstructure:"throttle"`
	SMS          SMSConfig          `mapstructure:"sms"`
	Storage      StorageConfig      `mapstructure:"storage"`
	CloudStorage CloudStorageConfig `mapstructure:"cloud_storage"`
	Audit        AuditConfig        `mapstructure:"audit"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Cleanup      CleanupConfig      `mapstructure:"cleanup"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Mode            string `mapstructure:"mode"`
	ReadTimeout     string `mapstructure:"read_timeout"`
	WriteTimeout    string `mapstructure:"write_timeout"`
	ShutdownTimeout string `mapstructure:"shutdown_timeout"`
}

// IsProduction reports whether cookies must be marked secure.
func (c *ServerConfig) IsProduction() bool {
	return c.Mode == "release"
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Name            string `mapstructure:"name"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type SessionConfig struct {
	Secret     string `mapstructure:"secret"`
	TTL        string `mapstructure:"ttl"`
	CookieName string `mapstructure:"cookie_name"`
}

type OTPConfig struct {
	TTL string `mapstructure:"ttl"`
}

type ThrottleConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Window      string `mapstructure:"window"`
	MaxAttempts int    `mapstructure:"max_attempts"`
}

type SMSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout string `mapstructure:"timeout"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	Path          string `mapstructure:"path"`
	PublicURL     string `mapstructure:"public_url"`
	MaxFileSizeMB int    `mapstructure:"max_file_size_mb"`
}

type CloudStorageConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	Provider         string `mapstructure:"provider"` // e.g. "azure"
	Endpoint         string `mapstructure:"endpoint"`
	AccessKey        string `mapstructure:"access_key"` // Azure: Storage Account Name
	SecretKey        string `mapstructure:"secret_key"` // Azure: Storage Account Key
	PublicContainer  string `mapstructure:"public_container"`
	PrivateContainer string `mapstructure:"private_container"`
}

type AuditConfig struct {
	Retention    string   `mapstructure:"retention"`
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	KafkaTopic   string   `mapstructure:"kafka_topic"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Insecure     bool   `mapstructure:"insecure"`
	ServiceName  string `mapstructure:"service_name"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

type CleanupConfig struct {
	Secret string `mapstructure:"secret"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "student_portal")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "UTC")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("session.ttl", "7d")
	v.SetDefault("session.cookie_name", "session")
	v.SetDefault("otp.ttl", "5m")

	v.SetDefault("throttle.enabled", true)
	v.SetDefault("throttle.window", "15m")
	v.SetDefault("throttle.max_attempts", 5)

	v.SetDefault("sms.enabled", false)
	v.SetDefault("sms.base_url", "https://sender.ge/api/send.php")
	v.SetDefault("sms.timeout", "10s")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.path", "./storage/uploads")
	v.SetDefault("storage.public_url", "/media")
	v.SetDefault("storage.max_file_size_mb", 10)

	v.SetDefault("audit.retention", "90d")
	v.SetDefault("audit.kafka_topic", "portal.api-logs")

	v.SetDefault("telemetry.service_name", "student-portal")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Load loads configuration from file and environment variables.
// Keys map to env vars by upper-casing and replacing dots, e.g. SESSION_SECRET.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Comma-separated lists from env are not split by Unmarshal.
	if brokers := v.GetString("audit.kafka_brokers"); brokers != "" && len(cfg.Audit.KafkaBrokers) <= 1 {
		cfg.Audit.KafkaBrokers = splitList(brokers)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that would otherwise fail at request time.
func (c *Config) Validate() error {
	if c.Session.Secret == "" {
		if c.Server.IsProduction() {
			return errors.New("config: session.secret is required in release mode")
		}
		c.Session.Secret = "dev-only-session-secret-change-me-please"
	}
	if c.Server.IsProduction() && len(c.Session.Secret) < minSecretLength {
		return fmt.Errorf("config: session.secret must be at least %d bytes", minSecretLength)
	}
	if c.SMS.Enabled && c.SMS.APIKey == "" {
		return errors.New("config: sms.api_key is required when sms is enabled")
	}
	if slices.Contains(c.CORS.AllowedOrigins, "*") {
		return errors.New("config: cors.allowed_origins cannot contain \"*\" because credentials are allowed")
	}
	if c.Throttle.Enabled && c.Throttle.MaxAttempts <= 0 {
		return errors.New("config: throttle.max_attempts must be positive")
	}
	for name, raw := range map[string]string{
		"session.ttl":         c.Session.TTL,
		"otp.ttl":             c.OTP.TTL,
		"throttle.window":     c.Throttle.Window,
		"sms.timeout":         c.SMS.Timeout,
		"audit.retention":     c.Audit.Retention,
		"server.read_timeout": c.Server.ReadTimeout,
	} {
		if _, err := parseDuration(raw); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// GetURL returns the URL form used by golang-migrate.
func (c *DatabaseConfig) GetURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

func (c *DatabaseConfig) GetConnMaxLifetime() (time.Duration, error) {
	return parseDuration(c.ConnMaxLifetime)
}

func (c *SessionConfig) GetTTL() time.Duration {
	return mustDuration(c.TTL, 7*24*time.Hour)
}

func (c *OTPConfig) GetTTL() time.Duration {
	return mustDuration(c.TTL, 5*time.Minute)
}

func (c *ThrottleConfig) GetWindow() time.Duration {
	return mustDuration(c.Window, 15*time.Minute)
}

func (c *SMSConfig) GetTimeout() time.Duration {
	return mustDuration(c.Timeout, 10*time.Second)
}

func (c *AuditConfig) GetRetention() time.Duration {
	return mustDuration(c.Retention, 90*24*time.Hour)
}

func (c *ServerConfig) GetReadTimeout() (time.Duration, error) {
	return parseDuration(c.ReadTimeout)
}

func (c *ServerConfig) GetWriteTimeout() (time.Duration, error) {
	return parseDuration(c.WriteTimeout)
}

func (c *ServerConfig) GetShutdownTimeout() (time.Duration, error) {
	return parseDuration(c.ShutdownTimeout)
}

func mustDuration(s string, fallback time.Duration) time.Duration {
	d, err := parseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// loadDotEnv exports the keys of an optional .env file into the process
// environment. Variables already set win over the file.
func loadDotEnv(file string) error {
	env := viper.New()
	env.SetConfigFile(file)
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", file, err)
	}
	for _, key := range env.AllKeys() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, env.GetString(key)); err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseDuration parses duration strings like "7d", "24h", "30m"
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	// Handle days (e.g., "7d")
	if len(s) > 1 && s[len(s)-1] == 'd' {
		days := s[:len(s)-1]
		var d int
		_, err := fmt.Sscanf(days, "%d", &d)
		if err != nil {
			return 0, fmt.Errorf("invalid duration format: %s", s)
		}
		return time.Duration(d) * 24 * time.Hour, nil
	}

	return time.ParseDuration(s)
}
