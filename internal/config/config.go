package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all the configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Google   GoogleConfig
	SMTP     SMTPConfig
}

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
	// PublicURL is the externally reachable base URL, used when building
	// verification and password-reset links.
	PublicURL string `mapstructure:"publicurl"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig holds the Redis configuration.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// AuthConfig holds the signing keys and token lifetimes. The keys are
// injected into the token manager at construction; nothing reads them from
// ambient state.
type AuthConfig struct {
	// JWTSecret is the active signing key.
	JWTSecret string `mapstructure:"jwtsecret"`
	// JWTPreviousSecrets is a comma-separated list of retired signing keys
	// that are still accepted for verification, so the active key can be
	// rotated without invalidating every session at once.
	JWTPreviousSecrets string `mapstructure:"jwtprevioussecrets"`

	AccessTTLMinutes int `mapstructure:"accessttlminutes"`
	RefreshTTLDays   int `mapstructure:"refreshttldays"`
	VerifyTTLHours   int `mapstructure:"verifyttlhours"`
	ResetTTLMinutes  int `mapstructure:"resetttlminutes"`
}

// AccessTTL returns the access-token lifetime (default 15 minutes).
func (a AuthConfig) AccessTTL() time.Duration {
	if a.AccessTTLMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(a.AccessTTLMinutes) * time.Minute
}

// RefreshTTL returns the refresh-session lifetime (default 30 days).
func (a AuthConfig) RefreshTTL() time.Duration {
	if a.RefreshTTLDays <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(a.RefreshTTLDays) * 24 * time.Hour
}

// VerifyTTL returns the email-verification token lifetime (default 24h).
func (a AuthConfig) VerifyTTL() time.Duration {
	if a.VerifyTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(a.VerifyTTLHours) * time.Hour
}

// ResetTTL returns the password-reset token lifetime (default 1h).
func (a AuthConfig) ResetTTL() time.Duration {
	if a.ResetTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(a.ResetTTLMinutes) * time.Minute
}

// VerifyKeys returns the active signing key followed by any retired keys.
func (a AuthConfig) VerifyKeys() [][]byte {
	keys := [][]byte{[]byte(a.JWTSecret)}
	for _, s := range strings.Split(a.JWTPreviousSecrets, ",") {
		if s = strings.TrimSpace(s); s != "" {
			keys = append(keys, []byte(s))
		}
	}
	return keys
}

type GoogleConfig struct {
	ClientID     string `mapstructure:"clientid"`
	ClientSecret string `mapstructure:"clientsecret"`
	RedirectURL  string `mapstructure:"redirecturl"`
}

type SMTPConfig struct {
	From     string `mapstructure:"from"`
	Password string `mapstructure:"password"`
	Username string `mapstructure:"username"`
	Port     int    `mapstructure:"port"`
	Host     string `mapstructure:"host"`
}

// Load creates a new Config object from environment variables.
func Load() *Config {
	// --- Set up Viper ---
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Load .env into process environment for BindEnv to work with file-based envs
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ godotenv could not load .env: %v", err)
	}

	// Bind structured keys to environment variables
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.publicurl", "SERVER_PUBLIC_URL")
	_ = viper.BindEnv("database.url", "DATABASE_URL")
	_ = viper.BindEnv("redis.url", "REDIS_URL")
	_ = viper.BindEnv("auth.jwtsecret", "JWT_SECRET")
	_ = viper.BindEnv("auth.jwtprevioussecrets", "JWT_PREVIOUS_SECRETS")
	_ = viper.BindEnv("auth.accessttlminutes", "ACCESS_TOKEN_TTL_MINUTES")
	_ = viper.BindEnv("auth.refreshttldays", "REFRESH_TOKEN_TTL_DAYS")
	_ = viper.BindEnv("auth.verifyttlhours", "VERIFY_TOKEN_TTL_HOURS")
	_ = viper.BindEnv("auth.resetttlminutes", "RESET_TOKEN_TTL_MINUTES")
	_ = viper.BindEnv("google.clientid", "GOOGLE_CLIENT_ID")
	_ = viper.BindEnv("google.clientsecret", "GOOGLE_CLIENT_SECRET")
	_ = viper.BindEnv("google.redirecturl", "GOOGLE_REDIRECT_URL")
	_ = viper.BindEnv("smtp.from", "SMTP_FROM")
	_ = viper.BindEnv("smtp.password", "SMTP_PASSWORD")
	_ = viper.BindEnv("smtp.username", "SMTP_USERNAME")
	_ = viper.BindEnv("smtp.port", "SMTP_PORT")
	_ = viper.BindEnv("smtp.host", "SMTP_HOST")

	// --- Read Configuration ---
	if err := viper.ReadInConfig(); err != nil {
		// Only log a warning if the .env file is not found.
		// We can still proceed if all config is set via environment variables.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("❌ Error reading config file: %s", err)
		} else {
			log.Printf("⚠️ .env file not found, relying on environment variables")
		}
	}

	// --- Unmarshal configuration into our struct ---
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("❌ Unable to decode config into struct: %v", err)
	}

	// --- Set default values ---
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Server.PublicURL == "" {
		cfg.Server.PublicURL = "http://localhost:" + cfg.Server.Port
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("❌ JWT_SECRET environment variable is not set")
	}

	log.Println("✅ Configuration loaded successfully")
	return &cfg
}
