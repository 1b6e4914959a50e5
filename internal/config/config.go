package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

const (
	ValidatorFirebase = "firebase"
	ValidatorJWK      = "jwk"

	AuditBackendFirestore = "firestore"
	AuditBackendPostgres  = "postgres"

	DefaultSenderName         = "SafeWalk User"
	DefaultNotificationTitle  = "🚨 SOS Alert"
	DefaultNotificationSuffix = "needs help. Tap to view location."
)

type Config struct {
	Port    string
	GinMode string

	// Callable endpoint
	FunctionRegion string
	FunctionName   string

	// Firebase
	FirebaseProjectID string
	FirebaseCredJSON  string
	ValidatorType     string // "firebase" or "jwk"
	JWTJWKSURL        string

	// Audit log
	AuditBackend      string // "firestore" or "postgres"
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime int // in minutes

	// Dispatch
	ContactLookupConcurrency int
	PushDryRun               bool // Validate messages with FCM without delivering them.
	PushDebugCurl            bool // Log a replayable curl for the first failed token.

	// Notification text, usually from the config file.
	Notification NotificationConfig `yaml:"notification"`

	// Server
	ServerShutdownTimeoutSeconds int
	CORSAllowedOrigins           string

	// Logging
	LogLevel  string
	LogFormat string
}

// NotificationConfig holds the user-visible text of the SOS push.
type NotificationConfig struct {
	Title             string `yaml:"title"`
	BodySuffix        string `yaml:"body_suffix"`
	DefaultSenderName string `yaml:"default_sender_name"`
}

var AppConfig *Config

// LoadConfig loads the process configuration into AppConfig and exits on error.
func LoadConfig() {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

// Load reads configuration from the environment (and .env, if present) and
// the optional YAML config file.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),

		FunctionRegion: getEnvOrDefault("FUNCTION_REGION", "asia-south1"),
		FunctionName:   getEnvOrDefault("FUNCTION_NAME", "sendSosPush"),

		FirebaseProjectID: getEnvOrDefault("FIREBASE_PROJECT_ID", ""),
		FirebaseCredJSON:  getEnvOrDefault("FIREBASE_CRED_JSON", ""),
		ValidatorType:     getEnvOrDefault("VALIDATOR_TYPE", ValidatorFirebase),
		JWTJWKSURL:        getEnvOrDefault("JWT_JWKS_URL", ""),

		AuditBackend:      getEnvOrDefault("AUDIT_BACKEND", AuditBackendFirestore),
		DatabaseURL:       getEnvOrDefault("DATABASE_URL", ""),
		DBMaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 30),

		ContactLookupConcurrency: getEnvAsInt("CONTACT_LOOKUP_CONCURRENCY", 10),
		PushDryRun:               getEnvOrDefault("PUSH_DRY_RUN", "false") == "true",
		PushDebugCurl:            getEnvOrDefault("PUSH_DEBUG_CURL", "false") == "true",

		ServerShutdownTimeoutSeconds: getEnvAsInt("SERVER_SHUTDOWN_TIMEOUT_SECONDS", 30),
		CORSAllowedOrigins:           getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "text"),
	}

	// The config file is optional: the notification text has built-in defaults.
	configFilePath := getEnvOrDefault("CONFIG_FILE", "config.yaml")
	configFile, err := os.Open(configFilePath)
	switch {
	case err == nil:
		defer configFile.Close()
		if err := LoadConfigFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configFilePath, err)
		}
		log.Printf("Loaded config file: %v", configFilePath)
	case os.IsNotExist(err):
		log.Printf("Config file %s not found, using defaults", configFilePath)
	default:
		return nil, fmt.Errorf("failed to open config file %s: %w", configFilePath, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.FirebaseProjectID == "" {
		log.Println("Warning: Firebase project ID is missing. Falling back to the project in the credentials.")
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Notification.Title == "" {
		c.Notification.Title = DefaultNotificationTitle
	}
	if c.Notification.BodySuffix == "" {
		c.Notification.BodySuffix = DefaultNotificationSuffix
	}
	if c.Notification.DefaultSenderName == "" {
		c.Notification.DefaultSenderName = DefaultSenderName
	}
	if c.ContactLookupConcurrency <= 0 {
		c.ContactLookupConcurrency = 1
	}
}

// Validate checks enum settings and the settings they require.
func (c *Config) Validate() error {
	switch c.ValidatorType {
	case ValidatorFirebase, ValidatorJWK:
	default:
		return fmt.Errorf("VALIDATOR_TYPE must be either %q or %q, got %q", ValidatorFirebase, ValidatorJWK, c.ValidatorType)
	}

	switch c.AuditBackend {
	case AuditBackendFirestore:
	case AuditBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when AUDIT_BACKEND=%s", AuditBackendPostgres)
		}
	default:
		return fmt.Errorf("AUDIT_BACKEND must be either %q or %q, got %q", AuditBackendFirestore, AuditBackendPostgres, c.AuditBackend)
	}

	return nil
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSAllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		} else {
			log.Printf("Warning: Failed to parse environment variable %s='%s' as int, using default %d: %v", key, value, defaultValue, err)
		}
	}
	return defaultValue
}

func LoadConfigFile(reader io.Reader, config *Config) error {
	decoder := yaml.NewDecoder(reader)

	if err := decoder.Decode(config); err != nil {
		return err
	}

	return nil
}
