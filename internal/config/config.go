package config

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort     string
	MetricsPort string
	AppEnv      string
	LogLevel    string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	DeadLetterBucket string
	DeadLetterPrefix string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	PushProvider        string // "fcm" | "sns"
	FirebaseCredentials string
	SNSRegion           string

	SearchBaseURL string
	SearchIndex   string

	TranslatorEndpoint string
	ProviderTimeout    time.Duration
	SecretID           string // Secrets Manager secret holding provider keys; empty reads env

	StreamPollInterval time.Duration
	StreamMaxAttempts  int
	StreamRetryBackoff time.Duration
	StreamFromOldest   bool
	FanOutLimit        int

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each collection.
type DynamoTables struct {
	Users         string
	Listings      string
	Wishlists     string
	Conversations string
	Messages      string
	Notifications string
	Transactions  string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
		AppEnv:         getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AWSRegion:      getEnv("AWS_REGION", "ap-northeast-2"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:         getEnv("DYNAMO_TABLE_USERS", "users"),
			Listings:      getEnv("DYNAMO_TABLE_LISTINGS", "listings"),
			Wishlists:     getEnv("DYNAMO_TABLE_WISHLISTS", "wishlists"),
			Conversations: getEnv("DYNAMO_TABLE_CONVERSATIONS", "conversations"),
			Messages:      getEnv("DYNAMO_TABLE_MESSAGES", "messages"),
			Notifications: getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			Transactions:  getEnv("DYNAMO_TABLE_TRANSACTIONS", "transactions"),
		},
		DeadLetterBucket:    getEnv("DEAD_LETTER_BUCKET", "market-triggers-dlq"),
		DeadLetterPrefix:    getEnv("DEAD_LETTER_PREFIX", "stream-records/"),
		JWTPrivateKeyPath:   getEnv("JWT_PRIVATE_KEY_PATH", ""),
		JWTPublicKeyPath:    getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:           time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,
		PushProvider:        getEnv("PUSH_PROVIDER", "fcm"),
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		SNSRegion:           getEnv("SNS_REGION", "ap-northeast-2"),
		SearchBaseURL:       getEnv("SEARCH_BASE_URL", ""),
		SearchIndex:         getEnv("SEARCH_INDEX", "listings"),
		TranslatorEndpoint:  getEnv("TRANSLATOR_ENDPOINT", "https://api.cognitive.microsofttranslator.com"),
		ProviderTimeout:     getEnvDuration("PROVIDER_TIMEOUT", 10*time.Second),
		SecretID:            getEnv("PROVIDER_SECRET_ID", ""),
		StreamPollInterval:  getEnvDuration("STREAM_POLL_INTERVAL", time.Second),
		StreamMaxAttempts:   getEnvInt("STREAM_MAX_ATTEMPTS", 5),
		StreamRetryBackoff:  getEnvDuration("STREAM_RETRY_BACKOFF", 2*time.Second),
		StreamFromOldest:    getEnv("STREAM_FROM_OLDEST", "false") == "true",
		FanOutLimit:         getEnvInt("FAN_OUT_LIMIT", 16),
		AllowedOrigins:      strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

// Secrets are provider credentials. They are read on every invocation so a
// rotated value takes effect without a restart; an empty field is a
// configuration error for the caller to report.
type Secrets struct {
	TranslatorKey    string `json:"TRANSLATOR_KEY"`
	TranslatorRegion string `json:"TRANSLATOR_REGION"`
	SearchAppID      string `json:"SEARCH_APP_ID"`
	SearchAPIKey     string `json:"SEARCH_API_KEY"`
}

// SecretSource resolves provider credentials.
type SecretSource interface {
	Secrets(ctx context.Context) (Secrets, error)
}

// EnvSecrets reads secrets from the process environment. It serves local
// development when no managed secret is configured.
type EnvSecrets struct{}

func (EnvSecrets) Secrets(context.Context) (Secrets, error) {
	return Secrets{
		TranslatorKey:    os.Getenv("TRANSLATOR_KEY"),
		TranslatorRegion: os.Getenv("TRANSLATOR_REGION"),
		SearchAppID:      os.Getenv("SEARCH_APP_ID"),
		SearchAPIKey:     os.Getenv("SEARCH_API_KEY"),
	}, nil
}

// StaticSecrets is a fixed SecretSource, used by tests and local tooling.
type StaticSecrets Secrets

func (s StaticSecrets) Secrets(context.Context) (Secrets, error) { return Secrets(s), nil }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
