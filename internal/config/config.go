package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerAddress string

	// MongoURI empty means "run on the local JSON-file store" (development).
	MongoURI      string
	MongoAdminURI string
	MongoDBName   string

	JWTSecret     string
	JWTExpiration time.Duration

	FirebaseCredentialsJSON string
	StorageBucket           string

	RecaptchaSecret string
	SendGridAPIKey  string
	ResetFromEmail  string

	// APIBudget bounds the privileged lookup on the public profile endpoint;
	// MetadataBudget bounds the best-effort lookup behind page metadata.
	APIBudget      time.Duration
	MetadataBudget time.Duration

	DataDir         string
	StaticDir       string
	MaxUploadSizeMB int64
}

func Load() *Config {
	return &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),

		MongoURI:      getEnv("MONGODB_URI", ""),
		MongoAdminURI: getEnv("MONGODB_ADMIN_URI", ""),
		MongoDBName:   getEnv("MONGODB_DB", "linkplate"),

		JWTSecret:     getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTExpiration: 24 * time.Hour,

		FirebaseCredentialsJSON: getEnv("FIREBASE_CREDENTIALS_JSON", ""),
		StorageBucket:           getEnv("STORAGE_BUCKET", ""),

		RecaptchaSecret: getEnv("RECAPTCHA_SECRET", ""),
		SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		ResetFromEmail:  getEnv("RESET_FROM_EMAIL", ""),

		APIBudget:      time.Duration(getEnvInt("RESOLVER_BUDGET_SECONDS", 15)) * time.Second,
		MetadataBudget: 5 * time.Second,

		DataDir:         getEnv("DATA_DIR", "./data"),
		StaticDir:       getEnv("STATIC_DIR", "./web/static"),
		MaxUploadSizeMB: int64(getEnvInt("MAX_UPLOAD_SIZE_MB", 10)),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
