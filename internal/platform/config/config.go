package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	StorageDriver string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSslMode     string
	DBConnStr     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	NotificationQueueName string
	EmailThrottle         time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPSender   string

	UploadDir      string
	UploadMaxBytes int64

	ReminderSchedule string
	ReminderWindow   time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	LogLevel  string
	LogPretty bool
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:               getEnv("API_PORT", "8080"),
		JWTKey:                []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:                time.Duration(getEnvAsInt("JWT_EXPIRATION_MINUTES", 60)) * time.Minute,
		StorageDriver:         strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres)),
		DBHost:                getEnv("DB_HOST", "localhost"),
		DBPort:                getEnv("DB_PORT", "5432"),
		DBUser:                getEnv("DB_USER", "user"),
		DBPassword:            getEnv("DB_PASSWORD", "password"),
		DBName:                getEnv("DB_NAME", "groqy"),
		DBSslMode:             getEnv("DB_SSLMODE", "disable"),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		RedisDB:               getEnvAsInt("REDIS_DB", 0),
		NotificationQueueName: getEnv("NOTIFICATION_QUEUE_NAME", "notification_jobs_queue"),
		EmailThrottle:         time.Duration(getEnvAsInt("EMAIL_THROTTLE_SECONDS", 300)) * time.Second,
		SMTPHost:              getEnv("SMTP_HOST", ""),
		SMTPPort:              getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername:          getEnv("SMTP_USERNAME", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		SMTPSender:            getEnv("SMTP_SENDER", "GROQY <no-reply@groqy.local>"),
		UploadDir:             getEnv("UPLOAD_DIR", "./uploads"),
		UploadMaxBytes:        int64(getEnvAsInt("UPLOAD_MAX_MB", 32)) << 20,
		ReminderSchedule:      getEnv("REMINDER_SCHEDULE", "@every 1h"),
		ReminderWindow:        time.Duration(getEnvAsInt("REMINDER_WINDOW_HOURS", 24)) * time.Hour,
		RateLimitRPS:          getEnvAsFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst:        getEnvAsInt("RATE_LIMIT_BURST", 5),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogPretty:             getEnvAsBool("LOG_PRETTY", false),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
