package config

import (
	"os"
	"strings"
)

type Config struct {
	HTTPAddr      string
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	JWTSecret     string
	RabbitMQURL   string
	OrderExchange string

	SendGridAPIKey string
	MailFrom       string
	MailFromName   string
}

func Load() *Config {
	return &Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DB", "ecommerce"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		JWTSecret:     getEnvFromFile("JWT_SECRET_FILE", "JWT_SECRET", "dev-secret"),
		RabbitMQURL:   getEnv("RABBITMQ_URL", ""),
		OrderExchange: getEnv("ORDER_EXCHANGE", "orders_exchange"),

		SendGridAPIKey: getEnvFromFile("SENDGRID_API_KEY_FILE", "SENDGRID_API_KEY", ""),
		MailFrom:       getEnv("MAIL_FROM", "orders@example.com"),
		MailFromName:   getEnv("MAIL_FROM_NAME", "Commerce"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvFromFile prefers a *_FILE indirection so secrets can be
// mounted rather than passed in the environment.
func getEnvFromFile(fileKey, envKey, defaultValue string) string {
	if filePath := os.Getenv(fileKey); filePath != "" {
		if content, err := os.ReadFile(filePath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return getEnv(envKey, defaultValue)
}
