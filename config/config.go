package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Port      string   `yaml:"port" env:"PORT" env-default:"8080"`
	LogLevel  string   `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	JWTSecret string   `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	Database  Database `yaml:"database"`
	Redis     Redis    `yaml:"redis"`
	Kafka     Kafka    `yaml:"kafka"`
	Catalog   Catalog  `yaml:"catalog"`
	Auth      Auth     `yaml:"auth"`
	Email     Email    `yaml:"email"`
	Worker    Worker   `yaml:"worker"`
}

type Database struct {
	User         string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password     string `yaml:"password" env:"DB_PASSWORD" env-default:"password"`
	DatabaseName string `yaml:"database_name" env:"DB_NAME" env-default:"bookstore"`
	Host         string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port         string `yaml:"port" env:"DB_PORT" env-default:"5432"`
	SSLMode      string `yaml:"ssl_mode" env:"DB_SSL_MODE" env-default:"disable"`

	// Connection Pool Settings
	MaxOpenConns    int `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	ConnMaxLifetime int `yaml:"conn_max_lifetime_minutes" env:"DB_CONN_MAX_LIFETIME" env-default:"30"`
}

func (d *Database) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DatabaseName, d.SSLMode)
}

type Redis struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

func (r *Redis) GetRedisURL() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

type Kafka struct {
	Brokers           []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092" env-separator:","`
	NotificationTopic string   `yaml:"notification_topic" env:"KAFKA_NOTIFICATION_TOPIC" env-default:"bookstore-notifications"`
	ConsumerGroup     string   `yaml:"consumer_group" env:"KAFKA_CONSUMER_GROUP" env-default:"bookstore-mailer"`
}

type Catalog struct {
	PageSize       int `yaml:"page_size" env:"CATALOG_PAGE_SIZE" env-default:"12"`
	MaxPageSize    int `yaml:"max_page_size" env:"CATALOG_MAX_PAGE_SIZE" env-default:"100"`
	PageTTLMinutes int `yaml:"page_ttl_minutes" env:"CATALOG_PAGE_TTL" env-default:"60"`
}

func (c *Catalog) PageTTL() time.Duration {
	return time.Duration(c.PageTTLMinutes) * time.Minute
}

type Auth struct {
	TokenTTLMinutes int      `yaml:"token_ttl_minutes" env:"AUTH_TOKEN_TTL" env-default:"60"`
	AdminEmails     []string `yaml:"admin_emails" env:"AUTH_ADMIN_EMAILS" env-separator:","`
}

func (a *Auth) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

// IsAdminEmail reports whether registrations from email get the admin role
func (a *Auth) IsAdminEmail(email string) bool {
	for _, admin := range a.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(admin), email) {
			return true
		}
	}
	return false
}

type Email struct {
	SMTPHost     string `yaml:"smtp_host" env:"SMTP_HOST" env-default:""`
	SMTPPort     int    `yaml:"smtp_port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser     string `yaml:"smtp_user" env:"SMTP_USER" env-default:""`
	SMTPPassword string `yaml:"smtp_password" env:"SMTP_PASSWORD" env-default:""`
	FromEmail    string `yaml:"from_email" env:"FROM_EMAIL" env-default:"noreply@bookstore.local"`
	FromName     string `yaml:"from_name" env:"FROM_NAME" env-default:"Bookstore"`
}

type Worker struct {
	MaxWorkers int `yaml:"max_workers" env:"WORKER_MAX_WORKERS" env-default:"10"`
}

func Initialise(configPath string, useEnv bool) (*Config, error) {
	cfg := &Config{}

	if useEnv {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment variables: %w", err)
		}
		return cfg, nil
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := cleanenv.ReadConfig(configPath, cfg); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
			return cfg, nil
		}
	}

	// Fallback to environment variables
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment variables: %w", err)
	}

	return cfg, nil
}
