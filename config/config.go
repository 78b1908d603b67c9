// Package config loads typed per-service configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envFile = ".env"

// Collaborator describes one downstream service endpoint: where to reach it
// and how long to wait for it.
type Collaborator struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ServerConfig holds the HTTP listener settings of the local service.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// MongoConfig holds the MongoDB connection settings.
type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// CassandraConfig holds the Cassandra connection settings.
type CassandraConfig struct {
	Hosts    []string `mapstructure:"hosts"`
	Keyspace string   `mapstructure:"keyspace"`
}

// SMTPConfig holds the outgoing mail settings.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	From     string `mapstructure:"from"`
	Password string `mapstructure:"password"`
}

// ReminderConfig holds the deadline scan schedule and windows.
type ReminderConfig struct {
	Hour              int    `mapstructure:"hour"`
	Minute            int    `mapstructure:"minute"`
	Timezone          string `mapstructure:"timezone"`
	TaskWindowDays    int    `mapstructure:"task_window_days"`
	ProjectWindowDays int    `mapstructure:"project_window_days"`
}

// CollaboratorSet enumerates every downstream service a process may call.
type CollaboratorSet struct {
	Tasks         Collaborator `mapstructure:"tasks"`
	Projects      Collaborator `mapstructure:"projects"`
	Teams         Collaborator `mapstructure:"teams"`
	Notifications Collaborator `mapstructure:"notifications"`
	Analytics     Collaborator `mapstructure:"analytics"`
	Users         Collaborator `mapstructure:"users"`
}

// Config is the full configuration of one service process, injected at
// startup. Internal-only endpoints between services are authenticated with
// InternalSecret, which is distinct from end-user authentication.
type Config struct {
	Server         ServerConfig    `mapstructure:"server"`
	LogDir         string          `mapstructure:"log_dir"`
	Mongo          MongoConfig     `mapstructure:"mongo"`
	Cassandra      CassandraConfig `mapstructure:"cassandra"`
	SMTP           SMTPConfig      `mapstructure:"smtp"`
	Reminder       ReminderConfig  `mapstructure:"reminder"`
	Collaborators  CollaboratorSet `mapstructure:"collaborators"`
	InternalSecret string          `mapstructure:"internal_secret"`
	ActivityTTL    time.Duration   `mapstructure:"activity_ttl"`
}

// NewConfig loads configuration from the environment with typed defaults and
// validation. A local .env file seeds missing variables first.
func NewConfig() (*Config, error) {
	v := viper.New()
	if envMap, err := godotenv.Read(envFile); err == nil {
		for key, value := range envMap {
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, value)
			}
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvs(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations that would fail at first use.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.InternalSecret == "" {
		return fmt.Errorf("internal_secret must be set")
	}
	if _, err := time.LoadLocation(c.Reminder.Timezone); err != nil {
		return fmt.Errorf("invalid reminder timezone %q: %w", c.Reminder.Timezone, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("log_dir", "logs")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "taskhub")

	v.SetDefault("cassandra.hosts", []string{"127.0.0.1"})
	v.SetDefault("cassandra.keyspace", "notifications")

	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", "587")
	v.SetDefault("smtp.from", "")
	v.SetDefault("smtp.password", "")

	v.SetDefault("reminder.hour", 8)
	v.SetDefault("reminder.minute", 0)
	v.SetDefault("reminder.timezone", "Europe/Belgrade")
	v.SetDefault("reminder.task_window_days", 3)
	v.SetDefault("reminder.project_window_days", 7)

	v.SetDefault("collaborators.tasks.base_url", "http://localhost:8001")
	v.SetDefault("collaborators.tasks.timeout", 5*time.Second)
	v.SetDefault("collaborators.projects.base_url", "http://localhost:8002")
	v.SetDefault("collaborators.projects.timeout", 5*time.Second)
	v.SetDefault("collaborators.teams.base_url", "http://localhost:8003")
	v.SetDefault("collaborators.teams.timeout", 5*time.Second)
	v.SetDefault("collaborators.notifications.base_url", "http://localhost:8004")
	v.SetDefault("collaborators.notifications.timeout", 5*time.Second)
	v.SetDefault("collaborators.analytics.base_url", "http://localhost:8005")
	v.SetDefault("collaborators.analytics.timeout", 5*time.Second)
	v.SetDefault("collaborators.users.base_url", "http://localhost:8006")
	v.SetDefault("collaborators.users.timeout", 5*time.Second)

	v.SetDefault("internal_secret", "")
	v.SetDefault("activity_ttl", 90*24*time.Hour)
}

func bindEnvs(v *viper.Viper) {
	keys := []string{
		"server.port", "server.shutdown_timeout", "log_dir",
		"mongo.uri", "mongo.database",
		"cassandra.hosts", "cassandra.keyspace",
		"smtp.host", "smtp.port", "smtp.from", "smtp.password",
		"reminder.hour", "reminder.minute", "reminder.timezone",
		"reminder.task_window_days", "reminder.project_window_days",
		"collaborators.tasks.base_url", "collaborators.tasks.timeout",
		"collaborators.projects.base_url", "collaborators.projects.timeout",
		"collaborators.teams.base_url", "collaborators.teams.timeout",
		"collaborators.notifications.base_url", "collaborators.notifications.timeout",
		"collaborators.analytics.base_url", "collaborators.analytics.timeout",
		"collaborators.users.base_url", "collaborators.users.timeout",
		"internal_secret", "activity_ttl",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}
