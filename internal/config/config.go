package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Talenter"`
		Port int    `envconfig:"PORT" default:"8080"`
		URL  string `envconfig:"APP_URL" default:"http://localhost:8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"talenter"`
	}

	Redis struct {
		Addr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	}

	JWT struct {
		Secret string `envconfig:"JWT_SECRET" default:"supersecret"`
	}

	Google struct {
		APIKey string `envconfig:"GOOGLE_API_KEY"`
	}

	Paystack struct {
		Key string `envconfig:"PAYSTACK_KEY"`
	}

	Cloudinary struct {
		CloudName string `envconfig:"CLOUDINARY_CLOUD_NAME"`
		APIKey    string `envconfig:"CLOUDINARY_API_KEY"`
		APISecret string `envconfig:"CLOUDINARY_API_SECRET"`
	}

	OneSignal struct {
		AppID  string `envconfig:"ONESIGNAL_APP_ID"`
		APIKey string `envconfig:"ONESIGNAL_API_KEY"`
	}

	SMTP struct {
		Host     string `envconfig:"SMTP_HOST"`
		Port     string `envconfig:"SMTP_PORT"`
		Username string `envconfig:"SMTP_USERNAME"`
		Password string `envconfig:"SMTP_PASSWORD"`
		From     string `envconfig:"SMTP_FROM"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	return &cfg, nil
}
