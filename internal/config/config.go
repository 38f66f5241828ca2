package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Redis struct {
		Enabled    bool   `yaml:"enabled"`
		Address    string `yaml:"address"`
		Password   string `yaml:"password"`
		DB         int    `yaml:"db"`
		TTLMinutes int    `yaml:"ttlMinutes"`
	} `yaml:"redis"`

	Recognition struct {
		BaseURL           string  `yaml:"baseUrl"`
		APIKey            string  `yaml:"apiKey"`
		TimeoutSeconds    int     `yaml:"timeoutSeconds"`
		PrecheckEnabled   bool    `yaml:"precheckEnabled"`
		ReliableThreshold float64 `yaml:"reliableThreshold"`
	} `yaml:"recognition"`

	Translate struct {
		BaseURL        string `yaml:"baseUrl"`
		TargetLang     string `yaml:"targetLang"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
	} `yaml:"translate"`

	AI struct {
		APIKey         string `yaml:"apiKey"`
		Model          string `yaml:"model"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
	} `yaml:"ai"`

	Treatment struct {
		TimeoutSeconds int `yaml:"timeoutSeconds"`
	} `yaml:"treatment"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Load baca file config.yaml; .env dan env vars override secrets.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("PLANT_ID_API_KEY"); v != "" {
		cfg.Recognition.APIKey = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "mysql"
	}
	if cfg.Recognition.TimeoutSeconds == 0 {
		cfg.Recognition.TimeoutSeconds = 30
	}
	if cfg.Recognition.ReliableThreshold == 0 {
		cfg.Recognition.ReliableThreshold = 0.7
	}
	if cfg.Translate.TimeoutSeconds == 0 {
		cfg.Translate.TimeoutSeconds = 8
	}
	if cfg.Translate.TargetLang == "" {
		cfg.Translate.TargetLang = "vi"
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 30
	}
	if cfg.Treatment.TimeoutSeconds == 0 {
		cfg.Treatment.TimeoutSeconds = 5
	}
	if cfg.Redis.TTLMinutes == 0 {
		cfg.Redis.TTLMinutes = 60
	}
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN for deployments on Postgres
func (c *Config) PostgresDSN() string {
	ssl := c.Database.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.Name, ssl)
}

func (c *Config) RecognitionTimeout() time.Duration {
	return time.Duration(c.Recognition.TimeoutSeconds) * time.Second
}

func (c *Config) TranslateTimeout() time.Duration {
	return time.Duration(c.Translate.TimeoutSeconds) * time.Second
}

func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

func (c *Config) TreatmentTimeout() time.Duration {
	return time.Duration(c.Treatment.TimeoutSeconds) * time.Second
}

func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.Redis.TTLMinutes) * time.Minute
}
