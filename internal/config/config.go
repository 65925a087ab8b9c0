package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Mongo    MongoConfig    `yaml:"mongo"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Consul   ConsulConfig   `yaml:"consul"`
	AutoFill AutoFillConfig `yaml:"autofill"`
	CORS     CORSConfig     `yaml:"cors"`
}

type ServerConfig struct {
	Port           string `yaml:"port"`
	ServiceName    string `yaml:"service_name"`
	ServiceAddress string `yaml:"service_address"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type RabbitMQConfig struct {
	URI      string `yaml:"uri"`
	Exchange string `yaml:"exchange"`
}

type ConsulConfig struct {
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// AutoFillConfig bounds the synthesized response time for automatic
// decisions.
type AutoFillConfig struct {
	MinResponseSeconds float64 `yaml:"min_response_seconds"`
	MaxResponseSeconds float64 `yaml:"max_response_seconds"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

// Load reads the optional yaml config file, then lets environment variables
// override connection details. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.ServiceName = getEnv("DIALOGUE_SERVICE_NAME", cfg.Server.ServiceName)
	cfg.Server.ServiceAddress = getEnv("DIALOGUE_SERVICE_ADDRESS", cfg.Server.ServiceAddress)
	cfg.Mongo.URI = getEnv("MONGO_URI", cfg.Mongo.URI)
	cfg.Mongo.Database = getEnv("MONGO_DATABASE", cfg.Mongo.Database)
	cfg.RabbitMQ.URI = getEnv("RABBITMQ_URI", cfg.RabbitMQ.URI)
	cfg.RabbitMQ.Exchange = getEnv("RABBITMQ_EXCHANGE", cfg.RabbitMQ.Exchange)
	cfg.Consul.Address = getEnv("CONSUL_ADDRESS", cfg.Consul.Address)

	if cfg.AutoFill.MaxResponseSeconds <= cfg.AutoFill.MinResponseSeconds {
		cfg.AutoFill = defaults().AutoFill
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "6680",
			ServiceName:    "dialogue-service",
			ServiceAddress: "dialogue-service",
		},
		Mongo: MongoConfig{
			Database: "dialogue_service",
		},
		AutoFill: AutoFillConfig{
			MinResponseSeconds: 5,
			MaxResponseSeconds: 15,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"http://localhost:3000"},
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
