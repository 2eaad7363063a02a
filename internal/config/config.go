package config

import (
	"log"

	"github.com/spf13/viper"
)

type DetectorConfig struct {
	Mode            string `mapstructure:"mode"` // enum: http, docker
	BaseURL         string `mapstructure:"base_url"`
	TokenSecret     string `mapstructure:"token_secret"`
	Image           string `mapstructure:"image"`
	ContainerPrefix string `mapstructure:"container_prefix"`
}

type HubConfig struct {
	Buffer int `mapstructure:"buffer"`
}

type Config struct {
	DatabaseURL string         `mapstructure:"database_url"`
	ServerPort  string         `mapstructure:"server_port"`
	Detector    DetectorConfig `mapstructure:"detector"`
	Hub         HubConfig      `mapstructure:"hub"`
}

// Load reads the configuration from a YAML file and returns a Config instance.
func Load() *Config {
	v := viper.New()

	// Look for config in the current directory and ./config
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.AddConfigPath("./config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Error unmarshalling config: %v", err)
	}

	// Fallback defaults
	if config.ServerPort == "" {
		config.ServerPort = "8080"
	}

	if config.DatabaseURL == "" {
		log.Fatal("Database URL must be set in the config file")
	}

	if config.Detector.Mode == "" {
		config.Detector.Mode = "http"
	}
	if config.Detector.Mode == "http" && config.Detector.BaseURL == "" {
		log.Fatal("Detector base URL must be set for http mode")
	}
	if config.Detector.Mode == "docker" && config.Detector.Image == "" {
		log.Fatal("Detector image must be set for docker mode")
	}
	if config.Hub.Buffer == 0 {
		config.Hub.Buffer = 16
	}

	return &config
}
