package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Sensor  SensorConfig  `mapstructure:"sensor"`
	NATS    NATSConfig    `mapstructure:"nats"`
	Presets PresetsConfig `mapstructure:"presets"`
}

type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type SensorConfig struct {
	// Chip ids to attach at startup.
	ChipIDs []int32 `mapstructure:"chip_ids"`
	// ISO 3166-1 alpha-2, applied before the first power-on.
	CountryCode string `mapstructure:"country_code"`
	// off, err, wrn, inf, dbg
	LogLevel string `mapstructure:"log_level"`
	// drop_new or drop_old
	FifoMode string `mapstructure:"fifo_mode"`
}

type NATSConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type PresetsConfig struct {
	SearchPaths []string `mapstructure:"search_paths"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	// Defaults setzen
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("sensor.chip_ids", []int32{0})
	viper.SetDefault("sensor.country_code", "US")
	viper.SetDefault("sensor.log_level", "inf")
	viper.SetDefault("sensor.fifo_mode", "drop_old")
	viper.SetDefault("nats.enabled", false)
	viper.SetDefault("nats.url", "nats://localhost:4222")
	viper.SetDefault("nats.subject_prefix", "radar")
	viper.SetDefault("presets.search_paths", []string{"./presets"})

	// Environment Variables automatisch binden (Viper Feature)
	viper.AutomaticEnv()
	viper.SetEnvPrefix("ORC") // Environment Variables mit Prefix ORC_

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
