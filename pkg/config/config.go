// Package config loads the navsim service configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full service configuration loaded from navsim.yaml.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
	ZeroMQ  ZeroMQConfig  `yaml:"zeromq"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Sim     SimConfig     `yaml:"sim"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogPath string `yaml:"log_path,omitempty"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	HTTPPort int `yaml:"http_port"`
}

// ZeroMQConfig holds the pub/sub transport settings
type ZeroMQConfig struct {
	PublishBindAddress string `yaml:"publish_bind_address"`
	CommandBindAddress string `yaml:"command_bind_address"`
}

// MQTTConfig holds the optional telemetry publisher settings.
// MQTT is disabled when Broker is empty.
type MQTTConfig struct {
	Broker         string `yaml:"broker,omitempty"`
	ClientID       string `yaml:"client_id,omitempty"`
	Username       string `yaml:"username,omitempty"`
	Password       string `yaml:"password,omitempty"`
	PoseTopic      string `yaml:"pose_topic,omitempty"`
	PathTopic      string `yaml:"path_topic,omitempty"`
	TransformTopic string `yaml:"transform_topic,omitempty"`
}

// SimConfig holds the simulation parameters
type SimConfig struct {
	RobotID        string  `yaml:"robot_id"`
	MapFrame       string  `yaml:"map_frame"`
	BaseFrame      string  `yaml:"base_frame"`
	TickPeriodMs   int     `yaml:"tick_period_ms"`
	ErrorCoeff     float64 `yaml:"error_coeff"`
	LandmarkConfig string  `yaml:"landmark_config"`
}

// TickPeriod returns the configured tick period as a duration.
func (c SimConfig) TickPeriod() time.Duration {
	return time.Duration(c.TickPeriodMs) * time.Millisecond
}

// Default returns a config populated with every default value. LoadConfig
// unmarshals on top of it, so absent fields keep their defaults while an
// explicit zero (e.g. error_coeff: 0) stays zero.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Server:  ServerConfig{HTTPPort: 8080},
		MQTT:    MQTTConfig{ClientID: "navsim", PoseTopic: "navsim/pose", PathTopic: "navsim/landmark_path"},
		Sim: SimConfig{
			RobotID:      "navsim",
			MapFrame:     "map",
			BaseFrame:    "base_link",
			TickPeriodMs: 10,
			ErrorCoeff:   0.01,
		},
	}
}

// LoadConfig loads configuration from the specified file path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file '%s': %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ZeroMQ.PublishBindAddress == "" {
		return fmt.Errorf("missing required field: zeromq.publish_bind_address")
	}
	if c.ZeroMQ.CommandBindAddress == "" {
		return fmt.Errorf("missing required field: zeromq.command_bind_address")
	}
	if c.Sim.LandmarkConfig == "" {
		return fmt.Errorf("missing required field: sim.landmark_config")
	}
	if c.Sim.TickPeriodMs <= 0 {
		return fmt.Errorf("sim.tick_period_ms must be positive, got %d", c.Sim.TickPeriodMs)
	}
	if c.Sim.ErrorCoeff < 0 {
		return fmt.Errorf("sim.error_coeff must be nonnegative, got %g", c.Sim.ErrorCoeff)
	}
	return nil
}
