// Package config loads the worker's configuration: broker connection
// details, robot identity, and the scenario/timing knobs that drive
// simulated behavior.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full set of runtime knobs, loaded from config.yaml (if
// present), overridden by MOCK_-prefixed environment variables.
type Config struct {
	Broker   Broker   `mapstructure:"broker"`
	Robot    Robot    `mapstructure:"robot"`
	Behavior Behavior `mapstructure:"behavior"`
	Dashboard Dashboard `mapstructure:"dashboard"`
}

// Broker holds AMQP connection and topology settings.
type Broker struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	VHost             string        `mapstructure:"vhost"`
	Exchange          string        `mapstructure:"exchange"`
	ConnectionTimeout time.Duration `mapstructure:"connection_timeout"`
	Heartbeat         time.Duration `mapstructure:"heartbeat"`
	PrefetchCount     int           `mapstructure:"prefetch_count"`
}

// Robot holds the identity this worker impersonates.
type Robot struct {
	ID         string `mapstructure:"id"`
	ServerName string `mapstructure:"server_name"`
}

// Behavior holds the scenario/timing knobs spec.md §6 names.
type Behavior struct {
	DefaultScenario            string        `mapstructure:"default_scenario"`
	FailureRate                float64       `mapstructure:"failure_rate"`
	TimeoutRate                float64       `mapstructure:"timeout_rate"`
	BaseDelayMultiplier        float64       `mapstructure:"base_delay_multiplier"`
	MinDelay                   time.Duration `mapstructure:"min_delay"`
	ImageBaseURL               string        `mapstructure:"image_base_url"`
	HeartbeatInterval          time.Duration `mapstructure:"heartbeat_interval"`
	CCIntermediateInterval     time.Duration `mapstructure:"cc_intermediate_interval"`
	EvaporationIntermediateInterval time.Duration `mapstructure:"re_intermediate_interval"`
	Overrides                  []Override    `mapstructure:"overrides"`
}

// Override pins a task_type to a forced scenario outcome whenever Rule
// evaluates true against that command's raw params, layered on top of the
// flat failure/timeout rates. Rule is an expr expression, e.g.
// `params.work_station == "ws-99"`.
type Override struct {
	TaskType string `mapstructure:"task_type"`
	Rule     string `mapstructure:"rule"`
	Outcome  string `mapstructure:"outcome"`
}

// Dashboard holds the observational HTTP surface's settings.
type Dashboard struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load reads config.yaml from the current directory if present, applies
// MOCK_-prefixed environment overrides, and fills every unset field with
// the defaults below. A missing config file is not an error; a malformed
// one is.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("broker.host", "localhost")
	v.SetDefault("broker.port", 5672)
	v.SetDefault("broker.user", "guest")
	v.SetDefault("broker.password", "guest")
	v.SetDefault("broker.vhost", "/")
	v.SetDefault("broker.exchange", "robot.exchange")
	v.SetDefault("broker.connection_timeout", 30*time.Second)
	v.SetDefault("broker.heartbeat", 60*time.Second)
	v.SetDefault("broker.prefetch_count", 5)

	v.SetDefault("robot.id", "talos.001")
	v.SetDefault("robot.server_name", "mock-robot-server")

	v.SetDefault("behavior.default_scenario", "success")
	v.SetDefault("behavior.failure_rate", 0.0)
	v.SetDefault("behavior.timeout_rate", 0.0)
	v.SetDefault("behavior.base_delay_multiplier", 0.1)
	v.SetDefault("behavior.min_delay", 500*time.Millisecond)
	v.SetDefault("behavior.image_base_url", "http://minio:9000/bic-robot/captures")
	v.SetDefault("behavior.heartbeat_interval", 2*time.Second)
	v.SetDefault("behavior.cc_intermediate_interval", 300*time.Second)
	v.SetDefault("behavior.re_intermediate_interval", 300*time.Second)

	v.SetDefault("dashboard.enabled", true)
	v.SetDefault("dashboard.addr", ":8090")
}
