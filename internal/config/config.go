// Package config loads and validates the kiosk service configuration. Grounded on the teacher's
// cmd/main.go viper.SetDefault/ReadInConfig usage, paired with a required-dotted-key validator
// ported from original_source/core/utils.py's check_config: a key of the form "section:option"
// means config[section] must itself be a non-empty map containing option.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/shared"
)

// requiredKeys mirrors the original's REQ_CFG_OPTIONS list (SPEC_FULL §6's config surface):
// every module that is fatal-at-startup-if-misconfigured names its required dotted keys here.
var requiredKeys = []string{
	"db:dsn",
	"cloud:endpoints",
	"cloud:mqtt",
	"cache:redis",
	"kafka:brokers",
	"temporal:host_port",
	"temporal:task_queue",
	"http:timeout",
	"sentry:dsn",
}

// Config is the fully-parsed, validated service configuration.
type Config struct {
	DB struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"db"`

	Cloud struct {
		Endpoints map[string]struct {
			URL    string `mapstructure:"url"`
			APIKey string `mapstructure:"api_key"`
		} `mapstructure:"endpoints"`
		MQTT struct {
			Endpoint        string        `mapstructure:"endpoint"`
			Port            int           `mapstructure:"port"`
			DeviceID        string        `mapstructure:"device_id"`
			CACertificate   string        `mapstructure:"ca_certificate"`
			Certificate     string        `mapstructure:"certificate"`
			PrivateKey      string        `mapstructure:"private_key"`
			ConnectAttempts int           `mapstructure:"connect_attempts"`
			ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
			DispenseTopic   string        `mapstructure:"dispense_topic"`
		} `mapstructure:"mqtt"`
	} `mapstructure:"cloud"`

	Cache struct {
		Redis struct {
			Address string `mapstructure:"address"`
		} `mapstructure:"redis"`
	} `mapstructure:"cache"`

	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
	} `mapstructure:"kafka"`

	Temporal struct {
		HostPort  string `mapstructure:"host_port"`
		TaskQueue string `mapstructure:"task_queue"`
	} `mapstructure:"temporal"`

	HTTP struct {
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"http"`

	Sentry struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"sentry"`

	RESTAddr string `mapstructure:"rest_addr"`
	WSAddr   string `mapstructure:"ws_addr"`
	Dev      bool   `mapstructure:"dev"`
}

// Load reads configuration from the given file (if non-empty) plus KIOSK_-prefixed environment
// overrides, applies defaults, validates required keys, and unmarshals into Config.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("KIOSK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", ":", "_"))

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, shared.NewConfigError("config", "file:"+configFile)
		}
	}

	if err := checkRequired(v.AllSettings(), requiredKeys); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal config: %w", shared.ErrConfig, err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cloud.mqtt.port", 8883)
	v.SetDefault("cloud.mqtt.connect_attempts", 5)
	v.SetDefault("cloud.mqtt.connect_timeout", 2*time.Second)
	v.SetDefault("cloud.mqtt.dispense_topic", "kiosk/dispense")
	v.SetDefault("http.timeout", 15*time.Second)
	v.SetDefault("rest_addr", ":8080")
	v.SetDefault("ws_addr", ":8081")
	v.SetDefault("temporal.task_queue", "kiosk-dispense-task-queue")
}

// checkRequired is the dotted "section:option" validator, ported from check_config.
func checkRequired(cfg map[string]any, required []string) error {
	for _, key := range required {
		if !strings.Contains(key, ":") {
			if !present(cfg, key) {
				return shared.NewConfigError("config", key)
			}
			continue
		}
		parts := strings.SplitN(key, ":", 2)
		section, ok := cfg[parts[0]].(map[string]any)
		if !ok || len(section) == 0 {
			return shared.NewConfigError(parts[0], parts[1])
		}
		if !present(section, parts[1]) {
			return shared.NewConfigError(parts[0], parts[1])
		}
	}
	return nil
}

func present(m map[string]any, key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	switch t := v.(type) {
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
