package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the catpoint binaries.
type Config struct {
	// ServerAddress is the gRPC address of the controller.
	ServerAddress string `yaml:"server_addr"`
	// HTTPAddress is the optional listen address of the HTTP API and metrics.
	HTTPAddress string `yaml:"http_addr,omitempty"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// Log configures the global logger.
	Log LogConfig `yaml:"log"`
	// State selects where the controller state is persisted.
	State StateConfig `yaml:"state"`
	// Classifier selects the image classifier.
	Classifier ClassifierConfig `yaml:"classifier"`
	// MQTT configures sensor ingress and event publishing; disabled when Broker is empty.
	MQTT MQTTConfig `yaml:"mqtt,omitempty"`
	// Influx configures the alarm history sink; disabled when URL is empty.
	Influx InfluxConfig `yaml:"influx,omitempty"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is console or json.
	Format string `yaml:"format"`
}

// StateConfig selects the persistence backend.
type StateConfig struct {
	// Driver is one of file, sqlite, memory.
	Driver string `yaml:"driver"`
	// Path is the state file or database location.
	Path string `yaml:"path"`
}

// ClassifierConfig selects and tunes the image classifier.
type ClassifierConfig struct {
	// Kind is random or remote.
	Kind string `yaml:"kind"`
	// URL is the remote classifier endpoint.
	URL string `yaml:"url,omitempty"`
	// Target is the label that counts as a detection.
	Target string `yaml:"target"`
	// Seed makes the random classifier reproducible; zero picks a random seed.
	Seed uint64 `yaml:"seed,omitempty"`
	// Fallback is the verdict used when the remote classifier is unavailable.
	Fallback bool `yaml:"fallback"`
	// MaxFailures is the number of consecutive failures that opens the circuit breaker.
	MaxFailures uint32 `yaml:"max_failures"`
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

// MQTTConfig configures the MQTT broker connection.
type MQTTConfig struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883.
	Broker string `yaml:"broker"`
	// ClientID identifies this controller on the broker.
	ClientID string `yaml:"client_id"`
	// Username is the optional broker user.
	Username string `yaml:"username,omitempty"`
	// Password is the optional broker password.
	Password string `yaml:"password,omitempty"`
	// TopicPrefix is prepended to every topic.
	TopicPrefix string `yaml:"topic_prefix"`
}

// InfluxConfig configures the InfluxDB history sink.
type InfluxConfig struct {
	// URL is the InfluxDB server URL.
	URL string `yaml:"url"`
	// Token is the API token.
	Token string `yaml:"token"`
	// Org is the organization name.
	Org string `yaml:"org"`
	// Bucket is the destination bucket.
	Bucket string `yaml:"bucket"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "catpoint-settings.yaml"

	// DefaultStateFilename is the default filename for the JSON state.
	DefaultStateFilename = "catpoint-state.json"

	// DefaultDatabaseFilename is the default filename for the SQLite state.
	DefaultDatabaseFilename = "catpoint-state.db"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config and state files.
	DefaultFilePermissions = 0o600

	// DefaultClassifierTarget is the label the classifier looks for.
	DefaultClassifierTarget = "cat"

	// DefaultBreakerFailures is the default number of failures that opens the breaker.
	DefaultBreakerFailures = 3

	// DefaultBreakerTimeout is the default open period of the breaker.
	DefaultBreakerTimeout = 30 * time.Second

	// DefaultTopicPrefix is the default MQTT topic prefix.
	DefaultTopicPrefix = "catpoint"

	// DefaultClientID is the default MQTT client identifier.
	DefaultClientID = "catpoint-server"
)

// State drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Classifier kinds.
const (
	ClassifierRandom = "random"
	ClassifierRemote = "remote"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errUnknownDriver is returned for unsupported state drivers.
	errUnknownDriver = errors.New("unknown state driver")
	// errUnknownClassifier is returned for unsupported classifier kinds.
	errUnknownClassifier = errors.New("unknown classifier kind")
	// errClassifierURLRequired is returned when the remote classifier has no endpoint.
	errClassifierURLRequired = errors.New("remote classifier requires url")
	// errInfluxIncomplete is returned when InfluxDB is partially configured.
	errInfluxIncomplete = errors.New("influx requires url, token, org and bucket")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file may carry broker and InfluxDB credentials.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
func Validate(settings *Config) error {
	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.HTTPAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", settings.HTTPAddress); err != nil {
			return fmt.Errorf("invalid http socket: %w", err)
		}
	}

	// Set default timeout if not specified
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if err := validateState(&settings.State); err != nil {
		return err
	}

	if err := validateClassifier(&settings.Classifier); err != nil {
		return err
	}

	if err := validateMQTT(&settings.MQTT); err != nil {
		return err
	}

	return validateInflux(&settings.Influx)
}

// validateState checks the driver and picks a default path per driver.
func validateState(state *StateConfig) error {
	if state.Driver == "" {
		state.Driver = DriverFile
	}

	switch state.Driver {
	case DriverFile:
		if state.Path == "" {
			state.Path = DefaultStateFilename
		}
	case DriverSQLite:
		if state.Path == "" {
			state.Path = DefaultDatabaseFilename
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%w: %q", errUnknownDriver, state.Driver)
	}

	return nil
}

// validateClassifier checks the classifier kind and fills breaker defaults.
func validateClassifier(classifier *ClassifierConfig) error {
	if classifier.Kind == "" {
		classifier.Kind = ClassifierRandom
	}

	if classifier.Target == "" {
		classifier.Target = DefaultClassifierTarget
	}

	switch classifier.Kind {
	case ClassifierRandom:
		return nil
	case ClassifierRemote:
	default:
		return fmt.Errorf("%w: %q", errUnknownClassifier, classifier.Kind)
	}

	if classifier.URL == "" {
		return errClassifierURLRequired
	}

	if _, err := url.ParseRequestURI(classifier.URL); err != nil {
		return fmt.Errorf("invalid classifier URI: %w", err)
	}

	if classifier.MaxFailures == 0 {
		classifier.MaxFailures = DefaultBreakerFailures
	}

	if classifier.OpenTimeout <= 0 {
		classifier.OpenTimeout = DefaultBreakerTimeout
	}

	return nil
}

// validateMQTT checks the broker URL when MQTT is enabled.
func validateMQTT(mqtt *MQTTConfig) error {
	if mqtt.Broker == "" {
		return nil
	}

	if _, err := url.ParseRequestURI(mqtt.Broker); err != nil {
		return fmt.Errorf("invalid broker URI: %w", err)
	}

	if mqtt.ClientID == "" {
		mqtt.ClientID = DefaultClientID
	}

	if mqtt.TopicPrefix == "" {
		mqtt.TopicPrefix = DefaultTopicPrefix
	}

	return nil
}

// validateInflux requires every field once any of them is set.
func validateInflux(influx *InfluxConfig) error {
	if *influx == (InfluxConfig{}) {
		return nil
	}

	if influx.URL == "" || influx.Token == "" || influx.Org == "" || influx.Bucket == "" {
		return errInfluxIncomplete
	}

	if _, err := url.ParseRequestURI(influx.URL); err != nil {
		return fmt.Errorf("invalid influx URI: %w", err)
	}

	return nil
}
