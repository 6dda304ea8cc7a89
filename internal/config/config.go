package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "quadro.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	Path     string `json:"path" mapstructure:"path"`
	Compress bool   `json:"compress" mapstructure:"compress"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// OTelConfig holds OpenTelemetry log export settings
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// GestureConfig holds the pointer timing thresholds
type GestureConfig struct {
	DragDelay time.Duration
	LongPress time.Duration
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file. Defaults and
// environment overrides stay in effect when the file cannot be read.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.path", "./quadro-state.json")
	viper.SetDefault("storage.memory.compress", false)
	viper.SetDefault("storage.sqlite.path", "./quadro.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "quadro")

	viper.SetDefault("http.addr", ":8080")
	viper.SetDefault("export.outputDir", ".")
	viper.SetDefault("board.substitutions", true)

	viper.SetDefault("gesture.dragDelay", "100ms")
	viper.SetDefault("gesture.longPress", "600ms")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "quadro")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetEnvPrefix("QUADRO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			Path:     viper.GetString("storage.memory.path"),
			Compress: viper.GetBool("storage.memory.compress"),
		},
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetGestureConfig returns the pointer timing thresholds.
func GetGestureConfig() GestureConfig {
	return GestureConfig{
		DragDelay: viper.GetDuration("gesture.dragDelay"),
		LongPress: viper.GetDuration("gesture.longPress"),
	}
}
