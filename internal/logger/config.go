package logger

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the logging section
const (
	EnvLevel       = "WAVETILES_LOG_LEVEL"
	EnvFormat      = "WAVETILES_LOG_FORMAT"
	EnvFileEnabled = "WAVETILES_LOG_FILE_ENABLED"
	EnvFilePath    = "WAVETILES_LOG_FILE_PATH"
)

// Config holds logging configuration
type Config struct {
	Level          string `yaml:"level"`
	ConsoleEnabled bool   `yaml:"console_enabled"`
	ConsoleFormat  string `yaml:"console_format"`
	FileEnabled    bool   `yaml:"file_enabled"`
	FilePath       string `yaml:"file_path"`
	FileFormat     string `yaml:"file_format"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxBackups int    `yaml:"file_max_backups"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
}

// fileSection mirrors Config with optional booleans so an absent key keeps its default
type fileSection struct {
	Level          string `yaml:"level"`
	ConsoleEnabled *bool  `yaml:"console_enabled"`
	ConsoleFormat  string `yaml:"console_format"`
	FileEnabled    *bool  `yaml:"file_enabled"`
	FilePath       string `yaml:"file_path"`
	FileFormat     string `yaml:"file_format"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxBackups int    `yaml:"file_max_backups"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
}

// DefaultConfig returns console-only text logging at INFO
func DefaultConfig() Config {
	return Config{
		Level:          "INFO",
		ConsoleEnabled: true,
		ConsoleFormat:  "text",
		FileEnabled:    false,
		FilePath:       "logs/wavetiles.log",
		FileFormat:     "text",
		FileMaxSizeMB:  10,
		FileMaxBackups: 5,
		FileMaxAgeDays: 30,
	}
}

// LoadConfig reads the logging section of the main config file
// and applies environment variable overrides.
// A missing or unparsable file leaves the defaults in place.
func LoadConfig(configPath string) (Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err == nil {
			var doc struct {
				Logging fileSection `yaml:"logging"`
			}
			if err := yaml.Unmarshal(data, &doc); err == nil {
				config.merge(doc.Logging)
			}
		}
	}

	config.applyEnv()
	return config, nil
}

func (c *Config) merge(s fileSection) {
	if s.Level != "" {
		c.Level = s.Level
	}
	if s.ConsoleEnabled != nil {
		c.ConsoleEnabled = *s.ConsoleEnabled
	}
	if s.ConsoleFormat != "" {
		c.ConsoleFormat = s.ConsoleFormat
	}
	if s.FileEnabled != nil {
		c.FileEnabled = *s.FileEnabled
	}
	if s.FilePath != "" {
		c.FilePath = s.FilePath
	}
	if s.FileFormat != "" {
		c.FileFormat = s.FileFormat
	}
	if s.FileMaxSizeMB > 0 {
		c.FileMaxSizeMB = s.FileMaxSizeMB
	}
	if s.FileMaxBackups > 0 {
		c.FileMaxBackups = s.FileMaxBackups
	}
	if s.FileMaxAgeDays > 0 {
		c.FileMaxAgeDays = s.FileMaxAgeDays
	}
}

func (c *Config) applyEnv() {
	if level := os.Getenv(EnvLevel); level != "" {
		c.Level = level
	}

	// One format variable drives both outputs
	if format := os.Getenv(EnvFormat); format != "" {
		c.ConsoleFormat = format
		c.FileFormat = format
	}

	if fileEnabled := os.Getenv(EnvFileEnabled); fileEnabled != "" {
		if enabled, err := strconv.ParseBool(fileEnabled); err == nil {
			c.FileEnabled = enabled
		}
	}

	if filePath := os.Getenv(EnvFilePath); filePath != "" {
		c.FilePath = filePath
	}
}
