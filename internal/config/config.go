package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	APIBaseURL       string `mapstructure:"API_BASE_URL" validate:"required,url"`
	ChatStreamPath   string `mapstructure:"CHAT_STREAM_PATH" validate:"required,startswith=/"`
	DatabasePath     string `mapstructure:"DATABASE_PATH" validate:"required"`
	ListenAddr       string `mapstructure:"LISTEN_ADDR" validate:"required"`
	LogLevel         string `mapstructure:"LOG_LEVEL" validate:"required"`
	ConversationID   string `mapstructure:"CONVERSATION_ID" validate:"required"`
	PreviewSizeLimit int64  `mapstructure:"PREVIEW_SIZE_LIMIT" validate:"gt=0"`
	ErrorMessage     string `mapstructure:"ERROR_MESSAGE" validate:"required"`
	// StaticDir is an optional directory served at the bridge root.
	StaticDir string `mapstructure:"STATIC_DIR"`
}

// Defaults applied before the .env file and the environment are read.
var defaults = map[string]any{
	"API_BASE_URL":       "http://localhost:8000",
	"CHAT_STREAM_PATH":   "/api/chat/stream",
	"DATABASE_PATH":      "./data/versa-chat.db",
	"LISTEN_ADDR":        ":3000",
	"LOG_LEVEL":          "INFO",
	"CONVERSATION_ID":    "default",
	"PREVIEW_SIZE_LIMIT": 5 * 1024 * 1024,
	"ERROR_MESSAGE":      "Server connection error, please try again later.",
	"STATIC_DIR":         "",
}

// LoadConfig reads .env from the working directory (if present), then the
// environment, on top of the defaults. Flags bound to the global viper
// instance by the CLI take precedence over both.
func LoadConfig() (*Config, error) {
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct tags and the log level.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		var msgs []string
		for _, fieldErr := range validationErrors {
			msgs = append(msgs, fmt.Sprintf("%s failed on the '%s' tag", fieldErr.Field(), fieldErr.Tag()))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}

	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "ERROR":
		return nil
	default:
		return fmt.Errorf("invalid configuration: unknown LOG_LEVEL %q", c.LogLevel)
	}
}

// StreamURL is the absolute URL of the streaming chat endpoint.
func (c *Config) StreamURL() string {
	return c.APIBaseURL + c.ChatStreamPath
}
