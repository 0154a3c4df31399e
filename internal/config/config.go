package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig
	LLM     LLMConfig
	Log     LogConfig
	History HistoryConfig
	Gesture GestureConfig
	Chat    ChatConfig
	TUI     TUIConfig `mapstructure:"tui"`
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// LLMConfig holds the LLM configuration. An empty APIKey keeps replies canned.
type LLMConfig struct {
	Provider     string `mapstructure:"provider"`
	BaseURL      string `mapstructure:"base_url"`
	APIKey       string `mapstructure:"api_key"`
	Model        string `mapstructure:"model"`
	SystemPrompt string `mapstructure:"system_prompt"`
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// HistoryConfig holds the history store configuration. An empty DBPath keeps
// the store in memory only.
type HistoryConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// GestureConfig holds the swipe thresholds of a history row, in logical pixels.
type GestureConfig struct {
	Jitter         float64 `mapstructure:"jitter"`
	MaxReveal      float64 `mapstructure:"max_reveal"`
	RevealCommit   float64 `mapstructure:"reveal_commit"`
	RestingOpen    float64 `mapstructure:"resting_open"`
	TapMax         float64 `mapstructure:"tap_max"`
	DeleteVisible  float64 `mapstructure:"delete_visible"`
	TerminalPolicy string  `mapstructure:"terminal_policy"`
}

// ChatConfig holds the chat feed configuration
type ChatConfig struct {
	ReplyDelay    time.Duration `mapstructure:"reply_delay"`
	DefaultAuthor string        `mapstructure:"default_author"`
}

// TUIConfig holds the terminal UI configuration
type TUIConfig struct {
	CellWidth float64 `mapstructure:"cell_width"`
}

// Terminal policies accepted by gesture.terminal_policy.
const (
	TerminalPolicyCommit = "commit"
	TerminalPolicyRevert = "revert"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8080")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.system_prompt", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("history.db_path", "")
	v.SetDefault("gesture.jitter", 4)
	v.SetDefault("gesture.max_reveal", 90)
	v.SetDefault("gesture.reveal_commit", 50)
	v.SetDefault("gesture.resting_open", 70)
	v.SetDefault("gesture.tap_max", 6)
	v.SetDefault("gesture.delete_visible", 10)
	v.SetDefault("gesture.terminal_policy", TerminalPolicyCommit)
	v.SetDefault("chat.reply_delay", "600ms")
	v.SetDefault("chat.default_author", "Nakamoto")
	v.SetDefault("tui.cell_width", 8)
}

// Load loads the configuration from the file named by CONFIG_PATH, or from
// config.yaml in the working directory when CONFIG_PATH is unset. A missing
// config.yaml is not an error; a missing CONFIG_PATH file is.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_PATH"))
}

// LoadFile is Load with an explicit path; an empty path behaves like Load
// without CONFIG_PATH.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("GURUCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects threshold combinations a row could not honour.
func (c *Config) Validate() error {
	g := c.Gesture
	switch {
	case g.MaxReveal <= 0:
		return fmt.Errorf("gesture.max_reveal must be positive, got %v", g.MaxReveal)
	case g.RevealCommit < 0 || g.RevealCommit > g.MaxReveal:
		return fmt.Errorf("gesture.reveal_commit must be within [0, %v], got %v", g.MaxReveal, g.RevealCommit)
	case g.RestingOpen <= g.RevealCommit || g.RestingOpen > g.MaxReveal:
		return fmt.Errorf("gesture.resting_open must be within (%v, %v], got %v", g.RevealCommit, g.MaxReveal, g.RestingOpen)
	case g.Jitter < 0 || g.TapMax < 0:
		return errors.New("gesture.jitter and gesture.tap_max must not be negative")
	}
	switch g.TerminalPolicy {
	case TerminalPolicyCommit, TerminalPolicyRevert:
	default:
		return fmt.Errorf("gesture.terminal_policy must be %q or %q, got %q", TerminalPolicyCommit, TerminalPolicyRevert, g.TerminalPolicy)
	}
	if c.TUI.CellWidth <= 0 {
		return fmt.Errorf("tui.cell_width must be positive, got %v", c.TUI.CellWidth)
	}
	return nil
}
