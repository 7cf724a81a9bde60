package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"nyayai/internal/core/registry"
)

// EnvPrefix is prepended to every environment override, e.g. NYAYAI_SERVER_PORT.
const EnvPrefix = "NYAYAI"

// Config is the typed view over viper used by the commands.
type Config struct {
	Server    ServerConfig                 `mapstructure:"server"`
	Log       LogConfig                    `mapstructure:"log"`
	Database  DatabaseConfig               `mapstructure:"database"`
	Gateway   GatewayConfig                `mapstructure:"gateway"`
	Sampling  registry.Sampling            `mapstructure:"sampling"`
	Backends  map[string]registry.Override `mapstructure:"backends"`
	Upload    UploadConfig                 `mapstructure:"upload"`
	Assistant AssistantConfig              `mapstructure:"assistant"`
	Privacy   PrivacyConfig                `mapstructure:"privacy"`
	RateLimit RateLimitConfig              `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// GatewayConfig describes the shared OpenRouter endpoint.
type GatewayConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Referer string        `mapstructure:"referer"`
	Timeout time.Duration `mapstructure:"timeout"`
	// APIKey is only used by CLI commands; HTTP sessions bring their own key.
	APIKey string `mapstructure:"api_key"`
}

type UploadConfig struct {
	MaxFileSizeMB int `mapstructure:"max_file_size_mb"`
}

// MaxBytes returns the upload limit in bytes.
func (u UploadConfig) MaxBytes() int64 {
	return int64(u.MaxFileSizeMB) * 1024 * 1024
}

type AssistantConfig struct {
	MaxSummaryChars int `mapstructure:"max_summary_chars"`
	ContextSections int `mapstructure:"context_sections"`
}

type PrivacyConfig struct {
	RedactPrompts bool `mapstructure:"redact_prompts"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// Init loads .env, then config.yaml from ./configs or the working directory,
// then binds NYAYAI_* environment variables.
func Init(cfgFile string) {
	// Load .env file (ignore if not exists)
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	SetDefaults(viper.GetViper())
	BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
	}
}

// SetDefaults registers every default on v. AutomaticEnv only sees keys that
// viper already knows about, so every key is listed here.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("database.path", "nyayai.db")
	v.SetDefault("gateway.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("gateway.referer", "https://github.com/copilot")
	v.SetDefault("gateway.timeout", 60*time.Second)
	v.SetDefault("gateway.api_key", "")
	v.SetDefault("sampling.temperature", registry.DefaultSampling.Temperature)
	v.SetDefault("sampling.max_tokens", registry.DefaultSampling.MaxTokens)
	v.SetDefault("sampling.top_p", registry.DefaultSampling.TopP)
	v.SetDefault("sampling.presence_penalty", registry.DefaultSampling.PresencePenalty)
	v.SetDefault("sampling.frequency_penalty", registry.DefaultSampling.FrequencyPenalty)
	v.SetDefault("upload.max_file_size_mb", 10)
	v.SetDefault("assistant.max_summary_chars", 12000)
	v.SetDefault("assistant.context_sections", 3)
	v.SetDefault("privacy.redact_prompts", true)
	v.SetDefault("ratelimit.rps", 5.0)
	v.SetDefault("ratelimit.burst", 10)
}

// BindEnv adds environment aliases that do not follow the key naming.
func BindEnv(v *viper.Viper) {
	_ = v.BindEnv("gateway.api_key", EnvPrefix+"_GATEWAY_API_KEY", EnvPrefix+"_OPENROUTER_API_KEY")
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the application cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Upload.MaxFileSizeMB <= 0 {
		return fmt.Errorf("upload.max_file_size_mb must be positive")
	}
	if c.Gateway.Timeout < 0 {
		return fmt.Errorf("gateway.timeout must not be negative")
	}
	if c.Sampling.MaxTokens <= 0 {
		return fmt.Errorf("sampling.max_tokens must be positive")
	}
	return nil
}

// Registry builds the backend table from the configured sampling and overrides.
func (c *Config) Registry() (*registry.Registry, error) {
	return registry.New(c.Sampling, c.Backends)
}
