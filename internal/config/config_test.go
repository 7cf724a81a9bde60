package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "nyayai.db", cfg.Database.Path)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.Gateway.BaseURL)
	assert.Equal(t, "https://github.com/copilot", cfg.Gateway.Referer)
	assert.Equal(t, 60*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, 0.3, cfg.Sampling.Temperature)
	assert.Equal(t, 300, cfg.Sampling.MaxTokens)
	assert.Equal(t, 0.8, cfg.Sampling.TopP)
	assert.Equal(t, int64(10*1024*1024), cfg.Upload.MaxBytes())
	assert.True(t, cfg.Privacy.RedactPrompts)
	assert.Equal(t, 3, cfg.Assistant.ContextSections)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `server:
  port: 9090
gateway:
  timeout: 15s
backends:
  deepseek:
    temperature: 0.4
  openai:
    model: openai/gpt-4o-mini
upload:
  max_file_size_mb: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, int64(5*1024*1024), cfg.Upload.MaxBytes())

	reg, err := cfg.Registry()
	require.NoError(t, err)
	deepseek, _ := reg.Lookup("deepseek")
	assert.Equal(t, 0.4, deepseek.Sampling.Temperature)
	assert.Equal(t, 2000, deepseek.Sampling.MaxTokens)
	openai, _ := reg.Lookup("openai")
	assert.Equal(t, "openai/gpt-4o-mini", openai.Model)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NYAYAI_SERVER_PORT", "7070")
	t.Setenv("NYAYAI_DATABASE_PATH", "/tmp/legal.db")

	v := newViper()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/tmp/legal.db", cfg.Database.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  interface{}
	}{
		{"negative port", "server.port", -1},
		{"empty db path", "database.path", ""},
		{"zero upload size", "upload.max_file_size_mb", 0},
		{"zero max tokens", "sampling.max_tokens", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := newViper()
			v.Set(tc.key, tc.val)
			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}

func TestAPIKeyEnvAlias(t *testing.T) {
	t.Setenv("NYAYAI_OPENROUTER_API_KEY", "sk-or-v1-from-env")

	v := newViper()
	BindEnv(v)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "sk-or-v1-from-env", cfg.Gateway.APIKey)
}
