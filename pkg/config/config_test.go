package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ReadsYAMLFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
parser:
  host: myhost
  store_path: /var/lib/checkmk-agent-parse/store.json
  check_interval: 30s
summarizer:
  mode: checking
  target_version:
    literal: "2.0.0p10"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "myhost", cfg.Parser.Host)
	assert.Equal(t, 30*time.Second, cfg.Parser.CheckInterval)
	assert.Equal(t, "2.0.0p10", cfg.Summarizer.TargetVersion.Literal)
	assert.Equal(t, "INFO", cfg.Logging.Level, "unset fields fall back to ApplyDefaults")
}

func TestLoad_MissingRequiredFieldFailsValidation(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
summarizer:
  mode: checking
`), 0o600))

	_, err := Load(path)
	require.Error(t, err, "parser.host and parser.store_path are required")
}

func TestLoad_IntegerCheckIntervalIsTreatedAsSeconds(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
parser:
  host: myhost
  store_path: /tmp/store.json
  check_interval: 45
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Parser.CheckInterval)
}

func TestApplyDefaults_UppercasesLogLevel(t *testing.T) {
	t.Parallel()

	cfg := &Config{Logging: LoggingConfig{Level: "debug"}}
	ApplyDefaults(cfg)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
}

func TestApplyDefaults_FillsZeroValues(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, 60*time.Second, cfg.Parser.CheckInterval)
	assert.Equal(t, "checking", cfg.Summarizer.Mode)
	assert.Equal(t, 1, cfg.Summarizer.WrongVersionStatus)
	assert.Equal(t, 1, cfg.Summarizer.RestrictedAddressMismatchStatus)
}

func TestValidate_RejectsBadLogLevel(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Parser.Host = "h"
	cfg.Parser.StorePath = "/tmp/s.json"
	cfg.Logging.Level = "TRACE"

	err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidate_AcceptsWellFormedConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Parser.Host = "h"
	cfg.Parser.StorePath = "/tmp/s.json"

	assert.NoError(t, Validate(cfg))
}

func TestSaveThenLoad_RoundTrips(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Parser.Host = "myhost"
	cfg.Parser.StorePath = "/tmp/store.json"

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "myhost", loaded.Parser.Host)
	assert.Equal(t, "/tmp/store.json", loaded.Parser.StorePath)
}

func TestDefaultConfigPath_UsesXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/checkmk-agent-parse/config.yaml", DefaultConfigPath())
}
