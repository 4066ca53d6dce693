package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiError "github.com/maratig/gcpause/api/error"
)

func runFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	fs.IntP("port", "p", 0, "")
	fs.StringP("source", "s", "", "")
	fs.String("source-path", "", "")
	fs.String("log-level", "", "")
	fs.Bool("workload", false, "")
	require.NoError(t, fs.Parse(args))

	return fs
}

func TestInitConfig(t *testing.T) {
	assert.Equal(t, Config{Port: defaultApiPort, Source: SourceRuntime, LogLevel: defaultLogLevel}, initConfig(Config{}))

	cfg := Config{Port: 1, Source: SourceTrace, SourcePath: "a", LogLevel: "debug", Workload: true}
	assert.Equal(t, cfg, initConfig(cfg))
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, Config{Port: defaultApiPort, Source: SourceRuntime, LogLevel: defaultLogLevel}, cfg)

	// unchanged flags keep the defaults
	cfg, err = LoadConfig("", runFlags(t))
	require.NoError(t, err)
	assert.Equal(t, Config{Port: defaultApiPort, Source: SourceRuntime, LogLevel: defaultLogLevel}, cfg)
}

func TestLoadConfigPriority(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gcpause.yaml")
	data := []byte("port: 11000\nsource: trace\nsource-path: http://127.0.0.1:11000/debug/pprof/trace\nlog-level: debug\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, Config{
		Port:       11000,
		Source:     SourceTrace,
		SourcePath: "http://127.0.0.1:11000/debug/pprof/trace",
		LogLevel:   "debug",
	}, cfg)

	t.Setenv("GCPAUSE_PORT", "12000")
	t.Setenv("GCPAUSE_WORKLOAD", "true")
	cfg, err = LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 12000, cfg.Port)
	assert.True(t, cfg.Workload)
	assert.Equal(t, "debug", cfg.LogLevel)

	cfg, err = LoadConfig(path, runFlags(t, "-p", "13000", "--source-path", "trace.out"))
	require.NoError(t, err)
	assert.Equal(t, 13000, cfg.Port)
	assert.Equal(t, "trace.out", cfg.SourcePath)
	assert.Equal(t, SourceTrace, cfg.Source)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)

	_, err = LoadConfig("", runFlags(t, "-s", "trace"))
	require.ErrorIs(t, err, apiError.ErrEmptySourcePath)

	_, err = LoadConfig("", runFlags(t, "-s", "heap"))
	require.ErrorIs(t, err, apiError.ErrUnknownSource)

	_, err = LoadConfig("", runFlags(t, "--log-level", "verbose"))
	require.Error(t, err)
}
