package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/maratig/gcpause/app"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "gcpause version "+version+"\n", out)
}

func TestConfig(t *testing.T) {
	t.Setenv("GCPAUSE_LOG_LEVEL", "warn")

	out, err := execute(t, "config", "-s", "trace", "--source-path", "trace.out", "-p", "10500")
	require.NoError(t, err)

	var cfg app.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, app.Config{Port: 10500, Source: app.SourceTrace, SourcePath: "trace.out", LogLevel: "warn"}, cfg)
}

func TestConfigInvalid(t *testing.T) {
	_, err := execute(t, "config", "-s", "heap")
	require.Error(t, err)
}
