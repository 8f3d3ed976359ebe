package commands

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type (
	AppConfig     = appConfig
	PurgeConfig   = purgeConfig
	EccuConfig    = eccuConfig
	PublishConfig = publishConfig
)

// Config returns the configuration of the app.
func (a *App) Config() AppConfig {
	return a.config
}

// NewForTests creates a new App instance for testing purposes, loading conf from a generated configuration file.
// It returns the buffer receiving the command output.
func NewForTests(t *testing.T, conf *AppConfig, args ...string) (*App, *bytes.Buffer) {
	t.Helper()

	if conf == nil {
		conf = &AppConfig{}
	}
	if conf.Credentials == "" {
		conf.Credentials = filepath.Join(t.TempDir(), ".akamai_api")
	}

	p := GenerateTestConfig(t, conf)

	a, err := New()
	require.NoError(t, err, "Setup: failed to create app")

	out := &bytes.Buffer{}
	a.cmd.SetOut(out)
	a.cmd.SetErr(io.Discard)
	a.cmd.SetArgs(append(args, "--config", p))

	return a, out
}

// GenerateTestConfig generates a temporary config file for testing.
func GenerateTestConfig(t *testing.T, origConf *AppConfig) string {
	t.Helper()

	var conf appConfig
	if origConf != nil {
		conf = *origConf
	}

	d, err := yaml.Marshal(conf)
	require.NoError(t, err, "Setup: failed to marshal config for tests")

	confPath := filepath.Join(t.TempDir(), "testconfig.yaml")
	require.NoError(t, os.WriteFile(confPath, d, 0600), "Setup: failed to write config for tests")

	return confPath
}

// SetArgs set some arguments on root command for tests.
func (a *App) SetArgs(args ...string) {
	a.cmd.SetArgs(args)
}
