// Package cli provides the configuration and logging helpers of the command line interface.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// InitViperConfig loads the configuration file of cmdName into vip, and binds the matching environment variables.
//
// The file is the one given with the config flag of cmd. Otherwise, a cmdName.{yaml,toml,json,...} file is searched in
// the current directory, the user configuration directory, the system configuration directory and next to the binary.
// A missing file is not an error.
//
// Environment variables are prefixed with cmdName in upper case, dashes replaced by underscores. Underscores after the
// prefix separate nested keys: AKAMAI_API_PUBLISH_NOTES sets publish.notes.
func InitViperConfig(cmdName string, cmd *cobra.Command, vip *viper.Viper) error {
	if v, err := cmd.Flags().GetString("config"); err == nil && v != "" {
		vip.SetConfigFile(v)
	} else {
		vip.SetConfigName(cmdName)
		for _, p := range configPaths(cmdName) {
			vip.AddConfigPath(p)
		}
	}

	if err := vip.ReadInConfig(); err != nil {
		var e viper.ConfigFileNotFoundError
		if !errors.As(err, &e) {
			return fmt.Errorf("invalid configuration file: %w", err)
		}
		slog.Info("No configuration file, using defaults, environment variables and flags", "error", e)
	} else {
		slog.Info("Using configuration file", "file", vip.ConfigFileUsed())
	}

	prefix := envPrefix(cmdName)
	vip.SetEnvPrefix(prefix)
	vip.AutomaticEnv()

	// AutomaticEnv only applies to known keys: bind every prefixed variable so that nested keys unmarshal too.
	for _, e := range os.Environ() {
		name, _, _ := strings.Cut(e, "=")
		if !strings.HasPrefix(name, prefix+"_") {
			continue
		}
		key := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(name, prefix+"_"), "_", "."))
		if err := vip.BindEnv(key, name); err != nil {
			return fmt.Errorf("could not bind environment variable %s: %w", name, err)
		}
	}

	return nil
}

// InstallConfigFlag adds the persistent config flag to cmd.
func InstallConfigFlag(cmd *cobra.Command) *string {
	p := cmd.PersistentFlags().String("config", "", "use a specific configuration file")
	if err := cmd.MarkPersistentFlagFilename("config"); err != nil {
		panic(fmt.Sprintf("failed to mark config flag as filename: %v", err))
	}
	return p
}

func envPrefix(cmdName string) string {
	return strings.ToUpper(strings.ReplaceAll(cmdName, "-", "_"))
}

// configPaths returns the directories searched for the configuration file, by order of precedence.
func configPaths(cmdName string) []string {
	paths := []string{"."}

	if dir, err := os.UserConfigDir(); err != nil {
		slog.Debug("No user configuration directory, not adding it as a config dir", "error", err)
	} else {
		paths = append(paths, filepath.Join(dir, cmdName))
	}

	if runtime.GOOS == "windows" {
		paths = append(paths, filepath.Join(`C:\ProgramData`, cmdName))
	} else {
		paths = append(paths, filepath.Join("/etc", cmdName))
	}

	if binPath, err := os.Executable(); err != nil {
		slog.Warn("Failed to get current executable path, not adding it as a config dir", "error", err)
	} else {
		paths = append(paths, filepath.Dir(binPath))
	}

	return paths
}
