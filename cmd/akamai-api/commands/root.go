// Package commands implements the akamai-api command line interface.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/akamai-api/akamai-api/internal/cli"
	"github.com/akamai-api/akamai-api/internal/constants"
	"github.com/akamai-api/akamai-api/pkg/akamai"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// App represents the application.
type App struct {
	cmd    *cobra.Command
	viper  *viper.Viper
	config appConfig
}

// appConfig holds the configuration for the application.
type appConfig struct {
	Verbosity int  `mapstructure:"verbose" yaml:"verbose,omitempty"`
	JSONLogs  bool `mapstructure:"jsonlogs" yaml:"jsonlogs,omitempty"`

	Credentials string `mapstructure:"credentials" yaml:"credentials,omitempty"`
	Profile     string `mapstructure:"profile" yaml:"profile,omitempty"`
	Username    string `mapstructure:"username" yaml:"username,omitempty"`
	Password    string `mapstructure:"password" yaml:"password,omitempty"`

	Log     bool          `mapstructure:"log" yaml:"log,omitempty"`
	Format  string        `mapstructure:"format" yaml:"format,omitempty"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`

	Purge   purgeConfig   `mapstructure:"purge" yaml:"purge,omitempty"`
	Eccu    eccuConfig    `mapstructure:"eccu" yaml:"eccu,omitempty"`
	Publish publishConfig `mapstructure:"publish" yaml:"publish,omitempty"`
}

type purgeConfig struct {
	URL string `mapstructure:"url" yaml:"url,omitempty"`
}

type eccuConfig struct {
	URL       string `mapstructure:"url" yaml:"url,omitempty"`
	Namespace string `mapstructure:"namespace" yaml:"namespace,omitempty"`
}

// publishConfig are the defaults of published ECCU requests.
type publishConfig struct {
	Notes        string `mapstructure:"notes" yaml:"notes,omitempty"`
	PropertyType string `mapstructure:"propertytype" yaml:"propertytype,omitempty"`
	ExactMatch   bool   `mapstructure:"exactmatch" yaml:"exactmatch,omitempty"`
}

// New creates a new App instance with default values.
func New() (*App, error) {
	a := App{}

	a.cmd = &cobra.Command{
		Use:   constants.CmdName,
		Short: "Akamai CCU and ECCU client",
		Long: "Check the status of Akamai CCU purge requests, and list, publish, update and destroy " +
			"ECCU requests. Credentials are read from flags, environment, configuration or the credentials file.",
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Command parsing has been successful. Returns to not print usage anymore.
			a.cmd.SilenceUsage = true
			cli.SetSlog(a.config.Verbosity, a.config.JSONLogs, cmd.ErrOrStderr()) // Set verbosity before loading config
			if err := cli.InitViperConfig(constants.CmdName, a.cmd, a.viper); err != nil {
				return err
			}
			if err := a.viper.Unmarshal(&a.config, viper.DecodeHook(decodeHook())); err != nil {
				return fmt.Errorf("unable to decode configuration into struct: %w", err)
			}
			cli.SetSlog(a.config.Verbosity, a.config.JSONLogs, cmd.ErrOrStderr()) // Update logging after loading config if necessary

			if !slices.Contains(formats, a.config.Format) {
				a.cmd.SilenceUsage = false
				return fmt.Errorf("invalid output format %q, expected one of %v", a.config.Format, formats)
			}
			slog.Debug("Got app config", "format", a.config.Format, "profile", a.config.Profile, "purge_url", a.config.Purge.URL, "eccu_url", a.config.Eccu.URL)
			return nil
		},
	}
	a.viper = viper.New()
	a.cmd.CompletionOptions.HiddenDefaultCmd = true

	if err := installRootCmd(&a); err != nil {
		return nil, err
	}
	cli.InstallConfigFlag(a.cmd)

	a.installPurgeStatus()
	a.installEccu()
	a.installConfigure()
	a.installVersion()

	return &a, nil
}

func installRootCmd(app *App) error {
	cmd := app.cmd
	flags := cmd.PersistentFlags()

	flags.CountVarP(&app.config.Verbosity, "verbose", "v", "issue INFO (-v), DEBUG (-vv)")
	flags.BoolVar(&app.config.JSONLogs, "json-logs", false, "enable JSON formatted logs")

	flags.StringVar(&app.config.Credentials, "credentials", constants.GetDefaultCredentialsPath(), "credentials file")
	flags.StringVar(&app.config.Profile, "profile", constants.DefaultProfile, "credentials file profile")
	flags.StringVarP(&app.config.Username, "username", "u", "", "Akamai username, overrides the credentials file")
	flags.StringVarP(&app.config.Password, "password", "p", "", "Akamai password, overrides the credentials file")

	flags.BoolVar(&app.config.Log, "log", false, "log every request and response body, at debug level")
	flags.StringVarP(&app.config.Format, "format", "f", "yaml", "output format: yaml, json or toml")
	flags.DurationVar(&app.config.Timeout, "timeout", constants.DefaultTimeout, "timeout of a single call to Akamai")
	flags.StringVar(&app.config.Purge.URL, "purge-url", constants.DefaultPurgeBaseURL, "base URL of the CCU API")
	flags.StringVar(&app.config.Eccu.URL, "eccu-url", constants.DefaultEccuURL, "endpoint of the ECCU service")

	if err := cmd.MarkPersistentFlagFilename("credentials"); err != nil {
		return fmt.Errorf("failed to mark credentials flag as filename: %w", err)
	}

	for key, flag := range map[string]string{
		"verbose":     "verbose",
		"jsonlogs":    "json-logs",
		"credentials": "credentials",
		"profile":     "profile",
		"username":    "username",
		"password":    "password",
		"log":         "log",
		"format":      "format",
		"timeout":     "timeout",
		"purge.url":   "purge-url",
		"eccu.url":    "eccu-url",
	} {
		if err := app.viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return err
		}
	}

	app.viper.SetDefault("eccu.namespace", constants.DefaultEccuNamespace)
	app.viper.SetDefault("publish.notes", constants.DefaultNotes)
	app.viper.SetDefault("publish.propertytype", constants.DefaultPropertyType)
	app.viper.SetDefault("publish.exactmatch", constants.DefaultPropertyExactMatch)

	return nil
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// Run executes the command and associated process, returning an error if any.
// It is interrupted on SIGINT and SIGTERM.
func (a App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.cmd.ExecuteContext(ctx)
}

// UsageError returns if the error is a command parsing or runtime one.
func (a App) UsageError() bool {
	return !a.cmd.SilenceUsage
}

// RootCmd returns the root command.
func (a App) RootCmd() cobra.Command {
	return *a.cmd
}

// client returns the Akamai client for the loaded configuration.
// Credentials given as username or password take precedence over the credentials file.
func (a App) client() (*akamai.Client, error) {
	creds := akamai.Credentials{Username: a.config.Username, Password: a.config.Password}
	if creds.Username == "" {
		c, err := akamai.LoadCredentials(a.config.Credentials, a.config.Profile)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no credentials: set a username or create %s with the configure command", a.config.Credentials)
		}
		if err != nil {
			return nil, err
		}
		creds = c
		if a.config.Password != "" {
			creds.Password = a.config.Password
		}
	}

	return akamai.New(akamai.Config{
		Credentials:   creds,
		Log:           a.config.Log,
		PurgeBaseURL:  a.config.Purge.URL,
		EccuURL:       a.config.Eccu.URL,
		EccuNamespace: a.config.Eccu.Namespace,
		Timeout:       a.config.Timeout,
		PublishDefaults: &akamai.PublishDefaults{
			Notes:        a.config.Publish.Notes,
			PropertyType: a.config.Publish.PropertyType,
			ExactMatch:   a.config.Publish.ExactMatch,
		},
	}), nil
}
