package akamai

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/akamai-api/akamai-api/internal/constants"
	"github.com/akamai-api/akamai-api/internal/fileutils"
	"github.com/ubuntu/decorate"
	"gopkg.in/ini.v1"
)

var (
	// ErrProfileNotFound is returned when the credentials file has no section for the requested profile.
	ErrProfileNotFound = errors.New("credentials profile not found")

	// ErrMissingUsername is returned when a credentials profile does not set a username.
	ErrMissingUsername = errors.New("credentials profile has no username")
)

// Credentials are the Akamai control center credentials used for basic authentication.
type Credentials struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// DefaultCredentialsPath returns the path of the credentials file in the user home directory.
func DefaultCredentialsPath() string {
	return constants.GetDefaultCredentialsPath()
}

// LoadCredentials reads the credentials of profile from the INI file at path.
// Each section of the file is a profile, holding username and password keys.
// An empty profile selects the default one.
func LoadCredentials(path, profile string) (c Credentials, err error) {
	defer decorate.OnError(&err, "could not load credentials from %s", path)

	if profile == "" {
		profile = constants.DefaultProfile
	}

	f, err := ini.Load(path)
	if err != nil {
		return Credentials{}, err
	}

	sec, err := f.GetSection(profile)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %s", ErrProfileNotFound, profile)
	}

	c = Credentials{
		Username: sec.Key("username").String(),
		Password: sec.Key("password").String(),
	}
	if c.Username == "" {
		return Credentials{}, fmt.Errorf("%w: %s", ErrMissingUsername, profile)
	}
	slog.Debug("Loaded credentials", "file", path, "profile", profile, "username", c.Username)

	return c, nil
}

// SaveCredentials stores c as profile in the INI file at path, keeping the other profiles.
// The file is replaced atomically, except on Windows.
func SaveCredentials(path, profile string, c Credentials) (err error) {
	defer decorate.OnError(&err, "could not save credentials to %s", path)

	if profile == "" {
		profile = constants.DefaultProfile
	}
	if c.Username == "" {
		return ErrMissingUsername
	}

	f, err := ini.Load(path)
	if os.IsNotExist(err) {
		f = ini.Empty()
	} else if err != nil {
		return err
	}

	sec := f.Section(profile)
	sec.Key("username").SetValue(c.Username)
	sec.Key("password").SetValue(c.Password)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return fmt.Errorf("could not render credentials: %v", err)
	}

	return fileutils.AtomicWrite(path, buf.Bytes(), 0700)
}
