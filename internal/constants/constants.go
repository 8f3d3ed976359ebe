// Package constants is responsible for defining the constants used in the application.
// It also provides utility functions to get the default credentials path.
package constants

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	// CmdName is the name of the command line tool.
	CmdName = "akamai-api"

	// DefaultLogLevel is the default log level selected without any verbosity flags.
	DefaultLogLevel = slog.LevelWarn

	// CredentialsFileName is the default base name of the credentials file, stored in the user home directory.
	CredentialsFileName = ".akamai_api"

	// DefaultProfile is the credentials file section used when no profile is requested.
	DefaultProfile = "default"

	// DefaultPurgeBaseURL is the base URL of the CCU REST API.
	DefaultPurgeBaseURL = "https://api.ccu.akamai.com"

	// PurgesPath is the path under which purge requests are tracked.
	PurgesPath = "/ccu/v2/purges"

	// DefaultEccuURL is the endpoint of the ECCU SOAP service.
	DefaultEccuURL = "https://control.akamai.com/webservices/services/PublishECCU"

	// DefaultEccuNamespace is the target namespace of the ECCU service contract.
	DefaultEccuNamespace = "https://control.akamai.com/Publish.xsd"

	// DefaultTimeout is the default timeout of a single round trip to Akamai.
	DefaultTimeout = 30 * time.Second

	// DefaultNotes are the notes attached to a published ECCU request when none are given.
	DefaultNotes = "ECCU Request using AkamaiApi gem"

	// DefaultPropertyType is the property type of a published ECCU request when none is given.
	DefaultPropertyType = "hostheader"

	// DefaultPropertyExactMatch is the property exact match flag of a published ECCU request when none is given.
	DefaultPropertyExactMatch = true
)

// Version is the version of the executable, overridden at build time.
var Version = "Dev"

type options struct {
	baseDir func() (string, error)
}

type option func(*options)

// GetDefaultCredentialsPath is the default path to the credentials file.
func GetDefaultCredentialsPath(opts ...option) string {
	o := options{baseDir: os.UserHomeDir}
	for _, opt := range opts {
		opt(&o)
	}

	return filepath.Join(getBaseDir(o.baseDir), CredentialsFileName)
}

// getBaseDir is a helper function to handle the case where the baseDir function returns an error, and instead return an empty string.
func getBaseDir(baseDirFunc func() (string, error)) string {
	dir, err := baseDirFunc()
	if err != nil {
		return ""
	}
	return dir
}
