// Package akamai Golang bindings: check CCU purge statuses and manage ECCU requests of the Akamai CDN.
package akamai

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/akamai-api/akamai-api/internal/constants"
	"github.com/akamai-api/akamai-api/internal/eccu"
	"github.com/akamai-api/akamai-api/internal/purgestatus"
	"github.com/akamai-api/akamai-api/internal/soap"
	"github.com/akamai-api/akamai-api/internal/transport"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ErrUnauthorized is returned by every operation when Akamai rejects the credentials.
	ErrUnauthorized = transport.ErrUnauthorized

	// ErrEmptyPurgeID is returned when checking a purge status without purge id.
	ErrEmptyPurgeID = purgestatus.ErrEmptyPurgeID

	// ErrNoRequests is returned when the first or last ECCU request is asked for and none exists.
	ErrNoRequests = eccu.ErrNoRequests
)

type (
	// PurgeStatus is the status of a purge request.
	PurgeStatus = purgestatus.Result
	// ServiceError is returned when Akamai refuses a purge status request for another reason than authentication.
	ServiceError = purgestatus.ServiceError

	// Eccu manages ECCU requests.
	Eccu = eccu.Client
	// EccuRequest is a snapshot of an ECCU request.
	EccuRequest = eccu.Request
	// PublishOptions are the optional settings of a published ECCU request.
	PublishOptions = eccu.PublishOptions
	// PublishDefaults are the settings applied to published ECCU requests when not set in PublishOptions.
	PublishDefaults = eccu.PublishDefaults

	// SOAPFault is a fault returned by the ECCU service.
	SOAPFault = soap.Fault
	// HTTPError is returned when the ECCU service answers with an unexpected HTTP status.
	HTTPError = soap.HTTPError
)

// Config represents the parameters needed to talk to Akamai.
// Zero values are replaced by defaults, see Resolve.
type Config struct {
	Credentials Credentials

	// Log enables logging of every request and response body, at debug level.
	Log bool

	PurgeBaseURL  string
	EccuURL       string
	EccuNamespace string
	Timeout       time.Duration

	// PublishDefaults overrides the default settings of published ECCU requests.
	PublishDefaults *PublishDefaults

	// Registerer receives the client metrics. Metrics are not registered when nil.
	Registerer prometheus.Registerer
	Logger     *slog.Logger
	// Transport performs the HTTP round trips, http.DefaultTransport when nil.
	Transport http.RoundTripper
}

// Resolve returns a copy of c with defaults applied to unset values.
func (c Config) Resolve() Config {
	if c.PurgeBaseURL == "" {
		c.PurgeBaseURL = constants.DefaultPurgeBaseURL
	}
	if c.EccuURL == "" {
		c.EccuURL = constants.DefaultEccuURL
	}
	if c.EccuNamespace == "" {
		c.EccuNamespace = constants.DefaultEccuNamespace
	}
	if c.Timeout == 0 {
		c.Timeout = constants.DefaultTimeout
	}
	if c.PublishDefaults == nil {
		d := eccu.DefaultPublishDefaults()
		c.PublishDefaults = &d
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Transport == nil {
		c.Transport = http.DefaultTransport
	}
	return c
}

// Client talks to the Akamai CCU and ECCU services. It is safe for concurrent use.
type Client struct {
	purge purgestatus.Client
	eccu  eccu.Client
}

// New returns a Client for the resolved conf.
func New(conf Config) *Client {
	conf = conf.Resolve()

	tConf := transport.Config{
		Username: conf.Credentials.Username,
		Password: conf.Credentials.Password,
		Timeout:  conf.Timeout,
		Log:      conf.Log,
	}
	tOpts := []transport.Options{
		transport.WithLogger(conf.Logger),
		transport.WithMetrics(transport.NewMetrics(conf.Registerer)),
		transport.WithBaseTransport(conf.Transport),
	}

	sc := soap.NewClient(conf.EccuURL, conf.EccuNamespace,
		transport.New("eccu", tConf, tOpts...), soap.WithLogger(conf.Logger))

	return &Client{
		purge: purgestatus.New(conf.PurgeBaseURL, transport.New("ccu", tConf, tOpts...), purgestatus.WithLogger(conf.Logger)),
		eccu:  eccu.New(sc, eccu.WithLogger(conf.Logger), eccu.WithPublishDefaults(*conf.PublishDefaults)),
	}
}

// PurgeStatus returns the status of the purge request identified by a purge id or a progress URI.
func (c *Client) PurgeStatus(ctx context.Context, purgeIDOrURI string) (PurgeStatus, error) {
	return c.purge.Execute(ctx, purgeIDOrURI)
}

// Eccu returns the ECCU requests manager.
func (c *Client) Eccu() Eccu {
	return c.eccu
}
