// Package purgestatus implements the client checking the status of a purge request
// submitted to the Akamai Content Control Utility (CCU).
package purgestatus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/akamai-api/akamai-api/internal/constants"
	"github.com/akamai-api/akamai-api/internal/fields"
	"github.com/akamai-api/akamai-api/internal/transport"
	"github.com/ubuntu/decorate"
)

// ErrEmptyPurgeID is returned when no purge id nor progress URI is given.
var ErrEmptyPurgeID = errors.New("purge id or progress URI cannot be empty")

// ServiceError is returned when Akamai refuses a purge status request for another reason than authentication.
type ServiceError struct {
	Code        int
	Message     string
	SupportID   string
	DescribedBy string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("error %d: %s", e.Code, e.Message)
}

// Result is the status of a purge request.
type Result struct {
	// Status is the purge status, such as "In-Progress" or "Done".
	Status string
	// CompletedAt is nil until the purge is done.
	CompletedAt *time.Time

	HTTPStatus  int
	PurgeID     string
	SupportID   string
	ProgressURI string
	SubmittedBy string
	SubmittedAt *time.Time

	OriginalEstimatedSeconds int
	OriginalQueueLength      int
	PingAfterSeconds         int
}

// response is the body of a purge status response, both on success and on error.
type response struct {
	HTTPStatus               int    `mapstructure:"httpStatus"`
	PurgeID                  string `mapstructure:"purgeId"`
	PurgeStatus              string `mapstructure:"purgeStatus"`
	CompletionTime           string `mapstructure:"completionTime"`
	SubmissionTime           string `mapstructure:"submissionTime"`
	SubmittedBy              string `mapstructure:"submittedBy"`
	SupportID                string `mapstructure:"supportId"`
	ProgressURI              string `mapstructure:"progressUri"`
	OriginalEstimatedSeconds int    `mapstructure:"originalEstimatedSeconds"`
	OriginalQueueLength      int    `mapstructure:"originalQueueLength"`
	PingAfterSeconds         int    `mapstructure:"pingAfterSeconds"`

	Title       string `mapstructure:"title"`
	Detail      string `mapstructure:"detail"`
	DescribedBy string `mapstructure:"describedBy"`
}

// Client checks purge request statuses.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

type options struct {
	logger *slog.Logger
}

// Options represents an optional function to override Client default values.
type Options func(*options)

// WithLogger sets the logger used by the client.
func WithLogger(l *slog.Logger) Options {
	return func(o *options) {
		o.logger = l
	}
}

// New returns a Client querying the CCU API at baseURL with httpClient.
func New(baseURL string, httpClient *http.Client, args ...Options) Client {
	opts := options{
		logger: slog.Default(),
	}
	for _, opt := range args {
		opt(&opts)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return Client{
		baseURL: baseURL,
		http:    httpClient,
		log:     opts.logger,
	}
}

// Execute returns the status of the purge request identified by purgeIDOrURI.
//
// purgeIDOrURI is either a purge id, or the progress URI returned when the purge was submitted.
// It returns transport.ErrUnauthorized on a 401, and a *ServiceError on any other unsuccessful status.
func (c Client) Execute(ctx context.Context, purgeIDOrURI string) (r Result, err error) {
	defer decorate.OnError(&err, "could not get status of purge %q", purgeIDOrURI)

	u, err := c.url(purgeIDOrURI)
	if err != nil {
		return Result{}, err
	}
	c.log.Debug("Requesting purge status", "url", u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return Result{}, transport.ErrUnauthorized
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read response: %v", err)
	}
	body, decodeErr := decode(data)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, serviceError(resp.StatusCode, body)
	}
	if decodeErr != nil {
		return Result{}, decodeErr
	}

	return c.result(body), nil
}

// url normalizes purgeIDOrURI into the URL of the purge status resource.
func (c Client) url(purgeIDOrURI string) (string, error) {
	id := strings.TrimSpace(purgeIDOrURI)
	if id == "" {
		return "", ErrEmptyPurgeID
	}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL %s: %v", c.baseURL, err)
	}

	var p string
	switch {
	case strings.HasPrefix(id, "http://"), strings.HasPrefix(id, "https://"):
		full, err := url.Parse(id)
		if err != nil {
			return "", fmt.Errorf("failed to parse progress URI %s: %v", id, err)
		}
		p = full.Path
	case strings.HasPrefix(id, "/"):
		p = id
	default:
		p = path.Join(constants.PurgesPath, id)
	}

	base.Path = path.Join("/", base.Path, p)
	return base.String(), nil
}

func decode(data []byte) (response, error) {
	var r response
	if len(strings.TrimSpace(string(data))) == 0 {
		return r, nil
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return r, errors.Join(errors.New("response is not a valid JSON object"), err)
	}
	if err := fields.Decode(m, &r); err != nil {
		return r, err
	}
	return r, nil
}

func serviceError(status int, body response) *ServiceError {
	e := &ServiceError{
		Code:        body.HTTPStatus,
		Message:     body.Detail,
		SupportID:   body.SupportID,
		DescribedBy: body.DescribedBy,
	}
	if e.Code == 0 {
		e.Code = status
	}
	if e.Message == "" {
		e.Message = body.Title
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

func (c Client) result(body response) Result {
	return Result{
		Status:      body.PurgeStatus,
		CompletedAt: c.parseTime("completionTime", body.CompletionTime),

		HTTPStatus:  body.HTTPStatus,
		PurgeID:     body.PurgeID,
		SupportID:   body.SupportID,
		ProgressURI: body.ProgressURI,
		SubmittedBy: body.SubmittedBy,
		SubmittedAt: c.parseTime("submissionTime", body.SubmissionTime),

		OriginalEstimatedSeconds: body.OriginalEstimatedSeconds,
		OriginalQueueLength:      body.OriginalQueueLength,
		PingAfterSeconds:         body.PingAfterSeconds,
	}
}

// parseTime returns nil for an absent or unparsable timestamp.
func (c Client) parseTime(field, value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		c.log.Warn("Ignoring invalid timestamp in purge status", "field", field, "value", value, "error", err)
		return nil
	}
	return &t
}
