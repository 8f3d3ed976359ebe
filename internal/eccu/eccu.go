// Package eccu implements the client of the Akamai Edge Content Control Utility (ECCU) publishing service.
//
// ECCU requests are listed, fetched, published, updated and destroyed through SOAP operations.
package eccu

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/akamai-api/akamai-api/internal/constants"
	"github.com/akamai-api/akamai-api/internal/soap"
	"github.com/akamai-api/akamai-api/internal/transport"
	"github.com/ubuntu/decorate"
)

// ErrNoRequests is returned when the first or last request is asked for and no request exists.
var ErrNoRequests = errors.New("no ECCU request found")

// Request is a snapshot of an ECCU request, as known by Akamai when it was fetched.
type Request struct {
	File   File
	Status Status

	// Code is the file id identifying the request.
	Code     int
	Notes    string
	Property Property
	// Email is the address notified on status changes.
	Email string

	UploadDate    string
	UploadedBy    string
	VersionString string
}

// File is the ECCU rules file of a request.
type File struct {
	// Content is only retrieved when the request is fetched in verbose mode.
	Content   []byte
	Size      int
	Name      string
	MD5Digest string
}

// Status is the processing status of a request.
type Status struct {
	Code       int
	Message    string
	Extended   string
	UpdateDate string
}

// Property is the digital property a request applies to.
type Property struct {
	Name       string
	Type       string
	ExactMatch bool
}

// PublishOptions are the optional settings of a published request.
// Unset values fall back to the client publish defaults.
type PublishOptions struct {
	FileName string
	Notes    string
	Version  string
	// Emails are notified on status changes.
	Emails       []string
	PropertyType string
	ExactMatch   *bool
}

// PublishDefaults are the settings applied to published requests when not set in PublishOptions.
type PublishDefaults struct {
	Notes        string
	PropertyType string
	ExactMatch   bool
}

// DefaultPublishDefaults returns the default publish settings.
func DefaultPublishDefaults() PublishDefaults {
	return PublishDefaults{
		Notes:        constants.DefaultNotes,
		PropertyType: constants.DefaultPropertyType,
		ExactMatch:   constants.DefaultPropertyExactMatch,
	}
}

type caller interface {
	Call(ctx context.Context, operation string, body *soap.Body) (soap.Node, error)
}

// Client manages ECCU requests.
type Client struct {
	soap     caller
	defaults PublishDefaults
	log      *slog.Logger
}

type options struct {
	logger   *slog.Logger
	defaults PublishDefaults
}

// Options represents an optional function to override Client default values.
type Options func(*options)

// WithLogger sets the logger used by the client.
func WithLogger(l *slog.Logger) Options {
	return func(o *options) {
		o.logger = l
	}
}

// WithPublishDefaults overrides the settings of published requests.
func WithPublishDefaults(d PublishDefaults) Options {
	return func(o *options) {
		o.defaults = d
	}
}

// New returns a Client calling the ECCU operations through sc.
func New(sc *soap.Client, args ...Options) Client {
	opts := options{
		logger:   slog.Default(),
		defaults: DefaultPublishDefaults(),
	}
	for _, opt := range args {
		opt(&opts)
	}

	return Client{
		soap:     sc,
		defaults: opts.defaults,
		log:      opts.logger,
	}
}

// AllIDs returns the codes of every ECCU request, in the order returned by Akamai.
func (c Client) AllIDs(ctx context.Context) (ids []int, err error) {
	defer decorate.OnError(&err, "could not list ECCU requests")

	n, err := c.call(ctx, "getIds", soap.NewBody())
	if err != nil {
		return nil, err
	}

	holder, _ := n.Get("getIdsResponse", "fileIds")
	values := soap.Scalars(holder)
	ids = make([]int, 0, len(values))
	for _, v := range values {
		id, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("invalid file id %q: %v", v, err)
		}
		ids = append(ids, id)
	}

	c.log.Debug("Listed ECCU requests", "count", len(ids))
	return ids, nil
}

// Find returns the request identified by code.
// The file content is only retrieved when verbose is true.
func (c Client) Find(ctx context.Context, code int, verbose bool) (r Request, err error) {
	defer decorate.OnError(&err, "could not find ECCU request %d", code)

	body := soap.NewBody().
		Integer("fileId", code).
		Boolean("retrieveContents", verbose)
	n, err := c.call(ctx, "getInfo", body)
	if err != nil {
		return Request{}, err
	}

	return c.request(n.Child("getInfoResponse", "eccuInfo"))
}

// All returns every request, fetching them one by one.
func (c Client) All(ctx context.Context, verbose bool) ([]Request, error) {
	ids, err := c.AllIDs(ctx)
	if err != nil {
		return nil, err
	}

	requests := make([]Request, 0, len(ids))
	for _, id := range ids {
		r, err := c.Find(ctx, id, verbose)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, nil
}

// First returns the first listed request.
func (c Client) First(ctx context.Context, verbose bool) (Request, error) {
	ids, err := c.AllIDs(ctx)
	if err != nil {
		return Request{}, err
	}
	if len(ids) == 0 {
		return Request{}, ErrNoRequests
	}
	return c.Find(ctx, ids[0], verbose)
}

// Last returns the last listed request.
func (c Client) Last(ctx context.Context, verbose bool) (Request, error) {
	ids, err := c.AllIDs(ctx)
	if err != nil {
		return Request{}, err
	}
	if len(ids) == 0 {
		return Request{}, ErrNoRequests
	}
	return c.Find(ctx, ids[len(ids)-1], verbose)
}

// Publish uploads content as a new request applying to property, and returns the code of the created request.
func (c Client) Publish(ctx context.Context, property string, content []byte, opts PublishOptions) (code int, err error) {
	defer decorate.OnError(&err, "could not publish ECCU request for %q", property)

	n, err := c.call(ctx, "upload", c.publishBody(property, content, opts))
	if err != nil {
		return 0, err
	}

	v, _ := n.Get("uploadResponse", "fileId")
	s, ok := v.(string)
	if !ok {
		return 0, errors.New("response holds no file id")
	}
	code, err = strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid file id %q: %v", s, err)
	}

	c.log.Info("Published ECCU request", "property", property, "code", code)
	return code, nil
}

// PublishFile publishes the content of the file at path. The request file name is set to path.
func (c Client) PublishFile(ctx context.Context, property, path string, opts PublishOptions) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("could not read ECCU file: %w", err)
	}
	opts.FileName = path
	return c.Publish(ctx, property, content, opts)
}

// publishBody builds the upload parameters. Their order is part of the remote contract.
func (c Client) publishBody(property string, content []byte, opts PublishOptions) *soap.Body {
	notes := opts.Notes
	if notes == "" {
		notes = c.defaults.Notes
	}
	propertyType := opts.PropertyType
	if propertyType == "" {
		propertyType = c.defaults.PropertyType
	}
	exactMatch := c.defaults.ExactMatch
	if opts.ExactMatch != nil {
		exactMatch = *opts.ExactMatch
	}

	b := soap.NewBody().
		String("filename", opts.FileName).
		Text("contents", content).
		String("notes", notes).
		String("versionString", opts.Version)
	if len(opts.Emails) > 0 {
		b.String("statusChangeEmail", strings.Join(opts.Emails, " "))
	}
	return b.
		String("propertyName", property).
		String("propertyType", propertyType).
		Boolean("propertyNameExactMatch", exactMatch)
}

// SetNotes replaces the notes of the request identified by code.
// It returns false if Akamai refused the change.
func (c Client) SetNotes(ctx context.Context, code int, notes string) (ok bool, err error) {
	defer decorate.OnError(&err, "could not update notes of ECCU request %d", code)

	body := soap.NewBody().
		Integer("fileId", code).
		String("notes", notes)
	return c.update(ctx, "setNotes", body)
}

// SetEmail replaces the status change email of the request identified by code.
// It returns false if Akamai refused the change.
func (c Client) SetEmail(ctx context.Context, code int, email string) (ok bool, err error) {
	defer decorate.OnError(&err, "could not update email of ECCU request %d", code)

	body := soap.NewBody().
		Integer("fileId", code).
		String("statusChangeEmail", email)
	return c.update(ctx, "setStatusChangeEmail", body)
}

// UpdateNotes replaces the notes of r. r is only updated when Akamai accepted the change.
func (c Client) UpdateNotes(ctx context.Context, r *Request, notes string) (bool, error) {
	ok, err := c.SetNotes(ctx, r.Code, notes)
	if err != nil || !ok {
		return false, err
	}
	r.Notes = notes
	return true, nil
}

// UpdateEmail replaces the status change email of r. r is only updated when Akamai accepted the change.
func (c Client) UpdateEmail(ctx context.Context, r *Request, email string) (bool, error) {
	ok, err := c.SetEmail(ctx, r.Code, email)
	if err != nil || !ok {
		return false, err
	}
	r.Email = email
	return true, nil
}

// Destroy deletes the request identified by code.
// It returns false if Akamai refused the deletion.
func (c Client) Destroy(ctx context.Context, code int) (ok bool, err error) {
	defer decorate.OnError(&err, "could not destroy ECCU request %d", code)

	return c.update(ctx, "delete", soap.NewBody().Integer("fileId", code))
}

// update calls an operation answering with a success flag.
func (c Client) update(ctx context.Context, operation string, body *soap.Body) (bool, error) {
	n, err := c.call(ctx, operation, body)
	if err != nil {
		return false, err
	}

	v, _ := n.Get(operation+"Response", "success")
	s, isString := v.(string)
	if !isString {
		c.log.Warn("ECCU operation response holds no success flag", "operation", operation)
		return false, nil
	}
	ok, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		c.log.Warn("ECCU operation response holds an invalid success flag", "operation", operation, "success", s)
		return false, nil
	}
	return ok, nil
}

// call invokes operation, translating rejected credentials into transport.ErrUnauthorized.
func (c Client) call(ctx context.Context, operation string, body *soap.Body) (soap.Node, error) {
	n, err := c.soap.Call(ctx, operation, body)
	var httpErr *soap.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized {
		return nil, transport.ErrUnauthorized
	}
	return n, err
}

// request maps a decoded eccuInfo element.
func (c Client) request(n soap.Node) (Request, error) {
	var info eccuInfo
	if err := decodeInfo(n, &info); err != nil {
		return Request{}, err
	}

	content, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(info.Contents), ""))
	if err != nil {
		c.log.Warn("Ignoring ECCU file content which is not valid base64", "code", info.FileID, "error", err)
		content = nil
	}
	if len(content) == 0 {
		content = nil
	}

	return Request{
		File: File{
			Content:   content,
			Size:      info.FileSize,
			Name:      info.FileName,
			MD5Digest: info.MD5Digest,
		},
		Status: Status{
			Code:       info.StatusCode,
			Message:    info.StatusMessage,
			Extended:   info.ExtendedStatusMessage,
			UpdateDate: info.StatusUpdateDate,
		},
		Code:  info.FileID,
		Notes: info.Notes,
		Property: Property{
			Name:       info.PropertyName,
			Type:       info.PropertyType,
			ExactMatch: info.PropertyNameExactMatch,
		},
		Email:         info.StatusChangeEmail,
		UploadDate:    info.UploadDate,
		UploadedBy:    info.UploadedBy,
		VersionString: info.VersionString,
	}, nil
}
