// Package soap implements the minimal SOAP 1.1 transport used to talk to RPC style web services.
// Requests are built from a small set of typed fields, responses are decoded into generic field maps.
package soap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Namespaces used in the request envelope.
const (
	EnvelopeNamespace = "http://schemas.xmlsoap.org/soap/envelope/"
	SchemaNamespace   = "http://www.w3.org/2001/XMLSchema"
	InstanceNamespace = "http://www.w3.org/2001/XMLSchema-instance"
)

// maxErrorBody is the amount of an unexpected response body kept in an HTTPError.
const maxErrorBody = 512

// Fault is a SOAP fault returned by the remote service.
type Fault struct {
	Code   string
	String string
	Actor  string
	Detail any
}

func (f *Fault) Error() string {
	return fmt.Sprintf("SOAP fault %s: %s", f.Code, f.String)
}

// HTTPError is returned when the service answers with a non successful HTTP status and no SOAP fault.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Client calls operations of a single SOAP service.
type Client struct {
	endpoint  string
	namespace string
	http      *http.Client
	log       *slog.Logger
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

// NewClient returns a Client posting envelopes to endpoint, with operations qualified by namespace.
// Authentication and instrumentation are the concern of httpClient.
func NewClient(endpoint, namespace string, httpClient *http.Client, args ...Options) *Client {
	opts := options{
		logger: slog.Default(),
	}
	for _, opt := range args {
		opt(&opts)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		endpoint:  endpoint,
		namespace: namespace,
		http:      httpClient,
		log:       opts.logger,
	}
}

// Call invokes operation with body as parameters, and returns the decoded content of the response Body element.
//
// A 401 status is always returned as an HTTPError, whatever the response holds.
// A SOAP fault is returned as a *Fault, any other non successful status as an *HTTPError.
func (c Client) Call(ctx context.Context, operation string, body *Body) (Node, error) {
	c.log.Debug("Calling SOAP operation", "endpoint", c.endpoint, "operation", operation)

	envelope, err := c.envelope(operation, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s envelope: %v", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(envelope))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `"`+operation+`"`)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %v", operation, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: truncate(data)}
	}

	n, perr := decodeBody(data)
	if perr == nil {
		if f := fault(n); f != nil {
			return nil, f
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: truncate(data)}
	}
	if perr != nil {
		return nil, perr
	}

	c.log.Debug("SOAP operation succeeded", "operation", operation)
	return n, nil
}

// envelope renders the full request document.
func (c Client) envelope(operation string, body *Body) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString(`<env:Envelope xmlns:env="` + EnvelopeNamespace + `" xmlns:xsd="` + SchemaNamespace +
		`" xmlns:xsi="` + InstanceNamespace + `" xmlns:tns="` + c.namespace + `">`)
	buf.WriteString(`<env:Body><tns:` + operation + `>`)
	if err := body.writeTo(&buf); err != nil {
		return nil, err
	}
	buf.WriteString(`</tns:` + operation + `></env:Body></env:Envelope>`)
	return buf.Bytes(), nil
}

// decodeBody parses a response envelope and returns the content of its Body.
func decodeBody(data []byte) (Node, error) {
	root, err := parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if root.name != "Envelope" {
		return nil, fmt.Errorf("invalid SOAP response: unexpected root element %q", root.name)
	}
	body := root.child("Body")
	if body == nil {
		return nil, fmt.Errorf("invalid SOAP response: missing Body element")
	}
	return body.node(root.refs(nil)), nil
}

// fault returns the fault held in a response body, if any.
func fault(n Node) *Fault {
	v, ok := n["Fault"]
	if !ok {
		return nil
	}
	m := n.Child("Fault")
	f := &Fault{Detail: m["detail"]}
	if s, ok := m["faultcode"].(string); ok {
		f.Code = strings.TrimSpace(s)
	}
	if s, ok := m["faultstring"].(string); ok {
		f.String = strings.TrimSpace(s)
	}
	if s, ok := m["faultactor"].(string); ok {
		f.Actor = strings.TrimSpace(s)
	}
	if s, ok := v.(string); ok && f.String == "" {
		f.String = strings.TrimSpace(s)
	}
	return f
}

func truncate(data []byte) string {
	if len(data) > maxErrorBody {
		data = data[:maxErrorBody]
	}
	return string(data)
}
