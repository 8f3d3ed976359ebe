package testutils

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Response is a canned answer of a fake server.
type Response struct {
	Status int
	Body   string
}

// Call is a request received by a fake server.
type Call struct {
	Operation string
	Path      string
	Body      string
	Username  string
	Password  string
}

// FakeServer is an HTTP server answering canned responses and recording the calls it receives.
//
// SOAP calls are matched on their SOAPAction header, other calls on their URL path.
type FakeServer struct {
	*httptest.Server

	responses map[string]Response
	calls     []Call
	mu        sync.Mutex
}

// NewFakeServer starts a FakeServer, closed on test cleanup.
// Unknown operations and paths are answered with a 404.
func NewFakeServer(t *testing.T, responses map[string]Response) *FakeServer {
	t.Helper()

	s := &FakeServer{responses: responses}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)

	return s
}

func (s *FakeServer) handle(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	user, pass, _ := r.BasicAuth()
	c := Call{
		Operation: strings.Trim(r.Header.Get("SOAPAction"), `"`),
		Path:      r.URL.Path,
		Body:      string(data),
		Username:  user,
		Password:  pass,
	}

	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.mu.Unlock()

	key := c.Operation
	if key == "" {
		key = c.Path
	}
	resp, ok := s.responses[key]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if resp.Status == 0 {
		resp.Status = http.StatusOK
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write([]byte(resp.Body))
}

// Calls returns the calls received so far.
func (s *FakeServer) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Operations returns the names of the SOAP operations received so far, in order.
func (s *FakeServer) Operations() []string {
	var ops []string
	for _, c := range s.Calls() {
		ops = append(ops, c.Operation)
	}
	return ops
}

// AssertSingleCall asserts that exactly one call was received, and returns it.
func (s *FakeServer) AssertSingleCall(t *testing.T) Call {
	t.Helper()

	calls := s.Calls()
	if !assert.Len(t, calls, 1, "Server should have received exactly one call") {
		return Call{}
	}
	return calls[0]
}

// SOAPEnvelope wraps body in a SOAP response envelope.
func SOAPEnvelope(body string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:xsd="http://www.w3.org/2001/XMLSchema" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
<soapenv:Body>%s</soapenv:Body>
</soapenv:Envelope>`, body)
}

// SOAPResponse wraps fields in the response element of operation, inside a SOAP envelope.
func SOAPResponse(operation, fields string) string {
	return SOAPEnvelope(fmt.Sprintf(`<ns1:%[1]sResponse xmlns:ns1="https://control.akamai.com/Publish.xsd">%[2]s</ns1:%[1]sResponse>`, operation, fields))
}

// SOAPFault returns a SOAP envelope holding a fault.
func SOAPFault(code, message string) string {
	return SOAPEnvelope(fmt.Sprintf(`<soapenv:Fault><faultcode>%s</faultcode><faultstring>%s</faultstring></soapenv:Fault>`, code, message))
}
