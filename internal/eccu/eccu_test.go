package eccu_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/akamai-api/akamai-api/internal/constants"
	"github.com/akamai-api/akamai-api/internal/eccu"
	"github.com/akamai-api/akamai-api/internal/soap"
	"github.com/akamai-api/akamai-api/internal/testutils"
	"github.com/akamai-api/akamai-api/internal/transport"
	"github.com/stretchr/testify/require"
)

const rules = `<?xml version="1.0"?>
<eccu><match:recursive-dirs value="foo"><revalidate>now</revalidate></match:recursive-dirs></eccu>`

var (
	unauthorized = testutils.Response{Status: http.StatusUnauthorized, Body: "Unauthorized"}
	faulty       = testutils.Response{Status: http.StatusInternalServerError, Body: testutils.SOAPFault("soapenv:Server", "Invalid file id")}
	broken       = testutils.Response{Status: http.StatusBadGateway, Body: "<html>Bad gateway</html>"}
)

func idsResponse(ids ...int) testutils.Response {
	var items string
	for _, id := range ids {
		items += fmt.Sprintf(`<fileIds xsi:type="xsd:int">%d</fileIds>`, id)
	}
	return testutils.Response{Body: testutils.SOAPResponse("getIds",
		`<fileIds soapenc:arrayType="xsd:int[]" xsi:type="soapenc:Array" xmlns:soapenc="http://schemas.xmlsoap.org/soap/encoding/">`+items+`</fileIds>`)}
}

func infoResponse(code int, withContent bool) testutils.Response {
	contents := `<contents xsi:nil="true"/>`
	if withContent {
		contents = fmt.Sprintf(`<contents xsi:type="xsd:base64Binary">%s</contents>`, base64.StdEncoding.EncodeToString([]byte(rules)))
	}
	return testutils.Response{Body: testutils.SOAPResponse("getInfo", fmt.Sprintf(`<eccuInfo xsi:type="ns2:EccuInfo" xmlns:ns2="https://control.akamai.com/Publish.xsd">
	%s
	<extendedStatusMessage xsi:type="xsd:string">File successfully deployed to Akamai network</extendedStatusMessage>
	<fileId xsi:type="xsd:int">%d</fileId>
	<fileSize xsi:type="xsd:int">%d</fileSize>
	<filename xsi:type="xsd:string">rules.xml</filename>
	<md5Digest xsi:nil="true"/>
	<notes xsi:type="xsd:string">ECCU Request using AkamaiApi gem</notes>
	<propertyName xsi:type="xsd:string">foo.com</propertyName>
	<propertyNameExactMatch xsi:type="xsd:boolean">true</propertyNameExactMatch>
	<propertyType xsi:type="xsd:string">hostheader</propertyType>
	<statusChangeEmail xsi:nil="true"/>
	<statusCode xsi:type="xsd:int">1000</statusCode>
	<statusMessage xsi:type="xsd:string">Succeeded</statusMessage>
	<statusUpdateDate xsi:type="xsd:dateTime">2012-09-19T16:20:48.000Z</statusUpdateDate>
	<uploadDate xsi:type="xsd:dateTime">2012-09-19T16:14:01.000Z</uploadDate>
	<uploadedBy xsi:type="xsd:string">foo@example.com</uploadedBy>
	<versionString xsi:type="xsd:string"></versionString>
</eccuInfo>`, contents, code, len(rules)))}
}

func wantRequest(code int, withContent bool) eccu.Request {
	r := eccu.Request{
		File:   eccu.File{Size: len(rules), Name: "rules.xml"},
		Status: eccu.Status{Code: 1000, Message: "Succeeded", Extended: "File successfully deployed to Akamai network", UpdateDate: "2012-09-19T16:20:48.000Z"},
		Code:   code,
		Notes:  "ECCU Request using AkamaiApi gem",
		Property: eccu.Property{
			Name:       "foo.com",
			Type:       "hostheader",
			ExactMatch: true,
		},
		UploadDate: "2012-09-19T16:14:01.000Z",
		UploadedBy: "foo@example.com",
	}
	if withContent {
		r.File.Content = []byte(rules)
	}
	return r
}

func successResponse(operation string, success bool) testutils.Response {
	return testutils.Response{Body: testutils.SOAPResponse(operation, fmt.Sprintf(`<success xsi:type="xsd:boolean">%t</success>`, success))}
}

func newClient(t *testing.T, responses map[string]testutils.Response, args ...eccu.Options) (eccu.Client, *testutils.FakeServer) {
	t.Helper()

	s := testutils.NewFakeServer(t, responses)
	httpClient := transport.New("eccu", transport.Config{Username: "user", Password: "pass"})
	sc := soap.NewClient(s.URL, constants.DefaultEccuNamespace, httpClient)
	return eccu.New(sc, args...), s
}

// param returns the value of the named parameter in a recorded request body.
func param(t *testing.T, body, name string) string {
	t.Helper()

	m := regexp.MustCompile(`<` + name + ` xsi:type="[^"]*">([^<]*)</` + name + `>`).FindStringSubmatch(body)
	require.Len(t, m, 2, "Request body should hold parameter %q", name)
	return m[1]
}

func TestAllIDs(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		response testutils.Response

		want           []int
		wantErr        error
		wantFault      bool
		wantHTTPStatus int
	}{
		"Several ids are returned in order": {response: idsResponse(42994282, 42994342, 12345), want: []int{42994282, 42994342, 12345}},
		"Single id":                         {response: idsResponse(12345), want: []int{12345}},
		"No ids":                            {response: idsResponse(), want: []int{}},

		"Error on unauthorized":   {response: unauthorized, wantErr: transport.ErrUnauthorized},
		"Error on SOAP fault":     {response: faulty, wantFault: true},
		"Error on HTTP error":     {response: broken, wantHTTPStatus: http.StatusBadGateway},
		"Error on invalid id":     {response: testutils.Response{Body: testutils.SOAPResponse("getIds", `<fileIds><fileIds>abc</fileIds></fileIds>`)}, wantErr: errAny},
		"Error on invalid answer": {response: testutils.Response{Body: "not xml"}, wantErr: errAny},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, s := newClient(t, map[string]testutils.Response{"getIds": tc.response})

			got, err := c.AllIDs(context.Background())

			call := s.AssertSingleCall(t)
			require.Equal(t, "getIds", call.Operation)
			require.Equal(t, "user", call.Username, "Request should carry the username")
			require.Equal(t, "pass", call.Password, "Request should carry the password")

			if checkErr(t, err, tc.wantErr, tc.wantFault, tc.wantHTTPStatus) {
				return
			}
			require.Equal(t, tc.want, got)
		})
	}
}

func TestFind(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		verbose  bool
		response testutils.Response

		want           eccu.Request
		wantErr        error
		wantFault      bool
		wantHTTPStatus int
	}{
		"Verbose find returns the file content": {verbose: true, response: infoResponse(12345, true), want: wantRequest(12345, true)},
		"Non verbose find":                      {response: infoResponse(12345, false), want: wantRequest(12345, false)},
		"Wrong shaped fields are absent": {
			response: testutils.Response{Body: testutils.SOAPResponse("getInfo", `<eccuInfo>
				<fileId>12345</fileId>
				<notes><value>nested</value></notes>
				<filename xsi:nil="true" xsi:type="xsd:string"/>
				<statusCode>unknown</statusCode>
				<propertyName><a>1</a><a>2</a></propertyName>
				<propertyNameExactMatch xsi:nil="true"/>
				<contents>!!!not base64!!!</contents>
			</eccuInfo>`)},
			want: eccu.Request{Code: 12345},
		},
		"Empty info": {response: testutils.Response{Body: testutils.SOAPResponse("getInfo", `<eccuInfo/>`)}},

		"Error on unauthorized": {response: unauthorized, wantErr: transport.ErrUnauthorized},
		"Error on SOAP fault":   {response: faulty, wantFault: true},
		"Error on HTTP error":   {response: broken, wantHTTPStatus: http.StatusBadGateway},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, s := newClient(t, map[string]testutils.Response{"getInfo": tc.response})

			got, err := c.Find(context.Background(), 12345, tc.verbose)

			call := s.AssertSingleCall(t)
			require.Equal(t, "getInfo", call.Operation)
			require.Equal(t, "12345", param(t, call.Body, "fileId"))
			require.Equal(t, fmt.Sprint(tc.verbose), param(t, call.Body, "retrieveContents"))

			if checkErr(t, err, tc.wantErr, tc.wantFault, tc.wantHTTPStatus) {
				return
			}
			require.Equal(t, tc.want, got)
		})
	}
}

func TestAllFirstLast(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		ids         testutils.Response
		info        testutils.Response
		get         func(c eccu.Client) (any, error)
		wantGetInfo int

		want    any
		wantErr error
	}{
		"All fetches every request": {
			ids:         idsResponse(1, 2),
			info:        infoResponse(1, false),
			wantGetInfo: 2,
			get:         func(c eccu.Client) (any, error) { return c.All(context.Background(), false) },
			want:        []eccu.Request{wantRequest(1, false), wantRequest(1, false)},
		},
		"All without requests": {
			ids:         idsResponse(),
			wantGetInfo: 0,
			get:         func(c eccu.Client) (any, error) { return c.All(context.Background(), false) },
			want:        []eccu.Request{},
		},
		"First": {
			ids:         idsResponse(1, 2),
			info:        infoResponse(1, true),
			wantGetInfo: 1,
			get:         func(c eccu.Client) (any, error) { return c.First(context.Background(), true) },
			want:        wantRequest(1, true),
		},
		"Last": {
			ids:         idsResponse(1, 2),
			info:        infoResponse(2, false),
			wantGetInfo: 1,
			get:         func(c eccu.Client) (any, error) { return c.Last(context.Background(), false) },
			want:        wantRequest(2, false),
		},

		"Error on First without requests": {ids: idsResponse(), get: func(c eccu.Client) (any, error) { return c.First(context.Background(), false) }, wantErr: eccu.ErrNoRequests},
		"Error on Last without requests":  {ids: idsResponse(), get: func(c eccu.Client) (any, error) { return c.Last(context.Background(), false) }, wantErr: eccu.ErrNoRequests},
		"Error on All unauthorized":       {ids: idsResponse(1), info: unauthorized, wantGetInfo: 1, get: func(c eccu.Client) (any, error) { return c.All(context.Background(), false) }, wantErr: transport.ErrUnauthorized},
		"Error on Last unauthorized":      {ids: unauthorized, get: func(c eccu.Client) (any, error) { return c.Last(context.Background(), false) }, wantErr: transport.ErrUnauthorized},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, s := newClient(t, map[string]testutils.Response{"getIds": tc.ids, "getInfo": tc.info})

			got, err := tc.get(c)

			var getInfo int
			for _, op := range s.Operations() {
				if op == "getInfo" {
					getInfo++
				}
			}
			require.Equal(t, tc.wantGetInfo, getInfo, "Unexpected number of getInfo calls")

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err, "Call should not fail")
			require.Equal(t, tc.want, got)
		})
	}
}

func TestFirstAndLastFindTheRightCode(t *testing.T) {
	t.Parallel()

	c, s := newClient(t, map[string]testutils.Response{"getIds": idsResponse(7, 8, 9), "getInfo": infoResponse(7, false)})

	_, err := c.First(context.Background(), false)
	require.NoError(t, err, "First should not fail")
	_, err = c.Last(context.Background(), false)
	require.NoError(t, err, "Last should not fail")

	var codes []string
	for _, call := range s.Calls() {
		if call.Operation == "getInfo" {
			codes = append(codes, param(t, call.Body, "fileId"))
		}
	}
	require.Equal(t, []string{"7", "9"}, codes, "First and Last should fetch the first and last listed ids")
}

func TestPublish(t *testing.T) {
	t.Parallel()

	exact := false

	tests := map[string]struct {
		opts     eccu.PublishOptions
		defaults *eccu.PublishDefaults
		response testutils.Response

		wantBody       string
		want           int
		wantErr        error
		wantFault      bool
		wantHTTPStatus int
	}{
		"Default settings": {
			wantBody: `<filename xsi:type="xsd:string"></filename>` +
				`<contents xsi:type="xsd:base64Binary">aGVsbG8=</contents>` +
				`<notes xsi:type="xsd:string">ECCU Request using AkamaiApi gem</notes>` +
				`<versionString xsi:type="xsd:string"></versionString>` +
				`<propertyName xsi:type="xsd:string">foo.com</propertyName>` +
				`<propertyType xsi:type="xsd:string">hostheader</propertyType>` +
				`<propertyNameExactMatch xsi:type="xsd:boolean">true</propertyNameExactMatch>`,
			want: 1234,
		},
		"All settings": {
			opts: eccu.PublishOptions{
				FileName:     "rules.xml",
				Notes:        "my notes",
				Version:      "v2",
				Emails:       []string{"a@example.com", "b@example.com"},
				PropertyType: "arl",
				ExactMatch:   &exact,
			},
			wantBody: `<filename xsi:type="xsd:string">rules.xml</filename>` +
				`<contents xsi:type="xsd:base64Binary">aGVsbG8=</contents>` +
				`<notes xsi:type="xsd:string">my notes</notes>` +
				`<versionString xsi:type="xsd:string">v2</versionString>` +
				`<statusChangeEmail xsi:type="xsd:string">a@example.com b@example.com</statusChangeEmail>` +
				`<propertyName xsi:type="xsd:string">foo.com</propertyName>` +
				`<propertyType xsi:type="xsd:string">arl</propertyType>` +
				`<propertyNameExactMatch xsi:type="xsd:boolean">false</propertyNameExactMatch>`,
			want: 1234,
		},
		"Configured defaults": {
			defaults: &eccu.PublishDefaults{Notes: "from config", PropertyType: "wildcard", ExactMatch: false},
			opts:     eccu.PublishOptions{Emails: []string{"a@example.com"}},
			wantBody: `<filename xsi:type="xsd:string"></filename>` +
				`<contents xsi:type="xsd:base64Binary">aGVsbG8=</contents>` +
				`<notes xsi:type="xsd:string">from config</notes>` +
				`<versionString xsi:type="xsd:string"></versionString>` +
				`<statusChangeEmail xsi:type="xsd:string">a@example.com</statusChangeEmail>` +
				`<propertyName xsi:type="xsd:string">foo.com</propertyName>` +
				`<propertyType xsi:type="xsd:string">wildcard</propertyType>` +
				`<propertyNameExactMatch xsi:type="xsd:boolean">false</propertyNameExactMatch>`,
			want: 1234,
		},

		"Error on unauthorized": {response: unauthorized, wantErr: transport.ErrUnauthorized},
		"Error on SOAP fault":   {response: faulty, wantFault: true},
		"Error on HTTP error":   {response: broken, wantHTTPStatus: http.StatusBadGateway},
		"Error on missing id":   {response: testutils.Response{Body: testutils.SOAPResponse("upload", "")}, wantErr: errAny},
		"Error on invalid id":   {response: testutils.Response{Body: testutils.SOAPResponse("upload", `<fileId>abc</fileId>`)}, wantErr: errAny},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if tc.response == (testutils.Response{}) {
				tc.response = testutils.Response{Body: testutils.SOAPResponse("upload", `<fileId xsi:type="xsd:int">1234</fileId>`)}
			}
			var args []eccu.Options
			if tc.defaults != nil {
				args = append(args, eccu.WithPublishDefaults(*tc.defaults))
			}
			c, s := newClient(t, map[string]testutils.Response{"upload": tc.response}, args...)

			got, err := c.Publish(context.Background(), "foo.com", []byte("hello"), tc.opts)

			call := s.AssertSingleCall(t)
			require.Equal(t, "upload", call.Operation)
			if tc.wantBody != "" {
				require.Contains(t, call.Body, "<tns:upload>"+tc.wantBody+"</tns:upload>", "Upload parameters should be sent in order")
			}

			if checkErr(t, err, tc.wantErr, tc.wantFault, tc.wantHTTPStatus) {
				return
			}
			require.Equal(t, tc.want, got)
		})
	}
}

func TestPublishFile(t *testing.T) {
	t.Parallel()

	content := []byte{0x00, 0xff, '<', '&', '\n', 0x80, 'e', 'c', 'c', 'u'}

	tests := map[string]struct {
		missing bool

		wantErr bool
	}{
		"Content is sent untouched": {},

		"Error on unreadable file": {missing: true, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "rules.xml")
			if !tc.missing {
				require.NoError(t, os.WriteFile(path, content, 0600), "Setup: failed to write rules file")
			}

			c, s := newClient(t, map[string]testutils.Response{
				"upload": {Body: testutils.SOAPResponse("upload", `<fileId xsi:type="xsd:int">99</fileId>`)},
			})

			got, err := c.PublishFile(context.Background(), "foo.com", path, eccu.PublishOptions{Notes: "file"})
			if tc.wantErr {
				require.Error(t, err, "PublishFile should fail")
				require.Empty(t, s.Calls(), "No request should be sent")
				return
			}
			require.NoError(t, err, "PublishFile should not fail")
			require.Equal(t, 99, got)

			call := s.AssertSingleCall(t)
			require.Equal(t, path, param(t, call.Body, "filename"), "File name should be the file path")
			require.Equal(t, "file", param(t, call.Body, "notes"))
			sent, err := base64.StdEncoding.DecodeString(param(t, call.Body, "contents"))
			require.NoError(t, err, "Contents should be base64 encoded")
			require.Equal(t, content, sent, "Contents should be the file bytes")
		})
	}
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		operation string
		response  testutils.Response
		update    func(c eccu.Client, r *eccu.Request) (bool, error)

		wantParam string
		want      bool
		wantNotes string
		wantEmail string
		wantErr   error
	}{
		"Notes are updated": {
			operation: "setNotes",
			response:  successResponse("setNotes", true),
			update:    func(c eccu.Client, r *eccu.Request) (bool, error) { return c.UpdateNotes(context.Background(), r, "new notes") },
			wantParam: "notes",
			want:      true,
			wantNotes: "new notes",
			wantEmail: "old@example.com",
		},
		"Notes are kept when refused": {
			operation: "setNotes",
			response:  successResponse("setNotes", false),
			update:    func(c eccu.Client, r *eccu.Request) (bool, error) { return c.UpdateNotes(context.Background(), r, "new notes") },
			wantParam: "notes",
			wantNotes: "old notes",
			wantEmail: "old@example.com",
		},
		"Notes are kept without success flag": {
			operation: "setNotes",
			response:  testutils.Response{Body: testutils.SOAPResponse("setNotes", "")},
			update:    func(c eccu.Client, r *eccu.Request) (bool, error) { return c.UpdateNotes(context.Background(), r, "new notes") },
			wantParam: "notes",
			wantNotes: "old notes",
			wantEmail: "old@example.com",
		},
		"Email is updated": {
			operation: "setStatusChangeEmail",
			response:  successResponse("setStatusChangeEmail", true),
			update:    func(c eccu.Client, r *eccu.Request) (bool, error) { return c.UpdateEmail(context.Background(), r, "new@example.com") },
			wantParam: "statusChangeEmail",
			want:      true,
			wantNotes: "old notes",
			wantEmail: "new@example.com",
		},
		"Email is kept when refused": {
			operation: "setStatusChangeEmail",
			response:  successResponse("setStatusChangeEmail", false),
			update:    func(c eccu.Client, r *eccu.Request) (bool, error) { return c.UpdateEmail(context.Background(), r, "new@example.com") },
			wantParam: "statusChangeEmail",
			wantNotes: "old notes",
			wantEmail: "old@example.com",
		},

		"Error on unauthorized notes update": {
			operation: "setNotes",
			response:  unauthorized,
			update:    func(c eccu.Client, r *eccu.Request) (bool, error) { return c.UpdateNotes(context.Background(), r, "new notes") },
			wantParam: "notes",
			wantNotes: "old notes",
			wantEmail: "old@example.com",
			wantErr:   transport.ErrUnauthorized,
		},
		"Error on unauthorized email update": {
			operation: "setStatusChangeEmail",
			response:  unauthorized,
			update:    func(c eccu.Client, r *eccu.Request) (bool, error) { return c.UpdateEmail(context.Background(), r, "new@example.com") },
			wantParam: "statusChangeEmail",
			wantNotes: "old notes",
			wantEmail: "old@example.com",
			wantErr:   transport.ErrUnauthorized,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, s := newClient(t, map[string]testutils.Response{tc.operation: tc.response})
			r := &eccu.Request{Code: 12345, Notes: "old notes", Email: "old@example.com"}

			got, err := tc.update(c, r)

			call := s.AssertSingleCall(t)
			require.Equal(t, tc.operation, call.Operation)
			require.Equal(t, "12345", param(t, call.Body, "fileId"))
			require.NotEmpty(t, param(t, call.Body, tc.wantParam))

			require.Equal(t, tc.wantNotes, r.Notes, "Notes should only change on success")
			require.Equal(t, tc.wantEmail, r.Email, "Email should only change on success")

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.False(t, got)
				return
			}
			require.NoError(t, err, "Update should not fail")
			require.Equal(t, tc.want, got)
		})
	}
}

func TestDestroy(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		response testutils.Response

		want           bool
		wantErr        error
		wantFault      bool
		wantHTTPStatus int
	}{
		"Destroyed":     {response: successResponse("delete", true), want: true},
		"Not destroyed": {response: successResponse("delete", false)},

		"Error on unauthorized": {response: unauthorized, wantErr: transport.ErrUnauthorized},
		"Error on SOAP fault":   {response: faulty, wantFault: true},
		"Error on HTTP error":   {response: broken, wantHTTPStatus: http.StatusBadGateway},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, s := newClient(t, map[string]testutils.Response{"delete": tc.response})

			got, err := c.Destroy(context.Background(), 12345)

			call := s.AssertSingleCall(t)
			require.Equal(t, "delete", call.Operation)
			require.Equal(t, "12345", param(t, call.Body, "fileId"))

			if checkErr(t, err, tc.wantErr, tc.wantFault, tc.wantHTTPStatus) {
				return
			}
			require.Equal(t, tc.want, got)
		})
	}
}

// errAny matches any error in checkErr.
var errAny = fmt.Errorf("any error")

// checkErr asserts err against the expectations, and returns true if an error was expected.
func checkErr(t *testing.T, err, wantErr error, wantFault bool, wantHTTPStatus int) bool {
	t.Helper()

	switch {
	case wantErr == errAny:
		require.Error(t, err, "Call should fail")
	case wantErr != nil:
		require.ErrorIs(t, err, wantErr)
	case wantFault:
		var fault *soap.Fault
		require.ErrorAs(t, err, &fault, "Call should return the SOAP fault")
		require.Equal(t, "Invalid file id", fault.String)
		require.NotErrorIs(t, err, transport.ErrUnauthorized)
	case wantHTTPStatus != 0:
		var httpErr *soap.HTTPError
		require.ErrorAs(t, err, &httpErr, "Call should return the HTTP error")
		require.Equal(t, wantHTTPStatus, httpErr.StatusCode)
		require.NotErrorIs(t, err, transport.ErrUnauthorized)
	default:
		require.NoError(t, err, "Call should not fail")
		return false
	}
	return true
}
