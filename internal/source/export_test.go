package source

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"resty.dev/v3"

	"github.com/g5becks/lex/internal/config"
	"github.com/g5becks/lex/internal/parser"
)

//nolint:gochecknoglobals // Test-only exports
var FilenameFromURL = filenameFromURL

// NewTestURL builds a URL source and returns a hook that swaps its HTTP
// client.
func NewTestURL(t *testing.T, name string, cfg config.Source) (Source, func(*resty.Client)) {
	t.Helper()

	src, err := NewURL(name, cfg, parser.Options{})
	if err != nil {
		t.Fatalf("NewURL() error = %v", err)
	}

	u := src.(*urlSource)
	return u, func(c *resty.Client) { u.client = c }
}

// Handler answers a request without touching the network.
type Handler func(*http.Request) *http.Response

func (h Handler) RoundTrip(req *http.Request) (*http.Response, error) {
	return h(req), nil
}

// StubClient is a resty client whose transport is h.
func StubClient(h Handler) *resty.Client {
	c := resty.New()
	c.SetTransport(h)
	return c
}

// Reply is a canned response to req.
func Reply(req *http.Request, status int, body string, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}

	return &http.Response{
		Status:        http.StatusText(status),
		StatusCode:    status,
		Header:        header,
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
