package source

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/samber/oops"
	"resty.dev/v3"
)

// StdinName names documents read from standard input.
const StdinName = "<stdin>"

// Read loads a document named by ref: a file path, "-" for stdin, or an
// http(s) URL. It returns the display name alongside the content.
func Read(ctx context.Context, ref string, stdin io.Reader) (string, []byte, error) {
	return ReadWithClient(ctx, ref, stdin, nil)
}

// ReadWithClient is Read with a caller-supplied HTTP client for URL refs.
func ReadWithClient(ctx context.Context, ref string, stdin io.Reader, client *resty.Client) (string, []byte, error) {
	switch {
	case ref == "-":
		content, err := io.ReadAll(stdin)
		if err != nil {
			return "", nil, oops.
				Code("READ_FAILED").
				With("path", StdinName).
				Wrapf(err, "reading standard input")
		}
		return StdinName, content, nil

	case IsRemote(ref):
		if client == nil {
			client = resty.New()
			defer client.Close()
		}
		content, err := fetch(ctx, client, ref)
		if err != nil {
			return "", nil, err
		}
		return ref, content, nil

	default:
		content, err := os.ReadFile(ref)
		if err != nil {
			return "", nil, oops.
				Code("READ_FAILED").
				With("path", ref).
				Hint("Pass an existing .lex file, a URL, or - for stdin").
				Wrapf(err, "reading %s", ref)
		}
		return ref, content, nil
	}
}

func fetch(ctx context.Context, client *resty.Client, rawURL string) ([]byte, error) {
	response, err := client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, oops.
			Code("DOWNLOAD_FAILED").
			With("url", rawURL).
			Wrapf(err, "downloading %s", rawURL)
	}

	if response.StatusCode() < http.StatusOK || response.StatusCode() >= http.StatusMultipleChoices {
		return nil, oops.
			Code("DOWNLOAD_FAILED").
			With("url", rawURL).
			With("status", response.StatusCode()).
			Errorf("%s returned non-success status %d", rawURL, response.StatusCode())
	}

	content, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, oops.
			Code("DOWNLOAD_FAILED").
			With("url", rawURL).
			Wrapf(err, "reading response body")
	}

	return content, nil
}

// IsRemote reports whether ref is an http(s) URL.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
