package github

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cli/go-gh/v2/pkg/api"
	"github.com/cli/go-gh/v2/pkg/auth"
)

const defaultHost = "github.com"

// anonymousToken satisfies go-gh's requirement for a token. anonymousTransport
// removes the header it produces before the request leaves the process.
const anonymousToken = "anonymous"

// Options configures the search client
type Options struct {
	Host    string        // e.g. "github.com"
	APIURL  string        // absolute REST base; empty uses go-gh's host routing
	Token   string        // empty falls back to GH_TOKEN / gh auth, then to unauthenticated
	Timeout time.Duration // per request

	// Transport overrides the HTTP transport. Tests point it at httptest.
	Transport http.RoundTripper
}

// Client wraps GitHub API operations
type Client struct {
	rest      *api.RESTClient
	apiURL    string
	timeout   time.Duration
	anonymous bool
	logger    *slog.Logger
}

// NewClient creates a new GitHub client. Without any token the search API is
// called unauthenticated, which GitHub allows at a lower rate limit.
func NewClient(opts Options, logger *slog.Logger) (*Client, error) {
	host := opts.Host
	if host == "" {
		host = defaultHost
	}

	token := opts.Token
	if token == "" {
		token, _ = auth.TokenForHost(host)
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	anonymous := token == ""
	if anonymous {
		token = anonymousToken
		transport = anonymousTransport{rt: transport}
		logger.Warn("no GitHub token found, searching unauthenticated", "host", host)
	}

	// go-gh only skips its own credential resolution when host, token and
	// transport are all set.
	rest, err := api.NewRESTClient(api.ClientOptions{
		Host:      host,
		AuthToken: token,
		Timeout:   opts.Timeout,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create REST client: %w", err)
	}

	apiURL := opts.APIURL
	if apiURL != "" && !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}

	return &Client{
		rest:      rest,
		apiURL:    apiURL,
		timeout:   opts.Timeout,
		anonymous: anonymous,
		logger:    logger,
	}, nil
}

// Anonymous reports whether requests are sent without credentials
func (c *Client) Anonymous() bool {
	return c.anonymous
}

// endpoint resolves path against the configured base. go-gh accepts either
// a host-relative path or an absolute URL.
func (c *Client) endpoint(path string) string {
	if c.apiURL == "" {
		return path
	}
	return c.apiURL + path
}

// anonymousTransport strips the Authorization header
type anonymousTransport struct {
	rt http.RoundTripper
}

func (t anonymousTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Authorization") != "" {
		req = req.Clone(req.Context())
		req.Header.Del("Authorization")
	}
	return t.rt.RoundTrip(req)
}
