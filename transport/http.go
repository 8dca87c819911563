package transport

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const USER_AGENT_VERSION = "0.1"

// DefaultTimeout bounds a single request when no timeout is configured
const DefaultTimeout = 30 * time.Second

// ClientOptions configures NewHTTPClient
type ClientOptions struct {
	// Timeout for a single attempt. Zero means DefaultTimeout
	Timeout time.Duration
	// Retries is the number of extra attempts made on connection errors and
	// 5xx responses. Zero disables retries
	Retries int
	// InsecureSkipVerify disables certificate verification for HTTPS ports.
	// Platform components are commonly deployed with self-signed certificates
	InsecureSkipVerify bool
}

// NewHTTPClient returns a http.Client whose transport chain is
// retryablehttp.RoundTripper -> otelhttp.Transport -> http.Transport. The
// response of the last attempt is always handed back to the caller, so a
// non-200 status is never turned into an opaque error here.
func NewHTTPClient(opts ClientOptions) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: opts.InsecureSkipVerify, //nolint:gosec // opt-in via --tls-insecure
		},
		TLSHandshakeTimeout: timeout,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{
		Transport: otelhttp.NewTransport(&userAgentTransport{from: base}),
		Timeout:   timeout,
		// ACI servers never redirect; treat a redirect as the answer
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	rc.RetryMax = opts.Retries
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = nil
	rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			log.WithContext(req.Context()).WithFields(log.Fields{
				"url":     req.URL.Redacted(),
				"attempt": attempt,
			}).Debug("Retrying request")
		}
	}

	return rc.StandardClient()
}

type userAgentTransport struct {
	from http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", fmt.Sprintf("idol-configuration/%v (%v/%v)", USER_AGENT_VERSION, runtime.GOOS, runtime.GOARCH))
	return t.from.RoundTrip(req)
}
