package aci

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/opentext-idol/go-configuration-idol/transport"
)

// maxResponseBytes bounds how much of a response is read. Status and version
// responses are small; anything larger is not a response we understand
const maxResponseBytes = 4 << 20

// HTTPClient executes actions over HTTP(S)
type HTTPClient struct {
	client *http.Client
}

// NewHTTPClient returns a client using the given http.Client. Use
// transport.NewHTTPClient to get one with tracing and transport retries
func NewHTTPClient(client *http.Client) *HTTPClient {
	if client == nil {
		client = transport.NewHTTPClient(transport.ClientOptions{})
	}
	return &HTTPClient{client: client}
}

// Execute sends the action to the server. Any HTTP 200 answer is returned as
// a Response, including ERROR envelopes which only surface on Decode. Other
// statuses are returned as *transport.StatusError
func (c *HTTPClient) Execute(ctx context.Context, server transport.Details, action Action) (*Response, error) {
	u := server.URL("/")
	u.RawQuery = url.Values{"action": []string{string(action)}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating %v request: %w", action, err)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing %v against %v: %w", action, server, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %v response from %v: %w", action, server, err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, &transport.StatusError{
			StatusCode: res.StatusCode,
			Status:     res.Status,
			Details:    server,
		}
	}

	return &Response{
		StatusCode: res.StatusCode,
		Body:       body,
	}, nil
}
