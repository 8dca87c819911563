// Package indexing is a minimal client for the index port of platform
// components. The index port accepts DRE commands such as DREADD or DREDELETE
// and answers with a plain text body: "INDEXID=n" on success or an error
// message otherwise.
package indexing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/opentext-idol/go-configuration-idol/transport"
)

const (
	commandPrefix = "DRE"
	successPrefix = "INDEXID="

	maxResponseBytes = 1 << 20
)

// Command is an index command. Name is sent without the DRE prefix, so a
// Command{Name: "add"} is sent as DREADD
type Command struct {
	Name   string
	Params url.Values
	Body   []byte
}

// Result is the answer to a successful command
type Result struct {
	IndexID int
}

// Error is returned when the server rejects a command. Message is the body
// of the response as sent by the server
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("index command rejected (status %v): %v", e.StatusCode, e.Message)
}

// HTTPClient sends index commands over HTTP(S)
type HTTPClient struct {
	client *http.Client
}

// NewHTTPClient returns a client using the given http.Client
func NewHTTPClient(client *http.Client) *HTTPClient {
	if client == nil {
		client = transport.NewHTTPClient(transport.ClientOptions{})
	}
	return &HTTPClient{client: client}
}

// Execute sends the command to the index port of server. Commands with a body
// are POSTed, others are sent as GET. A rejected command is returned as an
// *Error, transport failures are returned as is
func (c *HTTPClient) Execute(ctx context.Context, server transport.Details, cmd Command) (*Result, error) {
	u := server.URL("/" + commandPrefix + strings.ToUpper(cmd.Name))
	if len(cmd.Params) > 0 {
		u.RawQuery = cmd.Params.Encode()
	}

	method := http.MethodGet
	var body io.Reader = http.NoBody
	if len(cmd.Body) > 0 {
		method = http.MethodPost
		body = bytes.NewReader(cmd.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating index command %v: %w", cmd.Name, err)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending index command %v to %v: %w", cmd.Name, server, err)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading index response from %v: %w", server, err)
	}

	return parseResponse(res.StatusCode, b)
}

func parseResponse(status int, body []byte) (*Result, error) {
	text := strings.TrimSpace(string(body))

	if status != http.StatusOK || !strings.HasPrefix(text, successPrefix) {
		return nil, &Error{
			StatusCode: status,
			Message:    text,
		}
	}

	id, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(text, successPrefix)))
	if err != nil {
		return nil, &Error{
			StatusCode: status,
			Message:    text,
		}
	}

	return &Result{IndexID: id}, nil
}
