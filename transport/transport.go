// Package transport holds the connection details shared by the ACI and
// indexing clients, and the instrumented HTTP client both of them use.
package transport

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Protocol is the transport variant a port is spoken over
type Protocol string

const (
	HTTP  Protocol = "HTTP"
	HTTPS Protocol = "HTTPS"
)

// DefaultProtocols returns the order in which protocols are probed. Plaintext
// comes first: a plaintext request to a TLS port fails quickly, whereas a TLS
// handshake against a plaintext port can hang until the transport times out.
func DefaultProtocols() []Protocol {
	return []Protocol{HTTP, HTTPS}
}

// ParseProtocol parses a protocol name, ignoring case. An empty string parses
// to the empty Protocol, which behaves as HTTP on the wire.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case string(HTTP):
		return HTTP, nil
	case string(HTTPS):
		return HTTPS, nil
	default:
		return "", fmt.Errorf("unknown transport protocol %q, expected HTTP or HTTPS", s)
	}
}

// OrDefault returns HTTP if p is unset
func (p Protocol) OrDefault() Protocol {
	if p == "" {
		return HTTP
	}
	return p
}

// Scheme returns the URL scheme for the protocol
func (p Protocol) Scheme() string {
	return strings.ToLower(string(p.OrDefault()))
}

// Details identifies a single port on a server
type Details struct {
	Protocol Protocol
	Host     string
	Port     int
}

// Address returns host:port, bracketing IPv6 literals
func (d Details) Address() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// URL returns the base URL of the port with the given path
func (d Details) URL(path string) *url.URL {
	return &url.URL{
		Scheme: d.Protocol.Scheme(),
		Host:   d.Address(),
		Path:   path,
	}
}

func (d Details) String() string {
	return d.Protocol.Scheme() + "://" + d.Address()
}

// StatusError is returned when a server answers with a non-200 status
type StatusError struct {
	StatusCode int
	Status     string
	Details    Details
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v returned unexpected status %v", e.Details, e.Status)
}
