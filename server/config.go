package server

import (
	"fmt"
	"strings"

	"github.com/opentext-idol/go-configuration-idol/transport"
)

// MaxPort is the highest valid TCP port
const MaxPort = 65535

// ServerConfig describes one platform component: its ACI port and, once
// discovered, its index and service ports. It is a value; methods never
// modify the receiver
type ServerConfig struct {
	Protocol transport.Protocol
	Host     string
	Port     int

	IndexProtocol   transport.Protocol
	IndexPort       int
	ServiceProtocol transport.Protocol
	ServicePort     int

	// ProductTypes the server must report one of
	ProductTypes KindMatcher

	// IndexErrorMessage is the error expected when sending an invalid
	// command to the index port. If empty the server is assumed not to
	// support indexing
	IndexErrorMessage string
}

// ACIDetails returns the details of the ACI port
func (c ServerConfig) ACIDetails() transport.Details {
	return transport.Details{
		Protocol: c.Protocol.OrDefault(),
		Host:     c.Host,
		Port:     c.Port,
	}
}

// ServiceDetails returns the details of the service port
func (c ServerConfig) ServiceDetails() transport.Details {
	return transport.Details{
		Protocol: c.ServiceProtocol.OrDefault(),
		Host:     c.Host,
		Port:     c.ServicePort,
	}
}

// IndexDetails returns the details of the index port
func (c ServerConfig) IndexDetails() transport.Details {
	return transport.Details{
		Protocol: c.IndexProtocol.OrDefault(),
		Host:     c.Host,
		Port:     c.IndexPort,
	}
}

// WithIndexServer returns a copy of c using the protocol and port of d for
// indexing
func (c ServerConfig) WithIndexServer(d transport.Details) ServerConfig {
	c.IndexProtocol = d.Protocol
	c.IndexPort = d.Port
	return c
}

// HasIndexPort reports whether the server is expected to have an index port
func (c ServerConfig) HasIndexPort() bool {
	return c.IndexErrorMessage != ""
}

// MergeDefaults returns primary with every unset field taken from fallback.
// Fields are taken whole, so a primary matcher is never combined with the
// fallback's
func MergeDefaults(primary, fallback ServerConfig) ServerConfig {
	merged := primary

	if merged.Protocol == "" {
		merged.Protocol = fallback.Protocol
	}
	if merged.Host == "" {
		merged.Host = fallback.Host
	}
	if merged.Port == 0 {
		merged.Port = fallback.Port
	}
	if merged.IndexProtocol == "" {
		merged.IndexProtocol = fallback.IndexProtocol
	}
	if merged.IndexPort == 0 {
		merged.IndexPort = fallback.IndexPort
	}
	if merged.ServiceProtocol == "" {
		merged.ServiceProtocol = fallback.ServiceProtocol
	}
	if merged.ServicePort == 0 {
		merged.ServicePort = fallback.ServicePort
	}
	if merged.ProductTypes.IsZero() {
		merged.ProductTypes = fallback.ProductTypes
	}
	if merged.IndexErrorMessage == "" {
		merged.IndexErrorMessage = fallback.IndexErrorMessage
	}

	return merged
}

// ConfigError is returned when a config is not well formed. Unlike a
// validation Result it says nothing about whether the server is reachable
type ConfigError struct {
	Component string
	Message   string
}

func (e *ConfigError) Error() string {
	if e.Component == "" {
		return e.Message
	}
	return e.Component + ": " + e.Message
}

// BasicValidate checks that the config has a host and a port in range.
// component names the config section in the returned *ConfigError
func (c ServerConfig) BasicValidate(component string) error {
	if c.Port <= 0 || c.Port > MaxPort {
		return &ConfigError{
			Component: component,
			Message:   fmt.Sprintf("port number must be between 1 and %v", MaxPort),
		}
	}
	if strings.TrimSpace(c.Host) == "" {
		return &ConfigError{
			Component: component,
			Message:   "host name must not be blank",
		}
	}
	return nil
}

// ValidateExpectedKinds checks that the config names the product types the
// server may report, either as exact types or as a pattern
func (c ServerConfig) ValidateExpectedKinds(component string) error {
	if c.ProductTypes.IsZero() {
		return &ConfigError{
			Component: component,
			Message:   "a product type or product type pattern must be set",
		}
	}
	return nil
}

func (c ServerConfig) String() string {
	return fmt.Sprintf("%v (%v)", c.ACIDetails(), c.ProductTypes)
}
