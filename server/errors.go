package server

import "errors"

var (
	// ErrConnection is returned when the ports of a server cannot be fetched
	ErrConnection = errors.New("unable to connect to ACI server")
	// ErrNoAcceptingProtocol is returned by Probe when no protocol was accepted
	ErrNoAcceptingProtocol = errors.New("no protocol accepted")
	// ErrInvalidIndexPort is returned when the index port is not accepted
	// by any protocol
	ErrInvalidIndexPort = errors.New("server does not have a valid index port")
	// ErrInvalidServicePort is returned when the service port is not
	// accepted by any protocol
	ErrInvalidServicePort = errors.New("server does not have a valid service port")
	// ErrMissingIndexPort is returned when an index port is expected but the
	// server did not report one
	ErrMissingIndexPort = errors.New("server did not report an index port")
	// ErrNoIndexingClient is returned when an index port has to be tested
	// but the validator has no indexing client
	ErrNoIndexingClient = errors.New("no indexing client configured")
)
