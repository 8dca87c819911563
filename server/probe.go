package server

import (
	"context"

	"github.com/opentext-idol/go-configuration-idol/transport"
)

// ProbeFunc reports whether a port accepts the given protocol
type ProbeFunc func(ctx context.Context, protocol transport.Protocol) bool

// Probe returns the first of candidates accepted by test, trying them in
// order. It returns ErrNoAcceptingProtocol if none is accepted, or the
// context's error if it is cancelled between attempts
func Probe(ctx context.Context, candidates []transport.Protocol, test ProbeFunc) (transport.Protocol, error) {
	for _, p := range candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if test(ctx, p) {
			return p, nil
		}
	}
	return "", ErrNoAcceptingProtocol
}
