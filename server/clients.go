//go:generate mockgen -destination=./mocks/mock_clients.go -package=mocks -source=clients.go
package server

import (
	"context"

	"github.com/opentext-idol/go-configuration-idol/aci"
	"github.com/opentext-idol/go-configuration-idol/indexing"
	"github.com/opentext-idol/go-configuration-idol/transport"
)

// ACIClient executes ACI actions. aci.HTTPClient implements it
type ACIClient interface {
	Execute(ctx context.Context, server transport.Details, action aci.Action) (*aci.Response, error)
}

// IndexingClient sends index commands. indexing.HTTPClient implements it
type IndexingClient interface {
	Execute(ctx context.Context, server transport.Details, cmd indexing.Command) (*indexing.Result, error)
}
