package server

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/opentext-idol/go-configuration-idol/aci"
	"github.com/opentext-idol/go-configuration-idol/tracing"
	"github.com/opentext-idol/go-configuration-idol/transport"
	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Topology is either a Standalone server or a DistributedConfig
type Topology interface {
	isTopology()
}

// Standalone is a single server providing both indexing and querying
type Standalone struct {
	Server ServerConfig
}

func (Standalone) isTopology() {}

// DistributedConfig is a component which is either a single Standard server
// or, when Distributed is true, a DIH used for indexing paired with a DAH used
// for querying
type DistributedConfig struct {
	Distributed bool
	Standard    ServerConfig
	DIH         ServerConfig
	DAH         ServerConfig
}

func (DistributedConfig) isTopology() {}

// ACIDetails returns the details used for querying: the DAH if distributed,
// otherwise the standard server
func (c DistributedConfig) ACIDetails() transport.Details {
	if c.Distributed {
		return c.DAH.ACIDetails()
	}
	return c.Standard.ACIDetails()
}

// IndexingACIDetails returns the ACI details of the server used for indexing
func (c DistributedConfig) IndexingACIDetails() transport.Details {
	if c.Distributed {
		return c.DIH.ACIDetails()
	}
	return c.Standard.ACIDetails()
}

// IndexDetails returns the index port details of the server used for indexing
func (c DistributedConfig) IndexDetails() transport.Details {
	if c.Distributed {
		return c.DIH.IndexDetails()
	}
	return c.Standard.IndexDetails()
}

// BasicValidate checks the DIH and DAH if distributed, otherwise the standard
// server
func (c DistributedConfig) BasicValidate(component string) error {
	if c.Distributed {
		if err := c.DIH.BasicValidate(component); err != nil {
			return err
		}
		return c.DAH.BasicValidate(component)
	}
	return c.Standard.BasicValidate(component)
}

// ValidateExpectedKinds is ServerConfig.ValidateExpectedKinds for the servers
// in use
func (c DistributedConfig) ValidateExpectedKinds(component string) error {
	if c.Distributed {
		if err := c.DIH.ValidateExpectedKinds(component + ".dih"); err != nil {
			return err
		}
		return c.DAH.ValidateExpectedKinds(component + ".dah")
	}
	return c.Standard.ValidateExpectedKinds(component)
}

// ServerValidator validates standalone servers. *Validator implements it
type ServerValidator interface {
	Validate(ctx context.Context, cfg ServerConfig) Result
	FetchServerDetails(ctx context.Context, cfg ServerConfig) (ServerConfig, error)
}

// DistributedValidator validates Topologies. It is safe for concurrent use
type DistributedValidator struct {
	servers ServerValidator
	aci     ACIClient
}

// NewDistributedValidator returns a validator using servers to validate each
// server and aciClient for the DAH capability check
func NewDistributedValidator(servers ServerValidator, aciClient ACIClient) *DistributedValidator {
	return &DistributedValidator{
		servers: servers,
		aci:     aciClient,
	}
}

// ValidateTopology validates either kind of Topology. A nil Topology is
// reported as a missing field
func (d *DistributedValidator) ValidateTopology(ctx context.Context, t Topology) Result {
	switch t := t.(type) {
	case Standalone:
		return d.servers.Validate(ctx, t.Server)
	case *Standalone:
		if t == nil {
			return invalid(RequiredFieldMissing)
		}
		return d.servers.Validate(ctx, t.Server)
	case DistributedConfig:
		return d.Validate(ctx, t)
	case *DistributedConfig:
		if t == nil {
			return invalid(RequiredFieldMissing)
		}
		return d.Validate(ctx, *t)
	default:
		return invalid(RequiredFieldMissing)
	}
}

// Validate validates the standard server as is when cfg is not distributed.
// Otherwise the DIH and DAH are validated concurrently and both results are
// reported. A valid DAH must also answer LanguageSettings
func (d *DistributedValidator) Validate(ctx context.Context, cfg DistributedConfig) (result Result) {
	ctx, span := tracing.Tracer().Start(ctx, "DistributedValidator.Validate", trace.WithAttributes(
		attribute.Bool("idol.distributed", cfg.Distributed),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			tracing.HandleError(ctx, "server.DistributedValidator.Validate", r, string(debug.Stack()))
			result = invalid(FetchPortError)
		}
		span.SetAttributes(attribute.Bool("idol.validation.valid", result.Valid))
	}()

	if !cfg.Distributed {
		return d.servers.Validate(ctx, cfg.Standard)
	}

	var dih, dah Result

	var wg conc.WaitGroup
	wg.Go(func() {
		dih = d.servers.Validate(ctx, cfg.DIH)
	})
	wg.Go(func() {
		dah = d.servers.Validate(ctx, cfg.DAH)
	})
	wg.Wait()

	// TODO: only require LanguageSettings for components that query through
	// the DAH
	if dah.Valid {
		if err := d.languageSettings(ctx, cfg.DAH); err != nil {
			log.WithContext(ctx).WithError(err).WithFields(log.Fields{
				"host": cfg.DAH.Host,
				"port": cfg.DAH.Port,
			}).Debug("DAH failed LanguageSettings")
			dah = invalid(LanguageSettingsError)
		}
	}

	var details DistributedResultDetails
	if !dih.Valid {
		details.DIH = &dih
	}
	if !dah.Valid {
		details.DAH = &dah
	}

	return Result{
		Valid: dih.Valid && dah.Valid,
		Data:  details,
	}
}

func (d *DistributedValidator) languageSettings(ctx context.Context, dah ServerConfig) error {
	res, err := d.aci.Execute(ctx, dah.ACIDetails(), aci.LanguageSettings)
	if err != nil {
		return err
	}
	return res.Decode(nil)
}

// FetchServerDetails fills in the ports of the servers in use: the DIH and
// DAH if distributed, otherwise the standard server
func (d *DistributedValidator) FetchServerDetails(ctx context.Context, cfg DistributedConfig) (DistributedConfig, error) {
	if !cfg.Distributed {
		standard, err := d.servers.FetchServerDetails(ctx, cfg.Standard)
		if err != nil {
			return cfg, err
		}
		cfg.Standard = standard
		return cfg, nil
	}

	var dih, dah ServerConfig

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dih, err = d.servers.FetchServerDetails(gctx, cfg.DIH)
		if err != nil {
			return fmt.Errorf("dih: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		dah, err = d.servers.FetchServerDetails(gctx, cfg.DAH)
		if err != nil {
			return fmt.Errorf("dah: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return cfg, err
	}

	cfg.DIH = dih
	cfg.DAH = dah
	return cfg, nil
}

var errNilTopology = errors.New("nil topology")

// FetchTopologyDetails is FetchServerDetails for either kind of Topology. The
// result has the same variant as t
func (d *DistributedValidator) FetchTopologyDetails(ctx context.Context, t Topology) (Topology, error) {
	switch t := t.(type) {
	case Standalone:
		server, err := d.servers.FetchServerDetails(ctx, t.Server)
		return Standalone{Server: server}, err
	case *Standalone:
		if t == nil {
			return nil, errNilTopology
		}
		server, err := d.servers.FetchServerDetails(ctx, t.Server)
		return &Standalone{Server: server}, err
	case DistributedConfig:
		return d.FetchServerDetails(ctx, t)
	case *DistributedConfig:
		if t == nil {
			return nil, errNilTopology
		}
		cfg, err := d.FetchServerDetails(ctx, *t)
		return &cfg, err
	default:
		return nil, fmt.Errorf("unsupported topology %T", t)
	}
}
