package server

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"

	"github.com/opentext-idol/go-configuration-idol/aci"
	"github.com/opentext-idol/go-configuration-idol/indexing"
	"github.com/opentext-idol/go-configuration-idol/tracing"
	"github.com/opentext-idol/go-configuration-idol/transport"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// indexTestCommand is not a valid index command. Servers answer it with an
// error, which proves the port is an index port without writing anything
const indexTestCommand = "test"

// Validator validates standalone server configs. It holds no state between
// calls and is safe for concurrent use
type Validator struct {
	aci         ACIClient
	indexing    IndexingClient
	protocols   []transport.Protocol
	portActions PortActions
}

// Option configures a Validator
type Option func(*Validator)

// WithProtocols sets the protocols tried when probing index and service
// ports, in order
func WithProtocols(protocols ...transport.Protocol) Option {
	return func(v *Validator) {
		if len(protocols) > 0 {
			v.protocols = slices.Clone(protocols)
		}
	}
}

// WithPortActions replaces the table used to choose how ports are fetched
func WithPortActions(actions PortActions) Option {
	return func(v *Validator) {
		v.portActions = maps.Clone(actions)
	}
}

// NewValidator returns a Validator using aciClient for ACI actions and
// indexingClient for testing index ports. indexingClient may be nil if no
// config has an IndexErrorMessage
func NewValidator(aciClient ACIClient, indexingClient IndexingClient, opts ...Option) *Validator {
	v := &Validator{
		aci:         aciClient,
		indexing:    indexingClient,
		protocols:   transport.DefaultProtocols(),
		portActions: DefaultPortActions(),
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Validate checks that cfg is well formed, that the server is of one of the
// expected product types and that its index and service ports respond. It
// never returns an error: every failure is reported in the Result
func (v *Validator) Validate(ctx context.Context, cfg ServerConfig) (result Result) {
	ctx, span := tracing.Tracer().Start(ctx, "Validator.Validate", trace.WithAttributes(
		attribute.String("idol.server.host", cfg.Host),
		attribute.Int("idol.server.port", cfg.Port),
		attribute.String("idol.server.productTypes", cfg.ProductTypes.String()),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			tracing.HandleError(ctx, "server.Validator.Validate", r, string(debug.Stack()))
			result = invalid(FetchPortError)
		}
		span.SetAttributes(
			attribute.Bool("idol.validation.valid", result.Valid),
			attribute.StringSlice("idol.validation.reasons", reasonStrings(result)),
		)
	}()

	lf := log.Fields{
		"host": cfg.Host,
		"port": cfg.Port,
	}

	if err := cfg.BasicValidate(""); err != nil {
		log.WithContext(ctx).WithError(err).WithFields(lf).Debug("Config failed basic validation")
		return invalid(RequiredFieldMissing)
	}
	if err := cfg.ValidateExpectedKinds(""); err != nil {
		log.WithContext(ctx).WithError(err).WithFields(lf).Debug("Config has no expected product type")
		return invalid(RequiredFieldMissing)
	}

	reported, err := v.productTypes(ctx, cfg)
	if err != nil {
		log.WithContext(ctx).WithError(err).WithFields(lf).Debug("Error validating server version")
		return invalid(ConnectionError)
	}

	if !cfg.ProductTypes.Matches(reported) {
		log.WithContext(ctx).WithFields(lf).WithFields(log.Fields{
			"expected": cfg.ProductTypes.String(),
			"reported": reported,
		}).Debug("Server is not of an expected product type")

		if cfg.ProductTypes.IsPattern() {
			return invalid(RegularExpressionMatchError)
		}
		return Result{
			Valid: false,
			Data: IncorrectServerTypeDetails{
				Validation:    IncorrectServerType,
				FriendlyNames: cfg.ProductTypes.FriendlyNames(),
			},
		}
	}

	_, err = v.fetchServerDetails(ctx, cfg, reported)
	if err != nil {
		log.WithContext(ctx).WithError(err).WithFields(lf).Debug("Error validating ports")
	}

	switch {
	case err == nil:
		return validResult()
	case errors.Is(err, ErrInvalidIndexPort):
		return invalid(ServiceOrIndexPortError)
	case errors.Is(err, ErrInvalidServicePort):
		if cfg.HasIndexPort() {
			return invalid(ServiceOrIndexPortError)
		}
		return invalid(ServicePortError)
	default:
		return invalid(FetchPortError)
	}
}

// FetchServerDetails returns a copy of cfg with the index and service ports
// and protocols filled in from the live server. The product type of the
// server is not checked
func (v *Validator) FetchServerDetails(ctx context.Context, cfg ServerConfig) (ServerConfig, error) {
	ctx, span := tracing.Tracer().Start(ctx, "Validator.FetchServerDetails", trace.WithAttributes(
		attribute.String("idol.server.host", cfg.Host),
		attribute.Int("idol.server.port", cfg.Port),
	))
	defer span.End()

	if err := cfg.BasicValidate(""); err != nil {
		return cfg, err
	}

	reported, err := v.productTypes(ctx, cfg)
	if err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrConnection, err)
	}

	resolved, err := v.fetchServerDetails(ctx, cfg, reported)
	if err != nil {
		span.RecordError(err)
		return cfg, err
	}

	return resolved, nil
}

func (v *Validator) fetchServerDetails(ctx context.Context, cfg ServerConfig, reported []string) (ServerConfig, error) {
	ports, err := v.determinePorts(ctx, cfg, reported)
	if err != nil {
		return cfg, err
	}

	resolved := cfg

	if cfg.HasIndexPort() {
		if ports.IndexPort <= 0 || ports.IndexPort > MaxPort {
			return cfg, ErrMissingIndexPort
		}
		if v.indexing == nil {
			return cfg, ErrNoIndexingClient
		}

		protocol, err := Probe(ctx, v.protocols, v.indexPortTest(cfg, ports.IndexPort))
		if errors.Is(err, ErrNoAcceptingProtocol) {
			return cfg, fmt.Errorf("%w: %v", ErrInvalidIndexPort, ports.IndexPort)
		}
		if err != nil {
			return cfg, err
		}

		resolved = resolved.WithIndexServer(transport.Details{
			Protocol: protocol,
			Host:     cfg.Host,
			Port:     ports.IndexPort,
		})
	}

	if ports.ServicePort <= 0 || ports.ServicePort > MaxPort {
		return cfg, fmt.Errorf("%w: server reported service port %v", ErrInvalidServicePort, ports.ServicePort)
	}

	protocol, err := Probe(ctx, v.protocols, v.servicePortTest(cfg.Host, ports.ServicePort))
	if errors.Is(err, ErrNoAcceptingProtocol) {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidServicePort, ports.ServicePort)
	}
	if err != nil {
		return cfg, err
	}

	resolved.ServiceProtocol = protocol
	resolved.ServicePort = ports.ServicePort

	return resolved, nil
}

// productTypes returns the product types reported by GetVersion. Several
// components report the same product name, so the type is what identifies
// them
func (v *Validator) productTypes(ctx context.Context, cfg ServerConfig) ([]string, error) {
	res, err := v.aci.Execute(ctx, cfg.ACIDetails(), aci.GetVersion)
	if err != nil {
		return nil, err
	}

	var version aci.VersionResponse
	if err := res.Decode(&version); err != nil {
		return nil, err
	}

	entry := log.WithContext(ctx).WithFields(log.Fields{
		"host":         cfg.Host,
		"port":         cfg.Port,
		"productName":  version.ProductName,
		"productTypes": version.ProductTypeCSV,
	})
	if sv, err := version.SemVer(); err == nil {
		entry = entry.WithField("version", sv.String())
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("idol.server.version", sv.String()))
	}
	entry.Debug("Fetched server version")

	return version.ProductTypes(), nil
}

// servicePortTest accepts a protocol if GetStatus answers with HTTP 200. The
// body is not inspected
func (v *Validator) servicePortTest(host string, port int) ProbeFunc {
	return func(ctx context.Context, protocol transport.Protocol) bool {
		res, err := v.aci.Execute(ctx, transport.Details{
			Protocol: protocol,
			Host:     host,
			Port:     port,
		}, aci.GetStatus)

		return err == nil && res != nil && res.StatusCode == http.StatusOK
	}
}

// indexPortTest accepts a protocol if the invalid test command is rejected
// with the expected error message. Any other outcome, including success,
// means something else is listening
func (v *Validator) indexPortTest(cfg ServerConfig, port int) ProbeFunc {
	return func(ctx context.Context, protocol transport.Protocol) bool {
		_, err := v.indexing.Execute(ctx, transport.Details{
			Protocol: protocol,
			Host:     cfg.Host,
			Port:     port,
		}, indexing.Command{Name: indexTestCommand})

		var indexErr *indexing.Error
		if errors.As(err, &indexErr) {
			return strings.Contains(indexErr.Message, cfg.IndexErrorMessage)
		}
		return false
	}
}

func reasonStrings(r Result) []string {
	reasons := r.Reasons()
	s := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		s = append(s, string(reason))
	}
	return s
}
