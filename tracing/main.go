package tracing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/opentext-idol/go-configuration-idol"

// the following vars will be set during the build using `ldflags`, eg:
//
//	go build -ldflags "-X github.com/opentext-idol/go-configuration-idol/tracing.version=$VERSION" -o idol-configuration
var (
	version = "dev"
	commit  = "none"
)

// Tracer returns the tracer of the global provider. Until InitTracer is
// called spans are not recorded
func Tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(
		instrumentationName,
		trace.WithInstrumentationVersion(version),
		trace.WithInstrumentationAttributes(
			attribute.String("build.commit", commit),
		),
		trace.WithSchemaURL(semconv.SchemaURL),
	)
}

func tracingResource(component string) *resource.Resource {
	res, err := resource.New(context.Background(),
		resource.WithHost(),
		resource.WithOS(),
		resource.WithProcess(),
		resource.WithContainer(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(component),
			semconv.ServiceVersionKey.String(version),
			attribute.String("build.commit", commit),
		),
	)
	if errors.Is(err, resource.ErrPartialResource) {
		// some detectors fail outside containers; what was detected is still useful
		log.WithError(err).Debug("partial tracing resource")
		return res
	}
	if err != nil {
		log.WithError(err).Error("error initialising tracing resource")
		return nil
	}
	return res
}

// Upstreams says where telemetry goes. Each zero field disables its upstream
type Upstreams struct {
	// HoneycombAPIKey enables OTLP export of spans to Honeycomb
	HoneycombAPIKey string
	// SentryDSN enables reporting of recovered panics to sentry
	SentryDSN string
	// Release selects the sentry environment: prod when true, dev otherwise
	Release bool
	// StdoutDump pretty prints every span to stdout
	StdoutDump bool
}

// Enabled reports whether any upstream is configured
func (u Upstreams) Enabled() bool {
	return u.HoneycombAPIKey != "" || u.SentryDSN != "" || u.StdoutDump
}

var tp *sdktrace.TracerProvider

// InitTracer installs a global tracer provider for component and connects
// the configured upstreams
func InitTracer(component string, u Upstreams) error {
	if u.SentryDSN != "" {
		environment := "dev"
		if u.Release {
			environment = "prod"
		}
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              u.SentryDSN,
			AttachStacktrace: true,
			Environment:      environment,
			Release:          version,
		}); err != nil {
			// validation still works without sentry
			log.WithError(err).Error("Could not configure sentry")
		}
	}

	tracerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(tracingResource(component)),
	}

	if u.HoneycombAPIKey != "" {
		exp, err := otlptrace.New(context.Background(), otlptracehttp.NewClient(
			otlptracehttp.WithEndpoint("api.honeycomb.io"),
			otlptracehttp.WithHeaders(map[string]string{"x-honeycomb-team": u.HoneycombAPIKey}),
		))
		if err != nil {
			return fmt.Errorf("creating OTLP trace exporter: %w", err)
		}
		tracerOpts = append(tracerOpts, sdktrace.WithBatcher(exp))
	}

	if u.StdoutDump {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("creating stdout trace exporter: %w", err)
		}
		tracerOpts = append(tracerOpts, sdktrace.WithBatcher(exp))
	}

	tp = sdktrace.NewTracerProvider(tracerOpts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return nil
}

// ShutdownTracer flushes pending spans and sentry events. It is safe to call
// when InitTracer was not. Shutdown gets 5 seconds of its own even if ctx has
// already been cancelled
func ShutdownTracer(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if tp != nil {
		if err := tp.Shutdown(ctx); err != nil {
			log.WithError(err).Error("Could not flush spans")
		}
	}
	sentry.Flush(5 * time.Second)
}

// Version returns the version baked into the binary at build time.
func Version() string {
	return version
}
