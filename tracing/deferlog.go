package tracing

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// LogRecoverToReturn Recovers from a panic, logs and forwards it sentry and otel, then returns
// Does nothing when there is no panic.
func LogRecoverToReturn(ctx context.Context, loc string) {
	err := recover()
	if err == nil {
		return
	}

	stack := string(debug.Stack())
	HandleError(ctx, loc, err, stack)
}

// HandleError reports a recovered panic to sentry, the log and the span in
// ctx. The caller decides how to carry on
func HandleError(ctx context.Context, loc string, err interface{}, stack string) {
	msg := fmt.Sprintf("unhandled panic in %v: %v", loc, err)

	hub := sentry.CurrentHub()
	if hub != nil {
		hub.Recover(err)
	}

	// always log to stderr, the span may not be exported
	log.WithFields(log.Fields{"loc": loc, "stack": stack}).Error(msg)

	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("idol.panic.loc", loc),
		attribute.String("idol.panic.stack", stack),
	)
	span.SetStatus(codes.Error, msg)
}
