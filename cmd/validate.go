package cmd

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/opentext-idol/go-configuration-idol/aci"
	"github.com/opentext-idol/go-configuration-idol/indexing"
	"github.com/opentext-idol/go-configuration-idol/server"
	"github.com/opentext-idol/go-configuration-idol/tracing"
	"github.com/opentext-idol/go-configuration-idol/transport"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [component...]",
	Short: "Validates components against the live servers",
	Long: `Validates each component: the server must be reachable, report one of the
expected product types and have working index and service ports. Distributed
components validate both the DIH and the DAH.

Exits with status 1 if any component is invalid.`,
	RunE: Validate,
}

// validateOptions controls how a set of components is validated
type validateOptions struct {
	Parallel      int
	Retries       int
	RetryInterval time.Duration
}

func Validate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	defer tracing.LogRecoverToReturn(ctx, "validate")

	format, err := parseOutputFormat(viper.GetString("output"))
	if err != nil {
		return err
	}

	toValidate, err := components(viper.GetViper(), args)
	if err != nil {
		return err
	}

	validator, err := newDistributedValidator(viper.GetViper())
	if err != nil {
		return err
	}

	ctx, cancel := timeoutContext(ctx, viper.GetDuration("deadline"))
	defer cancel()

	results := validateComponents(ctx, validator, toValidate, validateOptions{
		Parallel:      viper.GetInt("parallel"),
		Retries:       viper.GetInt("retries"),
		RetryInterval: viper.GetDuration("retry-interval"),
	})

	if err := renderResults(cmd.OutOrStdout(), format, results); err != nil {
		return err
	}

	for _, r := range results {
		if !r.Result.Valid {
			return errInvalid
		}
	}

	return nil
}

// newDistributedValidator builds the validators and the clients they share
// from the transport flags
func newDistributedValidator(v *viper.Viper) (*server.DistributedValidator, error) {
	protocols := make([]transport.Protocol, 0, 2)
	for _, s := range v.GetStringSlice("protocols") {
		p, err := transport.ParseProtocol(s)
		if err != nil {
			return nil, err
		}
		if p != "" {
			protocols = append(protocols, p)
		}
	}

	portActions, err := loadPortActions(v)
	if err != nil {
		return nil, err
	}

	client := transport.NewHTTPClient(transport.ClientOptions{
		Timeout:            v.GetDuration("timeout"),
		Retries:            v.GetInt("transport-retries"),
		InsecureSkipVerify: v.GetBool("tls-insecure"),
	})
	aciClient := aci.NewHTTPClient(client)

	validator := server.NewValidator(aciClient, indexing.NewHTTPClient(client),
		server.WithProtocols(protocols...),
		server.WithPortActions(portActions),
	)

	return server.NewDistributedValidator(validator, aciClient), nil
}

// validateComponents validates the components concurrently, at most
// opts.Parallel at a time. Results are in the order of components
func validateComponents(ctx context.Context, validator *server.DistributedValidator, components []component, opts validateOptions) []componentResult {
	runID := uuid.New()

	ctx, span := tracing.Tracer().Start(ctx, "validateComponents", trace.WithAttributes(
		attribute.String("idol.run.id", runID.String()),
		attribute.Int("idol.run.components", len(components)),
	))
	defer span.End()

	results := make([]componentResult, len(components))

	var g errgroup.Group
	if opts.Parallel > 0 {
		g.SetLimit(opts.Parallel)
	}

	for i, c := range components {
		g.Go(func() error {
			lf := log.Fields{
				"run":       runID.String(),
				"component": c.Name,
			}
			log.WithContext(ctx).WithFields(lf).Debug("Validating component")

			res := validateWithRetry(ctx, validator, c, opts)

			log.WithContext(ctx).WithFields(lf).WithField("valid", res.Valid).Info("Validated component")
			results[i] = componentResult{Name: c.Name, Result: res}
			return nil
		})
	}

	_ = g.Wait()

	return results
}

// validateWithRetry validates c again while the only thing wrong is that a
// server could not be reached
func validateWithRetry(ctx context.Context, validator *server.DistributedValidator, c component, opts validateOptions) server.Result {
	b := backoff.NewExponentialBackOff()
	if opts.RetryInterval > 0 {
		b.InitialInterval = opts.RetryInterval
	}
	b.MaxInterval = 30 * time.Second
	tick := backoff.NewTicker(b)
	defer tick.Stop()

	res := server.Result{Valid: false, Data: server.ConnectionError}

	for try := 0; try <= opts.Retries; try++ {
		select {
		case <-ctx.Done():
			return res
		case _, ok := <-tick.C:
			if !ok {
				return res
			}
		}

		res = validator.ValidateTopology(ctx, c.Topology)
		if res.Valid || !onlyConnectionErrors(res) {
			return res
		}

		if try < opts.Retries {
			log.WithContext(ctx).WithFields(log.Fields{
				"component": c.Name,
				"try":       try + 1,
			}).Warn("Could not connect, retrying")
		}
	}

	return res
}

func onlyConnectionErrors(r server.Result) bool {
	reasons := r.Reasons()
	if len(reasons) == 0 {
		return false
	}
	for _, reason := range reasons {
		if reason != server.ConnectionError {
			return false
		}
	}
	return true
}

func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().String("host", "", "Host of a single server to use instead of the components of the config file")
	cmd.Flags().Int("port", 0, "ACI port of the server given with --host")
	cmd.Flags().String("protocol", "", "Protocol of the ACI port of the server given with --host (HTTP or HTTPS)")
	cmd.Flags().StringSlice("product-type", nil, "Product types the server given with --host may report")
	cmd.Flags().String("product-type-regex", "", "Pattern the product type of the server given with --host must match")
	cmd.Flags().String("index-error-message", "", "Error expected from the index port of the server given with --host; unset means no index port")
	cmd.MarkFlagsMutuallyExclusive("product-type", "product-type-regex")
}

func init() {
	rootCmd.AddCommand(validateCmd)

	addServerFlags(validateCmd)
	validateCmd.Flags().Int("parallel", 4, "Number of components validated at the same time")
	validateCmd.Flags().Int("retries", 0, "Number of times a component is validated again when its servers cannot be reached")
	validateCmd.Flags().Duration("retry-interval", time.Second, "Initial wait before validating an unreachable component again")
	validateCmd.Flags().Duration("deadline", 0, "Maximum time for the whole run; zero means no limit")
}
