package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/opentext-idol/go-configuration-idol/logging"
	"github.com/opentext-idol/go-configuration-idol/tracing"
	"github.com/opentext-idol/go-configuration-idol/transport"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

// errInvalid is returned when a command ran but found invalid components. The
// details have already been printed
var errInvalid = errors.New("invalid configuration")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "idol-configuration",
	Short: "Validate connections to IDOL components",
	Long: `Checks that configured IDOL components are reachable and of the expected
product type, and discovers the index and service ports they listen on.
`,
	Version:       tracing.Version(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// General config options
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file describing the components to validate (yaml or json)")
	rootCmd.PersistentFlags().String("log", "info", "Set the log level. Valid values: panic, fatal, error, warn, info, debug, trace")
	rootCmd.PersistentFlags().String("log-format", "text", "Set the log format. Valid values: text, json")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format. Valid values: table, json, yaml")

	// transport
	rootCmd.PersistentFlags().Duration("timeout", transport.DefaultTimeout, "Timeout of a single request to a server")
	rootCmd.PersistentFlags().Int("transport-retries", 0, "Number of times a failed request is retried by the transport")
	rootCmd.PersistentFlags().Bool("tls-insecure", false, "Skip verification of server certificates on HTTPS ports")
	rootCmd.PersistentFlags().StringSlice("protocols", []string{string(transport.HTTP), string(transport.HTTPS)}, "Protocols tried when probing index and service ports, in order")

	// tracing
	rootCmd.PersistentFlags().String("honeycomb-api-key", "", "If specified, configures opentelemetry libraries to submit traces to honeycomb")
	rootCmd.PersistentFlags().String("sentry-dsn", "", "If specified, configures sentry libraries to capture errors")
	rootCmd.PersistentFlags().String("run-mode", "release", "Set the run mode for this service, 'release', 'debug' or 'test'. Defaults to 'release'.")
	rootCmd.PersistentFlags().Bool("stdout-trace-dump", false, "Dump all otel traces to stdout for debugging")

	// Bind these to viper
	err := viper.BindPFlags(rootCmd.PersistentFlags())
	if err != nil {
		log.WithFields(log.Fields{
			"error": err,
		}).Fatal("Could not bind flags to viper")
	}

	// Run this before we do anything to set up the loglevel
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Bind the flags of the subcommand so that they can be set from
		// the environment and the config file too
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if err := viper.BindPFlag(f.Name, f); err != nil {
				log.WithError(err).WithField("flag", f.Name).Error("Could not bind flag to viper")
			}
		})

		if err := logging.Configure(log.StandardLogger(), viper.GetString("log"), viper.GetString("log-format"), nil); err != nil {
			return err
		}

		if viper.ConfigFileUsed() != "" {
			log.WithField("config", viper.ConfigFileUsed()).Debug("Using config file")
		}

		upstreams := tracing.Upstreams{
			HoneycombAPIKey: viper.GetString("honeycomb-api-key"),
			SentryDSN:       viper.GetString("sentry-dsn"),
			Release:         viper.GetString("run-mode") == "release",
			StdoutDump:      viper.GetBool("stdout-trace-dump"),
		}
		if upstreams.Enabled() {
			if err := tracing.InitTracer("idol-configuration", upstreams); err != nil {
				return fmt.Errorf("initialising tracing: %w", err)
			}
			logging.AttachToSpans(log.StandardLogger())
		}

		return nil
	}

	// shut down tracing at the end of the process
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		tracing.ShutdownTracer(context.Background())
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	replacer := strings.NewReplacer("-", "_")

	viper.SetEnvKeyReplacer(replacer)
	viper.SetEnvPrefix("IDOL")
	viper.AutomaticEnv() // read in environment variables that match

	if cfgFile == "" {
		return
	}

	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		log.WithError(err).WithField("config", cfgFile).Fatal("Could not read config file")
	}
}

// timeoutContext bounds a whole command run. Zero means no bound
func timeoutContext(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
