package cmd

import (
	"context"

	"github.com/opentext-idol/go-configuration-idol/server"
	"github.com/opentext-idol/go-configuration-idol/tracing"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// discoverCmd represents the discover command
var discoverCmd = &cobra.Command{
	Use:   "discover [component...]",
	Short: "Discovers the index and service ports of components",
	Long: `Asks each server of the components for its ports and finds the protocol
each port is spoken over. The product type of the servers is not checked; use
validate for that.`,
	RunE: Discover,
}

func Discover(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	defer tracing.LogRecoverToReturn(ctx, "discover")

	format, err := parseOutputFormat(viper.GetString("output"))
	if err != nil {
		return err
	}

	toDiscover, err := components(viper.GetViper(), args)
	if err != nil {
		return err
	}

	validator, err := newDistributedValidator(viper.GetViper())
	if err != nil {
		return err
	}

	servers, failed := discoverComponents(ctx, validator, toDiscover)

	if err := renderDiscovered(cmd.OutOrStdout(), format, servers); err != nil {
		return err
	}

	if failed {
		return errInvalid
	}
	return nil
}

// discoverComponents fetches the ports of every server in use, one component
// at a time. failed is true if any component could not be resolved
func discoverComponents(ctx context.Context, validator *server.DistributedValidator, components []component) (servers []discoveredServer, failed bool) {
	for _, c := range components {
		resolved, err := validator.FetchTopologyDetails(ctx, c.Topology)
		if err != nil {
			log.WithContext(ctx).WithError(err).WithField("component", c.Name).Debug("Could not discover ports")
			failed = true
			servers = append(servers, discoveredServer{
				Component: c.Name,
				Role:      role(c.Topology),
				Error:     err.Error(),
			})
			continue
		}

		servers = append(servers, describeTopology(c.Name, resolved)...)
	}

	return servers, failed
}

func role(t server.Topology) string {
	cfg, ok := t.(server.DistributedConfig)
	switch {
	case !ok:
		return "server"
	case cfg.Distributed:
		return "dih+dah"
	default:
		return "standard"
	}
}

func describeServer(name, role string, cfg server.ServerConfig) discoveredServer {
	return discoveredServer{
		Component: name,
		Role:      role,
		ACI:       describePort(cfg.ACIDetails()),
		Index:     describePort(cfg.IndexDetails()),
		Service:   describePort(cfg.ServiceDetails()),
	}
}

func describeTopology(name string, t server.Topology) []discoveredServer {
	switch t := t.(type) {
	case server.Standalone:
		return []discoveredServer{describeServer(name, "server", t.Server)}
	case server.DistributedConfig:
		if t.Distributed {
			return []discoveredServer{
				describeServer(name, "dih", t.DIH),
				describeServer(name, "dah", t.DAH),
			}
		}
		return []discoveredServer{describeServer(name, "standard", t.Standard)}
	default:
		return nil
	}
}

func init() {
	rootCmd.AddCommand(discoverCmd)

	addServerFlags(discoverCmd)
}
