package cmd

import (
	"fmt"

	"github.com/opentext-idol/go-configuration-idol/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [component...]",
	Short: "Checks that the config is well formed without contacting any server",
	RunE: func(cmd *cobra.Command, args []string) error {
		toCheck, err := components(viper.GetViper(), args)
		if err != nil {
			return err
		}

		failed := false
		for _, c := range toCheck {
			if err := checkComponent(c); err != nil {
				failed = true
				fmt.Fprintf(cmd.OutOrStdout(), "%v %v\n", red("✗"), err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%v %v\n", green("✓"), bold(c.Name))
		}

		if failed {
			return errInvalid
		}
		return nil
	},
}

func checkComponent(c component) error {
	switch t := c.Topology.(type) {
	case server.Standalone:
		if err := t.Server.BasicValidate(c.Name); err != nil {
			return err
		}
		return t.Server.ValidateExpectedKinds(c.Name)
	case server.DistributedConfig:
		if err := t.BasicValidate(c.Name); err != nil {
			return err
		}
		return t.ValidateExpectedKinds(c.Name)
	default:
		return fmt.Errorf("%v: unsupported topology %T", c.Name, t)
	}
}

func init() {
	rootCmd.AddCommand(checkCmd)

	addServerFlags(checkCmd)
}
