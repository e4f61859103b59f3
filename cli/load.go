package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load <path>",
	Short: "Load a WASM binary into the registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dialClient()
		if err != nil {
			return err
		}
		defer client.Close()

		result, err := client.LoadBinary(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("loaded %s (%d bytes) as %s\n", args[0], result.Size, result.ID)
		return nil
	},
}
