package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var unloadCmd = &cobra.Command{
	Use:   "unload <binary-id>",
	Short: "Unload a binary from the registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dialClient()
		if err != nil {
			return err
		}
		defer client.Close()

		msg, err := client.UnloadBinary(args[0])
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	},
}
