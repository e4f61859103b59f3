package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var traceCmd = &cobra.Command{
	Use:   "trace <binary-id>",
	Short: "Show the most recent diagnostic trace recorded for a binary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dialClient()
		if err != nil {
			return err
		}
		defer client.Close()

		tr, err := client.GetTrace(args[0])
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(tr, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}
