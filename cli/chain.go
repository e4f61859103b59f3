package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var chainCmd = &cobra.Command{
	Use:   "chain <binary-id,binary-id,...> <input>",
	Short: "Run an ordered chain of binaries, threading output to input",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dialClient()
		if err != nil {
			return err
		}
		defer client.Close()

		ids := strings.Split(args[0], ",")
		cfg := execConfigFromFlags()
		results, err := client.ExecuteChain(ids, args[1], cfg)
		if err != nil {
			return err
		}
		for i, r := range results {
			fmt.Printf("--- step %d (%s) ---\n", i, r.BinaryID)
			printExecutionResult(r)
		}
		return nil
	},
}
