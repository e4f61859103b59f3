package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wasmforge/pluginhost/domain/entities"
)

var (
	executeTimeoutMS int64
	executeMemoryMB  int64
)

var executeCmd = &cobra.Command{
	Use:   "execute <binary-id> <input>",
	Short: "Execute a loaded binary once",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dialClient()
		if err != nil {
			return err
		}
		defer client.Close()

		cfg := execConfigFromFlags()
		result, err := client.Execute(args[0], args[1], cfg)
		if err != nil {
			return err
		}
		printExecutionResult(result)
		return nil
	},
}

// bindExecFlags registers the per-call resource-limit flags shared by
// execute and chain.
func bindExecFlags(fs *pflag.FlagSet) {
	fs.Int64Var(&executeTimeoutMS, "timeout-ms", 0, "wall-clock budget in milliseconds (default 5000)")
	fs.Int64Var(&executeMemoryMB, "memory-limit-mb", 0, "guest linear memory cap in MiB (default 64)")
}

func init() {
	bindExecFlags(executeCmd.Flags())
	bindExecFlags(chainCmd.Flags())
}

// execConfigFromFlags returns nil when neither flag was set, letting the
// daemon apply its own defaults.
func execConfigFromFlags() *entities.ExecutionConfig {
	if executeTimeoutMS == 0 && executeMemoryMB == 0 {
		return nil
	}
	return &entities.ExecutionConfig{TimeoutMS: executeTimeoutMS, MemoryLimitMB: executeMemoryMB}
}

func printExecutionResult(r entities.ExecutionResult) {
	fmt.Printf("binary:      %s\n", r.BinaryID)
	fmt.Printf("return_code: %d\n", r.ReturnCode)
	fmt.Printf("elapsed_ms:  %d\n", r.ExecutionTimeMS)
	fmt.Printf("fuel_used:   %d\n", r.FuelConsumed)
	fmt.Printf("output:\n%s\n", r.Output)
}
