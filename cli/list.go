package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded binaries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dialClient()
		if err != nil {
			return err
		}
		defer client.Close()

		binaries, err := client.ListBinaries()
		if err != nil {
			return err
		}
		if len(binaries) == 0 {
			fmt.Println("no binaries loaded")
			return nil
		}
		for _, b := range binaries {
			fmt.Printf("%s  %6d bytes  %s  %s\n", b.ID, b.Size, time.Unix(b.LoadedAt, 0).Format(time.RFC3339), b.Path)
		}
		return nil
	},
}
