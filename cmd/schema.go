package cmd

import (
	"fmt"
	"os"

	"github.com/naka-gawa/github-star-badge/internal/settings"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Prints the settings schema as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		out, err := settings.MarshalSchema()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		fmt.Print(string(out))
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
