package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/naka-gawa/github-star-badge/internal/page"
	"github.com/spf13/cobra"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate FILE",
	Short: "Annotates the GitHub links of an HTML or Markdown page once",
	Long: `Loads FILE (HTML, or Markdown rendered into the main content container),
annotates every GitHub repository link under the root containers with its
star count, and writes the resulting HTML to --output or standard output.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := newLogger(cmd)

		doc, err := page.Load(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load page: %v\n", err)
			os.Exit(1)
		}

		// Inject dependencies and run the main business logic.
		rt, err := newRuntime(doc, logger, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to set up session: %v\n", err)
			os.Exit(1)
		}
		if err := rt.session.OnLoad(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to annotate page: %v\n", err)
			os.Exit(1)
		}

		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			err = doc.Render(os.Stdout)
		} else {
			err = page.WriteFile(doc, output)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write page: %v\n", err)
			os.Exit(1)
		}

		if summarize, _ := cmd.Flags().GetBool("summary"); summarize {
			summary, err := rt.session.Summary()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to summarize star counts: %v\n", err)
				os.Exit(1)
			}
			// Marshal the summary into a pretty-printed JSON string.
			jsonData, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to marshal summary to JSON: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintln(os.Stderr, string(jsonData))
		}
	},
}

func init() {
	rootCmd.AddCommand(annotateCmd)
	annotateCmd.Flags().StringP("output", "o", "", "Write the annotated page to this file instead of standard output")
	annotateCmd.Flags().Bool("summary", false, "Print star count statistics as JSON to standard error")
}
