// Package cli implements edgeqctl, a command-line runner for edge/select queries.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

const defaultESURL = "http://localhost:9200"

// options holds the resolved global flags.
type options struct {
	esURL     string
	index     string
	format    string
	timeout   time.Duration
	termsSize int
	compact   bool
}

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "edgeqctl",
		Short:         "Run edge/select aggregation queries",
		Long:          "Command-line runner that compiles edge/select queries into Elasticsearch aggregations and decodes the result.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Apply precedence: flag > env > default
			if !cmd.Flags().Changed("es-url") {
				if v := os.Getenv("EDGEQ_ES_URL"); v != "" {
					opts.esURL = v
				}
			}
			if !cmd.Flags().Changed("index") {
				if v := os.Getenv("EDGEQ_INDEX"); v != "" {
					opts.index = v
				}
			}
			switch opts.format {
			case "", "cube", "table", "list":
				return nil
			default:
				return fmt.Errorf("unsupported format %q: use cube, table or list", opts.format)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.esURL, "es-url", defaultESURL, "Elasticsearch base URL")
	rootCmd.PersistentFlags().StringVar(&opts.index, "index", "", "Index used by queries without \"from\"")
	rootCmd.PersistentFlags().StringVarP(&opts.format, "format", "f", "", "Output format override (cube, table, list)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Backend request timeout")
	rootCmd.PersistentFlags().IntVar(&opts.termsSize, "terms-size", 0, "Bound every terms aggregation (0 = backend default)")
	rootCmd.PersistentFlags().BoolVar(&opts.compact, "compact", false, "Print compact JSON")

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newExplainCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
