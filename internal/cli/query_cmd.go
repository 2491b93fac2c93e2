package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/edgeq"
)

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run <query.json|->",
		Short: "Execute a query and print the formatted result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := readQuery(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if opts.format != "" {
				q.Format = edgeq.Format(opts.format)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			client, err := newClient(ctx, opts)
			if err != nil {
				return err
			}
			defer client.Close()

			res, err := client.Query(ctx, q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res.Data, opts.compact)
		},
	}
}

func newExplainCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <query.json|->",
		Short: "Print the backend request a query compiles to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := readQuery(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if opts.format != "" {
				q.Format = edgeq.Format(opts.format)
			}

			ctx := cmd.Context()
			client, err := newClient(ctx, opts)
			if err != nil {
				return err
			}
			defer client.Close()

			body, err := client.Explain(ctx, q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), body, opts.compact)
		},
	}
}

func newClient(ctx context.Context, opts *options) (*edgeq.Client, error) {
	client, err := edgeq.New(ctx,
		edgeq.WithElasticsearch(opts.esURL),
		edgeq.WithIndex(opts.index),
		edgeq.WithTimeout(opts.timeout),
		edgeq.WithTermsSize(opts.termsSize),
	)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

// readQuery loads a query document from path, or from stdin when path is "-".
func readQuery(stdin io.Reader, path string) (edgeq.Query, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // path is an operator-supplied CLI argument
	}
	if err != nil {
		return edgeq.Query{}, fmt.Errorf("read query: %w", err)
	}
	return edgeq.ParseQuery(data)
}

func printJSON(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
