package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	var ready bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			if ready {
				resp, err := apiClient.Ready(ctx)
				if err != nil {
					fatal("readiness check", err)
				}
				output(resp, resp.Status)
				return
			}

			resp, err := apiClient.Health(ctx)
			if err != nil {
				// A stale pipeline still prints the error body before exiting
				// nonzero, so scripts can see the watermark.
				fmt.Fprintf(os.Stderr, "Error: health check: %v\n", err)
				os.Exit(1)
			}
			output(resp, resp.Status)
		},
	}

	cmd.Flags().BoolVar(&ready, "ready", false, "Check readiness instead of liveness")

	return cmd
}
