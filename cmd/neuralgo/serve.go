package main

import (
	"github.com/spf13/cobra"

	"github.com/neuralgo-ml/neuralgo/internal/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the training and evaluation HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Printf("Server running on http://%s\n", addr)
			return server.New().Run(addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "127.0.0.1:3000", "address to listen on")

	return cmd
}
