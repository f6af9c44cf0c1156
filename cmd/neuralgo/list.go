package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neuralgo-ml/neuralgo/examples"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available training examples",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Println("Available examples:")
			cmd.Println()
			for _, name := range examples.List() {
				ex, _ := examples.Get(name)
				cmd.Println(fmt.Sprintf("  %-4s %s", ex.Name, ex.Description))
				cmd.Println(fmt.Sprintf("       architecture %v, %d epochs, learning rate %g",
					ex.Architecture, ex.Epochs, ex.LearningRate))
			}
			return nil
		},
	}
}
