// neuralgo is a command line interface for training and evaluating small
// feed-forward neural networks on classic logic gate problems.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "neuralgo",
		Short:         "Neural network demonstration platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newListCmd(),
		newTrainCmd(),
		newEvalCmd(),
		newInfoCmd(),
		newServeCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
