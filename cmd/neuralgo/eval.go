package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neuralgo-ml/neuralgo/nn"
)

func newEvalCmd() *cobra.Command {
	var (
		modelPath string
		inputCSV  string
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a trained model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			network, summary, err := nn.LoadModel(modelPath)
			if err != nil {
				return err
			}

			cmd.Printf("Model: %s (trained %d epochs, accuracy %.2f)\n",
				summary.Example, summary.TrainedEpochs, summary.FinalAccuracy)
			cmd.Printf("Architecture: %v\n", network.Architecture())
			cmd.Println()

			if inputCSV != "" {
				input, err := parseInput(inputCSV)
				if err != nil {
					return err
				}
				out, err := network.Evaluate(nn.ColumnVector(input))
				if err != nil {
					return err
				}
				cmd.Printf("Input:  %v\n", input)
				cmd.Printf("Output: %v\n", formatOutputs(out))
				return nil
			}

			// No input given: for 2-input networks, show the full truth table.
			if network.InputSize() != 2 {
				return fmt.Errorf("no --input given and network takes %d inputs", network.InputSize())
			}
			for _, input := range [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}} {
				out, err := network.Evaluate(nn.ColumnVector(input))
				if err != nil {
					return err
				}
				cmd.Printf("  %v -> Output: %v\n", input, formatOutputs(out))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "path to a trained model file")
	cmd.Flags().StringVarP(&inputCSV, "input", "i", "", "comma-separated input values")
	cmd.MarkFlagRequired("model")

	return cmd
}

func parseInput(csv string) ([]float64, error) {
	parts := strings.Split(csv, ",")
	values := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid input value %q: %w", part, err)
		}
		values = append(values, v)
	}
	return values, nil
}

func formatOutputs(out *nn.Matrix) string {
	parts := make([]string, 0, out.Rows())
	for i := 0; i < out.Rows(); i++ {
		parts = append(parts, fmt.Sprintf("%.4f", out.At(i, 0)))
	}
	return "[" + strings.Join(parts, " ") + "]"
}
