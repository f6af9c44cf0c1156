package main

import (
	"github.com/spf13/cobra"

	"github.com/neuralgo-ml/neuralgo/nn"
)

func newInfoCmd() *cobra.Command {
	var modelPath string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show metadata of a trained model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			network, summary, err := nn.LoadModel(modelPath)
			if err != nil {
				return err
			}

			cmd.Printf("Format version: %s\n", summary.Version)
			cmd.Printf("Example:        %s\n", summary.Example)
			cmd.Printf("Trained epochs: %d\n", summary.TrainedEpochs)
			cmd.Printf("Final accuracy: %.2f\n", summary.FinalAccuracy)
			cmd.Printf("Created:        %s\n", summary.Created)
			cmd.Printf("Architecture:   %v\n", network.Architecture())
			cmd.Printf("Learning rate:  %g\n", network.LearningRate())
			cmd.Printf("Activation:     %s\n", network.ActivationName())
			cmd.Printf("Parameters:     %d\n", network.NumParameters())
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "path to a trained model file")
	cmd.MarkFlagRequired("model")

	return cmd
}
