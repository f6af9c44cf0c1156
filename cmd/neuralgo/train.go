package main

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/neuralgo-ml/neuralgo/examples"
	"github.com/neuralgo-ml/neuralgo/nn"
)

func newTrainCmd() *cobra.Command {
	var (
		exampleName        string
		epochs             int
		learningRate       float64
		output             string
		checkpointPath     string
		checkpointInterval int
		resumePath         string
		quiet              bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a neural network on an example",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ex, ok := examples.Get(exampleName)
			if !ok {
				return fmt.Errorf("unknown example: %s (use 'list' to see available examples)", exampleName)
			}
			if epochs <= 0 {
				epochs = ex.Epochs
			}
			if learningRate <= 0 {
				learningRate = ex.LearningRate
			}

			config := nn.TrainingConfig{
				Epochs:             epochs,
				CheckpointInterval: checkpointInterval,
				CheckpointPath:     checkpointPath,
				ExampleName:        ex.Name,
			}

			var controller *nn.TrainingController
			if resumePath != "" {
				var err error
				controller, err = nn.ResumeFromCheckpoint(resumePath, config)
				if err != nil {
					return err
				}
				cmd.Printf("Resuming %s from epoch %d\n", ex.Name, controller.CurrentEpoch())
			} else {
				network, err := nn.NewNetwork(ex.Architecture, nn.Sigmoid, learningRate)
				if err != nil {
					return err
				}
				controller = nn.NewTrainingController(network, config)
			}

			cmd.Printf("Training %s network\n", ex.Name)
			cmd.Printf("Architecture: %v\n", ex.Architecture)
			cmd.Printf("Epochs: %d\n", epochs)
			cmd.Printf("Learning rate: %g\n", learningRate)
			cmd.Println()

			if !quiet {
				stride := epochs / 10
				if stride < 1 {
					stride = 1
				}
				controller.AddCallback(nn.CallbackFunc(func(r nn.EpochResult) error {
					if r.Epoch%stride == 0 || r.Epoch == epochs {
						cmd.Printf("Epoch %d of %d: loss = %.6f\n", r.Epoch, epochs, r.Loss)
					}
					return nil
				}))
			}

			start := time.Now()
			if err := controller.Train(ex.Inputs, ex.Targets); err != nil {
				return err
			}
			cmd.Printf("Training complete in %v\n", time.Since(start).Round(time.Millisecond))
			cmd.Println()

			network := controller.Network()
			for i, input := range ex.Inputs {
				out, err := network.Evaluate(nn.ColumnVector(input))
				if err != nil {
					return err
				}
				cmd.Printf("  %v -> %.4f (want %g)\n", input, out.At(0, 0), ex.Targets[i][0])
			}

			if output != "" {
				summary := nn.ModelSummary{
					Version:       nn.CheckpointVersion,
					Example:       ex.Name,
					TrainedEpochs: controller.CurrentEpoch(),
					FinalAccuracy: accuracy(network, ex.Inputs, ex.Targets),
					Created:       time.Now().UTC().Format(time.RFC3339),
				}
				if err := network.SaveModel(output, summary); err != nil {
					return err
				}
				cmd.Println()
				cmd.Printf("Model saved to %s\n", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&exampleName, "example", "e", "", "example to train on (and, or, xor)")
	cmd.Flags().IntVarP(&epochs, "epochs", "n", 0, "number of training epochs (default: example's recommendation)")
	cmd.Flags().Float64VarP(&learningRate, "learning-rate", "l", 0, "learning rate (default: example's recommendation)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path for the trained model")
	cmd.Flags().StringVar(&checkpointPath, "checkpoint", "", "checkpoint destination")
	cmd.Flags().IntVar(&checkpointInterval, "checkpoint-interval", 0, "epochs between periodic checkpoints")
	cmd.Flags().StringVar(&resumePath, "resume", "", "resume training from a checkpoint file")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress per-epoch progress")
	cmd.MarkFlagRequired("example")

	return cmd
}

// accuracy is the fraction of samples whose rounded outputs all match the
// target exactly.
func accuracy(network *nn.Network, inputs, targets [][]float64) float64 {
	correct := 0
	for i := range inputs {
		out, err := network.Evaluate(nn.ColumnVector(inputs[i]))
		if err != nil {
			continue
		}
		match := true
		for j, want := range targets[i] {
			if math.Round(out.At(j, 0)) != want {
				match = false
				break
			}
		}
		if match {
			correct++
		}
	}
	return float64(correct) / float64(len(inputs))
}
