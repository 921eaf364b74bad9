package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/helix/internal/dataset"
	"github.com/samcharles93/helix/internal/device"
	"github.com/samcharles93/helix/internal/export"
	"github.com/samcharles93/helix/internal/logger"
	"github.com/samcharles93/helix/internal/metrics"
	"github.com/samcharles93/helix/internal/nn"
	"github.com/samcharles93/helix/internal/optim"
	"github.com/samcharles93/helix/internal/trainer"
)

func trainCmd() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "train-data",
			Usage:       "training sequence table (TSV: seq_name, species, sequence)",
			Required:    true,
			Sources:     cli.EnvVars("HELIX_TRAIN_DATA"),
			Destination: &dataPath,
		},
		&cli.StringFlag{
			Name:        "val-data",
			Usage:       "validation sequence table, evaluated after every epoch",
			Sources:     cli.EnvVars("HELIX_VAL_DATA"),
			Destination: &valDataPath,
		},
		&cli.IntFlag{
			Name:        "epochs",
			Aliases:     []string{"e"},
			Usage:       "number of passes over the training data",
			Value:       1,
			Destination: &epochs,
		},
		&cli.FloatFlag{
			Name:        "lr",
			Usage:       "learning rate",
			Value:       1e-3,
			Sources:     cli.EnvVars("HELIX_LR"),
			Destination: &learningRate,
		},
		&cli.StringFlag{
			Name:        "optimizer",
			Usage:       "optimizer (adam, sgd)",
			Value:       "adam",
			Destination: &optimizerName,
		},
	}
	flags = append(flags, loopFlags()...)

	return &cli.Command{
		Name:   "train",
		Usage:  "Train a model, evaluating on validation data after each epoch",
		Flags:  flags,
		Before: setup,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyTrainConfig(cmd, fileConfig)
			if err := validateLoopFlags(); err != nil {
				return err
			}
			if epochs < 1 {
				return fmt.Errorf("epochs must be at least 1 (got %d)", epochs)
			}
			run := startStatus(ctx, statusAddr, "train")
			err := runTrain(ctx, run)
			run.finish(err)
			return err
		},
	}
}

func runTrain(ctx context.Context, run *statusRun) error {
	log := logger.FromContext(ctx)
	dev, err := device.Resolve(deviceName)
	if err != nil {
		return err
	}
	log.Info("device", append([]any{"device", dev}, device.Describe().LogArgs()...)...)

	trainTable, err := dataset.LoadTable(dataPath, fileConfig.Species)
	if err != nil {
		return fmt.Errorf("load training data: %w", err)
	}
	species := trainTable.Species()
	var valTable *dataset.Table
	if valDataPath != "" {
		if valTable, err = dataset.LoadTable(valDataPath, species); err != nil {
			return fmt.Errorf("load validation data: %w", err)
		}
	}
	log.Info("loaded data", "train", trainTable.Len(), "val", tableLen(valTable), "species", len(species))

	model, err := nn.NewMaskedLM(fileConfig.modelConfig(len(species), seed))
	if err != nil {
		return err
	}
	opt, err := optim.New(model.Params(), fileConfig.optimConfig(optimizerName, learningRate))
	if err != nil {
		return err
	}
	log.Info("model ready", "params", nn.CountParams(model.Params()), "optimizer", optimizerName, "lr", learningRate)

	trainLoader := dataset.NewBatchLoader(trainTable, dataset.LoaderConfig{
		BatchSize: batchSize,
		Shuffle:   true,
		Seed:      seed,
		MaskRatio: maskRatio,
		MaxLen:    maxLen,
	})
	var valLoader *dataset.BatchLoader
	if valTable != nil {
		valLoader = dataset.NewBatchLoader(valTable, dataset.LoaderConfig{
			BatchSize: batchSize,
			Seed:      seed + 1,
			MaskRatio: maskRatio,
			MaxLen:    maxLen,
		})
	}

	for epoch := 1; epoch <= epochs; epoch++ {
		phase := fmt.Sprintf("epoch %d/%d train", epoch, epochs)
		sum, err := trainer.Train(ctx, model, opt, trainLoader, run.loopOptions(phase))
		if err != nil {
			return fmt.Errorf("epoch %d: %w", epoch, err)
		}
		log.Info("epoch trained", append([]any{"epoch", epoch, "lr", opt.LR()}, summaryArgs(sum)...)...)
		if decay := fileConfig.Optim.LRDecay; decay > 0 {
			log.Debug("learning rate decayed", "epoch", epoch, "lr", optim.Decay(opt, decay))
		}

		if valLoader == nil {
			continue
		}
		phase = fmt.Sprintf("epoch %d/%d eval", epoch, epochs)
		res, err := trainer.Evaluate(ctx, model, valLoader, evalOptions(run, phase, false))
		if err != nil {
			return fmt.Errorf("epoch %d validation: %w", epoch, err)
		}
		log.Info("epoch validated", append([]any{"epoch", epoch}, summaryArgs(res.Metrics)...)...)
	}

	if embeddingsOut == "" {
		return nil
	}
	src := valTable
	if src == nil {
		src = trainTable
	}
	return writeEmbeddings(ctx, run, model, src)
}

// evalOptions builds the options for an evaluation pass.
func evalOptions(run *statusRun, phase string, embeddings bool) trainer.EvalOptions {
	return trainer.EvalOptions{
		Options:       run.loopOptions(phase),
		GetEmbeddings: embeddings,
		Temperature:   float32(temperature),
	}
}

// writeEmbeddings runs embedding-mode evaluation over t and exports the
// result to embeddingsOut.
func writeEmbeddings(ctx context.Context, run *statusRun, model trainer.Model, t *dataset.Table) error {
	log := logger.FromContext(ctx)
	loader := dataset.NewEmbeddingLoader(t, embedPeriod, maxLen)
	res, err := trainer.Evaluate(ctx, model, loader, evalOptions(run, "embeddings", true))
	if err != nil {
		return fmt.Errorf("embeddings: %w", err)
	}
	n, err := export.WriteFile(embeddingsOut, res.Embeddings)
	if err != nil {
		return fmt.Errorf("write embeddings: %w", err)
	}
	log.Info("wrote embeddings", append([]any{"path", embeddingsOut, "sequences", n}, summaryArgs(res.Metrics)...)...)
	return nil
}

func tableLen(t *dataset.Table) int {
	if t == nil {
		return 0
	}
	return t.Len()
}

// summaryArgs flattens metrics into slog key/value pairs.
func summaryArgs(s metrics.Summary) []any {
	return []any{
		"loss", s.Loss,
		"acc", s.Accuracy,
		"masked_acc", s.MaskedAccuracy,
		"masked_iqs", s.MaskedIQS,
		"masked_recall", metrics.FormatClassRecall(s.MaskedRecall, ""),
	}
}
