package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/helix/internal/dataset"
	"github.com/samcharles93/helix/internal/device"
	"github.com/samcharles93/helix/internal/logger"
	"github.com/samcharles93/helix/internal/nn"
	"github.com/samcharles93/helix/internal/trainer"
)

func evalCmd() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "data",
			Aliases:     []string{"d"},
			Usage:       "sequence table to evaluate (TSV: seq_name, species, sequence)",
			Required:    true,
			Sources:     cli.EnvVars("HELIX_EVAL_DATA"),
			Destination: &dataPath,
		},
	}
	flags = append(flags, loopFlags()...)

	return &cli.Command{
		Name:   "eval",
		Usage:  "Evaluate a freshly seeded model as a baseline",
		Flags:  flags,
		Before: setup,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyLoopConfig(cmd, fileConfig)
			if err := validateLoopFlags(); err != nil {
				return err
			}
			run := startStatus(ctx, statusAddr, "eval")
			err := runEval(ctx, run)
			run.finish(err)
			return err
		},
	}
}

func runEval(ctx context.Context, run *statusRun) error {
	log := logger.FromContext(ctx)
	dev, err := device.Resolve(deviceName)
	if err != nil {
		return err
	}
	log.Info("device", append([]any{"device", dev}, device.Describe().LogArgs()...)...)

	table, err := dataset.LoadTable(dataPath, fileConfig.Species)
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}
	model, err := nn.NewMaskedLM(fileConfig.modelConfig(len(table.Species()), seed))
	if err != nil {
		return err
	}
	log.Info("model ready", "params", nn.CountParams(model.Params()), "sequences", table.Len())

	loader := dataset.NewBatchLoader(table, dataset.LoaderConfig{
		BatchSize: batchSize,
		Seed:      seed,
		MaskRatio: maskRatio,
		MaxLen:    maxLen,
	})
	res, err := trainer.Evaluate(ctx, model, loader, evalOptions(run, "eval", false))
	if err != nil {
		return err
	}
	log.Info("evaluated", summaryArgs(res.Metrics)...)

	if embeddingsOut == "" {
		return nil
	}
	return writeEmbeddings(ctx, run, model, table)
}
