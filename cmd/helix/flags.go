package main

import (
	"fmt"

	"github.com/urfave/cli/v3"
)

var (
	deviceName string
	configFile string
	envFile    string
	logLevel   string
	logFormat  string
	debug      bool

	dataPath      string
	valDataPath   string
	epochs        int
	batchSize     int
	learningRate  float64
	optimizerName string
	seed          int64
	maskRatio     float64
	maxLen        int
	silent        bool
	statusAddr    string
	embeddingsOut string
	embedPeriod   int
	temperature   float64
)

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "device",
			Usage:       "execution device (auto, cpu, cuda)",
			Value:       "auto",
			Sources:     cli.EnvVars("HELIX_DEVICE"),
			Destination: &deviceName,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: ~/.config/helix/config.yaml)",
			Sources:     cli.EnvVars("HELIX_CONFIG"),
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "env-file",
			Usage:       "dotenv file loaded before flags are parsed",
			Value:       ".env",
			Destination: &envFile,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("HELIX_LOG_LEVEL"),
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Sources:     cli.EnvVars("HELIX_LOG_FORMAT"),
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func loopFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "batch-size",
			Aliases:     []string{"b"},
			Usage:       "sequences per batch",
			Value:       32,
			Sources:     cli.EnvVars("HELIX_BATCH_SIZE"),
			Destination: &batchSize,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "seed for weights, masking and shuffling",
			Value:       42,
			Sources:     cli.EnvVars("HELIX_SEED"),
			Destination: &seed,
		},
		&cli.FloatFlag{
			Name:        "mask-ratio",
			Usage:       "fraction of bases selected for prediction",
			Value:       0.15,
			Sources:     cli.EnvVars("HELIX_MASK_RATIO"),
			Destination: &maskRatio,
		},
		&cli.IntFlag{
			Name:        "max-len",
			Usage:       "crop sequences to this many bases (0 keeps all)",
			Destination: &maxLen,
		},
		&cli.BoolFlag{
			Name:        "silent",
			Aliases:     []string{"q"},
			Usage:       "disable the progress bar",
			Sources:     cli.EnvVars("HELIX_SILENT"),
			Destination: &silent,
		},
		&cli.StringFlag{
			Name:        "status-addr",
			Usage:       "serve run status over HTTP on this address (e.g. 127.0.0.1:8089)",
			Sources:     cli.EnvVars("HELIX_STATUS_ADDR"),
			Destination: &statusAddr,
		},
		&cli.StringFlag{
			Name:        "embeddings-out",
			Usage:       "write per-sequence embeddings and log-probabilities as JSON Lines",
			Destination: &embeddingsOut,
		},
		&cli.IntFlag{
			Name:        "embedding-period",
			Usage:       "rows per sequence in embedding mode; row r masks positions j%period == r",
			Value:       8,
			Destination: &embedPeriod,
		},
		&cli.FloatFlag{
			Name:        "temperature",
			Aliases:     []string{"temp", "t"},
			Usage:       "divide evaluation logits by this value (0 disables)",
			Destination: &temperature,
		},
	}
}

// validateLoopFlags rejects values the loops would otherwise ignore.
func validateLoopFlags() error {
	if temperature < 0 {
		return fmt.Errorf("temperature must be positive, or 0 to disable (got %g)", temperature)
	}
	if batchSize < 1 {
		return fmt.Errorf("batch-size must be at least 1 (got %d)", batchSize)
	}
	if embedPeriod < 1 {
		return fmt.Errorf("embedding-period must be at least 1 (got %d)", embedPeriod)
	}
	return nil
}
