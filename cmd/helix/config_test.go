package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/helix/internal/dataset"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
device: cpu
log_format: json
epochs: 5
batch_size: 8
mask_ratio: 0.2
species: [human, mouse]
model:
  embed_dim: 4
  window: 0
optimizer:
  name: sgd
  lr: 0.05
  momentum: 0.9
  lr_decay: 0.9
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "cpu", cfg.Device)
	assert.Equal(t, "json", cfg.LogFormat)
	require.NotNil(t, cfg.Epochs)
	assert.Equal(t, 5, *cfg.Epochs)
	require.NotNil(t, cfg.MaskRatio)
	assert.Equal(t, 0.2, *cfg.MaskRatio)
	assert.Nil(t, cfg.Seed)
	assert.Equal(t, []string{"human", "mouse"}, cfg.Species)
	assert.Equal(t, "sgd", cfg.Optim.Name)
	assert.Equal(t, 0.9, cfg.Optim.Momentum)
	assert.Equal(t, 0.9, cfg.Optim.LRDecay)

	mc := cfg.modelConfig(2, 7)
	assert.Equal(t, 4, mc.Embed)
	assert.Equal(t, 32, mc.Hidden)
	assert.Equal(t, 0, mc.Window)
	assert.Equal(t, dataset.VocabSize, mc.Vocab)
	assert.Equal(t, dataset.NumClasses, mc.Classes)
	assert.Equal(t, int64(7), mc.Seed)

	oc := cfg.optimConfig("adam", 0.01)
	assert.Equal(t, "adam", oc.Name)
	assert.Equal(t, 0.01, oc.LR)
	assert.Equal(t, 0.9, oc.Momentum)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err, "an explicit missing path is an error")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("epochs: [not, an, int]\n"), 0o644))
	_, err = LoadConfig(bad)
	require.Error(t, err)
}

func TestApplyTrainConfigRespectsFlags(t *testing.T) {
	five, eight := 5, 8
	cfg := Config{
		Epochs:    &five,
		BatchSize: &eight,
	}
	cfg.Optim.Name = "sgd"
	cfg.Optim.LR = 0.5

	cmd := &cli.Command{
		Name: "train",
		Flags: append([]cli.Flag{
			&cli.IntFlag{Name: "epochs", Value: 1, Destination: &epochs},
			&cli.FloatFlag{Name: "lr", Value: 1e-3, Destination: &learningRate},
			&cli.StringFlag{Name: "optimizer", Value: "adam", Destination: &optimizerName},
		}, loopFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyTrainConfig(cmd, cfg)
			return nil
		},
	}
	require.NoError(t, cmd.Run(context.Background(), []string{"train", "--batch-size", "16", "--lr", "0.1"}))

	assert.Equal(t, 5, epochs, "unset flag takes the config value")
	assert.Equal(t, 16, batchSize, "explicit flag wins over config")
	assert.Equal(t, 0.1, learningRate)
	assert.Equal(t, "sgd", optimizerName)
}

func TestValidateLoopFlags(t *testing.T) {
	batchSize, embedPeriod, temperature = 4, 8, 0
	require.NoError(t, validateLoopFlags())

	temperature = 0.7
	require.NoError(t, validateLoopFlags())

	temperature = -1
	err := validateLoopFlags()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temperature")

	temperature, batchSize = 0, 0
	require.Error(t, validateLoopFlags())

	batchSize, embedPeriod = 4, 0
	require.Error(t, validateLoopFlags())
}
