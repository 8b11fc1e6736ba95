package config

import (
	"DigitNet/pkg/network"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse("test", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, []int{784, 256, 128, 10}, cfg.Layers)
	assert.Equal(t, 0.5, cfg.LearningRate)
	assert.Equal(t, 400, cfg.Epochs)
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := Parse("test", []string{"-layers", "4, 3,2", "-lr", "0.1", "-epochs", "20", "-port", "8080", "-weights", "/tmp/w"})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 3, 2}, cfg.Layers)
	assert.Equal(t, 0.1, cfg.LearningRate)
	assert.Equal(t, 20, cfg.Epochs)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/tmp/w", cfg.WeightsDir)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("test", []string{"-layers", "784"})
	assert.Error(t, err)

	_, err = Parse("test", []string{"-lr", "0"})
	assert.ErrorIs(t, err, network.ErrConfiguration)
}

func TestParseLayers(t *testing.T) {
	layers, err := ParseLayers("784,256,128,10")
	require.NoError(t, err)
	assert.Equal(t, "784,256,128,10", FormatLayers(layers))

	_, err = ParseLayers("784,abc")
	assert.Error(t, err)
	_, err = ParseLayers("")
	assert.ErrorIs(t, err, network.ErrConfiguration)
}
