package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestInitializeParameters_ShapesChain(t *testing.T) {
	topologies := [][]int{
		{2, 2},
		{4, 3, 2},
		{784, 256, 128, 10},
		{5, 1, 7, 3},
	}
	for _, sizes := range topologies {
		nn, _, err := InitializeParameters(sizes, DefaultHyperparameters())
		require.NoError(t, err, "topology %v", sizes)
		require.Len(t, nn.Layers, len(sizes)-1)
		require.NoError(t, nn.Validate())
		assert.Equal(t, sizes, nn.Sizes())

		for i, layer := range nn.Layers {
			assert.Equal(t, i+1, layer.Index)
			r, c := layer.Weights.Dims()
			assert.Equal(t, sizes[i], r)
			assert.Equal(t, sizes[i+1], c)
			br, bc := layer.Biases.Dims()
			assert.Equal(t, 1, br)
			assert.Equal(t, sizes[i+1], bc)
			assert.True(t, mat.Equal(layer.Biases, mat.NewDense(1, sizes[i+1], nil)), "bias must start at zero")
		}
	}
}

func TestInitializeParameters_ConfigurationError(t *testing.T) {
	for _, sizes := range [][]int{nil, {}, {784}, {4, 0, 2}, {3, -1}} {
		nn, _, err := InitializeParameters(sizes, DefaultHyperparameters())
		assert.ErrorIs(t, err, ErrConfiguration, "topology %v", sizes)
		assert.Nil(t, nn)
	}
}

func TestInitializeParameters_PassesHyperparametersThrough(t *testing.T) {
	hp := Hyperparameters{LearningRate: 0.125, Epochs: 7}
	_, got, err := InitializeParameters([]int{3, 2}, hp)
	require.NoError(t, err)
	assert.Equal(t, hp, got)
}

func TestInitializeParameters_Deterministic(t *testing.T) {
	a, _, err := InitializeParameters([]int{2, 2}, DefaultHyperparameters())
	require.NoError(t, err)
	b, _, err := InitializeParameters([]int{2, 2}, DefaultHyperparameters())
	require.NoError(t, err)

	assert.Equal(t, a.Layers[0].Weights.RawMatrix().Data, b.Layers[0].Weights.RawMatrix().Data)

	c, _, err := InitializeParametersWithSeed([]int{2, 2}, DefaultHyperparameters(), 7)
	require.NoError(t, err)
	assert.NotEqual(t, a.Layers[0].Weights.RawMatrix().Data, c.Layers[0].Weights.RawMatrix().Data)
}

func TestInitializeParameters_HeScale(t *testing.T) {
	nn, _, err := InitializeParameters([]int{200, 300}, DefaultHyperparameters())
	require.NoError(t, err)

	data := nn.Layers[0].Weights.RawMatrix().Data
	mean, std := stat.MeanStdDev(data, nil)
	// 60000 个样本，期望 std = sqrt(2/200) = 0.1
	assert.InDelta(t, 0, mean, 0.005)
	assert.InDelta(t, 0.1, std, 0.005)
}

func TestValidate_DetectsBrokenChain(t *testing.T) {
	nn, _, err := InitializeParameters([]int{4, 3, 2}, DefaultHyperparameters())
	require.NoError(t, err)
	nn.Layers[1] = newLayerFrom(2, mat.NewDense(5, 2, nil), mat.NewDense(1, 2, nil))
	assert.ErrorIs(t, nn.Validate(), ErrShapeMismatch)

	assert.ErrorIs(t, (&NeuronNetwork{}).Validate(), ErrShapeMismatch)
}
