package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func lossOf(nn *NeuronNetwork, x, y *mat.Dense) float64 {
	return CrossEntropy(y, nn.FeedForward(x).Output())
}

func TestFeedForward_CacheLayout(t *testing.T) {
	nn, _, err := InitializeParameters([]int{4, 3, 2}, DefaultHyperparameters())
	require.NoError(t, err)
	x := mat.NewDense(5, 4, nil)
	for i := range x.RawMatrix().Data {
		x.RawMatrix().Data[i] = float64(i%7) / 7
	}

	cache := nn.FeedForward(x)
	require.Len(t, cache.A, 3)
	require.Len(t, cache.Z, 3)
	assert.Nil(t, cache.Z[0])
	assert.Same(t, x, cache.A[0])

	r, c := cache.A[1].Dims()
	assert.Equal(t, []int{5, 3}, []int{r, c})
	assert.True(t, mat.Equal(ReLU(cache.Z[1]), cache.A[1]))
	assert.True(t, mat.EqualApprox(Softmax(cache.Z[2]), cache.Output(), 1e-15))
}

func TestLinear_BroadcastsBias(t *testing.T) {
	layer := newLayerFrom(1,
		mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
		mat.NewDense(1, 2, []float64{10, 20}))
	z := layer.Linear(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6}))
	assert.Equal(t, []float64{11, 22, 13, 24, 15, 26}, z.RawMatrix().Data)
}

// 解析梯度与中心差分数值梯度一致
func TestBackPropagate_MatchesFiniteDifferences(t *testing.T) {
	nn, _, err := InitializeParametersWithSeed([]int{3, 5, 4, 3}, DefaultHyperparameters(), 11)
	require.NoError(t, err)
	x := mat.NewDense(4, 3, []float64{
		0.1, 0.9, 0.3,
		0.7, 0.2, 0.5,
		0.4, 0.4, 0.8,
		0.9, 0.1, 0.0,
	})
	y := mat.NewDense(4, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
		0, 1, 0,
	})

	// 学习率为0时参数不变，只取梯度
	grads := nn.BackPropagate(y, nn.FeedForward(x), 0)

	const eps = 1e-6
	numeric := func(m *mat.Dense, r, c int) float64 {
		orig := m.At(r, c)
		m.Set(r, c, orig+eps)
		plus := lossOf(nn, x, y)
		m.Set(r, c, orig-eps)
		minus := lossOf(nn, x, y)
		m.Set(r, c, orig)
		return (plus - minus) / (2 * eps)
	}

	for li, layer := range nn.Layers {
		rows, cols := layer.Weights.Dims()
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				assert.InDelta(t, numeric(layer.Weights, r, c), grads.WeightGrads[li].At(r, c), 1e-6,
					"dW layer %d (%d,%d)", layer.Index, r, c)
			}
		}
		for c := 0; c < cols; c++ {
			assert.InDelta(t, numeric(layer.Biases, 0, c), grads.BiasGrads[li].At(0, c), 1e-6,
				"db layer %d col %d", layer.Index, c)
		}
	}
}

// 误差必须用更新前的权重传播
func TestBackPropagate_UsesPreUpdateWeights(t *testing.T) {
	const lr = 0.3
	x := mat.NewDense(2, 3, []float64{0.2, 0.6, 0.9, 0.8, 0.1, 0.4})
	y := mat.NewDense(2, 2, []float64{0, 1, 1, 0})

	a, _, err := InitializeParameters([]int{3, 4, 2}, DefaultHyperparameters())
	require.NoError(t, err)
	b, _, err := InitializeParameters([]int{3, 4, 2}, DefaultHyperparameters())
	require.NoError(t, err)

	// 先只取梯度，再手动更新，结果应与就地更新一致
	grads := a.BackPropagate(y, a.FeedForward(x), 0)
	for i, layer := range a.Layers {
		layer.Weights.Sub(layer.Weights, scaled(lr, grads.WeightGrads[i]))
		layer.Biases.Sub(layer.Biases, scaled(lr, grads.BiasGrads[i]))
	}
	b.BackPropagate(y, b.FeedForward(x), lr)

	for i := range a.Layers {
		assert.True(t, mat.EqualApprox(a.Layers[i].Weights, b.Layers[i].Weights, 1e-15), "layer %d", i+1)
		assert.True(t, mat.EqualApprox(a.Layers[i].Biases, b.Layers[i].Biases, 1e-15), "layer %d", i+1)
	}
}

func TestBackPropagate_OneEpochDecreasesLoss(t *testing.T) {
	nn, _, err := InitializeParameters([]int{4, 3, 2}, DefaultHyperparameters())
	require.NoError(t, err)
	x := mat.NewDense(1, 4, []float64{0.1, 0.5, 0.9, 0.3})
	y := mat.NewDense(1, 2, []float64{1, 0})

	before := lossOf(nn, x, y)
	nn.BackPropagate(y, nn.FeedForward(x), 0.1)
	after := lossOf(nn, x, y)
	assert.LessOrEqual(t, after, before+1e-12)
}
