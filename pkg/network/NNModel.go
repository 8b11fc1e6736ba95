package network

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

/*
该文件包含整个神经网络的初始化方法
*/

const (
	// DefaultSeed 固定随机种子，保证初始化可复现
	DefaultSeed uint64 = 42
	// DefaultLearningRate 默认学习率
	DefaultLearningRate = 0.5
	// DefaultEpochs 默认训练轮数
	DefaultEpochs = 400
)

// Hyperparameters 训练超参数，初始化时原样透传
type Hyperparameters struct {
	LearningRate float64 `json:"learning_rate"`
	Epochs       int     `json:"epochs"`
}

// DefaultHyperparameters 返回默认超参数
func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{
		LearningRate: DefaultLearningRate,
		Epochs:       DefaultEpochs,
	}
}

// NeuronNetwork 按顺序保存每一层的参数
type NeuronNetwork struct {
	Layers []*Layer
}

// InitializeParameters 使用默认种子初始化网络参数
func InitializeParameters(layerSizes []int, hp Hyperparameters) (*NeuronNetwork, Hyperparameters, error) {
	return InitializeParametersWithSeed(layerSizes, hp, DefaultSeed)
}

// InitializeParametersWithSeed 根据拓扑创建网络：
// 权重服从 N(0, 2/fan_in)（He初始化，适配ReLU），偏置为0。
// 同一个种子总是得到完全相同的权重。
func InitializeParametersWithSeed(layerSizes []int, hp Hyperparameters, seed uint64) (*NeuronNetwork, Hyperparameters, error) {
	if len(layerSizes) < 2 {
		return nil, hp, fmt.Errorf("%w: need at least 2 layer sizes, got %d", ErrConfiguration, len(layerSizes))
	}
	for i, size := range layerSizes {
		if size <= 0 {
			return nil, hp, fmt.Errorf("%w: layer %d has size %d", ErrConfiguration, i, size)
		}
	}

	src := rand.NewPCG(seed, seed)
	layers := make([]*Layer, len(layerSizes)-1)
	for i := range layers {
		fanIn := layerSizes[i]
		normal := distuv.Normal{
			Mu:    0,
			Sigma: math.Sqrt(2.0 / float64(fanIn)),
			Src:   src,
		}
		layers[i] = NewLayer(i+1, fanIn, layerSizes[i+1], normal)
	}
	return &NeuronNetwork{Layers: layers}, hp, nil
}

// NumLayers 返回层数 L
func (nn *NeuronNetwork) NumLayers() int {
	return len(nn.Layers)
}

// Sizes 返回拓扑 [s0, s1, ..., sL]，返回的是副本
func (nn *NeuronNetwork) Sizes() []int {
	if len(nn.Layers) == 0 {
		return nil
	}
	sizes := make([]int, 0, len(nn.Layers)+1)
	sizes = append(sizes, nn.Layers[0].InputSize)
	for _, layer := range nn.Layers {
		sizes = append(sizes, layer.OutputSize)
	}
	return sizes
}

// Validate 检查每层的输入维度是否等于上一层的输出维度，偏置宽度是否等于输出维度
func (nn *NeuronNetwork) Validate() error {
	if len(nn.Layers) == 0 {
		return fmt.Errorf("%w: network has no layers", ErrShapeMismatch)
	}
	for i, layer := range nn.Layers {
		r, c := layer.Weights.Dims()
		if r != layer.InputSize || c != layer.OutputSize {
			return fmt.Errorf("%w: layer %d weights are %dx%d", ErrShapeMismatch, layer.Index, r, c)
		}
		br, bc := layer.Biases.Dims()
		if br != 1 || bc != layer.OutputSize {
			return fmt.Errorf("%w: layer %d bias is %dx%d, want 1x%d", ErrShapeMismatch, layer.Index, br, bc, layer.OutputSize)
		}
		if i > 0 && nn.Layers[i-1].OutputSize != layer.InputSize {
			return fmt.Errorf("%w: layer %d outputs %d but layer %d expects %d",
				ErrShapeMismatch, nn.Layers[i-1].Index, nn.Layers[i-1].OutputSize, layer.Index, layer.InputSize)
		}
	}
	return nil
}
