package network

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

/*
该文件包含神经网络层的封装和该层的前向传播
权重按 (输入维度, 输出维度) 存储，样本按行排列，这样一个批次可以直接做 A·W
*/

// Layer 一个全连接层：仿射变换 + 激活函数
// Index 是从1开始的层号，持久化文件名 W<Index>/b<Index> 使用它
type Layer struct {
	Index      int
	InputSize  int
	OutputSize int
	Weights    *mat.Dense // InputSize × OutputSize
	Biases     *mat.Dense // 1 × OutputSize 的行向量
}

// NewLayer 使用He初始化创建一层，偏置全部为0
func NewLayer(index, inputSize, outputSize int, normal distuv.Normal) *Layer {
	weights := mat.NewDense(inputSize, outputSize, nil)
	for i := 0; i < inputSize; i++ {
		for j := 0; j < outputSize; j++ {
			weights.Set(i, j, normal.Rand())
		}
	}
	return &Layer{
		Index:      index,
		InputSize:  inputSize,
		OutputSize: outputSize,
		Weights:    weights,
		Biases:     mat.NewDense(1, outputSize, nil),
	}
}

// newLayerFrom 用已有的参数矩阵构造层（加载权重时使用）
func newLayerFrom(index int, weights, biases *mat.Dense) *Layer {
	in, out := weights.Dims()
	return &Layer{
		Index:      index,
		InputSize:  in,
		OutputSize: out,
		Weights:    weights,
		Biases:     biases,
	}
}

// Linear 计算预激活值 Z = A·W + b，偏置按行广播
func (l *Layer) Linear(a mat.Matrix) *mat.Dense {
	rows, _ := a.Dims()
	z := mat.NewDense(rows, l.OutputSize, nil)
	z.Mul(a, l.Weights)
	bias := l.Biases.RawRowView(0)
	for r := 0; r < rows; r++ {
		floats.Add(z.RawRowView(r), bias)
	}
	return z
}
