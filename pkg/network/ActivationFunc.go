package network

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ReLU 激活函数，逐元素 max(0, x)
func ReLU(z mat.Matrix) *mat.Dense {
	out := mat.DenseCopyOf(z)
	out.Apply(func(_, _ int, v float64) float64 {
		if v > 0 {
			return v
		}
		return 0
	}, out)
	return out
}

// ReLUMask ReLU 的导数：预激活值大于0处为1，否则为0
func ReLUMask(z mat.Matrix) *mat.Dense {
	out := mat.DenseCopyOf(z)
	out.Apply(func(_, _ int, v float64) float64 {
		if v > 0 {
			return 1
		}
		return 0
	}, out)
	return out
}

// Softmax 按行计算，先减去每行最大值防止 exp 溢出
func Softmax(z mat.Matrix) *mat.Dense {
	out := mat.DenseCopyOf(z)
	rows, _ := out.Dims()
	for r := 0; r < rows; r++ {
		row := out.RawRowView(r)
		floats.AddConst(-floats.Max(row), row)
		for i, v := range row {
			row[i] = math.Exp(v)
		}
		floats.Scale(1/floats.Sum(row), row)
	}
	return out
}
