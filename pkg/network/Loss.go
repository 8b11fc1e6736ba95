package network

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// 概率裁剪区间，防止 log(0)
const (
	probFloor   = 1e-10
	probCeiling = 1 - 1e-10
)

// CrossEntropy 计算批次的平均交叉熵损失 -mean(sum(y * log(p)))
// 只用于汇报训练进度，反向传播使用 softmax+交叉熵 的解析梯度
func CrossEntropy(yTrue, yPred mat.Matrix) float64 {
	rows, cols := yPred.Dims()
	if rows == 0 {
		return 0
	}
	total := 0.0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			p := math.Min(math.Max(yPred.At(r, c), probFloor), probCeiling)
			total -= yTrue.At(r, c) * math.Log(p)
		}
	}
	return total / float64(rows)
}
