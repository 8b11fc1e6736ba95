package network

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

/*
该文件包含了网络的前向传播和反向传播
*/

// Cache 一次前向传播的中间结果
// A[0] 是输入，A[i]/Z[i] 是第 i 层的激活值/预激活值（i 从1开始，Z[0] 不使用）
type Cache struct {
	A []*mat.Dense
	Z []*mat.Dense
}

// Output 返回最后一层的激活值（softmax 概率）
func (c *Cache) Output() *mat.Dense {
	return c.A[len(c.A)-1]
}

// FeedForward 整个网络的前向传播：隐藏层用 ReLU，输出层用 softmax。不修改参数。
func (nn *NeuronNetwork) FeedForward(x mat.Matrix) *Cache {
	L := len(nn.Layers)
	cache := &Cache{
		A: make([]*mat.Dense, L+1),
		Z: make([]*mat.Dense, L+1),
	}
	cache.A[0] = asDense(x)
	for i := 1; i <= L; i++ {
		z := nn.Layers[i-1].Linear(cache.A[i-1])
		cache.Z[i] = z
		if i < L {
			cache.A[i] = ReLU(z)
		} else {
			cache.A[i] = Softmax(z)
		}
	}
	return cache
}

// Gradients 保存每一层的梯度，顺序与 Layers 一致
type Gradients struct {
	WeightGrads []*mat.Dense
	BiasGrads   []*mat.Dense
}

func (g *Gradients) String() string {
	var s string
	s += "权重梯度:\n"
	for i, wg := range g.WeightGrads {
		s += fmt.Sprintf("第 %d 层:\n%v\n", i+1, mat.Formatted(wg, mat.Prefix("  "), mat.Squeeze()))
	}
	s += "偏置梯度:\n"
	for i, bg := range g.BiasGrads {
		s += fmt.Sprintf("第 %d 层:\n%v\n", i+1, mat.Formatted(bg, mat.Prefix("  "), mat.Squeeze()))
	}
	return s
}

// BackPropagate 从输出层向输入层反向计算梯度，并就地做一次梯度下降更新。
// 输出层误差使用 softmax+交叉熵 的解析形式 dZ = A[L] - y。
// 第 i 层必须先用未更新的 W[i] 把误差传到第 i-1 层，再更新 W[i]。
func (nn *NeuronNetwork) BackPropagate(yTrue mat.Matrix, cache *Cache, learningRate float64) *Gradients {
	L := len(nn.Layers)
	m, _ := yTrue.Dims()
	scale := 1 / float64(m)
	grads := &Gradients{
		WeightGrads: make([]*mat.Dense, L),
		BiasGrads:   make([]*mat.Dense, L),
	}

	dZ := mat.NewDense(m, nn.Layers[L-1].OutputSize, nil)
	dZ.Sub(cache.A[L], yTrue)

	for i := L; i >= 1; i-- {
		layer := nn.Layers[i-1]

		// dW = (1/m) * A[i-1]^T · dZ
		dW := mat.NewDense(layer.InputSize, layer.OutputSize, nil)
		dW.Mul(cache.A[i-1].T(), dZ)
		dW.Scale(scale, dW)

		// db = (1/m) * 按列求和(dZ)
		db := mat.NewDense(1, layer.OutputSize, nil)
		dbRow := db.RawRowView(0)
		for r := 0; r < m; r++ {
			for c, v := range dZ.RawRowView(r) {
				dbRow[c] += v
			}
		}
		db.Scale(scale, db)

		grads.WeightGrads[i-1] = dW
		grads.BiasGrads[i-1] = db

		// 误差传到上一层：dZ = (dZ · W^T) ⊙ 1[Z[i-1] > 0]
		if i > 1 {
			prev := mat.NewDense(m, layer.InputSize, nil)
			prev.Mul(dZ, layer.Weights.T())
			prev.MulElem(prev, ReLUMask(cache.Z[i-1]))
			dZ = prev
		}

		// 误差已经传播完，现在才可以更新本层参数
		layer.Weights.Sub(layer.Weights, scaled(learningRate, dW))
		layer.Biases.Sub(layer.Biases, scaled(learningRate, db))
	}
	return grads
}

// asDense 输入已是 *mat.Dense 时直接复用，避免复制整个数据集
func asDense(m mat.Matrix) *mat.Dense {
	if d, ok := m.(*mat.Dense); ok {
		return d
	}
	return mat.DenseCopyOf(m)
}

func scaled(f float64, m *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Scale(f, m)
	return &out
}
