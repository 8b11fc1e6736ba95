package network

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Predict 返回每行输入概率最大的类别下标以及完整的 softmax 概率矩阵
func Predict(x mat.Matrix, nn *NeuronNetwork) ([]int, *mat.Dense, error) {
	if err := nn.Validate(); err != nil {
		return nil, nil, err
	}
	_, cols := x.Dims()
	if want := nn.Layers[0].InputSize; cols != want {
		return nil, nil, fmt.Errorf("%w: input has %d features, network expects %d", ErrShapeMismatch, cols, want)
	}

	probs := nn.FeedForward(x).Output()
	rows, _ := probs.Dims()
	labels := make([]int, rows)
	for r := 0; r < rows; r++ {
		labels[r] = floats.MaxIdx(probs.RawRowView(r))
	}
	return labels, probs, nil
}

// Accuracy 计算预测类别与 one-hot 标签一致的比例
func Accuracy(x, yTrue mat.Matrix, nn *NeuronNetwork) (float64, error) {
	labels, _, err := Predict(x, nn)
	if err != nil {
		return 0, err
	}
	if len(labels) == 0 {
		return 0, nil
	}
	correct := 0
	for r, label := range labels {
		if yTrue.At(r, label) > 0.5 {
			correct++
		}
	}
	return float64(correct) / float64(len(labels)), nil
}
