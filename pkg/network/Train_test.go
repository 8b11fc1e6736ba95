package network

import (
	"bytes"
	"context"
	"log"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func tinyDataset() (*mat.Dense, *mat.Dense) {
	x := mat.NewDense(6, 4, []float64{
		1.0, 0.0, 0.1, 0.0,
		0.9, 0.2, 0.0, 0.3,
		0.8, 0.1, 0.5, 0.1,
		0.0, 1.0, 0.0, 0.2,
		0.2, 0.9, 0.3, 0.0,
		0.1, 0.7, 0.1, 0.6,
	})
	y := mat.NewDense(6, 2, []float64{
		1, 0,
		1, 0,
		1, 0,
		0, 1,
		0, 1,
		0, 1,
	})
	return x, y
}

func quietTrainer(onProgress ProgressFunc) (*Trainer, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewTrainer(log.New(&buf, "", 0), onProgress), &buf
}

func TestTrain_ReportingCadence(t *testing.T) {
	x, y := tinyDataset()
	nn, hp, err := InitializeParameters([]int{4, 6, 2}, Hyperparameters{LearningRate: 0.1, Epochs: 12})
	require.NoError(t, err)

	var reports []Progress
	trainer, logs := quietTrainer(func(p Progress) { reports = append(reports, p) })
	assert.Equal(t, StateIdle, trainer.State())

	result, err := trainer.Train(context.Background(), nn, x, y, hp)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, trainer.State())

	require.Len(t, reports, 3)
	assert.Equal(t, []int{5, 10, 12}, []int{reports[0].Epoch, reports[1].Epoch, reports[2].Epoch})
	assert.False(t, reports[1].Final)
	assert.True(t, reports[2].Final)
	assert.Equal(t, 12, result.Epochs)
	assert.Len(t, result.LossHistory, 12)
	assert.Equal(t, result.LossHistory[11], result.FinalLoss)
	assert.Contains(t, logs.String(), "Epoch 10/12, Loss:")
	assert.Contains(t, logs.String(), "训练结束于第 12 轮")
}

func TestTrain_OverfitsTinyDataset(t *testing.T) {
	x, y := tinyDataset()
	nn, hp, err := InitializeParameters([]int{4, 16, 2}, Hyperparameters{LearningRate: 0.5, Epochs: 300})
	require.NoError(t, err)

	trainer, _ := quietTrainer(nil)
	result, err := trainer.Train(context.Background(), nn, x, y, hp)
	require.NoError(t, err)
	assert.Less(t, result.FinalLoss, result.LossHistory[0])

	labels, probs, err := Predict(x, nn)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1}, labels)
	rows, cols := probs.Dims()
	assert.Equal(t, 6, rows)
	assert.Equal(t, 2, cols)

	acc, err := Accuracy(x, y, nn)
	require.NoError(t, err)
	assert.Equal(t, 1.0, acc)
}

func TestTrain_RejectsMismatchedData(t *testing.T) {
	x, y := tinyDataset()
	nn, hp, err := InitializeParameters([]int{5, 3, 2}, Hyperparameters{LearningRate: 0.1, Epochs: 1})
	require.NoError(t, err)

	trainer, _ := quietTrainer(nil)
	_, err = trainer.Train(context.Background(), nn, x, y, hp)
	assert.ErrorIs(t, err, ErrShapeMismatch)
	assert.Equal(t, StateIdle, trainer.State())
}

func TestTrain_RejectsNegativeEpochs(t *testing.T) {
	x, y := tinyDataset()
	nn, _, err := InitializeParameters([]int{4, 3, 2}, DefaultHyperparameters())
	require.NoError(t, err)
	before := mat.DenseCopyOf(nn.Layers[0].Weights)

	trainer, _ := quietTrainer(nil)
	result, err := trainer.Train(context.Background(), nn, x, y, Hyperparameters{LearningRate: 0.1, Epochs: -1})
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Nil(t, result)
	assert.Equal(t, StateIdle, trainer.State())
	assert.True(t, mat.Equal(before, nn.Layers[0].Weights))
}

func TestTrain_ZeroEpochs(t *testing.T) {
	x, y := tinyDataset()
	nn, _, err := InitializeParameters([]int{4, 3, 2}, DefaultHyperparameters())
	require.NoError(t, err)

	trainer, _ := quietTrainer(nil)
	result, err := trainer.Train(context.Background(), nn, x, y, Hyperparameters{LearningRate: 0.1, Epochs: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Epochs)
	assert.Empty(t, result.LossHistory)
	assert.Equal(t, StateCompleted, trainer.State())
}

func TestTrain_NonFiniteLossAborts(t *testing.T) {
	x, y := tinyDataset()
	nn, hp, err := InitializeParameters([]int{4, 3, 2}, Hyperparameters{LearningRate: 0.1, Epochs: 10})
	require.NoError(t, err)
	nn.Layers[1].Biases.Set(0, 0, math.NaN())

	trainer, _ := quietTrainer(nil)
	result, err := trainer.Train(context.Background(), nn, x, y, hp)
	assert.ErrorIs(t, err, ErrNonFiniteLoss)
	assert.Equal(t, StateFailed, trainer.State())
	assert.Equal(t, 0, result.Epochs)
}

func TestTrain_StopsWhenContextCancelled(t *testing.T) {
	x, y := tinyDataset()
	nn, hp, err := InitializeParameters([]int{4, 3, 2}, Hyperparameters{LearningRate: 0.1, Epochs: 50})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	trainer, _ := quietTrainer(func(p Progress) {
		if p.Epoch == 5 {
			cancel()
		}
	})
	result, err := trainer.Train(ctx, nn, x, y, hp)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 5, result.Epochs)
}
