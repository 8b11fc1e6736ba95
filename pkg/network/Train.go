package network

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// ReportEvery 每隔多少轮汇报一次损失（最后一轮总会汇报）
const ReportEvery = 5

// TrainState 训练循环的状态
type TrainState string

const (
	StateIdle      TrainState = "idle"
	StateRunning   TrainState = "running"
	StateCompleted TrainState = "completed"
	StateFailed    TrainState = "failed"
)

// Progress 一次进度汇报
type Progress struct {
	Epoch  int     `json:"epoch"`
	Epochs int     `json:"epochs"`
	Loss   float64 `json:"loss"`
	Final  bool    `json:"final"`
}

// ProgressFunc 进度回调，在训练协程中同步调用
type ProgressFunc func(Progress)

// TrainResult 训练结束后的统计
type TrainResult struct {
	Epochs      int       `json:"epochs"`
	FinalLoss   float64   `json:"final_loss"`
	LossHistory []float64 `json:"loss_history"`
}

// Trainer 驱动 前向传播 → 损失 → 反向传播 的固定轮数循环
type Trainer struct {
	Logger     *log.Logger
	OnProgress ProgressFunc

	mu    sync.Mutex
	state TrainState
}

// NewTrainer 创建训练器，logger 为 nil 时输出到 stderr
func NewTrainer(logger *log.Logger, onProgress ProgressFunc) *Trainer {
	if logger == nil {
		logger = log.New(os.Stderr, "[network] ", log.LstdFlags)
	}
	return &Trainer{
		Logger:     logger,
		OnProgress: onProgress,
		state:      StateIdle,
	}
}

// State 返回当前状态
func (t *Trainer) State() TrainState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Trainer) setState(s TrainState) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// Train 在整个数据集上做全批量梯度下降，就地修改 nn。
// 没有早停：无论损失如何变化都会跑满 hp.Epochs 轮。
// ctx 只在两轮之间检查。
func (t *Trainer) Train(ctx context.Context, nn *NeuronNetwork, inputs, targets *mat.Dense, hp Hyperparameters) (*TrainResult, error) {
	if hp.Epochs < 0 {
		return nil, fmt.Errorf("%w: epochs must be non-negative, got %d", ErrConfiguration, hp.Epochs)
	}
	if err := nn.Validate(); err != nil {
		return nil, err
	}
	inRows, inCols := inputs.Dims()
	tRows, tCols := targets.Dims()
	sizes := nn.Sizes()
	if inRows != tRows || inCols != sizes[0] || tCols != sizes[len(sizes)-1] {
		return nil, fmt.Errorf("%w: inputs %dx%d, targets %dx%d, topology %v",
			ErrShapeMismatch, inRows, inCols, tRows, tCols, sizes)
	}

	t.setState(StateRunning)
	result := &TrainResult{LossHistory: make([]float64, 0, hp.Epochs)}

	for epoch := 0; epoch < hp.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			t.setState(StateFailed)
			return result, err
		}

		cache := nn.FeedForward(inputs)
		loss := CrossEntropy(targets, cache.Output())
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			t.setState(StateFailed)
			return result, fmt.Errorf("%w: epoch %d", ErrNonFiniteLoss, epoch+1)
		}
		nn.BackPropagate(targets, cache, hp.LearningRate)

		result.Epochs = epoch + 1
		result.FinalLoss = loss
		result.LossHistory = append(result.LossHistory, loss)

		final := epoch+1 == hp.Epochs
		if (epoch+1)%ReportEvery == 0 {
			t.Logger.Printf("Epoch %d/%d, Loss: %.4f", epoch+1, hp.Epochs, loss)
		}
		if final {
			t.Logger.Printf("训练结束于第 %d 轮, 最终损失: %.4f", epoch+1, loss)
		}
		if t.OnProgress != nil && ((epoch+1)%ReportEvery == 0 || final) {
			t.OnProgress(Progress{Epoch: epoch + 1, Epochs: hp.Epochs, Loss: loss, Final: final})
		}
	}

	t.setState(StateCompleted)
	return result, nil
}
