package server

import (
	"DigitNet/pkg/network"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrJobRunning 已有训练任务在运行
var ErrJobRunning = errors.New("a training job is already running")

// JobStatus 训练任务状态快照
type JobStatus struct {
	JobID         string             `json:"job_id,omitempty"`
	State         network.TrainState `json:"status"`
	Layers        []int              `json:"layers,omitempty"`
	LearningRate  float64            `json:"learning_rate,omitempty"`
	Epoch         int                `json:"epoch"`
	Epochs        int                `json:"epochs"`
	Loss          float64            `json:"loss"`
	TrainAccuracy float64            `json:"train_accuracy,omitempty"`
	TestAccuracy  float64            `json:"test_accuracy,omitempty"`
	Error         string             `json:"error,omitempty"`
	StartedAt     string             `json:"started_at,omitempty"`
	FinishedAt    string             `json:"finished_at,omitempty"`
}

// JobManager 同一时间最多只允许一个训练任务
type JobManager struct {
	mu     sync.RWMutex
	status JobStatus
	done   chan struct{}
}

// NewJobManager 创建任务管理器，初始为 idle
func NewJobManager() *JobManager {
	return &JobManager{status: JobStatus{State: network.StateIdle}}
}

// Begin 登记新任务并返回任务ID和完成信号
func (m *JobManager) Begin(layers []int, hp network.Hyperparameters) (string, <-chan struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status.State == network.StateRunning {
		return "", nil, ErrJobRunning
	}
	id := uuid.New().String()
	m.status = JobStatus{
		JobID:        id,
		State:        network.StateRunning,
		Layers:       append([]int(nil), layers...),
		LearningRate: hp.LearningRate,
		Epochs:       hp.Epochs,
		StartedAt:    time.Now().Format(time.RFC3339),
	}
	m.done = make(chan struct{})
	return id, m.done, nil
}

// Progress 记录最近一次进度
func (m *JobManager) Progress(p network.Progress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.Epoch = p.Epoch
	m.status.Loss = p.Loss
}

// Finish 结束当前任务，err 非空时标记为失败
func (m *JobManager) Finish(trainAcc, testAcc float64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.status.State = network.StateFailed
		m.status.Error = err.Error()
	} else {
		m.status.State = network.StateCompleted
		m.status.TrainAccuracy = trainAcc
		m.status.TestAccuracy = testAcc
	}
	m.status.FinishedAt = time.Now().Format(time.RFC3339)
	if m.done != nil {
		close(m.done)
		m.done = nil
	}
}

// Status 返回状态副本
func (m *JobManager) Status() JobStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.status
	s.Layers = append([]int(nil), m.status.Layers...)
	return s
}
