package server

import (
	"DigitNet/pkg/config"
	"DigitNet/pkg/dataProcess"
	"DigitNet/pkg/network"
	"DigitNet/pkg/training"
	"DigitNet/pkg/visualize"
	"context"
	"fmt"
	"image"
	"log"
	"sync"

	"github.com/gin-gonic/gin"
)

// DatasetLoader 返回训练集和测试集（测试集可以为 nil）
type DatasetLoader func() (*dataProcess.Dataset, *dataProcess.Dataset, error)

// Service 预测服务：训练任务、进度推送、图片预测
type Service struct {
	cfg      config.Config
	logger   *log.Logger
	jobs     *JobManager
	hub      *ProgressHub
	loadData DatasetLoader
	render   func(*image.Gray) (string, error)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService 创建服务，loader 为 nil 时从配置中的 IDX 文件加载
func NewService(cfg config.Config, loader DatasetLoader, logger *log.Logger) *Service {
	if loader == nil {
		loader = FileDatasetLoader(cfg)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		cfg:      cfg,
		logger:   logger,
		jobs:     NewJobManager(),
		hub:      NewProgressHub(cfg.AllowOrigin, logger),
		loadData: loader,
		render:   visualize.RenderBase64,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// FileDatasetLoader 按配置读取 MNIST 文件，测试集路径为空时不加载测试集
func FileDatasetLoader(cfg config.Config) DatasetLoader {
	return func() (*dataProcess.Dataset, *dataProcess.Dataset, error) {
		trainSet, err := dataProcess.LoadDataset(cfg.TrainImages, cfg.TrainLabels)
		if err != nil {
			return nil, nil, fmt.Errorf("加载训练数据集失败: %w", err)
		}
		trainSet = trainSet.Head(cfg.MaxSamples)
		if cfg.TestImages == "" || cfg.TestLabels == "" {
			return trainSet, nil, nil
		}
		testSet, err := dataProcess.LoadDataset(cfg.TestImages, cfg.TestLabels)
		if err != nil {
			return nil, nil, fmt.Errorf("加载测试数据集失败: %w", err)
		}
		return trainSet, testSet, nil
	}
}

// RegisterRoutes 设置HTTP路由
func (s *Service) RegisterRoutes(router *gin.Engine) {
	router.GET("/status", s.statusHandler)
	router.GET("/ws/progress", s.progressHandler)

	api := router.Group("/api")
	api.POST("/train-model", s.trainModelHandler)
	api.GET("/train-model/status", s.trainStatusHandler)
	api.POST("/process-image", s.processImageHandler)
}

// StartTraining 在后台启动训练任务，返回任务ID和完成信号
func (s *Service) StartTraining(layers []int, hp network.Hyperparameters) (string, <-chan struct{}, error) {
	jobID, done, err := s.jobs.Begin(layers, hp)
	if err != nil {
		return "", nil, err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runTraining(jobID, layers, hp)
	}()
	return jobID, done, nil
}

func (s *Service) runTraining(jobID string, layers []int, hp network.Hyperparameters) {
	s.logger.Printf("训练任务 %s 开始", jobID)
	trainSet, testSet, err := s.loadData()
	if err != nil {
		s.finish(jobID, nil, err)
		return
	}

	onProgress := func(p network.Progress) {
		s.jobs.Progress(p)
		s.hub.Broadcast(ProgressEvent{
			Type:   "progress",
			JobID:  jobID,
			Epoch:  p.Epoch,
			Epochs: p.Epochs,
			Loss:   p.Loss,
			Final:  p.Final,
		})
	}
	report, err := training.TrainModel(s.ctx, trainSet, testSet, training.Options{
		Layers:          layers,
		Hyperparameters: hp,
		Seed:            s.cfg.Seed,
		WeightsDir:      s.cfg.WeightsDir,
	}, onProgress, s.logger)
	s.finish(jobID, report, err)
}

func (s *Service) finish(jobID string, report *training.Report, err error) {
	event := ProgressEvent{Type: "done", JobID: jobID, Final: true}
	if err != nil {
		s.logger.Printf("训练任务 %s 失败: %v", jobID, err)
		s.jobs.Finish(0, 0, err)
		event.Type = "failed"
		event.Error = err.Error()
	} else {
		s.logger.Printf("训练任务 %s 完成，权重已更新", jobID)
		s.jobs.Finish(report.TrainAccuracy, report.TestAccuracy, nil)
		event.Epoch = report.Result.Epochs
		event.Epochs = report.Result.Epochs
		event.Loss = report.Result.FinalLoss
	}
	s.hub.Broadcast(event)
}

// Close 取消正在运行的训练并等待其退出，然后断开所有进度连接
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
	s.hub.Close()
}
