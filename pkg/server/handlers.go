package server

import (
	"DigitNet/pkg/imageProcess"
	"DigitNet/pkg/network"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// TrainRequest 训练接口的可选请求体，零值字段使用配置中的默认值
type TrainRequest struct {
	Layers       []int   `json:"layers"`
	LearningRate float64 `json:"learning_rate"`
	Epochs       int     `json:"epochs"`
}

// ProcessImageRequest 预测接口请求体，image 为 data URL
type ProcessImageRequest struct {
	Image string `json:"image"`
}

// ProcessImageResponse 预测接口响应体
type ProcessImageResponse struct {
	Message       string    `json:"message"`
	Prediction    int       `json:"prediction"`
	Probabilities []float64 `json:"probabilities"`
	Visualization string    `json:"visualization"`
}

// trainModelHandler 训练模型，默认等训练结束后返回；?async=true 时立即返回 202 和任务ID
func (s *Service) trainModelHandler(ctx *gin.Context) {
	var req TrainRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	layers := s.cfg.Layers
	if len(req.Layers) > 0 {
		layers = req.Layers
	}
	hp := s.cfg.Hyperparameters
	if req.LearningRate > 0 {
		hp.LearningRate = req.LearningRate
	}
	if req.Epochs > 0 {
		hp.Epochs = req.Epochs
	}
	if err := validateLayers(layers); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobID, done, err := s.StartTraining(layers, hp)
	if errors.Is(err, ErrJobRunning) {
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error(), "job": s.jobs.Status()})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if ctx.Query("async") == "true" {
		ctx.JSON(http.StatusAccepted, gin.H{
			"message": "Training started",
			"job_id":  jobID,
			"status":  network.StateRunning,
		})
		return
	}

	select {
	case <-done:
	case <-ctx.Request.Context().Done():
		return
	}
	status := s.jobs.Status()
	if status.State == network.StateFailed {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": status.Error, "job": status})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message":    "Model trained and weights updated!",
		"job_id":     jobID,
		"final_loss": status.Loss,
		"job":        status,
	})
}

// trainStatusHandler 查询当前训练任务状态
func (s *Service) trainStatusHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.jobs.Status())
}

// processImageHandler 对前端提交的图片做预测，每次请求都从磁盘重新加载权重
func (s *Service) processImageHandler(ctx *gin.Context) {
	var req ProcessImageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Image == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No image provided"})
		return
	}

	nn, _, err := network.LoadWeights(s.cfg.WeightsDir, s.logger)
	if errors.Is(err, network.ErrNoWeights) {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "No saved weights found! Train and save first."})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	x, gray, err := imageProcess.Preprocess(req.Image)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	labels, probs, err := network.Predict(x, nn)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	visualization, err := s.render(gray)
	if err != nil {
		s.logger.Printf("警告: 生成可视化图片失败: %v", err)
	}

	ctx.JSON(http.StatusOK, ProcessImageResponse{
		Message:       "Image processed",
		Prediction:    labels[0],
		Probabilities: append([]float64(nil), probs.RawRowView(0)...),
		Visualization: visualization,
	})
}

// statusHandler 服务状态
func (s *Service) statusHandler(ctx *gin.Context) {
	localIP, err := GetLocalIP()
	if err != nil {
		localIP = "localhost"
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status":      "online",
		"local_ip":    localIP,
		"port":        s.cfg.Port,
		"weights_dir": s.cfg.WeightsDir,
		"has_weights": hasWeights(s.cfg.WeightsDir),
		"layers":      s.cfg.Layers,
		"training":    s.jobs.Status(),
		"subscribers": s.hub.Len(),
	})
}

// progressHandler 训练进度 WebSocket
func (s *Service) progressHandler(ctx *gin.Context) {
	s.hub.Serve(ctx.Writer, ctx.Request)
}

// validateLayers 拓扑至少两层、每层为正数，输入层必须与预处理后的图像大小一致
func validateLayers(layers []int) error {
	if len(layers) < 2 {
		return fmt.Errorf("%w: need at least 2 layer sizes, got %d", network.ErrConfiguration, len(layers))
	}
	for i, n := range layers {
		if n <= 0 {
			return fmt.Errorf("%w: layer %d has non-positive size %d", network.ErrConfiguration, i, n)
		}
	}
	if layers[0] != imageProcess.Features {
		return fmt.Errorf("%w: input layer must be %d, got %d", network.ErrConfiguration, imageProcess.Features, layers[0])
	}
	return nil
}

func hasWeights(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, network.WeightFile(1)))
	return err == nil
}
