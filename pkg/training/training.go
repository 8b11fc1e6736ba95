package training

import (
	"DigitNet/pkg/dataProcess"
	"DigitNet/pkg/network"
	"context"
	"fmt"
	"log"
	"time"

	"gonum.org/v1/gonum/mat"
)

// OneHotEncode 将标签转换为 one-hot 编码矩阵，每行一个样本
func OneHotEncode(labels []byte, numClasses int) (*mat.Dense, error) {
	oneHot := mat.NewDense(len(labels), numClasses, nil)
	for i, label := range labels {
		if int(label) >= numClasses {
			return nil, fmt.Errorf("第 %d 个标签 %d 超出类别数 %d", i, label, numClasses)
		}
		oneHot.Set(i, int(label), 1.0)
	}
	return oneHot, nil
}

// PrepareData 准备训练数据：像素归一化到 [0,1]，标签做 one-hot 编码
func PrepareData(dataset *dataProcess.Dataset, numClasses int) (*mat.Dense, *mat.Dense, error) {
	if dataset.Len() == 0 {
		return nil, nil, fmt.Errorf("数据集为空")
	}
	inputSize := len(dataset.Images[0])
	inputs := mat.NewDense(dataset.Len(), inputSize, nil)
	for i, img := range dataset.Images {
		row := inputs.RawRowView(i)
		for j, px := range img {
			row[j] = float64(px) / 255.0
		}
	}
	targets, err := OneHotEncode(dataset.Labels, numClasses)
	if err != nil {
		return nil, nil, err
	}
	return inputs, targets, nil
}

// Options 一次训练任务的参数
type Options struct {
	Layers          []int
	Hyperparameters network.Hyperparameters
	Seed            uint64
	WeightsDir      string
}

// Report 训练任务的结果
type Report struct {
	Result        *network.TrainResult
	TrainAccuracy float64
	TestAccuracy  float64 // 没有测试集时为 -1
	Elapsed       time.Duration
}

// TrainModel 初始化网络、训练、评估并保存权重
func TrainModel(ctx context.Context, trainSet, testSet *dataProcess.Dataset, opts Options, onProgress network.ProgressFunc, logger *log.Logger) (*Report, error) {
	if len(opts.Layers) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 layer sizes, got %d", network.ErrConfiguration, len(opts.Layers))
	}
	if logger == nil {
		logger = log.Default()
	}
	numClasses := opts.Layers[len(opts.Layers)-1]
	trainInputs, trainTargets, err := PrepareData(trainSet, numClasses)
	if err != nil {
		return nil, fmt.Errorf("准备训练数据失败: %w", err)
	}

	nn, hp, err := network.InitializeParametersWithSeed(opts.Layers, opts.Hyperparameters, opts.Seed)
	if err != nil {
		return nil, err
	}
	logger.Printf("网络结构: %v, 学习率: %g, 训练轮数: %d, 样本数: %d", opts.Layers, hp.LearningRate, hp.Epochs, trainSet.Len())

	start := time.Now()
	trainer := network.NewTrainer(logger, onProgress)
	result, err := trainer.Train(ctx, nn, trainInputs, trainTargets, hp)
	if err != nil {
		return nil, err
	}
	report := &Report{Result: result, TestAccuracy: -1, Elapsed: time.Since(start)}
	logger.Printf("训练耗时: %v", report.Elapsed)

	if report.TrainAccuracy, err = network.Accuracy(trainInputs, trainTargets, nn); err != nil {
		return nil, err
	}
	if testSet != nil && testSet.Len() > 0 {
		testInputs, testTargets, err := PrepareData(testSet, numClasses)
		if err != nil {
			return nil, fmt.Errorf("准备测试数据失败: %w", err)
		}
		if report.TestAccuracy, err = network.Accuracy(testInputs, testTargets, nn); err != nil {
			return nil, err
		}
		logger.Printf("训练后 - 训练集准确率: %.2f%%, 测试集准确率: %.2f%%", report.TrainAccuracy*100, report.TestAccuracy*100)
	} else {
		logger.Printf("训练后 - 训练集准确率: %.2f%%", report.TrainAccuracy*100)
	}

	if opts.WeightsDir != "" {
		if err := network.SaveWeights(nn, opts.WeightsDir, logger); err != nil {
			return nil, fmt.Errorf("保存权重失败: %w", err)
		}
	}
	return report, nil
}
