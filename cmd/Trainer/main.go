package main

import (
	"DigitNet/pkg/config"
	"DigitNet/pkg/dataProcess"
	"DigitNet/pkg/training"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := config.Parse("trainer", os.Args[1:])
	if err != nil {
		logger.Fatalf("解析参数失败: %v", err)
	}

	// 加载数据集
	trainSet, err := dataProcess.LoadDataset(cfg.TrainImages, cfg.TrainLabels)
	if err != nil {
		logger.Fatalf("加载训练数据集失败: %v", err)
	}
	trainSet = trainSet.Head(cfg.MaxSamples)
	fmt.Printf("训练数据集包含 %d 个样本\n", trainSet.Len())

	var testSet *dataProcess.Dataset
	if cfg.TestImages != "" && cfg.TestLabels != "" {
		if testSet, err = dataProcess.LoadDataset(cfg.TestImages, cfg.TestLabels); err != nil {
			logger.Fatalf("加载测试数据集失败: %v", err)
		}
		fmt.Printf("测试数据集包含 %d 个样本\n", testSet.Len())
	}

	// Ctrl+C 在下一轮开始前中止训练
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := training.TrainModel(ctx, trainSet, testSet, training.Options{
		Layers:          cfg.Layers,
		Hyperparameters: cfg.Hyperparameters,
		Seed:            cfg.Seed,
		WeightsDir:      cfg.WeightsDir,
	}, nil, logger)
	if err != nil {
		logger.Fatalf("训练失败: %v", err)
	}

	fmt.Printf("最终损失: %.4f, 训练集准确率: %.2f%%\n", report.Result.FinalLoss, report.TrainAccuracy*100)
	if report.TestAccuracy >= 0 {
		fmt.Printf("测试集准确率: %.2f%%\n", report.TestAccuracy*100)
	}
	fmt.Printf("权重已保存到 %s\n", cfg.WeightsDir)
}
