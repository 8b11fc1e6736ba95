package main

import (
	"DigitNet/pkg/config"
	"DigitNet/pkg/dataProcess"
	"DigitNet/pkg/imageProcess"
	"DigitNet/pkg/network"
	"DigitNet/pkg/training"
	"DigitNet/pkg/visualize"
	"flag"
	"fmt"
	"log"
	"os"

	"gonum.org/v1/gonum/mat"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg := config.Default()
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	cfg.RegisterFlags(fs)
	count := fs.Int("n", 10, "展示的测试样本数量")
	index := fs.Int("index", -1, "只预测测试集中的第 index 个样本（从0开始）")
	imagePath := fs.String("image", "", "对单张图片做预测（PNG/JPEG），为空时使用测试集")
	outPath := fs.String("out", "", "把预处理后的图片渲染为 PNG 保存到此路径")
	fs.Parse(os.Args[1:])

	nn, report, err := network.LoadWeights(cfg.WeightsDir, logger)
	if err != nil {
		logger.Fatalf("加载权重失败: %v", err)
	}
	if len(report.Skipped) > 0 {
		logger.Printf("警告: 跳过了缺少偏置的层 %v", report.Skipped)
	}
	fmt.Printf("已加载网络: %s\n", config.FormatLayers(nn.Sizes()))

	if *imagePath != "" {
		predictImage(nn, *imagePath, *outPath, logger)
		return
	}

	testSet, err := dataProcess.LoadDataset(cfg.TestImages, cfg.TestLabels)
	if err != nil {
		logger.Fatalf("加载测试数据集失败: %v", err)
	}
	if *index >= 0 {
		if *index >= testSet.Len() {
			logger.Fatalf("样本下标 %d 超出范围 (共 %d 个)", *index, testSet.Len())
		}
		testSet = &dataProcess.Dataset{
			Images: testSet.Images[*index : *index+1],
			Labels: testSet.Labels[*index : *index+1],
			Rows:   testSet.Rows,
			Cols:   testSet.Cols,
		}
	} else {
		testSet = testSet.Head(*count)
	}
	inputs, _, err := training.PrepareData(testSet, nn.Sizes()[nn.NumLayers()])
	if err != nil {
		logger.Fatalf("准备测试数据失败: %v", err)
	}

	labels, probs, err := network.Predict(inputs, nn)
	if err != nil {
		logger.Fatalf("预测失败: %v", err)
	}
	fmt.Println("\n测试样本预测结果:")
	correct := 0
	for i, label := range labels {
		if label == int(testSet.Labels[i]) {
			correct++
		}
		fmt.Printf("样本 %d 的预测类别：%d (%.2f%%), 真实类别：%d\n", i+1, label, probs.At(i, label)*100, testSet.Labels[i])
	}
	fmt.Printf("正确 %d/%d\n", correct, len(labels))
}

func predictImage(nn *network.NeuronNetwork, path, outPath string, logger *log.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatalf("读取图片失败: %v", err)
	}
	x, gray, err := imageProcess.Preprocess(imageProcess.EncodeBase64(data))
	if err != nil {
		logger.Fatalf("预处理失败: %v", err)
	}
	labels, probs, err := network.Predict(x, nn)
	if err != nil {
		logger.Fatalf("预测失败: %v", err)
	}
	fmt.Printf("预测类别: %d\n", labels[0])
	fmt.Printf("各类别概率: %.4f\n", mat.Formatted(probs))

	if outPath == "" {
		return
	}
	png, err := visualize.RenderPNG(gray, fmt.Sprintf("Prediction: %d", labels[0]))
	if err != nil {
		logger.Fatalf("渲染图片失败: %v", err)
	}
	if err := os.WriteFile(outPath, png, 0o644); err != nil {
		logger.Fatalf("保存图片失败: %v", err)
	}
	fmt.Printf("可视化结果已保存到 %s\n", outPath)
}
