// Package config 服务端和命令行工具共用的配置，默认值与前端约定一致
package config

import (
	"DigitNet/pkg/network"
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// Config 运行配置
type Config struct {
	Port        int
	WeightsDir  string
	TrainImages string
	TrainLabels string
	TestImages  string
	TestLabels  string
	MaxSamples  int // 0 表示使用全部样本
	Layers      []int
	Seed        uint64
	network.Hyperparameters
	AllowOrigin string
}

// Default 返回默认配置：784-256-128-10，学习率0.5，训练400轮
func Default() Config {
	return Config{
		Port:            5002,
		WeightsDir:      "weights",
		TrainImages:     "data/train-images-idx3-ubyte.gz",
		TrainLabels:     "data/train-labels-idx1-ubyte.gz",
		TestImages:      "data/t10k-images-idx3-ubyte.gz",
		TestLabels:      "data/t10k-labels-idx1-ubyte.gz",
		Layers:          []int{784, 256, 128, 10},
		Seed:            network.DefaultSeed,
		Hyperparameters: network.DefaultHyperparameters(),
		AllowOrigin:     "http://localhost:3000",
	}
}

// ParseLayers 解析 "784,256,128,10"
func ParseLayers(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	layers := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("无效的层大小 %q: %w", p, err)
		}
		layers = append(layers, n)
	}
	if len(layers) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 layer sizes, got %q", network.ErrConfiguration, s)
	}
	return layers, nil
}

// FormatLayers ParseLayers 的逆操作
func FormatLayers(layers []int) string {
	parts := make([]string, len(layers))
	for i, n := range layers {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// layersValue 让 []int 可以作为 flag 使用
type layersValue struct{ dst *[]int }

func (v layersValue) String() string {
	if v.dst == nil {
		return ""
	}
	return FormatLayers(*v.dst)
}

func (v layersValue) Set(s string) error {
	layers, err := ParseLayers(s)
	if err != nil {
		return err
	}
	*v.dst = layers
	return nil
}

// RegisterFlags 把配置项注册到 FlagSet，默认值取 c 当前的值
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Port, "port", c.Port, "HTTP 监听端口")
	fs.StringVar(&c.WeightsDir, "weights", c.WeightsDir, "权重保存目录")
	fs.StringVar(&c.TrainImages, "train-images", c.TrainImages, "训练图像 IDX 文件")
	fs.StringVar(&c.TrainLabels, "train-labels", c.TrainLabels, "训练标签 IDX 文件")
	fs.StringVar(&c.TestImages, "test-images", c.TestImages, "测试图像 IDX 文件（可为空）")
	fs.StringVar(&c.TestLabels, "test-labels", c.TestLabels, "测试标签 IDX 文件（可为空）")
	fs.IntVar(&c.MaxSamples, "max-samples", c.MaxSamples, "最多使用的训练样本数，0 表示全部")
	fs.Var(layersValue{&c.Layers}, "layers", "每层节点数，逗号分隔")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "初始化随机种子")
	fs.Float64Var(&c.LearningRate, "lr", c.LearningRate, "学习率")
	fs.IntVar(&c.Epochs, "epochs", c.Epochs, "训练轮数")
	fs.StringVar(&c.AllowOrigin, "origin", c.AllowOrigin, "允许跨域访问的前端地址")
}

// Parse 解析命令行参数
func Parse(name string, args []string) (Config, error) {
	cfg := Default()
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.Epochs < 0 || cfg.LearningRate <= 0 {
		return cfg, fmt.Errorf("%w: learning rate must be positive and epochs non-negative", network.ErrConfiguration)
	}
	return cfg, nil
}
