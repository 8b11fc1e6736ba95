package network

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

/*
该文件实现参数的持久化：一个目录，每层两个文件 W<i>.bin 和 b<i>.bin，
内容是 gonum 的二进制矩阵格式（带行列数）
*/

const artifactExt = ".bin"

// LoadReport 加载结果：成功加载的层号和因缺少文件被跳过的层号
type LoadReport struct {
	Loaded  []int
	Skipped []int
}

// WeightFile 返回第 i 层权重文件名
func WeightFile(i int) string { return fmt.Sprintf("W%d%s", i, artifactExt) }

// BiasFile 返回第 i 层偏置文件名
func BiasFile(i int) string { return fmt.Sprintf("b%d%s", i, artifactExt) }

// SaveWeights 保存所有层的参数，目录中原有的文件全部被替换。
// 先写到同级的临时目录，写完后整体换入，读取方不会看到写了一半的目录。
func SaveWeights(nn *NeuronNetwork, dir string, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("解析权重目录失败: %w", err)
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		return fmt.Errorf("权重路径 %s 不是目录", dir)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("读取权重目录失败: %w", err)
	}

	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("创建权重目录失败: %w", err)
	}
	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(dir)+".tmp-")
	if err != nil {
		return fmt.Errorf("创建临时目录失败: %w", err)
	}
	defer os.RemoveAll(tmp)
	if err := os.Chmod(tmp, 0o755); err != nil {
		return fmt.Errorf("设置目录权限失败: %w", err)
	}

	for _, layer := range nn.Layers {
		if err := writeMatrix(filepath.Join(tmp, WeightFile(layer.Index)), layer.Weights); err != nil {
			return err
		}
		if err := writeMatrix(filepath.Join(tmp, BiasFile(layer.Index)), layer.Biases); err != nil {
			return err
		}
	}

	old, err := swapDir(tmp, dir)
	if err != nil {
		return fmt.Errorf("替换权重目录失败: %w", err)
	}
	if old != "" && old != tmp {
		if err := os.RemoveAll(old); err != nil {
			logger.Printf("警告: 删除旧权重失败: %v", err)
		}
	}
	logger.Printf("旧权重已删除，新权重保存在 '%s' (%d 层)", dir, len(nn.Layers))
	return nil
}

// replaceDir 两次 rename 把 tmp 换到 dir，返回需要删除的旧目录（dir 原本不存在时为空）。
// 两次 rename 之间 dir 短暂不存在。
func replaceDir(tmp, dir string) (string, error) {
	old := tmp + ".old"
	if err := os.Rename(dir, old); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		old = ""
	}
	if err := os.Rename(tmp, dir); err != nil {
		if old != "" {
			os.Rename(old, dir)
		}
		return "", err
	}
	return old, nil
}

// LoadWeights 从目录重新构建网络。
// 目录不存在或为空时返回 ErrNoWeights；缺少偏置文件的层会被跳过并记录在 LoadReport 中；
// 如果没有任何完整的层，同样返回 ErrNoWeights。
func LoadWeights(dir string, logger *log.Logger) (*NeuronNetwork, *LoadReport, error) {
	if logger == nil {
		logger = log.Default()
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) == 0 {
		logger.Printf("没有找到已保存的权重，请先训练并保存")
		return nil, nil, fmt.Errorf("%w in %q", ErrNoWeights, dir)
	}

	var indices []int
	for _, entry := range entries {
		if i, ok := parseArtifact(entry.Name(), "W"); ok && !entry.IsDir() {
			indices = append(indices, i)
		}
	}
	sort.Ints(indices)
	if len(indices) == 0 {
		logger.Printf("目录 '%s' 中没有有效的权重文件", dir)
		return nil, nil, fmt.Errorf("%w in %q", ErrNoWeights, dir)
	}

	report := &LoadReport{}
	nn := &NeuronNetwork{}
	for _, i := range indices {
		biasPath := filepath.Join(dir, BiasFile(i))
		if _, err := os.Stat(biasPath); err != nil {
			logger.Printf("警告: 第 %d 层缺少文件，跳过...", i)
			report.Skipped = append(report.Skipped, i)
			continue
		}
		weights, err := readMatrix(filepath.Join(dir, WeightFile(i)))
		if err != nil {
			return nil, report, err
		}
		biases, err := readMatrix(biasPath)
		if err != nil {
			return nil, report, err
		}
		nn.Layers = append(nn.Layers, newLayerFrom(i, weights, biases))
		report.Loaded = append(report.Loaded, i)
	}

	if len(nn.Layers) == 0 {
		logger.Printf("没有加载到有效的权重，请确认文件存在")
		return nil, report, fmt.Errorf("%w in %q", ErrNoWeights, dir)
	}
	logger.Printf("权重加载成功 (%d 层)", len(nn.Layers))
	return nn, report, nil
}

// parseArtifact 解析 "<prefix><整数>.bin"，返回层号。
// 只接受规范写法，"W01.bin"、"W+1.bin" 之类不会被当成第1层。
func parseArtifact(name, prefix string) (int, bool) {
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, artifactExt) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, prefix), artifactExt)
	i, err := strconv.Atoi(digits)
	if err != nil || i <= 0 || strconv.Itoa(i) != digits {
		return 0, false
	}
	return i, true
}

func writeMatrix(path string, m *mat.Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建文件 %s 失败: %w", path, err)
	}
	if _, err := m.MarshalBinaryTo(f); err != nil {
		f.Close()
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return f.Close()
}

func readMatrix(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptArtifact, path, err)
	}
	defer f.Close()

	var m mat.Dense
	if _, err := m.UnmarshalBinaryFrom(f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptArtifact, path, err)
	}
	return &m, nil
}
