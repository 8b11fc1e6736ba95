package network

import "errors"

var (
	// ErrConfiguration 拓扑配置非法（层数少于2或某层节点数不为正）
	ErrConfiguration = errors.New("network: invalid layer topology")
	// ErrNoWeights 存储目录缺失、为空或不含完整的层
	ErrNoWeights = errors.New("network: no saved weights found")
	// ErrCorruptArtifact 权重文件存在但无法解码
	ErrCorruptArtifact = errors.New("network: corrupt weight artifact")
	// ErrShapeMismatch 参数或输入的维度不能串联
	ErrShapeMismatch = errors.New("network: shape mismatch")
	// ErrNonFiniteLoss 训练过程中损失变为 NaN 或 Inf
	ErrNonFiniteLoss = errors.New("network: loss is not finite")
)
