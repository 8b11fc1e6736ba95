package dataProcess

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
)

/*
该文件实现 MNIST IDX 数据集的加载，支持 .gz 压缩文件和未压缩文件
*/

const (
	imagesMagic = 2051
	labelsMagic = 2049

	// maxImagePixels 单张图像允许的最大像素数，超过视为头信息损坏
	maxImagePixels = 1 << 20
	// preallocLimit 按头信息预分配的上限，其余按实际读到的数据增长
	preallocLimit = 1 << 16
)

type Dataset struct {
	Images [][]byte
	Labels []byte
	Rows   int
	Cols   int
}

// Len 样本数量
func (d *Dataset) Len() int {
	return len(d.Images)
}

// Head 返回前 n 个样本组成的数据集（共享底层数据）
func (d *Dataset) Head(n int) *Dataset {
	if n <= 0 || n >= d.Len() {
		return d
	}
	return &Dataset{
		Images: d.Images[:n],
		Labels: d.Labels[:n],
		Rows:   d.Rows,
		Cols:   d.Cols,
	}
}

// openIDX 打开文件，文件名以 .gz 结尾时解压
func openIDX(filename string) (io.ReadCloser, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(filename, ".gz") {
		return file, nil
	}
	reader, err := gzip.NewReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("无法解压缩文件: %w", err)
	}
	return &gzipFile{Reader: reader, file: file}, nil
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	g.Reader.Close()
	return g.file.Close()
}

// ReadImages 从 IDX 流读取图像，返回图像数据和每张图像的行列数
func ReadImages(r io.Reader) ([][]byte, int, int, error) {
	var magicNumber, numImages, numRows, numCols int32
	if err := binary.Read(r, binary.BigEndian, &magicNumber); err != nil {
		return nil, 0, 0, fmt.Errorf("读取魔数失败: %w", err)
	}
	if magicNumber != imagesMagic {
		return nil, 0, 0, fmt.Errorf("文件格式不正确（魔数 %d 不是 %d）", magicNumber, imagesMagic)
	}
	for _, dim := range []*int32{&numImages, &numRows, &numCols} {
		if err := binary.Read(r, binary.BigEndian, dim); err != nil {
			return nil, 0, 0, fmt.Errorf("读取头信息失败: %w", err)
		}
	}

	if numImages < 0 || numRows <= 0 || numCols <= 0 {
		return nil, 0, 0, fmt.Errorf("头信息无效: %d 张图像, %d×%d", numImages, numRows, numCols)
	}
	size := int(numRows) * int(numCols)
	if size > maxImagePixels {
		return nil, 0, 0, fmt.Errorf("头信息无效: 图像尺寸 %d×%d 过大", numRows, numCols)
	}

	images := make([][]byte, 0, min(int(numImages), preallocLimit))
	for i := 0; i < int(numImages); i++ {
		img := make([]byte, size)
		if _, err := io.ReadFull(r, img); err != nil {
			return nil, 0, 0, fmt.Errorf("读取第 %d 张图像失败: %w", i, err)
		}
		images = append(images, img)
	}
	return images, int(numRows), int(numCols), nil
}

// ReadLabels 从 IDX 流读取标签
func ReadLabels(r io.Reader) ([]byte, error) {
	var magicNumber, numItems int32
	if err := binary.Read(r, binary.BigEndian, &magicNumber); err != nil {
		return nil, fmt.Errorf("读取魔数失败: %w", err)
	}
	if magicNumber != labelsMagic {
		return nil, fmt.Errorf("文件格式不正确（魔数 %d 不是 %d）", magicNumber, labelsMagic)
	}
	if err := binary.Read(r, binary.BigEndian, &numItems); err != nil {
		return nil, fmt.Errorf("读取标签数量失败: %w", err)
	}

	if numItems < 0 {
		return nil, fmt.Errorf("头信息无效: %d 个标签", numItems)
	}

	labels, err := io.ReadAll(io.LimitReader(r, int64(numItems)))
	if err != nil {
		return nil, fmt.Errorf("读取标签数据失败: %w", err)
	}
	if len(labels) != int(numItems) {
		return nil, fmt.Errorf("读取标签数据失败: 需要 %d 个, 只读到 %d 个: %w", numItems, len(labels), io.ErrUnexpectedEOF)
	}
	return labels, nil
}

// LoadDataset 从图像文件和标签文件加载数据集
func LoadDataset(imagesPath, labelsPath string) (*Dataset, error) {
	imgFile, err := openIDX(imagesPath)
	if err != nil {
		return nil, fmt.Errorf("无法打开图像文件: %w", err)
	}
	defer imgFile.Close()
	images, rows, cols, err := ReadImages(imgFile)
	if err != nil {
		return nil, fmt.Errorf("加载图像数据失败: %w", err)
	}

	lblFile, err := openIDX(labelsPath)
	if err != nil {
		return nil, fmt.Errorf("无法打开标签文件: %w", err)
	}
	defer lblFile.Close()
	labels, err := ReadLabels(lblFile)
	if err != nil {
		return nil, fmt.Errorf("加载标签数据失败: %w", err)
	}

	if len(images) != len(labels) {
		return nil, fmt.Errorf("图像数量 %d 与标签数量 %d 不一致", len(images), len(labels))
	}
	return &Dataset{Images: images, Labels: labels, Rows: rows, Cols: cols}, nil
}
