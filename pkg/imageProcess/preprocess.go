// Package imageProcess 把前端画布提交的图片转换成网络输入：
// 解码 base64 → 灰度 → 缩放到 28×28 → 归一化到 [0,1] 并展平
package imageProcess

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/mat"
)

const (
	// Side 输入图像的边长
	Side = 28
	// Features 展平后的特征数
	Features = Side * Side
)

// ErrNoImage 请求中没有图片数据
var ErrNoImage = errors.New("no image provided")

// DecodeDataURL 解析 "data:image/png;base64,...."，也接受不带前缀的纯 base64
func DecodeDataURL(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrNoImage
	}
	if i := strings.IndexByte(s, ','); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("base64解码失败: %w", err)
	}
	return data, nil
}

// EncodeBase64 把字节编码为不带 data URL 前缀的 base64 字符串，DecodeDataURL 两种形式都接受
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// ToGray 将任意图像转换为灰度并用 Catmull-Rom 插值缩放到 Side×Side
func ToGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)

	resized := image.NewGray(image.Rect(0, 0, Side, Side))
	draw.CatmullRom.Scale(resized, resized.Bounds(), gray, bounds, draw.Src, nil)
	return resized
}

// Normalize 把灰度图展平成 1×(w*h) 的行向量，像素值除以255
func Normalize(gray *image.Gray) *mat.Dense {
	b := gray.Bounds()
	x := mat.NewDense(1, b.Dx()*b.Dy(), nil)
	row := x.RawRowView(0)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for xx := b.Min.X; xx < b.Max.X; xx++ {
			row[i] = float64(gray.GrayAt(xx, y).Y) / 255.0
			i++
		}
	}
	return x
}

// Preprocess 完整的预处理流程，返回网络输入和缩放后的灰度图（用于可视化）
func Preprocess(dataURL string) (*mat.Dense, *image.Gray, error) {
	data, err := DecodeDataURL(dataURL)
	if err != nil {
		return nil, nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("图片解码失败: %w", err)
	}
	gray := ToGray(img)
	return Normalize(gray), gray, nil
}
