// Package visualize 把预处理后的图片画成一张 PNG，返回 base64 字符串给前端显示
package visualize

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Size 输出图片的边长
const Size = 4 * vg.Inch

// Colorize 使用感知均匀的色图给灰度图上色
func Colorize(gray *image.Gray, cm palette.ColorMap) (*image.RGBA, error) {
	cm.SetMin(0)
	cm.SetMax(1)
	b := gray.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c, err := cm.At(float64(gray.GrayAt(x, y).Y) / 255.0)
			if err != nil {
				return nil, err
			}
			out.Set(x, y, color.RGBAModel.Convert(c))
		}
	}
	return out, nil
}

// RenderPNG 画出带标题、不带坐标轴的图片
func RenderPNG(gray *image.Gray, title string) ([]byte, error) {
	colored, err := Colorize(gray, moreland.ExtendedKindlmann())
	if err != nil {
		return nil, fmt.Errorf("上色失败: %w", err)
	}
	b := gray.Bounds()

	p := plot.New()
	p.Title.Text = title
	p.HideAxes()
	p.Add(plotter.NewImage(colored, 0, 0, float64(b.Dx()), float64(b.Dy())))

	wt, err := p.WriterTo(Size, Size, "png")
	if err != nil {
		return nil, fmt.Errorf("渲染失败: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderBase64 RenderPNG 的 base64 版本
func RenderBase64(gray *image.Gray) (string, error) {
	data, err := RenderPNG(gray, "Preprocessed Image")
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
