// Package storage 图片写入: 解码、归一化为RGB、按原始字节SHA-1命名并写为JPEG
package storage

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"time"

	// 注册额外的解码器
	_ "image/gif"
	_ "image/png"

	_ "github.com/gen2brain/avif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/RecoveryAshes/imgscrape/internal/models"
	"github.com/nfnt/resize"
	"github.com/rs/zerolog"
)

// ErrEmptyPayload 没有任何字节可供解码
var ErrEmptyPayload = errors.New("图片数据为空")

// Sink 图片写入器
type Sink struct {
	config models.SinkConfig
	logger zerolog.Logger
}

// NewSink 创建写入器
func NewSink(config models.SinkConfig, logger zerolog.Logger) *Sink {
	if config.JPEGQuality == 0 {
		config.JPEGQuality = 85
	}
	return &Sink{
		config: config,
		logger: logger,
	}
}

// Persist 解码data并写入 dir/<sha1>.jpg
// 幂等: 相同字节总是得到同一路径,已存在的文件被覆盖
func (s *Sink) Persist(data []byte, dir string) (models.StoredImage, error) {
	if len(data) == 0 {
		return models.StoredImage{}, models.NewStepError(models.FailureDecode, ErrEmptyPayload)
	}

	sum := sha1.Sum(data)
	hash := hex.EncodeToString(sum[:])
	path := filepath.Join(dir, hash+".jpg")

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return models.StoredImage{}, models.NewStepError(models.FailureDecode,
			fmt.Errorf("解码图片失败: %w", err))
	}

	rgb := toRGB(img)
	var out image.Image = rgb
	if s.config.MaxDimension > 0 {
		out = s.downscale(rgb)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return models.StoredImage{}, models.NewStepError(models.FailureWrite,
			fmt.Errorf("创建目录失败: %w", err))
	}

	if err := writeJPEG(path, out, s.config.JPEGQuality); err != nil {
		return models.StoredImage{}, models.NewStepError(models.FailureWrite, err)
	}

	bounds := out.Bounds()
	s.logger.Debug().
		Str("path", path).
		Str("format", format).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Msg("💾 图片已保存")

	return models.StoredImage{
		Path:    path,
		Hash:    hash,
		Format:  format,
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
		Size:    int64(len(data)),
		SavedAt: time.Now(),
	}, nil
}

// downscale 最长边超过MaxDimension时按比例缩小
func (s *Sink) downscale(img image.Image) image.Image {
	bounds := img.Bounds()
	limit := uint(s.config.MaxDimension)
	if bounds.Dx() <= s.config.MaxDimension && bounds.Dy() <= s.config.MaxDimension {
		return img
	}
	// 0表示按比例计算另一边
	if bounds.Dx() >= bounds.Dy() {
		return resize.Resize(limit, 0, img, resize.Lanczos3)
	}
	return resize.Resize(0, limit, img, resize.Lanczos3)
}

// toRGB 丢弃alpha通道,保留未预乘的颜色值
func toRGB(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x-bounds.Min.X, y-bounds.Min.Y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return dst
}

// writeJPEG 先写临时文件再重命名,失败时不留下半成品
func writeJPEG(path string, img image.Image, quality int) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".imgscrape-*.tmp")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()

	if err := jpeg.Encode(tmp, img, &jpeg.Options{Quality: quality}); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("编码JPEG失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("重命名文件失败: %w", err)
	}
	return nil
}
