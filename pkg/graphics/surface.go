package graphics

import (
	"fmt"
	"image"
	"os"
)

// ImageSurface はimage.RGBAを保持するサーフェス
type ImageSurface struct {
	img   *image.RGBA
	freed bool
}

// NewImageSurface はRGBA画像からサーフェスを作成する
func NewImageSurface(img *image.RGBA) *ImageSurface {
	return &ImageSurface{img: img}
}

// LoadBMPFile はBMPファイルを開いてデコードする
func LoadBMPFile(path string) (*ImageSurface, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't open %s: %w", path, err)
	}
	defer file.Close()

	img, err := DecodeBMP(file)
	if err != nil {
		return nil, fmt.Errorf("couldn't decode %s: %w", path, err)
	}

	return NewImageSurface(img), nil
}

// Width は幅を返す（解放後は0）
func (s *ImageSurface) Width() int {
	if s.img == nil {
		return 0
	}
	return s.img.Bounds().Dx()
}

// Height は高さを返す（解放後は0）
func (s *ImageSurface) Height() int {
	if s.img == nil {
		return 0
	}
	return s.img.Bounds().Dy()
}

// Image はピクセルデータを返す（解放後はnil）
func (s *ImageSurface) Image() *image.RGBA {
	return s.img
}

// Free はピクセルバッファを手放す。2回目以降は何もしない
func (s *ImageSurface) Free() {
	s.img = nil
	s.freed = true
}

// Freed は解放済みかどうかを返す
func (s *ImageSurface) Freed() bool {
	return s.freed
}
