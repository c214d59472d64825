package graphics

// BMPデコード
// 非圧縮 (BI_RGB) は golang.org/x/image/bmp に任せる。
// x/image/bmp はRLE圧縮に対応していないため、RLE8/RLE4 は自前でデコードする。

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"golang.org/x/image/bmp"
)

// BMP圧縮方式の定数
const (
	biRGB  = 0
	biRLE8 = 1
	biRLE4 = 2
)

const (
	bmpFileHeaderSize = 14
	bmpInfoHeaderSize = 40

	// 幅・高さの上限（これを超えるヘッダーは壊れているとみなす）
	maxBMPDimension = 16384
)

// BMPファイルヘッダー (14バイト)
type bmpFileHeader struct {
	Signature  [2]byte // "BM"
	FileSize   uint32
	Reserved1  uint16
	Reserved2  uint16
	DataOffset uint32 // 画像データへのオフセット
}

// BMP情報ヘッダー (BITMAPINFOHEADER, 40バイト)
type bmpInfoHeader struct {
	HeaderSize      uint32
	Width           int32
	Height          int32 // 負の場合はトップダウン
	Planes          uint16
	BitCount        uint16
	Compression     uint32
	ImageSize       uint32
	XPixelsPerMeter int32
	YPixelsPerMeter int32
	ColorsUsed      uint32
	ColorsImportant uint32
}

// DecodeBMP はBMPをデコードしてRGBA画像を返す（RLE圧縮対応）
func DecodeBMP(r io.Reader) (*image.RGBA, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read BMP data: %w", err)
	}

	compressed, err := IsBMPRLECompressedFromBytes(data)
	if err != nil {
		return nil, err
	}
	if compressed {
		return decodeRLEBMP(bytes.NewReader(data))
	}

	// 確保する前にヘッダーのサイズとデータ長を検証する
	cfg, err := bmp.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := checkBMPDimensions(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	bitCount := int(binary.LittleEndian.Uint16(data[28:30]))
	dataOffset := int64(binary.LittleEndian.Uint32(data[10:14]))
	rowSize := int64((cfg.Width*bitCount + 31) / 32 * 4)
	if need := dataOffset + rowSize*int64(cfg.Height); int64(len(data)) < need {
		return nil, fmt.Errorf("truncated BMP pixel data: have %d bytes, need %d", len(data), need)
	}

	img, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return toRGBA(img), nil
}

// IsBMPRLECompressedFromBytes はBMPがRLE圧縮されているかを判定する
func IsBMPRLECompressedFromBytes(data []byte) (bool, error) {
	if len(data) < bmpFileHeaderSize+bmpInfoHeaderSize {
		return false, fmt.Errorf("data too short for BMP header")
	}
	if data[0] != 'B' || data[1] != 'M' {
		return false, fmt.Errorf("invalid BMP signature: %q", data[:2])
	}

	// 圧縮方式はオフセット30 (14 + 16)
	compression := binary.LittleEndian.Uint32(data[30:34])
	return compression == biRLE8 || compression == biRLE4, nil
}

// checkBMPDimensions は幅と高さが1以上maxBMPDimension以下であることを確認する
func checkBMPDimensions(width, height int) error {
	if width <= 0 || height <= 0 || width > maxBMPDimension || height > maxBMPDimension {
		return fmt.Errorf("invalid BMP dimensions: %dx%d", width, height)
	}
	return nil
}

// toRGBA は任意の画像をRGBAに変換する
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// decodeRLEBMP はRLE8/RLE4圧縮BMPをデコードする
func decodeRLEBMP(r io.Reader) (*image.RGBA, error) {
	var fh bmpFileHeader
	if err := binary.Read(r, binary.LittleEndian, &fh); err != nil {
		return nil, fmt.Errorf("failed to read BMP file header: %w", err)
	}

	var ih bmpInfoHeader
	if err := binary.Read(r, binary.LittleEndian, &ih); err != nil {
		return nil, fmt.Errorf("failed to read BMP info header: %w", err)
	}

	nibbles := false
	switch {
	case ih.Compression == biRLE8 && ih.BitCount == 8:
	case ih.Compression == biRLE4 && ih.BitCount == 4:
		nibbles = true
	default:
		return nil, fmt.Errorf("RLE compression %d does not match bit depth %d", ih.Compression, ih.BitCount)
	}

	width := int(ih.Width)
	height := int(ih.Height)
	topDown := height < 0
	if topDown {
		height = -height
	}
	if err := checkBMPDimensions(width, height); err != nil {
		return nil, err
	}

	maxColors := 1 << ih.BitCount
	if ih.ColorsUsed > uint32(maxColors) {
		return nil, fmt.Errorf("palette size %d exceeds %d-bit depth", ih.ColorsUsed, ih.BitCount)
	}
	paletteSize := int(ih.ColorsUsed)
	if paletteSize == 0 {
		paletteSize = maxColors
	}
	palette := make(color.Palette, paletteSize)
	for i := range palette {
		var entry [4]byte // BGRA
		if _, err := io.ReadFull(r, entry[:]); err != nil {
			return nil, fmt.Errorf("failed to read palette entry %d: %w", i, err)
		}
		palette[i] = color.RGBA{R: entry[2], G: entry[1], B: entry[0], A: 255}
	}

	// 情報ヘッダーが40バイトより大きい場合などに備えてデータ開始位置まで読み飛ばす
	consumed := bmpFileHeaderSize + bmpInfoHeaderSize + paletteSize*4
	if skip := int(fh.DataOffset) - consumed; skip > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(skip)); err != nil {
			return nil, fmt.Errorf("failed to skip to image data: %w", err)
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	d := &rleDecoder{
		img:     img,
		palette: palette,
		width:   width,
		height:  height,
		topDown: topDown,
		nibbles: nibbles,
	}
	if err := d.decode(r); err != nil {
		return nil, err
	}
	return img, nil
}

// rleDecoder はRLE8とRLE4で共通のランレングス展開を行う
type rleDecoder struct {
	img     *image.RGBA
	palette color.Palette
	width   int
	height  int
	topDown bool
	nibbles bool // RLE4
	x, y    int
}

func (d *rleDecoder) name() string {
	if d.nibbles {
		return "RLE4"
	}
	return "RLE8"
}

// put は現在位置にパレット色を置いて1ピクセル進める
func (d *rleDecoder) put(idx uint8) {
	if d.x < d.width && d.y < d.height && int(idx) < len(d.palette) {
		destY := d.y
		if !d.topDown {
			destY = d.height - 1 - d.y
		}
		d.img.Set(d.x, destY, d.palette[idx])
	}
	d.x++
}

// index はi番目のピクセルのパレット番号を返す
func (d *rleDecoder) index(data []byte, i int) uint8 {
	if !d.nibbles {
		return data[i]
	}
	if i%2 == 0 {
		return data[i/2] >> 4
	}
	return data[i/2] & 0x0F
}

// decode は2バイト単位で展開する
//   - 先頭が0以外: 2バイト目をcount回（RLE4では上位/下位ニブルを交互に）
//   - 先頭が0: 0=行末, 1=ビットマップ終了, 2=デルタ, それ以外=絶対モード
func (d *rleDecoder) decode(r io.Reader) error {
	for {
		var pair [2]byte
		if _, err := io.ReadFull(r, pair[:]); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("failed to read %s data: %w", d.name(), err)
		}

		count := int(pair[0])
		value := pair[1]

		if count > 0 {
			run := []byte{value}
			for i := 0; i < count; i++ {
				if d.nibbles {
					d.put(d.index(run, i%2))
				} else {
					d.put(value)
				}
			}
			continue
		}

		switch value {
		case 0:
			d.x = 0
			d.y++
		case 1:
			return nil
		case 2:
			var delta [2]byte
			if _, err := io.ReadFull(r, delta[:]); err != nil {
				return fmt.Errorf("failed to read %s delta: %w", d.name(), err)
			}
			d.x += int(delta[0])
			d.y += int(delta[1])
		default:
			absCount := int(value)
			absBytes := absCount
			if d.nibbles {
				absBytes = (absCount + 1) / 2
			}
			absData := make([]byte, absBytes)
			if _, err := io.ReadFull(r, absData); err != nil {
				return fmt.Errorf("failed to read %s absolute data: %w", d.name(), err)
			}
			for i := 0; i < absCount; i++ {
				d.put(d.index(absData, i))
			}

			// 絶対モードは2バイト境界にパディングされる
			if absBytes%2 != 0 {
				var pad [1]byte
				if _, err := io.ReadFull(r, pad[:]); err != nil {
					return fmt.Errorf("failed to read %s padding: %w", d.name(), err)
				}
			}
		}
	}
}
