package engine

import (
	"image"

	"github.com/zurustar/lesson2/pkg/graphics"
	"github.com/zurustar/lesson2/pkg/logger"
)

// RenderTexture はtexを本来のサイズのまま(x, y)に描画する
// texとrenは有効であることが前提（呼び出し側の責任）
func RenderTexture(x, y int, tex graphics.Texture, ren graphics.Renderer) {
	w, h, err := tex.Query()
	if err != nil {
		logger.GetLogger().Warn("RenderTexture: failed to query texture", "x", x, "y", y, "error", err)
		return
	}

	dst := graphics.Rect{X: x, Y: y, W: w, H: h}
	if err := ren.Copy(tex, dst); err != nil {
		logger.GetLogger().Warn("RenderTexture: copy failed", "x", x, "y", y, "error", err)
	}
}

// TileOrigins はw×hのタイルを原点から2×2に並べる描画位置を返す
func TileOrigins(w, h int) [4]image.Point {
	return [4]image.Point{
		{X: 0, Y: 0},
		{X: w, Y: 0},
		{X: 0, Y: h},
		{X: w, Y: h},
	}
}

// CenterOrigin はw×hの画像を画面中央に置くための左上座標を返す
// 整数除算のため奇数サイズでは1ピクセル左上に寄る
func CenterOrigin(screenWidth, screenHeight, w, h int) image.Point {
	return image.Point{
		X: screenWidth/2 - w/2,
		Y: screenHeight/2 - h/2,
	}
}
