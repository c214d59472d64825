// Package graphics defines the rendering abstraction used by the lesson
// driver, the BMP surface loader and a headless recording backend.
package graphics

import (
	"image"
	"time"
)

// RendererFlags はレンダラー作成時のフラグ
type RendererFlags uint32

const (
	// RendererAccelerated はハードウェアアクセラレーションを要求する
	RendererAccelerated RendererFlags = 1 << iota
	// RendererPresentVSync はPresentを垂直同期に合わせる
	RendererPresentVSync
)

// Has はフラグが含まれているかを返す
func (f RendererFlags) Has(flag RendererFlags) bool {
	return f&flag != 0
}

// Rect は描画先の矩形
type Rect struct {
	X, Y int
	W, H int
}

// System はグラフィックスサブシステム全体を表す
// 各バックエンド（Ebitengine、SDL、ヘッドレス）がこれを実装する
type System interface {
	// Init はサブシステムを初期化する
	Init() error
	// CreateWindow は指定位置・サイズのウィンドウを作成する
	CreateWindow(title string, x, y, width, height int) (Window, error)
	// CreateRenderer はウィンドウに結び付いたレンダラーを作成する
	CreateRenderer(win Window, flags RendererFlags) (Renderer, error)
	// LoadBMP はBMPファイルをデコードしてサーフェスを返す
	LoadBMP(path string) (Surface, error)
	// Delay は指定時間ブロックする（入力処理は行わない）
	Delay(d time.Duration)
	// Quit はサブシステムを終了する
	Quit()
}

// Window は画面上のウィンドウ
type Window interface {
	Destroy() error
}

// Renderer はウィンドウのバックバッファへの描画コンテキスト
type Renderer interface {
	// CreateTextureFromSurface はサーフェスからテクスチャを作成する
	// サーフェスの解放は呼び出し側の責任
	CreateTextureFromSurface(s Surface) (Texture, error)
	// Clear はバックバッファをクリアする
	Clear() error
	// Copy はテクスチャ全体をdstに転送する
	Copy(tex Texture, dst Rect) error
	// Present はバックバッファを画面に反映する
	Present()
	Destroy() error
}

// Texture はレンダラーが所有する画像リソース
type Texture interface {
	// Query はテクスチャ本来の幅と高さを返す
	Query() (width, height int, err error)
	Destroy() error
}

// Surface はデコード済みのCPU側ピクセルバッファ
type Surface interface {
	Width() int
	Height() int
	Free()
}

// RGBASurface はピクセルをimage.RGBAとして公開するサーフェス
type RGBASurface interface {
	Surface
	Image() *image.RGBA
}
