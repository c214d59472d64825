// Package sdlwindow implements the graphics backend on top of SDL2.
//
// All calls must happen on the main OS thread; the command locks it in init.
package sdlwindow

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/zurustar/lesson2/pkg/graphics"
	"github.com/zurustar/lesson2/pkg/logger"
)

// System はSDL2上のgraphics.System実装
type System struct {
	log *slog.Logger
}

// NewSystem は新しい System を作成する
func NewSystem(log *slog.Logger) *System {
	if log == nil {
		log = logger.GetLogger()
	}
	return &System{log: log}
}

// Init はSDLの全サブシステムを初期化する
func (s *System) Init() error {
	if err := sdl.Init(sdl.INIT_EVERYTHING); err != nil {
		return err
	}
	s.log.Debug("sdl: initialized")
	return nil
}

// CreateWindow は表示状態のウィンドウを作成する
func (s *System) CreateWindow(title string, x, y, width, height int) (graphics.Window, error) {
	win, err := sdl.CreateWindow(title, int32(x), int32(y), int32(width), int32(height), sdl.WINDOW_SHOWN)
	if err != nil {
		return nil, err
	}
	s.log.Debug("sdl: window created", "title", title, "x", x, "y", y, "width", width, "height", height)
	return &Window{win: win}, nil
}

// CreateRenderer は最初に見つかったドライバでレンダラーを作成する
func (s *System) CreateRenderer(win graphics.Window, flags graphics.RendererFlags) (graphics.Renderer, error) {
	w, ok := win.(*Window)
	if !ok || w == nil {
		return nil, fmt.Errorf("sdl renderer requires an sdl window, got %T", win)
	}
	ren, err := sdl.CreateRenderer(w.win, -1, rendererFlags(flags))
	if err != nil {
		return nil, err
	}
	s.log.Debug("sdl: renderer created", "flags", rendererFlags(flags))
	return &Renderer{ren: ren}, nil
}

// LoadBMP はSDLのデコーダでBMPファイルを読み込む
func (s *System) LoadBMP(path string) (graphics.Surface, error) {
	surface, err := sdl.LoadBMP(path)
	if err != nil {
		return nil, err
	}
	return &Surface{surface: surface}, nil
}

// Delay はイベントを処理せずにブロックする
func (s *System) Delay(d time.Duration) {
	if d <= 0 {
		return
	}
	sdl.Delay(delayMillis(d))
}

// Quit は全サブシステムを終了する
func (s *System) Quit() {
	sdl.Quit()
	s.log.Debug("sdl: quit")
}

// rendererFlags はレンダラーフラグをSDLの値に変換する
func rendererFlags(flags graphics.RendererFlags) uint32 {
	var f uint32
	if flags.Has(graphics.RendererAccelerated) {
		f |= sdl.RENDERER_ACCELERATED
	}
	if flags.Has(graphics.RendererPresentVSync) {
		f |= sdl.RENDERER_PRESENTVSYNC
	}
	return f
}

// toSDLRect は描画先の矩形をSDLの矩形に変換する
func toSDLRect(r graphics.Rect) sdl.Rect {
	return sdl.Rect{X: int32(r.X), Y: int32(r.Y), W: int32(r.W), H: int32(r.H)}
}

// delayMillis はミリ秒に切り捨てる（uint32を超える分は飽和させる）
func delayMillis(d time.Duration) uint32 {
	ms := d.Milliseconds()
	if ms <= 0 {
		return 0
	}
	if ms > int64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(ms)
}

// Window はSDLウィンドウ
type Window struct {
	win *sdl.Window
}

// Destroy はウィンドウを破棄する
func (w *Window) Destroy() error {
	return w.win.Destroy()
}

// Renderer はSDLレンダラー
type Renderer struct {
	ren *sdl.Renderer
}

// CreateTextureFromSurface はサーフェスからテクスチャを作成する
func (r *Renderer) CreateTextureFromSurface(s graphics.Surface) (graphics.Texture, error) {
	surface, ok := s.(*Surface)
	if !ok || surface == nil {
		return nil, fmt.Errorf("%w: %T", graphics.ErrUnsupportedSurface, s)
	}
	if surface.surface == nil {
		return nil, graphics.ErrSurfaceFreed
	}
	tex, err := r.ren.CreateTextureFromSurface(surface.surface)
	if err != nil {
		return nil, err
	}
	return &Texture{tex: tex}, nil
}

// Clear は描画色でバックバッファを塗りつぶす
func (r *Renderer) Clear() error {
	return r.ren.Clear()
}

// Copy はテクスチャ全体をdstに転送する
func (r *Renderer) Copy(tex graphics.Texture, dst graphics.Rect) error {
	t, ok := tex.(*Texture)
	if !ok || t == nil {
		return fmt.Errorf("sdl renderer cannot copy %T", tex)
	}
	rect := toSDLRect(dst)
	return r.ren.Copy(t.tex, nil, &rect)
}

// Present はバックバッファを画面に反映する
func (r *Renderer) Present() {
	r.ren.Present()
}

// Destroy はレンダラーを破棄する
func (r *Renderer) Destroy() error {
	return r.ren.Destroy()
}

// Texture はSDLテクスチャ
type Texture struct {
	tex *sdl.Texture
}

// Query はテクスチャの幅と高さを返す
func (t *Texture) Query() (int, int, error) {
	_, _, w, h, err := t.tex.Query()
	if err != nil {
		return 0, 0, err
	}
	return int(w), int(h), nil
}

// Destroy はテクスチャを破棄する
func (t *Texture) Destroy() error {
	return t.tex.Destroy()
}

// Surface はSDLサーフェス
type Surface struct {
	surface *sdl.Surface
}

// Width は幅を返す（解放後は0）
func (s *Surface) Width() int {
	if s.surface == nil {
		return 0
	}
	return int(s.surface.W)
}

// Height は高さを返す（解放後は0）
func (s *Surface) Height() int {
	if s.surface == nil {
		return 0
	}
	return int(s.surface.H)
}

// Free はサーフェスを解放する。2回目以降は何もしない
func (s *Surface) Free() {
	if s.surface == nil {
		return
	}
	s.surface.Free()
	s.surface = nil
}
