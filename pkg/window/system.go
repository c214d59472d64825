package window

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/zurustar/lesson2/pkg/graphics"
	"github.com/zurustar/lesson2/pkg/logger"
)

// System はEbitengine上のgraphics.System実装
//
// Ebitengineはウィンドウ生成とゲームループが一体のため、CreateWindowは
// ウィンドウ設定を行うだけで、実際のウィンドウはDelayでゲームループを
// 回している間だけ表示される。バックバッファとPresent済みフレームは
// オフスクリーンのebiten.Imageとして保持する。
type System struct {
	log         *slog.Logger
	run         runner
	sleep       func(time.Duration)
	initialized bool

	window   *Window
	renderer *Renderer
}

// Option は System のオプションを設定する関数型
type Option func(*System)

// WithLogger はロガーを設定する
func WithLogger(log *slog.Logger) Option {
	return func(s *System) {
		s.log = log
	}
}

// withRunner はゲームループの実行関数を差し替える
func withRunner(run runner) Option {
	return func(s *System) {
		s.run = run
	}
}

// NewSystem は新しい System を作成する
func NewSystem(opts ...Option) *System {
	s := &System{
		log:   logger.GetLogger(),
		run:   ebiten.RunGame,
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init はサブシステムを初期化する
// Ebitengineは明示的な初期化を持たないため、状態を記録するだけ
func (s *System) Init() error {
	s.initialized = true
	s.log.Debug("window: initialized")
	return nil
}

// CreateWindow はウィンドウのタイトル・位置・サイズを設定する
func (s *System) CreateWindow(title string, x, y, width, height int) (graphics.Window, error) {
	if !s.initialized {
		return nil, graphics.ErrNotInitialized
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid window size: %dx%d", width, height)
	}

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowPosition(x, y)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeDisabled)

	w := &Window{
		Title:  title,
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
	s.window = w
	s.log.Debug("window: created", "title", title, "x", x, "y", y, "width", width, "height", height)
	return w, nil
}

// CreateRenderer はウィンドウと同じサイズのバックバッファを作成する
// Ebitengineは常にGPUで描画するため、RendererAcceleratedは常に満たされる
func (s *System) CreateRenderer(win graphics.Window, flags graphics.RendererFlags) (graphics.Renderer, error) {
	w, ok := win.(*Window)
	if !ok || w == nil {
		return nil, fmt.Errorf("ebiten renderer requires an ebiten window, got %T", win)
	}
	if w.destroyed {
		return nil, graphics.ErrWindowDestroyed
	}

	ebiten.SetVsyncEnabled(flags.Has(graphics.RendererPresentVSync))

	r := &Renderer{
		window: w,
		back:   ebiten.NewImage(w.Width, w.Height),
		front:  ebiten.NewImage(w.Width, w.Height),
		log:    s.log,
	}
	s.renderer = r
	s.log.Debug("window: renderer created", "vsync", flags.Has(graphics.RendererPresentVSync))
	return r, nil
}

// LoadBMP はBMPファイルをデコードする
func (s *System) LoadBMP(path string) (graphics.Surface, error) {
	surface, err := graphics.LoadBMPFile(path)
	if err != nil {
		return nil, err
	}
	return surface, nil
}

// Delay はPresent済みのフレームをdの間表示する
// フレームがない場合は単に待機する
func (s *System) Delay(d time.Duration) {
	if d <= 0 {
		return
	}

	r := s.renderer
	if r == nil || r.destroyed || !r.presented {
		s.sleep(d)
		return
	}

	if err := runWith(s.run, r.front, r.window.Width, r.window.Height, d, s.log); err != nil {
		s.log.Error("window: game loop failed", "error", err)
	}
}

// Quit はサブシステムを終了する
func (s *System) Quit() {
	s.initialized = false
	s.window = nil
	s.renderer = nil
	s.log.Debug("window: quit")
}

// Window はEbitengineのウィンドウ設定を表す
type Window struct {
	Title  string
	X, Y   int
	Width  int
	Height int

	destroyed bool
}

// Destroy はウィンドウを破棄済みにする
func (w *Window) Destroy() error {
	w.destroyed = true
	return nil
}

// Renderer はオフスクリーンのバックバッファに描画する
type Renderer struct {
	window    *Window
	back      *ebiten.Image // 描画中のフレーム
	front     *ebiten.Image // Present済みのフレーム
	presented bool
	destroyed bool

	// 直近のClear以降に発行された転送先
	copies []graphics.Rect

	log *slog.Logger
}

func (r *Renderer) check() error {
	if r.destroyed {
		return graphics.ErrRendererDestroyed
	}
	if r.window.destroyed {
		return graphics.ErrWindowDestroyed
	}
	return nil
}

// CreateTextureFromSurface はサーフェスのピクセルをGPU側の画像にコピーする
func (r *Renderer) CreateTextureFromSurface(s graphics.Surface) (graphics.Texture, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	rs, ok := s.(graphics.RGBASurface)
	if !ok {
		return nil, fmt.Errorf("%w: %T", graphics.ErrUnsupportedSurface, s)
	}
	img := rs.Image()
	if img == nil {
		return nil, graphics.ErrSurfaceFreed
	}
	if rs.Width() <= 0 || rs.Height() <= 0 {
		return nil, fmt.Errorf("invalid texture size: %dx%d", rs.Width(), rs.Height())
	}

	return &Texture{
		img:      ebiten.NewImageFromImage(img),
		width:    rs.Width(),
		height:   rs.Height(),
		renderer: r,
	}, nil
}

// Clear はバックバッファを黒で塗りつぶす
func (r *Renderer) Clear() error {
	if err := r.check(); err != nil {
		return err
	}
	r.back.Fill(backgroundColor)
	r.copies = r.copies[:0]
	return nil
}

// Copy はテクスチャ全体をdstに合わせて描画する
func (r *Renderer) Copy(tex graphics.Texture, dst graphics.Rect) error {
	if err := r.check(); err != nil {
		return err
	}
	t, ok := tex.(*Texture)
	if !ok || t == nil {
		return fmt.Errorf("ebiten renderer cannot copy %T", tex)
	}
	if t.renderer != r {
		return graphics.ErrForeignTexture
	}
	if t.destroyed {
		return graphics.ErrTextureDestroyed
	}

	op := &ebiten.DrawImageOptions{}
	if dst.W != t.width || dst.H != t.height {
		op.GeoM.Scale(float64(dst.W)/float64(t.width), float64(dst.H)/float64(t.height))
	}
	op.GeoM.Translate(float64(dst.X), float64(dst.Y))
	r.back.DrawImage(t.img, op)

	r.copies = append(r.copies, dst)
	return nil
}

// Present はバックバッファを表示用フレームにコピーする
func (r *Renderer) Present() {
	if r.check() != nil {
		return
	}
	r.front.Clear()
	r.front.DrawImage(r.back, nil)
	r.presented = true
	r.log.Debug("window: presented", "copies", len(r.copies))
}

// Copies は直近のClear以降の転送先を返す
func (r *Renderer) Copies() []graphics.Rect {
	result := make([]graphics.Rect, len(r.copies))
	copy(result, r.copies)
	return result
}

// Destroy はバックバッファを解放する
func (r *Renderer) Destroy() error {
	if r.destroyed {
		return nil
	}
	if r.window.destroyed {
		return graphics.ErrWindowDestroyed
	}
	r.back.Deallocate()
	r.front.Deallocate()
	r.destroyed = true
	return nil
}

// Texture はebiten.Imageで表したテクスチャ
type Texture struct {
	img       *ebiten.Image
	width     int
	height    int
	renderer  *Renderer
	destroyed bool
}

// Query はテクスチャの幅と高さを返す
func (t *Texture) Query() (int, int, error) {
	if t.destroyed {
		return 0, 0, graphics.ErrTextureDestroyed
	}
	if t.renderer.destroyed {
		return 0, 0, graphics.ErrRendererDestroyed
	}
	return t.width, t.height, nil
}

// Destroy はGPU側の画像を解放する
func (t *Texture) Destroy() error {
	if t.destroyed {
		return nil
	}
	if t.renderer.destroyed {
		return graphics.ErrRendererDestroyed
	}
	t.img.Deallocate()
	t.destroyed = true
	return nil
}
