package engine

import (
	"errors"
	"io"
	"log/slog"

	"github.com/zurustar/lesson2/pkg/graphics"
	"github.com/zurustar/lesson2/pkg/logger"
)

// Driver は初期化から後始末までの一連の流れを実行する
type Driver struct {
	cfg   Config
	sys   graphics.System
	out   io.Writer // 診断メッセージの出力先
	log   *slog.Logger
	state State

	window     graphics.Window
	renderer   graphics.Renderer
	background graphics.Texture
	image      graphics.Texture
}

// DriverOption は Driver のオプションを設定する関数型
type DriverOption func(*Driver)

// WithLogger はロガーを設定する
func WithLogger(log *slog.Logger) DriverOption {
	return func(d *Driver) {
		d.log = log
	}
}

// NewDriver は新しい Driver を作成する
func NewDriver(cfg Config, sys graphics.System, out io.Writer, opts ...DriverOption) *Driver {
	d := &Driver{
		cfg:   cfg,
		sys:   sys,
		out:   out,
		log:   logger.GetLogger(),
		state: StateUninitialized,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State は現在の状態を返す
func (d *Driver) State() State {
	return d.state
}

func (d *Driver) advance(next State) {
	d.log.Debug("Driver: state transition", "from", d.state, "to", next)
	d.state = next
}

// fail は診断メッセージを書いてExitErrorを返す
func (d *Driver) fail(stage string, code int, err error) error {
	logger.LogError(d.out, stage, err)
	d.log.Error("Driver: aborted", "stage", stage, "state", d.state, "exitStatus", code, "error", err)
	return &ExitError{Stage: stage, Code: code, Err: err}
}

// Run はレッスンを最後まで実行する
// 成功時はnil、失敗時は終了ステータスを持つ*ExitErrorを返す
// テクスチャ読み込み失敗時はウィンドウとレンダラーを解放せずに戻る（プロセス終了で回収される）
func (d *Driver) Run() error {
	cfg := d.cfg

	if err := d.sys.Init(); err != nil {
		return d.fail(StageInit, ExitInit, err)
	}
	d.advance(StateSubsystemReady)

	win, err := d.sys.CreateWindow(cfg.Title, cfg.WindowX, cfg.WindowY, cfg.ScreenWidth, cfg.ScreenHeight)
	if err != nil {
		return d.fail(StageCreateWindow, ExitWindow, err)
	}
	d.window = win
	d.advance(StateWindowReady)

	ren, err := d.sys.CreateRenderer(win, graphics.RendererAccelerated|graphics.RendererPresentVSync)
	if err != nil {
		return d.fail(StageCreateRenderer, ExitRenderer, err)
	}
	d.renderer = ren
	d.advance(StateRendererReady)

	var loadOpts []LoadOption
	if cfg.CaseInsensitivePaths {
		loadOpts = append(loadOpts, WithCaseInsensitivePath())
	}

	// 両方読み込みを試みてから判定する（診断メッセージは各ローダーが出す）
	background, bgErr := LoadTexture(d.sys, ren, cfg.BackgroundPath, d.out, loadOpts...)
	image, imgErr := LoadTexture(d.sys, ren, cfg.ImagePath, d.out, loadOpts...)
	d.background, d.image = background, image
	if background == nil || image == nil {
		err := errors.Join(bgErr, imgErr)
		d.log.Error("Driver: aborted", "stage", StageLoadTextures, "state", d.state, "exitStatus", ExitAssetLoad, "error", err)
		return &ExitError{Stage: StageLoadTextures, Code: ExitAssetLoad, Err: err}
	}
	d.advance(StateAssetsLoaded)

	d.render()
	d.advance(StateRendered)

	ren.Present()
	d.advance(StatePresented)

	d.sys.Delay(cfg.Delay)

	d.teardown()
	d.advance(StateTornDown)

	d.log.Info("Driver: finished", "title", cfg.Title)
	return nil
}

// render は背景を2×2でタイル描画し、前景を中央に描画する
func (d *Driver) render() {
	if err := d.renderer.Clear(); err != nil {
		d.log.Warn("Driver: clear failed", "error", err)
	}

	bW, bH, err := d.background.Query()
	if err != nil {
		d.log.Warn("Driver: failed to query background", "error", err)
	}
	for _, p := range TileOrigins(bW, bH) {
		RenderTexture(p.X, p.Y, d.background, d.renderer)
	}

	iW, iH, err := d.image.Query()
	if err != nil {
		d.log.Warn("Driver: failed to query image", "error", err)
	}
	center := CenterOrigin(d.cfg.ScreenWidth, d.cfg.ScreenHeight, iW, iH)
	RenderTexture(center.X, center.Y, d.image, d.renderer)

	d.log.Debug("Driver: frame composed",
		"backgroundWidth", bW, "backgroundHeight", bH,
		"imageX", center.X, "imageY", center.Y)
}

// teardown はテクスチャ → レンダラー → ウィンドウ → サブシステムの順に解放する
// 解放の失敗は警告を出して続行する
func (d *Driver) teardown() {
	release := func(name string, destroy func() error) {
		if err := destroy(); err != nil {
			d.log.Warn("Driver: release failed", "resource", name, "error", err)
		}
	}

	release("background", d.background.Destroy)
	release("image", d.image.Destroy)
	release("renderer", d.renderer.Destroy)
	release("window", d.window.Destroy)
	d.sys.Quit()
}
