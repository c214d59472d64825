package graphics

// ヘッドレスモード用のグラフィックスシステム
// 実際の描画は行わず、操作をログと履歴に記録する。
// ウィンドウ/レンダラー/テクスチャの生成・破棄順序の不変条件を検査する。
// 子リソース（テクスチャ→レンダラー→ウィンドウ）が残っている親は破棄できない。

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// 記録される操作名
const (
	OpInit                     = "Init"
	OpCreateWindow             = "CreateWindow"
	OpCreateRenderer           = "CreateRenderer"
	OpLoadBMP                  = "LoadBMP"
	OpFreeSurface              = "FreeSurface"
	OpCreateTextureFromSurface = "CreateTextureFromSurface"
	OpClear                    = "Clear"
	OpCopy                     = "Copy"
	OpPresent                  = "Present"
	OpDelay                    = "Delay"
	OpDestroyTexture           = "DestroyTexture"
	OpDestroyRenderer          = "DestroyRenderer"
	OpDestroyWindow            = "DestroyWindow"
	OpQuit                     = "Quit"
)

// OperationRecord は描画操作の記録を表す
type OperationRecord struct {
	Operation string
	Args      map[string]any
}

// HeadlessSystem はヘッドレスモード用のSystem実装
type HeadlessSystem struct {
	log           *slog.Logger
	logOperations bool
	failures      map[string]error
	sleep         func(time.Duration)

	initialized bool
	nextID      int
	windows     int // 生存中のウィンドウ数

	violations []error

	history []OperationRecord
	mu      sync.Mutex
}

// HeadlessOption は HeadlessSystem のオプションを設定する関数型
type HeadlessOption func(*HeadlessSystem)

// WithHeadlessLogger はロガーを設定する
func WithHeadlessLogger(log *slog.Logger) HeadlessOption {
	return func(hs *HeadlessSystem) {
		hs.log = log
	}
}

// WithLogOperations は描画操作のログ記録を有効/無効にする
func WithLogOperations(enabled bool) HeadlessOption {
	return func(hs *HeadlessSystem) {
		hs.logOperations = enabled
	}
}

// WithFailure は指定した操作をerrで失敗させる
// 対象: Init, CreateWindow, CreateRenderer, LoadBMP, CreateTextureFromSurface
func WithFailure(op string, err error) HeadlessOption {
	return func(hs *HeadlessSystem) {
		hs.failures[op] = err
	}
}

// WithSleepFunc はDelayで使う待機関数を差し替える
func WithSleepFunc(sleep func(time.Duration)) HeadlessOption {
	return func(hs *HeadlessSystem) {
		hs.sleep = sleep
	}
}

// NewHeadlessSystem は新しいヘッドレスSystemを作成する
func NewHeadlessSystem(opts ...HeadlessOption) *HeadlessSystem {
	hs := &HeadlessSystem{
		log:           slog.Default(),
		logOperations: true,
		failures:      make(map[string]error),
		sleep:         time.Sleep,
		history:       make([]OperationRecord, 0),
	}

	for _, opt := range opts {
		opt(hs)
	}

	return hs
}

// record は操作をログと履歴に記録する
func (hs *HeadlessSystem) record(operation string, args ...any) {
	if hs.logOperations {
		hs.log.Debug(fmt.Sprintf("[Headless] %s", operation), args...)
	}

	rec := OperationRecord{
		Operation: operation,
		Args:      make(map[string]any),
	}
	for i := 0; i < len(args)-1; i += 2 {
		if key, ok := args[i].(string); ok {
			rec.Args[key] = args[i+1]
		}
	}

	hs.mu.Lock()
	hs.history = append(hs.history, rec)
	hs.mu.Unlock()
}

func (hs *HeadlessSystem) failure(op string) error {
	return hs.failures[op]
}

func (hs *HeadlessSystem) newID() int {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.nextID++
	return hs.nextID
}

// GetOperationHistory は操作履歴のコピーを返す
func (hs *HeadlessSystem) GetOperationHistory() []OperationRecord {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	result := make([]OperationRecord, len(hs.history))
	copy(result, hs.history)
	return result
}

// Operations は操作名だけを順に返す
func (hs *HeadlessSystem) Operations() []string {
	history := hs.GetOperationHistory()
	ops := make([]string, len(history))
	for i, rec := range history {
		ops[i] = rec.Operation
	}
	return ops
}

// ClearOperationHistory は操作履歴をクリアする
func (hs *HeadlessSystem) ClearOperationHistory() {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.history = hs.history[:0]
}

// Init はサブシステムを初期化する
func (hs *HeadlessSystem) Init() error {
	if err := hs.failure(OpInit); err != nil {
		return err
	}
	hs.initialized = true
	hs.record(OpInit)
	return nil
}

// CreateWindow はウィンドウを作成する
func (hs *HeadlessSystem) CreateWindow(title string, x, y, width, height int) (Window, error) {
	if !hs.initialized {
		return nil, ErrNotInitialized
	}
	if err := hs.failure(OpCreateWindow); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid window size: %dx%d", width, height)
	}

	win := &HeadlessWindow{
		ID:      hs.newID(),
		Title:   title,
		X:       x,
		Y:       y,
		Width:   width,
		Height:  height,
		Visible: true,
		sys:     hs,
	}
	hs.windows++
	hs.record(OpCreateWindow, "id", win.ID, "title", title, "x", x, "y", y, "width", width, "height", height)
	return win, nil
}

// CreateRenderer はウィンドウに結び付いたレンダラーを作成する
func (hs *HeadlessSystem) CreateRenderer(win Window, flags RendererFlags) (Renderer, error) {
	hw, ok := win.(*HeadlessWindow)
	if !ok || hw == nil {
		return nil, fmt.Errorf("headless renderer requires a headless window, got %T", win)
	}
	if hw.destroyed {
		return nil, ErrWindowDestroyed
	}
	if err := hs.failure(OpCreateRenderer); err != nil {
		return nil, err
	}

	ren := &HeadlessRenderer{
		ID:     hs.newID(),
		Flags:  flags,
		window: hw,
		sys:    hs,
	}
	hw.renderers++
	hs.record(OpCreateRenderer, "id", ren.ID, "window", hw.ID,
		"accelerated", flags.Has(RendererAccelerated), "vsync", flags.Has(RendererPresentVSync))
	return ren, nil
}

// LoadBMP はBMPファイルをデコードする
func (hs *HeadlessSystem) LoadBMP(path string) (Surface, error) {
	if err := hs.failure(OpLoadBMP); err != nil {
		return nil, err
	}
	s, err := LoadBMPFile(path)
	if err != nil {
		return nil, err
	}

	hsurf := &headlessSurface{ImageSurface: s, id: hs.newID(), sys: hs}
	hs.record(OpLoadBMP, "id", hsurf.id, "path", path, "width", s.Width(), "height", s.Height())
	return hsurf, nil
}

// Delay は指定時間待機する
func (hs *HeadlessSystem) Delay(d time.Duration) {
	hs.record(OpDelay, "duration", d)
	hs.sleep(d)
}

// Quit はサブシステムを終了する
// ウィンドウが残っている場合は終了せず、違反として記録する
func (hs *HeadlessSystem) Quit() {
	if hs.windows > 0 {
		err := fmt.Errorf("quit with %d window(s): %w", hs.windows, ErrResourcesAlive)
		hs.mu.Lock()
		hs.violations = append(hs.violations, err)
		hs.mu.Unlock()
		hs.log.Error("HeadlessSystem: invariant violated", "error", err)
		return
	}
	hs.initialized = false
	hs.record(OpQuit)
}

// Violations はエラーを返せない操作（Quit）で検出した不変条件違反を返す
func (hs *HeadlessSystem) Violations() []error {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	result := make([]error, len(hs.violations))
	copy(result, hs.violations)
	return result
}

// headlessSurface は解放を履歴に残すサーフェス
type headlessSurface struct {
	*ImageSurface
	id  int
	sys *HeadlessSystem
}

func (s *headlessSurface) Free() {
	if s.Freed() {
		return
	}
	s.ImageSurface.Free()
	s.sys.record(OpFreeSurface, "id", s.id)
}

// HeadlessWindow はヘッドレスモード用のウィンドウ
type HeadlessWindow struct {
	ID      int
	Title   string
	X, Y    int
	Width   int
	Height  int
	Visible bool

	renderers int // 生存中のレンダラー数
	destroyed bool
	sys       *HeadlessSystem
}

// Destroy はウィンドウを破棄する（レンダラーを先に破棄する必要がある）
func (w *HeadlessWindow) Destroy() error {
	if w.destroyed {
		return nil
	}
	if w.renderers > 0 {
		return fmt.Errorf("window %d has %d renderer(s): %w", w.ID, w.renderers, ErrResourcesAlive)
	}
	w.destroyed = true
	w.sys.windows--
	w.Visible = false
	w.sys.record(OpDestroyWindow, "id", w.ID)
	return nil
}

// HeadlessRenderer はヘッドレスモード用のレンダラー
type HeadlessRenderer struct {
	ID    int
	Flags RendererFlags

	// Presentまでに発行されたCopyの数
	pending   int
	presented int

	window    *HeadlessWindow
	textures  int // 生存中のテクスチャ数
	destroyed bool
	sys       *HeadlessSystem
}

func (r *HeadlessRenderer) check() error {
	if r.destroyed {
		return ErrRendererDestroyed
	}
	if r.window.destroyed {
		return ErrWindowDestroyed
	}
	return nil
}

// CreateTextureFromSurface はサーフェスからテクスチャを作成する
func (r *HeadlessRenderer) CreateTextureFromSurface(s Surface) (Texture, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	rs, ok := s.(RGBASurface)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedSurface, s)
	}
	if rs.Image() == nil {
		return nil, ErrSurfaceFreed
	}
	if err := r.sys.failure(OpCreateTextureFromSurface); err != nil {
		return nil, err
	}

	tex := &HeadlessTexture{
		ID:       r.sys.newID(),
		Width:    rs.Width(),
		Height:   rs.Height(),
		renderer: r,
	}
	r.textures++
	r.sys.record(OpCreateTextureFromSurface, "id", tex.ID, "renderer", r.ID, "width", tex.Width, "height", tex.Height)
	return tex, nil
}

// Clear はバックバッファをクリアする
func (r *HeadlessRenderer) Clear() error {
	if err := r.check(); err != nil {
		return err
	}
	r.pending = 0
	r.sys.record(OpClear, "renderer", r.ID)
	return nil
}

// Copy はテクスチャをdstへ転送したことを記録する
func (r *HeadlessRenderer) Copy(tex Texture, dst Rect) error {
	if err := r.check(); err != nil {
		return err
	}
	ht, ok := tex.(*HeadlessTexture)
	if !ok || ht == nil {
		return fmt.Errorf("headless renderer cannot copy %T", tex)
	}
	if ht.renderer != r {
		return ErrForeignTexture
	}
	if ht.destroyed {
		return ErrTextureDestroyed
	}

	r.pending++
	r.sys.record(OpCopy, "texture", ht.ID, "x", dst.X, "y", dst.Y, "w", dst.W, "h", dst.H)
	return nil
}

// Present はバックバッファの内容を画面へ反映したことを記録する
func (r *HeadlessRenderer) Present() {
	if r.check() != nil {
		return
	}
	r.presented++
	r.sys.record(OpPresent, "renderer", r.ID, "copies", r.pending)
	r.pending = 0
}

// PresentCount はPresentされたフレーム数を返す
func (r *HeadlessRenderer) PresentCount() int {
	return r.presented
}

// Destroy はレンダラーを破棄する（テクスチャを先に、ウィンドウより前に破棄する必要がある）
func (r *HeadlessRenderer) Destroy() error {
	if r.destroyed {
		return nil
	}
	if r.window.destroyed {
		return ErrWindowDestroyed
	}
	if r.textures > 0 {
		return fmt.Errorf("renderer %d has %d texture(s): %w", r.ID, r.textures, ErrResourcesAlive)
	}
	r.destroyed = true
	r.window.renderers--
	r.sys.record(OpDestroyRenderer, "id", r.ID)
	return nil
}

// HeadlessTexture はヘッドレスモード用のテクスチャ
type HeadlessTexture struct {
	ID     int
	Width  int
	Height int

	renderer  *HeadlessRenderer
	destroyed bool
}

// Query はテクスチャの幅と高さを返す
func (t *HeadlessTexture) Query() (int, int, error) {
	if t.destroyed {
		return 0, 0, ErrTextureDestroyed
	}
	if t.renderer.destroyed {
		return 0, 0, ErrRendererDestroyed
	}
	return t.Width, t.Height, nil
}

// Destroy はテクスチャを破棄する（レンダラーより先に破棄する必要がある）
func (t *HeadlessTexture) Destroy() error {
	if t.destroyed {
		return nil
	}
	if t.renderer.destroyed {
		return ErrRendererDestroyed
	}
	t.destroyed = true
	t.renderer.textures--
	t.renderer.sys.record(OpDestroyTexture, "id", t.ID)
	return nil
}
