// Package window implements the graphics backend on top of Ebitengine.
package window

import (
	"fmt"
	"image/color"
	"log/slog"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

var (
	// クリア色（黒）
	backgroundColor = color.RGBA{0x00, 0x00, 0x00, 0xFF}
)

// Game はEbitengineのゲームインターフェースを実装する
// Presentされた1フレームをタイムアウトまで表示し続ける。入力は処理しない
type Game struct {
	frame     *ebiten.Image // 表示するフレーム
	width     int
	height    int
	timeout   time.Duration // 表示時間
	startTime time.Time     // 最初のUpdate時刻
	started   bool
	now       func() time.Time

	mu sync.RWMutex
}

// NewGame Gameを作成
func NewGame(frame *ebiten.Image, width, height int, timeout time.Duration) *Game {
	return &Game{
		frame:   frame,
		width:   width,
		height:  height,
		timeout: timeout,
		now:     time.Now,
	}
}

// Update ゲームロジックの更新（Ebitengineが毎フレーム呼び出す）
// ウィンドウ表示後、timeoutが経過したらebiten.Terminationを返す
func (g *Game) Update() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	// 計測はゲームループ開始時から（ウィンドウ生成の時間を含めない）
	if !g.started {
		g.started = true
		g.startTime = g.now()
	}

	if g.now().Sub(g.startTime) >= g.timeout {
		return ebiten.Termination
	}
	return nil
}

// Draw 画面描画（Ebitengineが毎フレーム呼び出す）
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	g.mu.RLock()
	frame := g.frame
	g.mu.RUnlock()

	if frame != nil {
		screen.DrawImage(frame, nil)
	}
}

// Layout 画面サイズを返す
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}

// runner はゲームループを実行する関数（テストで差し替える）
type runner func(game ebiten.Game) error

// runWith はframeをtimeoutの間表示する
func runWith(run runner, frame *ebiten.Image, width, height int, timeout time.Duration, log *slog.Logger) error {
	game := NewGame(frame, width, height, timeout)

	log.Debug("window: running game loop", "width", width, "height", height, "timeout", timeout)
	if err := run(game); err != nil {
		return fmt.Errorf("failed to run game: %w", err)
	}
	return nil
}
