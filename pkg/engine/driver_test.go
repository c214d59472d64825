package engine

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"golang.org/x/image/bmp"

	"github.com/zurustar/lesson2/pkg/graphics"
)

// writeBMP はw×hの不透明BMPを書き出す
func writeBMP(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 0x80, G: 0x40, B: 0x20, A: 0xFF}), image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode BMP: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write BMP: %v", err)
	}
}

// testConfig はdir配下のアセットを使う設定を返す
func testConfig(dir string) Config {
	cfg := DefaultConfig()
	cfg.BackgroundPath = filepath.Join(dir, "background.bmp")
	cfg.ImagePath = filepath.Join(dir, "image.bmp")
	return cfg
}

func newHeadless(opts ...graphics.HeadlessOption) *graphics.HeadlessSystem {
	opts = append([]graphics.HeadlessOption{
		graphics.WithLogOperations(false),
		graphics.WithSleepFunc(func(time.Duration) {}),
	}, opts...)
	return graphics.NewHeadlessSystem(opts...)
}

func lines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Title != "Lesson 2" || cfg.WindowX != 100 || cfg.WindowY != 100 {
		t.Errorf("unexpected window settings: %+v", cfg)
	}
	if cfg.ScreenWidth != 640 || cfg.ScreenHeight != 480 {
		t.Errorf("unexpected screen size: %dx%d", cfg.ScreenWidth, cfg.ScreenHeight)
	}
	if cfg.BackgroundPath != "../res/Lesson2/background.bmp" || cfg.ImagePath != "../res/Lesson2/image.bmp" {
		t.Errorf("unexpected asset paths: %q %q", cfg.BackgroundPath, cfg.ImagePath)
	}
	if cfg.Delay != 2*time.Second {
		t.Errorf("Delay = %v, want 2s", cfg.Delay)
	}
	if cfg.CaseInsensitivePaths {
		t.Error("case-insensitive lookup should be off by default")
	}
}

// TestDriver_Run_Success は64×64の画像2枚で最後まで実行できることを確認する
func TestDriver_Run_Success(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	writeBMP(t, cfg.BackgroundPath, 64, 64)
	writeBMP(t, cfg.ImagePath, 64, 64)

	var out bytes.Buffer
	hs := newHeadless()
	d := NewDriver(cfg, hs, &out)

	if err := d.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if code := ExitCode(nil); code != ExitOK {
		t.Errorf("ExitCode(nil) = %d", code)
	}
	if d.State() != StateTornDown {
		t.Errorf("State = %v, want TornDown", d.State())
	}
	if out.Len() != 0 {
		t.Errorf("expected no diagnostic output, got %q", out.String())
	}

	wantOps := []string{
		graphics.OpInit, graphics.OpCreateWindow, graphics.OpCreateRenderer,
		graphics.OpLoadBMP, graphics.OpCreateTextureFromSurface, graphics.OpFreeSurface,
		graphics.OpLoadBMP, graphics.OpCreateTextureFromSurface, graphics.OpFreeSurface,
		graphics.OpClear,
		graphics.OpCopy, graphics.OpCopy, graphics.OpCopy, graphics.OpCopy, graphics.OpCopy,
		graphics.OpPresent, graphics.OpDelay,
		graphics.OpDestroyTexture, graphics.OpDestroyTexture,
		graphics.OpDestroyRenderer, graphics.OpDestroyWindow, graphics.OpQuit,
	}
	if got := hs.Operations(); !reflect.DeepEqual(got, wantOps) {
		t.Fatalf("operations =\n%v\nwant\n%v", got, wantOps)
	}
	if v := hs.Violations(); len(v) != 0 {
		t.Errorf("unexpected invariant violations: %v", v)
	}

	history := hs.GetOperationHistory()

	win := history[1].Args
	if win["title"] != "Lesson 2" || win["x"] != 100 || win["y"] != 100 || win["width"] != 640 || win["height"] != 480 {
		t.Errorf("unexpected window: %v", win)
	}
	if history[2].Args["accelerated"] != true || history[2].Args["vsync"] != true {
		t.Errorf("renderer should be accelerated and vsync: %v", history[2].Args)
	}

	bgID := history[4].Args["id"]
	imgID := history[7].Args["id"]

	type copyOp struct {
		tex        any
		x, y, w, h any
	}
	wantCopies := []copyOp{
		{bgID, 0, 0, 64, 64},
		{bgID, 64, 0, 64, 64},
		{bgID, 0, 64, 64, 64},
		{bgID, 64, 64, 64, 64},
		{imgID, 288, 208, 64, 64},
	}
	for i, want := range wantCopies {
		a := history[10+i].Args
		got := copyOp{a["texture"], a["x"], a["y"], a["w"], a["h"]}
		if got != want {
			t.Errorf("copy %d = %+v, want %+v", i, got, want)
		}
	}

	if history[15].Args["copies"] != 5 {
		t.Errorf("presented frame has %v copies, want 5", history[15].Args["copies"])
	}
	if history[16].Args["duration"] != 2*time.Second {
		t.Errorf("delay = %v, want 2s", history[16].Args["duration"])
	}

	// 解放順: 背景 → 前景 → レンダラー → ウィンドウ → Quit
	if history[17].Args["id"] != bgID || history[18].Args["id"] != imgID {
		t.Errorf("textures released out of order: %v, %v", history[17].Args, history[18].Args)
	}
}

func TestDriver_Run_SmallTextureOddSize(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	writeBMP(t, cfg.BackgroundPath, 10, 20)
	writeBMP(t, cfg.ImagePath, 101, 33)

	hs := newHeadless()
	if err := NewDriver(cfg, hs, &bytes.Buffer{}).Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var copies [][4]any
	for _, rec := range hs.GetOperationHistory() {
		if rec.Operation == graphics.OpCopy {
			copies = append(copies, [4]any{rec.Args["x"], rec.Args["y"], rec.Args["w"], rec.Args["h"]})
		}
	}
	want := [][4]any{
		{0, 0, 10, 20},
		{10, 0, 10, 20},
		{0, 20, 10, 20},
		{10, 20, 10, 20},
		{270, 224, 101, 33},
	}
	if !reflect.DeepEqual(copies, want) {
		t.Errorf("copies = %v, want %v", copies, want)
	}
}

// TestDriver_Run_MissingImage はimage.bmpがない場合に終了ステータス4で止まることを確認する
func TestDriver_Run_MissingImage(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	writeBMP(t, cfg.BackgroundPath, 64, 64)

	var out bytes.Buffer
	hs := newHeadless()
	d := NewDriver(cfg, hs, &out)

	err := d.Run()
	if ExitCode(err) != ExitAssetLoad {
		t.Fatalf("ExitCode = %d, want %d (err=%v)", ExitCode(err), ExitAssetLoad, err)
	}

	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Stage != StageLoadBMP || loadErr.Path != cfg.ImagePath {
		t.Errorf("expected LoadBMP LoadError for image, got %v", err)
	}

	got := lines(out.String())
	if len(got) != 1 || !strings.HasPrefix(got[0], "LoadBMP error: ") {
		t.Errorf("diagnostic output = %q, want one LoadBMP line", out.String())
	}

	if d.State() != StateRendererReady {
		t.Errorf("State = %v, want RendererReady", d.State())
	}
	for _, op := range hs.Operations() {
		switch op {
		case graphics.OpClear, graphics.OpCopy, graphics.OpPresent, graphics.OpDelay,
			graphics.OpDestroyTexture, graphics.OpDestroyRenderer, graphics.OpDestroyWindow, graphics.OpQuit:
			t.Errorf("unexpected operation after asset failure: %s", op)
		}
	}
}

// writeHugeBMPHeader は画素データのない、幅と高さが2^30の24ビットBMPヘッダーを書き出す
func writeHugeBMPHeader(t *testing.T, path string) {
	t.Helper()
	header := make([]byte, 54)
	copy(header, "BM")
	binary.LittleEndian.PutUint32(header[2:], 54)     // ファイルサイズ
	binary.LittleEndian.PutUint32(header[10:], 54)    // データオフセット
	binary.LittleEndian.PutUint32(header[14:], 40)    // 情報ヘッダーサイズ
	binary.LittleEndian.PutUint32(header[18:], 1<<30) // 幅
	binary.LittleEndian.PutUint32(header[22:], 1<<30) // 高さ
	binary.LittleEndian.PutUint16(header[26:], 1)     // プレーン数
	binary.LittleEndian.PutUint16(header[28:], 24)    // ビット深度
	writeFile(t, path, header)
}

// TestDriver_Run_CorruptImageHeader は壊れたヘッダーの画像が読み込み失敗として扱われることを確認する
func TestDriver_Run_CorruptImageHeader(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	writeBMP(t, cfg.BackgroundPath, 64, 64)
	writeHugeBMPHeader(t, cfg.ImagePath)

	var out bytes.Buffer
	err := NewDriver(cfg, newHeadless(), &out).Run()

	if ExitCode(err) != ExitAssetLoad {
		t.Fatalf("ExitCode = %d, want %d (err=%v)", ExitCode(err), ExitAssetLoad, err)
	}
	got := lines(out.String())
	if len(got) != 1 || !strings.HasPrefix(got[0], "LoadBMP error: ") {
		t.Errorf("diagnostic output = %q, want one LoadBMP line", out.String())
	}
}

// TestDriver_Run_ImageCaseMismatch は大文字小文字だけ違う画像の扱いを確認する
func TestDriver_Run_ImageCaseMismatch(t *testing.T) {
	tests := []struct {
		name            string
		caseInsensitive bool
		wantCode        int
	}{
		{"既定では見つからない", false, ExitAssetLoad},
		{"有効にすると見つかる", true, ExitOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			cfg := testConfig(dir)
			cfg.CaseInsensitivePaths = tt.caseInsensitive
			writeBMP(t, cfg.BackgroundPath, 64, 64)
			writeBMP(t, filepath.Join(dir, "IMAGE.BMP"), 64, 64)
			if _, err := os.Stat(cfg.ImagePath); err == nil {
				t.Skip("filesystem is case-insensitive")
			}

			var out bytes.Buffer
			err := NewDriver(cfg, newHeadless(), &out).Run()
			if got := ExitCode(err); got != tt.wantCode {
				t.Errorf("ExitCode = %d, want %d (err=%v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestDriver_Run_BothAssetsMissing(t *testing.T) {
	var out bytes.Buffer
	err := NewDriver(testConfig(t.TempDir()), newHeadless(), &out).Run()

	if ExitCode(err) != ExitAssetLoad {
		t.Fatalf("ExitCode = %d, want %d", ExitCode(err), ExitAssetLoad)
	}
	if got := lines(out.String()); len(got) != 2 {
		t.Errorf("expected one diagnostic line per asset, got %q", out.String())
	}
}

func TestDriver_Run_StageFailures(t *testing.T) {
	injected := errors.New("No available video device")

	tests := []struct {
		name      string
		op        string
		wantCode  int
		wantLine  string
		wantState State
	}{
		{"初期化失敗", graphics.OpInit, ExitInit, "SDL_Init error: No available video device", StateUninitialized},
		{"ウィンドウ作成失敗", graphics.OpCreateWindow, ExitWindow, "CreateWindow error: No available video device", StateSubsystemReady},
		{"レンダラー作成失敗", graphics.OpCreateRenderer, ExitRenderer, "CreateRenderer error: No available video device", StateWindowReady},
		{"テクスチャ変換失敗", graphics.OpCreateTextureFromSurface, ExitAssetLoad, "CreateTextureFromSurface error: No available video device", StateRendererReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			cfg := testConfig(dir)
			writeBMP(t, cfg.BackgroundPath, 8, 8)
			writeBMP(t, cfg.ImagePath, 8, 8)

			var out bytes.Buffer
			d := NewDriver(cfg, newHeadless(graphics.WithFailure(tt.op, injected)), &out)
			err := d.Run()

			if code := ExitCode(err); code != tt.wantCode {
				t.Errorf("ExitCode = %d, want %d", code, tt.wantCode)
			}
			if !errors.Is(err, injected) {
				t.Errorf("error should wrap the library error, got %v", err)
			}
			got := lines(out.String())
			if len(got) == 0 || got[0] != tt.wantLine {
				t.Errorf("first diagnostic line = %q, want %q", out.String(), tt.wantLine)
			}
			if d.State() != tt.wantState {
				t.Errorf("State = %v, want %v", d.State(), tt.wantState)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"ExitError", &ExitError{Stage: StageCreateWindow, Code: ExitWindow}, ExitWindow},
		{"wrapped ExitError", errors.Join(errors.New("x"), &ExitError{Code: ExitRenderer}), ExitRenderer},
		{"その他のエラー", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExitError_Error(t *testing.T) {
	err := &ExitError{Stage: StageInit, Code: ExitInit, Err: errors.New("no video")}
	if got := err.Error(); !strings.Contains(got, "SDL_Init") || !strings.Contains(got, "no video") {
		t.Errorf("unexpected message: %q", got)
	}
	if got := (&ExitError{Stage: StageLoadTextures, Code: ExitAssetLoad}).Error(); !strings.Contains(got, "exit status 4") {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateUninitialized, "Uninitialized"},
		{StateSubsystemReady, "SubsystemReady"},
		{StateWindowReady, "WindowReady"},
		{StateRendererReady, "RendererReady"},
		{StateAssetsLoaded, "AssetsLoaded"},
		{StateRendered, "Rendered"},
		{StatePresented, "Presented"},
		{StateTornDown, "TornDown"},
		{State(42), "Unknown"},
		{State(-1), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.state), got, tt.want)
		}
	}
}
