package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// バックエンド名
const (
	BackendEbiten   = "ebiten"
	BackendSDL      = "sdl"
	BackendHeadless = "headless"
)

// Config はコマンドライン引数から解析された設定を保持する
// レッスンの値（タイトル、サイズ、画像パス、待機時間）はここでは変更できない
type Config struct {
	Backend         string // 描画バックエンド（ebiten, sdl, headless）
	LogLevel        string // ログレベル（debug, info, warn, error）
	CaseInsensitive bool   // 画像パスの大文字小文字を無視して探す
	ShowHelp        bool   // ヘルプ表示フラグ
}

// ParseArgs コマンドライン引数を解析してConfigを返す
// 環境変数 BACKEND, HEADLESS, LOG_LEVEL, CASE_INSENSITIVE も参照する（コマンドラインフラグが優先）
func ParseArgs(args []string) (*Config, error) {
	fs := flag.NewFlagSet("lesson2", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	config := &Config{}

	var headless bool
	fs.StringVar(&config.Backend, "backend", "", "描画バックエンド（ebiten, sdl, headless）")
	fs.StringVar(&config.Backend, "b", "", "描画バックエンド（短縮形）")
	fs.BoolVar(&headless, "headless", false, "ヘッドレスモード（--backend headless と同じ）")
	fs.StringVar(&config.LogLevel, "log-level", "", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "", "ログレベル（短縮形）")
	fs.BoolVar(&config.CaseInsensitive, "case-insensitive", false, "画像パスの大文字小文字を無視")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// 位置引数は受け付けない
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	// --headless は --backend より優先
	if headless {
		if config.Backend != "" && config.Backend != BackendHeadless {
			return nil, fmt.Errorf("--headless conflicts with --backend %s", config.Backend)
		}
		config.Backend = BackendHeadless
	}

	// 環境変数からの設定（コマンドラインフラグが優先）
	if config.Backend == "" {
		if headlessEnv := os.Getenv("HEADLESS"); headlessEnv == "1" || strings.ToLower(headlessEnv) == "true" {
			config.Backend = BackendHeadless
		} else if backendEnv := os.Getenv("BACKEND"); backendEnv != "" {
			config.Backend = strings.ToLower(backendEnv)
		} else {
			config.Backend = BackendEbiten
		}
	}

	if !config.CaseInsensitive {
		if env := os.Getenv("CASE_INSENSITIVE"); env == "1" || strings.ToLower(env) == "true" {
			config.CaseInsensitive = true
		}
	}

	if config.LogLevel == "" {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		} else {
			config.LogLevel = "info"
		}
	}

	// バックエンドの検証
	switch config.Backend {
	case BackendEbiten, BackendSDL, BackendHeadless:
	default:
		return nil, fmt.Errorf("invalid backend: %s (must be ebiten, sdl, or headless)", config.Backend)
	}

	// ログレベルの検証
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	return config, nil
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `lesson2 - SDL Lesson 2: background tiling and a centered image

Usage:
  lesson2 [options]

Images are read from ../res/Lesson2/background.bmp and ../res/Lesson2/image.bmp
relative to the working directory. The window stays open for 2 seconds.

Options:
  -b, --backend <name>        描画バックエンド: ebiten, sdl, headless（デフォルト: ebiten）
  --headless                  ヘッドレスモード（--backend headless と同じ）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  --case-insensitive          画像が見つからないとき大文字小文字を無視して探す
  -h, --help                  このヘルプを表示

Environment Variables:
  BACKEND=<name>              描画バックエンド
  HEADLESS=1                  ヘッドレスモードを有効化
  LOG_LEVEL=<level>           ログレベル
  CASE_INSENSITIVE=1          画像パスの大文字小文字を無視

Exit Status:
  0   成功
  1   初期化の失敗
  2   ウィンドウ作成の失敗
  3   レンダラー作成の失敗
  4   画像の読み込み失敗
  64  コマンドライン引数の誤り

Examples:
  lesson2                     Ebitengineで表示
  lesson2 --backend sdl       SDL2で表示
  lesson2 --headless          ウィンドウを開かずに実行
  LOG_LEVEL=debug lesson2     デバッグログを有効化
`)
}
