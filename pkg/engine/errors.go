package engine

import (
	"errors"
	"fmt"
)

// 終了ステータス
const (
	ExitOK        = 0
	ExitInit      = 1  // サブシステム初期化失敗
	ExitWindow    = 2  // ウィンドウ作成失敗
	ExitRenderer  = 3  // レンダラー作成失敗
	ExitAssetLoad = 4  // テクスチャ読み込み失敗
	ExitUsage     = 64 // コマンドライン引数の誤り
)

// 診断メッセージのラベル
const (
	StageInit                     = "SDL_Init"
	StageCreateWindow             = "CreateWindow"
	StageCreateRenderer           = "CreateRenderer"
	StageLoadBMP                  = "LoadBMP"
	StageCreateTextureFromSurface = "CreateTextureFromSurface"
	StageLoadTextures             = "LoadTextures"
	StageUsage                    = "ParseArgs"
)

// ExitError はドライバーが中断した段階と終了ステータスを表す
type ExitError struct {
	Stage string
	Code  int
	Err   error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s failed (exit status %d)", e.Stage, e.Code)
	}
	return fmt.Sprintf("%s failed (exit status %d): %v", e.Stage, e.Code, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// LoadError はテクスチャ読み込みの失敗を表す
// Stage は StageLoadBMP（デコード失敗）か StageCreateTextureFromSurface（変換失敗）
type LoadError struct {
	Stage string
	Path  string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ExitCode はエラーをプロセスの終了ステータスに変換する
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
