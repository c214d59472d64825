package engine

import "time"

// Config はレッスンの固定値を保持する（値渡しで不変として扱う）
type Config struct {
	Title          string        // ウィンドウタイトル
	WindowX        int           // ウィンドウのX座標
	WindowY        int           // ウィンドウのY座標
	ScreenWidth    int           // 画面の幅
	ScreenHeight   int           // 画面の高さ
	BackgroundPath string        // 背景BMPのパス
	ImagePath      string        // 前景BMPのパス
	Delay          time.Duration // Present後の待機時間

	// CaseInsensitivePaths が真のとき、画像が見つからなければ大文字小文字を無視して探す
	CaseInsensitivePaths bool
}

// DefaultConfig はLesson 2の設定を返す
func DefaultConfig() Config {
	return Config{
		Title:          "Lesson 2",
		WindowX:        100,
		WindowY:        100,
		ScreenWidth:    640,
		ScreenHeight:   480,
		BackgroundPath: "../res/Lesson2/background.bmp",
		ImagePath:      "../res/Lesson2/image.bmp",
		Delay:          2000 * time.Millisecond,
	}
}
