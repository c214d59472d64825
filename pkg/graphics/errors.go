package graphics

import "errors"

var (
	// ErrNotInitialized はサブシステム初期化前に操作した場合のエラー
	ErrNotInitialized = errors.New("graphics subsystem not initialized")

	// ErrWindowDestroyed は破棄済みウィンドウを使用した場合のエラー
	ErrWindowDestroyed = errors.New("window destroyed")

	// ErrRendererDestroyed は破棄済みレンダラーを使用した場合のエラー
	ErrRendererDestroyed = errors.New("renderer destroyed")

	// ErrTextureDestroyed は破棄済みテクスチャを使用した場合のエラー
	ErrTextureDestroyed = errors.New("texture destroyed")

	// ErrSurfaceFreed は解放済みサーフェスを使用した場合のエラー
	ErrSurfaceFreed = errors.New("surface already freed")

	// ErrUnsupportedSurface は別バックエンドのサーフェスを渡した場合のエラー
	ErrUnsupportedSurface = errors.New("unsupported surface type")

	// ErrResourcesAlive は子リソースが残ったまま親を破棄しようとした場合のエラー
	ErrResourcesAlive = errors.New("dependent resources still alive")

	// ErrForeignTexture は別レンダラーのテクスチャを渡した場合のエラー
	ErrForeignTexture = errors.New("texture belongs to another renderer")
)
