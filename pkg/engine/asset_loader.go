package engine

import (
	"io"

	"github.com/zurustar/lesson2/pkg/fileutil"
	"github.com/zurustar/lesson2/pkg/graphics"
	"github.com/zurustar/lesson2/pkg/logger"
)

// LoadOption は LoadTexture のオプションを設定する関数型
type LoadOption func(*loadOptions)

type loadOptions struct {
	caseInsensitive bool
}

// WithCaseInsensitivePath はパスが存在しない場合に大文字小文字を無視して探す
func WithCaseInsensitivePath() LoadOption {
	return func(o *loadOptions) {
		o.caseInsensitive = true
	}
}

// LoadTexture はBMPファイルをデコードし、renのテクスチャに変換する
// 失敗時は診断メッセージを1行outに書き、nilと*LoadErrorを返す
// デコードしたサーフェスは変換の成否にかかわらずここで解放する
func LoadTexture(sys graphics.System, ren graphics.Renderer, path string, out io.Writer, opts ...LoadOption) (graphics.Texture, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	resolved := path
	if o.caseInsensitive {
		resolved = fileutil.ResolvePath(path)
	}

	surface, err := sys.LoadBMP(resolved)
	if err != nil {
		logger.LogError(out, StageLoadBMP, err)
		return nil, &LoadError{Stage: StageLoadBMP, Path: path, Err: err}
	}

	tex, err := ren.CreateTextureFromSurface(surface)
	surface.Free()
	if err != nil {
		logger.LogError(out, StageCreateTextureFromSurface, err)
		return nil, &LoadError{Stage: StageCreateTextureFromSurface, Path: path, Err: err}
	}

	logger.GetLogger().Debug("LoadTexture: loaded texture", "path", resolved)
	return tex, nil
}
