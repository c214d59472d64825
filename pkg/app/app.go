package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/zurustar/lesson2/pkg/cli"
	"github.com/zurustar/lesson2/pkg/engine"
	"github.com/zurustar/lesson2/pkg/graphics"
	"github.com/zurustar/lesson2/pkg/logger"
	"github.com/zurustar/lesson2/pkg/sdlwindow"
	"github.com/zurustar/lesson2/pkg/window"
)

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config    *cli.Config
	log       *slog.Logger
	lesson    engine.Config
	stdout    io.Writer // 診断メッセージとヘルプの出力先
	stderr    io.Writer // ログと引数エラーの出力先
	newSystem func(backend string) (graphics.System, error)
}

// Option は Application のオプションを設定する関数型
type Option func(*Application)

// WithOutput は標準出力と標準エラーの代わりに使う出力先を設定する
func WithOutput(stdout, stderr io.Writer) Option {
	return func(app *Application) {
		app.stdout = stdout
		app.stderr = stderr
	}
}

// WithLessonConfig はレッスンの設定を差し替える
func WithLessonConfig(cfg engine.Config) Option {
	return func(app *Application) {
		app.lesson = cfg
	}
}

// WithSystemFactory はバックエンドの生成関数を差し替える
func WithSystemFactory(f func(backend string) (graphics.System, error)) Option {
	return func(app *Application) {
		app.newSystem = f
	}
}

// New Applicationを作成
func New(opts ...Option) *Application {
	app := &Application{
		lesson: engine.DefaultConfig(),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	app.newSystem = app.defaultSystem
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Run アプリケーションを実行
// 失敗時は終了ステータスを持つ*engine.ExitErrorを返す
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		fmt.Fprintf(app.stderr, "Error: %v\n", err)
		fmt.Fprintln(app.stderr, "Run 'lesson2 --help' for usage.")
		return &engine.ExitError{Stage: engine.StageUsage, Code: engine.ExitUsage, Err: err}
	}

	if app.config.ShowHelp {
		cli.PrintHelp(app.stdout)
		return nil
	}

	// 2. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return &engine.ExitError{Stage: engine.StageUsage, Code: engine.ExitUsage, Err: err}
	}

	app.log.Info("Application started", "backend", app.config.Backend)

	// 3. バックエンドの選択
	sys, err := app.newSystem(app.config.Backend)
	if err != nil {
		return &engine.ExitError{Stage: engine.StageUsage, Code: engine.ExitUsage, Err: err}
	}

	// 4. レッスンの実行
	lesson := app.lesson
	lesson.CaseInsensitivePaths = lesson.CaseInsensitivePaths || app.config.CaseInsensitive
	driver := engine.NewDriver(lesson, sys, app.stdout, engine.WithLogger(app.log))
	if err := driver.Run(); err != nil {
		app.log.Info("Application terminated", "exitStatus", engine.ExitCode(err), "state", driver.State())
		return err
	}

	app.log.Info("Application terminated normally")
	return nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	var err error
	if app.stderr == io.Writer(os.Stderr) {
		err = logger.InitLogger(app.config.LogLevel)
	} else {
		err = logger.InitLoggerWithWriter(app.config.LogLevel, app.stderr)
	}
	if err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// defaultSystem はバックエンド名に対応するgraphics.Systemを作成する
func (app *Application) defaultSystem(backend string) (graphics.System, error) {
	switch backend {
	case cli.BackendEbiten:
		return window.NewSystem(window.WithLogger(app.log)), nil
	case cli.BackendSDL:
		return sdlwindow.NewSystem(app.log), nil
	case cli.BackendHeadless:
		return graphics.NewHeadlessSystem(
			graphics.WithHeadlessLogger(app.log),
			graphics.WithLogOperations(app.config.LogLevel == "debug"),
		), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", backend)
	}
}
