package main

import (
	"os"
	"runtime"

	"github.com/zurustar/lesson2/pkg/app"
	"github.com/zurustar/lesson2/pkg/engine"
)

func init() {
	// SDLとEbitengineはメインスレッドからの呼び出しを要求する
	runtime.LockOSThread()
}

func main() {
	application := app.New()
	os.Exit(engine.ExitCode(application.Run(os.Args[1:])))
}
