package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/decker502/particlefield/pkg/app"
	"github.com/decker502/particlefield/pkg/config"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/quasilyte/gdata/v2"
)

const (
	windowWidth  = 800
	windowHeight = 600
)

var (
	configFlag  = flag.String("config", "", "Path to a field config YAML (e.g. data/field.yaml)")
	verboseFlag = flag.Bool("verbose", false, "Enable verbose logging (default off)")
	countFlag   = flag.Int("count", -1, "Override particle count (-1 keeps the config value)")
	seedFlag    = flag.Int64("seed", 0, "Override random seed (0 keeps the config value)")
	debugFlag   = flag.Bool("debug", false, "Show particle and connection counts")
)

func main() {
	flag.Parse()

	// 加载基础配置：命令行指定的文件优先，否则使用嵌入的 data/field.yaml
	field, err := config.ParseFieldConfig(defaultFieldYAML)
	if err != nil {
		fatalf("嵌入配置解析失败: %v", err)
	}
	if *configFlag != "" {
		loaded, err := config.LoadFieldConfig(*configFlag)
		if err != nil {
			fatalf("配置加载失败: %v", err)
		}
		field = loaded
	}

	// gdata 跨平台存储，失败时降级为内存设置
	storage, err := gdata.Open(gdata.Config{AppName: "particlefield"})
	if err != nil {
		log.Printf("[Main] Warning: failed to open storage: %v (settings will not persist)", err)
		storage = nil
	}

	a, err := app.NewApp(app.Config{
		Verbose: *verboseFlag,
		Debug:   *debugFlag,
		Field:   field,
		Storage: storage,
		Count:   *countFlag,
		Seed:    *seedFlag,
		Width:   windowWidth,
		Height:  windowHeight,
	})
	if err != nil {
		fatalf("应用初始化失败: %v", err)
	}

	// 设置窗口属性
	ebiten.SetWindowSize(windowWidth, windowHeight)
	ebiten.SetWindowTitle("Particle Field")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(a); err != nil {
		fatalf("运行失败: %v", err)
	}

	// 退出前保存设置
	if err := a.Settings().Save(); err != nil {
		log.Printf("[Main] Warning: failed to save settings: %v", err)
	}
}

// fatalf 直接写入 stderr 后退出
// 非 verbose 模式下 NewApp 已把 log 输出丢弃，致命错误不能走 log
func fatalf(format string, args ...any) {
	writeFatal(os.Stderr, format, args...)
	os.Exit(1)
}

func writeFatal(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}
