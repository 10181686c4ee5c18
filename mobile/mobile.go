//go:build mobile

// Package mobile 提供 ebitenmobile 绑定入口
//
// 此包用于构建 Android (.aar) 和 iOS (.xcframework) 包。
// 使用 ebitenmobile 工具构建时会自动调用 init() 函数。
//
// 此文件仅在使用 -tags mobile 构建时编译。
// 手动构建：
//
//	# Android
//	ebitenmobile bind -target android -tags mobile -androidapi 23 -javapkg com.decker.particlefield -o build/android/particlefield.aar -v ./mobile
//
//	# iOS (仅 macOS)
//	ebitenmobile bind -target ios -tags mobile -o build/ios/ParticleField.xcframework -v ./mobile
package mobile

import (
	"log"

	"github.com/hajimehoshi/ebiten/v2/mobile"
	"github.com/quasilyte/gdata/v2"

	"github.com/decker502/particlefield/pkg/app"
)

func init() {
	// gdata 在移动端使用应用私有存储，失败时仅保存在内存中
	storage, err := gdata.Open(gdata.Config{AppName: "particlefield"})
	if err != nil {
		log.Printf("[Mobile] Warning: failed to open storage: %v", err)
		storage = nil
	}

	// 创建粒子场应用，使用默认配置
	cfg := app.Config{
		Verbose: true, // Enable verbose logging for debugging
		Storage: storage,
		Count:   -1,
	}

	fieldApp, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("应用初始化失败: %v", err)
	}

	// 注册到 ebitenmobile
	mobile.SetGame(fieldApp)
}

// Dummy 是一个空导出函数，确保包被 ebitenmobile 正确识别
func Dummy() {}
