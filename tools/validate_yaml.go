// validate_yaml 校验粒子场配置文件
//
// 用法：
//
//	go run ./tools [file.yaml ...]    # 默认校验 data/field.yaml
package main

import (
	"fmt"
	"os"

	"github.com/decker502/particlefield/pkg/config"
)

func main() {
	paths := os.Args[1:]
	if len(paths) == 0 {
		paths = []string{"data/field.yaml"}
	}

	failed := 0
	for _, path := range paths {
		if err := validate(path); err != nil {
			fmt.Printf("❌ %s: %v\n", path, err)
			failed++
		}
	}

	if failed > 0 {
		fmt.Printf("❌ 有 %d 个配置文件校验失败\n", failed)
		os.Exit(1)
	}
}

func validate(path string) error {
	cfg, err := config.LoadFieldConfig(path)
	if err != nil {
		return err
	}

	palette, err := cfg.Palette()
	if err != nil {
		return err
	}
	if len(palette) == 0 {
		fmt.Printf("⚠️  %s: 调色板为空，将使用默认颜色\n", path)
	}

	min, max := cfg.ParticleSizeRange()
	fmt.Printf("✅ %s: %d 个粒子, 速度 %s (x%.1f), 半径 [%.1f, %.1f], 拖尾 %.2f\n",
		path, cfg.ParticleCount, cfg.Speed, cfg.SpeedMultiplier(), min, max, cfg.TrailAlpha)
	return nil
}
