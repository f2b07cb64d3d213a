//go:build mobile

// Package mobile 提供 ebitenmobile 绑定入口
//
// 此包用于构建 Android (.aar) 和 iOS (.xcframework) 包。
// 使用 ebitenmobile 工具构建时会自动调用 init() 函数。
// 移动端没有嵌入场景文件，使用代码内的默认场景；点击跳过，拖动旋转。
// 移动端不会调用 Close，设置在每次修改时立即保存。
//
// 此文件仅在使用 -tags mobile 构建时编译：
//
//	# Android
//	ebitenmobile bind -target android -tags mobile -androidapi 23 -javapkg com.gonewx.shimmer -o build/android/shimmer.aar -v ./mobile
//
//	# iOS (仅 macOS)
//	ebitenmobile bind -target ios -tags mobile -o build/ios/Shimmer.xcframework -v ./mobile
package mobile

import (
	"github.com/hajimehoshi/ebiten/v2/mobile"

	"github.com/gonewx/shimmer/internal/cli"
	"github.com/gonewx/shimmer/pkg/app"
	"github.com/gonewx/shimmer/pkg/settings"
)

func init() {
	logger := cli.NewLogger(true)

	viewer, err := app.NewApp(app.Config{
		Logger:   logger,
		Settings: settings.Open("shimmer", logger),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("viewer init failed")
	}

	// 注册到 ebitenmobile
	mobile.SetGame(viewer)
}

// Dummy 是一个空导出函数，确保包被 ebitenmobile 正确识别
func Dummy() {}
