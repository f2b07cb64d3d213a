// Package embedded 提供嵌入资源的统一访问接口
//
// 由于 Go embed 指令只能嵌入当前包目录及其子目录的文件，
// embed.FS 变量必须声明在项目根目录（embed.go）。
// 本包提供包装函数，让其他包可以访问嵌入的场景文件。
//
// 使用前必须调用 Init() 初始化。
package embedded

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
)

// ErrNotInitialized 未调用 Init
var ErrNotInitialized = errors.New("embedded package not initialized, call Init() first")

// ScenesDir 内置场景目录
const ScenesDir = "data/scenes"

var dataFS fs.FS

// Init 设置嵌入的数据文件系统
// 必须在 main() 开始时、任何资源加载之前调用
func Init(data fs.FS) {
	dataFS = data
}

// IsInitialized 返回 embedded 包是否已初始化
func IsInitialized() bool {
	return dataFS != nil
}

// normalize 标准化路径：正斜杠、去掉 "./" 前缀，必须以 "data/" 开头
func normalize(p string) (string, error) {
	if dataFS == nil {
		return "", ErrNotInitialized
	}
	p = strings.TrimPrefix(filepath.ToSlash(p), "./")
	if !strings.HasPrefix(p, "data/") {
		return "", fmt.Errorf("unknown resource path prefix: %s (must start with 'data/')", p)
	}
	return p, nil
}

// Open 打开嵌入文件
func Open(p string) (fs.File, error) {
	p, err := normalize(p)
	if err != nil {
		return nil, err
	}
	return dataFS.Open(p)
}

// ReadFile 读取嵌入文件内容
func ReadFile(p string) ([]byte, error) {
	p, err := normalize(p)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(dataFS, p)
}

// Exists 检查文件是否存在
func Exists(p string) bool {
	f, err := Open(p)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// ReadScene 按名称读取内置场景，如 "default" -> data/scenes/default.yaml
func ReadScene(name string) ([]byte, error) {
	return ReadFile(path.Join(ScenesDir, name+".yaml"))
}

// SceneNames 列出内置场景名称（不含扩展名），按文件名排序
func SceneNames() ([]string, error) {
	p, err := normalize(ScenesDir + "/*.yaml")
	if err != nil {
		return nil, err
	}
	matches, err := fs.Glob(dataFS, p)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(path.Base(m), ".yaml"))
	}
	return names, nil
}
