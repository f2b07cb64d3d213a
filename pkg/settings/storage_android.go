//go:build android

package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ensureStorageDir 确保 Android 存储目录存在并可写
// gdata 在 Android 上使用 /data/data/{package}/ 作为存储路径，
// 但不会预先创建子目录，需要在 gdata.Open 之前调用。
func ensureStorageDir() error {
	data, err := os.ReadFile("/proc/self/cmdline")
	if err != nil {
		return fmt.Errorf("failed to detect Android app: %w", err)
	}
	app := appFromCmdline(data)
	if app == "" {
		return errors.New("failed to detect Android app: empty cmdline")
	}

	savesDir := filepath.Join("/data/data", app, "saves")
	if err := os.MkdirAll(savesDir, 0o755); err != nil {
		return fmt.Errorf("failed to create saves directory %s: %w", savesDir, err)
	}

	// 验证目录可写
	probe := filepath.Join(savesDir, ".write_test")
	if err := os.WriteFile(probe, []byte("test"), 0o644); err != nil {
		return fmt.Errorf("saves directory %s is not writable: %w", savesDir, err)
	}
	return os.Remove(probe)
}
