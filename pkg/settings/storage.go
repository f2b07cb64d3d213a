package settings

import "strings"

// appFromCmdline 从 /proc/self/cmdline 内容中提取应用包名
// 参数之间以 NUL 分隔，包名是第一个参数
func appFromCmdline(data []byte) string {
	first, _, _ := strings.Cut(string(data), "\x00")
	return strings.TrimSpace(first)
}
