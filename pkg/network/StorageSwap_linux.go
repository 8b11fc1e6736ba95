package network

import (
	"errors"

	"golang.org/x/sys/unix"
)

// swapDir 用 RENAME_EXCHANGE 原子交换 tmp 和 dir，交换后旧内容留在 tmp。
// dir 不存在或文件系统不支持交换时退回 replaceDir。
func swapDir(tmp, dir string) (string, error) {
	err := unix.Renameat2(unix.AT_FDCWD, tmp, unix.AT_FDCWD, dir, unix.RENAME_EXCHANGE)
	if err == nil {
		return tmp, nil
	}
	if errors.Is(err, unix.ENOENT) || errors.Is(err, unix.EINVAL) || errors.Is(err, unix.ENOSYS) {
		return replaceDir(tmp, dir)
	}
	return "", err
}
