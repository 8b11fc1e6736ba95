//go:build !linux

package network

func swapDir(tmp, dir string) (string, error) {
	return replaceDir(tmp, dir)
}
