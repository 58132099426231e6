//go:build linux

package shm

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

const devShmDir = "/dev/shm"

func devShmPath(name string) string {
	return filepath.Join(devShmDir, name)
}

// RemoveObject unlinks the named object from /dev/shm. Windows objects vanish with their
// last handle, Linux ones persist until removed.
func RemoveObject(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.Remove(devShmPath(name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// canCreateOnDevShm reports whether /dev/shm has room for size more bytes.
// Paths outside /dev/shm, or a failed usage probe, always return true.
func canCreateOnDevShm(size uint64, path string) bool {
	if !strings.HasPrefix(path, devShmDir+"/") {
		return true
	}
	stat, err := disk.Usage(devShmDir)
	if err != nil {
		return true
	}
	return stat.Free >= size
}
