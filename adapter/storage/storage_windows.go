//go:build windows

package storage

import (
	"os"
	"path/filepath"
)

func init() {
	// MkdirAll fails on a bare volume root.
	osSpecificEnsureDir = func(o osOps, dir string, mode os.FileMode) error {
		root := filepath.VolumeName(dir) + string(os.PathSeparator)
		if dir == root {
			return nil
		}
		return o.MkdirAll(dir, mode)
	}

	// Directories cannot be opened for syncing.
	osSpecificSyncDir = func(osOps, string) error { return nil }
}
