package storage

import "os"

// osOps lists the file system calls made by [Storage].
type osOps interface {
	MkdirAll(path string, perm os.FileMode) error
	OpenFile(name string, flag int, perm os.FileMode) (*os.File, error)
	Remove(name string) error
	Rename(oldpath string, newpath string) error
	Stat(name string) (os.FileInfo, error)
}

type osImpl struct{}

// MkdirAll implements [osOps].
func (osImpl) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// OpenFile implements [osOps].
func (osImpl) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(name, flag, perm)
}

// Remove implements [osOps].
func (osImpl) Remove(name string) error {
	return os.Remove(name)
}

// Rename implements [osOps].
func (osImpl) Rename(oldpath string, newpath string) error {
	return os.Rename(oldpath, newpath)
}

// Stat implements [osOps].
func (osImpl) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}
