// Package storage keeps database files on disk. A file is always replaced
// through a synced temporary copy, so an interrupted write leaves either the
// previous contents or the new ones, never a mix.
package storage

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

const (
	// DefaultDirMode is used for parent directories created by [Storage].
	DefaultDirMode os.FileMode = 0o755
	// DefaultFileMode is used for files written by [Storage].
	DefaultFileMode os.FileMode = 0o644

	tempSuffix = "~"
)

var (
	osSpecificEnsureDir = func(o osOps, dir string, mode os.FileMode) error {
		return o.MkdirAll(dir, mode)
	}
	osSpecificSyncDir = func(o osOps, dir string) error {
		return flush(o, dir, os.O_RDONLY, 0)
	}
)

// Storage reads and writes whole database files.
type Storage struct {
	os       osOps
	dirMode  os.FileMode
	fileMode os.FileMode
}

// NewStorage returns a Storage over the local file system.
func NewStorage(options ...Option) *Storage {
	s := &Storage{
		os:       osImpl{},
		dirMode:  DefaultDirMode,
		fileMode: DefaultFileMode,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// WriteFile replaces filename with the bytes produced by write. If write
// fails the previous file is kept.
func (s *Storage) WriteFile(filename string, write func(io.Writer) error) error {
	dir, err := filepath.Abs(filepath.Dir(filename))
	if err != nil {
		return err
	}
	if err := osSpecificEnsureDir(s.os, dir, s.dirMode); err != nil {
		return err
	}

	temp := filename + tempSuffix
	f, err := s.os.OpenFile(temp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, s.fileMode)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = s.os.Remove(temp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return domain.ErrFlushToStorage{ErrorOnFsync: err}
	}
	if err := f.Close(); err != nil {
		return domain.ErrFlushToStorage{ErrorOnClose: err}
	}

	if err := s.os.Rename(temp, filename); err != nil {
		return err
	}
	return osSpecificSyncDir(s.os, dir)
}

// OpenFile opens filename for reading. A write interrupted after its
// temporary copy was synced is completed first, and a database that was never
// written is created empty.
func (s *Storage) OpenFile(filename string) (io.ReadCloser, error) {
	if err := s.ensureIntegrity(filename); err != nil {
		return nil, err
	}
	return s.os.OpenFile(filename, os.O_RDONLY, s.fileMode)
}

func (s *Storage) ensureIntegrity(filename string) error {
	exists, err := s.exists(filename)
	if err != nil || exists {
		return err
	}

	temp := filename + tempSuffix
	tempExists, err := s.exists(temp)
	if err != nil {
		return err
	}
	if tempExists {
		return s.os.Rename(temp, filename)
	}

	if err := osSpecificEnsureDir(s.os, filepath.Dir(filename), s.dirMode); err != nil {
		return err
	}
	f, err := s.os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, s.fileMode)
	if err != nil {
		return err
	}
	return f.Close()
}

func (s *Storage) exists(filename string) (bool, error) {
	_, err := s.os.Stat(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func flush(o osOps, name string, flag int, mode os.FileMode) error {
	f, err := o.OpenFile(name, flag, mode)
	if err != nil {
		return domain.ErrFlushToStorage{ErrorOnFsync: err}
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return domain.ErrFlushToStorage{ErrorOnFsync: err}
	}
	if err := f.Close(); err != nil {
		return domain.ErrFlushToStorage{ErrorOnClose: err}
	}
	return nil
}
