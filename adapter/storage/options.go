package storage

import "os"

// Option configures a [Storage].
type Option func(*Storage)

// WithDirMode sets the permissions of created parent directories.
func WithDirMode(mode os.FileMode) Option {
	return func(s *Storage) {
		s.dirMode = mode
	}
}

// WithFileMode sets the permissions of written files.
func WithFileMode(mode os.FileMode) Option {
	return func(s *Storage) {
		s.fileMode = mode
	}
}
