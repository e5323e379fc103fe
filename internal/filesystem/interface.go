package filesystem

import (
	"io/fs"
)

// FileSystem provides an abstraction over file operations for testability.
//
// The tracker touches disk in three places: reading the YAML config, writing
// report files, and managing the clone root directory. Everything else goes
// through the git layer.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm fs.FileMode) error

	MkdirAll(path string, perm fs.FileMode) error
	RemoveAll(path string) error

	Stat(path string) (fs.FileInfo, error)
	Exists(path string) bool
}
