package adapter

import (
	"os"
)

// FileSystem defines an interface for file system operations to enable mocking
//
//go:generate mockgen -source=filesystem.go -destination=../mocks/filesystem.go -package=mocks -mock_names=FileSystem=MockFileSystem
type FileSystem interface {
	// MkdirAll creates a directory and any missing parents
	MkdirAll(path string) error

	// WriteFile writes data to the named file, replacing it
	WriteFile(name string, data []byte) error

	// Exists reports whether the named path exists
	Exists(name string) bool
}

// RealFileSystem implements FileSystem using the standard os package
type RealFileSystem struct{}

// NewFileSystem creates a new real file system
func NewFileSystem() FileSystem {
	return &RealFileSystem{}
}

func (fs *RealFileSystem) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (fs *RealFileSystem) WriteFile(name string, data []byte) error {
	return os.WriteFile(name, data, 0o644) //nolint:gosec,G306
}

func (fs *RealFileSystem) Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}
