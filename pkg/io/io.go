package io

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	_ FileIO = (*MediaFileSystem)(nil)

	ErrFileExists = errors.New("file already exists")
)

// FileIO is the file access the asset fetcher needs below the metadata directory
type FileIO interface {
	Stat(target string) (os.FileInfo, error)
	MkdirAll(name string, perm os.FileMode) error
	// WriteFile writes data to a temporary sibling and renames it over name, so readers never see a partial file
	WriteFile(name string, data []byte) error
	FileExists(path string) bool
}

// MediaFileSystem is the default implementation of file io using the os package
type MediaFileSystem struct{}

// Stat is a wrapper around os.Stat
func (o *MediaFileSystem) Stat(target string) (os.FileInfo, error) {
	return os.Stat(target)
}

// MkdirAll is a wrapper around os.MkdirAll
func (o *MediaFileSystem) MkdirAll(path string, mode os.FileMode) error {
	return os.MkdirAll(path, mode)
}

func (o *MediaFileSystem) WriteFile(name string, data []byte) error {
	if o.FileExists(name) {
		return ErrFileExists
	}
	if err := o.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(name), filepath.Base(name)+".*.part")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), name)
}

func (o *MediaFileSystem) FileExists(path string) bool {
	_, err := o.Stat(path)
	return err == nil
}
