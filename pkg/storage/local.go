package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

type local struct {
	fmod fs.FileMode
	dmod fs.FileMode
}

// Local returns Filesystem on the local disk.
//
// Create makes missing parent directories.
func Local() Filesystem {
	return local{fmod: 0644, dmod: 0755}
}

func (local) Open(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (l local) Create(_ context.Context, path string) (io.WriteCloser, error) {
	return createAll(path, l.fmod, l.dmod)
}

func (local) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (l local) Put(ctx context.Context, localPath string, path string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := l.Create(ctx, path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// createAll creates a file with its parent directories, if missing.
//
// dmod effects only newly-created directories.
func createAll(name string, fmod fs.FileMode, dmod fs.FileMode) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(name), dmod); err != nil {
		return nil, err
	}
	return os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fmod)
}
