package filewatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// ErrModified is the cause of contexts canceled by modification of watched files.
var ErrModified = errors.New("filewatch: watched file is modified")

type ModifiedError struct {
	Name string
	Op   fsnotify.Op
}

func (e *ModifiedError) Error() string {
	return fmt.Sprintf("%s is updated (%s)", e.Name, e.Op.String())
}

func (e *ModifiedError) Unwrap() error {
	return ErrModified
}

// UntilModifyContext returns a context that is canceled
// when one of target files is modified (= written, created, removed, or renamed).
//
// # Args
//
// - ctx: context.Context
//
// - targets ...string: paths of files or directories to be watched.
// For a file, its parent directory is watched, so that
// replacing the file (write-to-temp then rename) is detected.
// For a directory, any change in it is detected.
//
// # Returns
//
// - context.Context: context canceled on modification.
// context.Cause of it is *ModifiedError, wrapping ErrModified.
//
// - func(): cancel function.
//
// - error: error caused when it fails to start watching files.
//
// If error is not nil, both of the the context and the cancel function are nil.
func UntilModifyContext(ctx context.Context, targets ...string) (context.Context, func(), error) {
	files := map[string]struct{}{}
	dirs := map[string]struct{}{}
	for _, t := range targets {
		abs, err := filepath.Abs(t)
		if err != nil {
			return nil, nil, err
		}
		st, err := os.Stat(abs)
		if err != nil {
			return nil, nil, err
		}
		if st.IsDir() {
			dirs[abs] = struct{}{}
		} else {
			files[abs] = struct{}{}
		}
	}

	watching := func(name string) bool {
		name, err := filepath.Abs(name)
		if err != nil {
			return false
		}
		if _, ok := files[name]; ok {
			return true
		}
		_, ok := dirs[filepath.Dir(name)]
		return ok
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	for f := range files {
		if err := w.Add(filepath.Dir(f)); err != nil {
			w.Close()
			return nil, nil, err
		}
	}
	for d := range dirs {
		if err := w.Add(d); err != nil {
			w.Close()
			return nil, nil, err
		}
	}

	cctx, cancel := context.WithCancelCause(ctx)
	go func() {
		defer w.Close()

		for {
			select {
			case <-cctx.Done():
				return
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				cancel(err)
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Op == fsnotify.Chmod || !watching(event.Name) {
					continue
				}
				cancel(&ModifiedError{Name: event.Name, Op: event.Op})
			}
		}
	}()

	return cctx, func() { cancel(nil) }, nil
}
