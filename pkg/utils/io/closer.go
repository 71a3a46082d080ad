package io

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

// ErrClosed is returned when a closed writer is written.
var ErrClosed = errors.New("io: write on closed writer")

type committingWriter struct {
	buf    bytes.Buffer
	commit func([]byte) error
	once   sync.Once
	closed bool
	err    error
}

// CommitOnClose returns io.WriteCloser which buffers everything written,
// and passes the whole content to `commit` when it is closed.
//
// args:
//
//   - commit: hook function receiving the buffered content.
//     This is called only once, on the first Close.
//     Close returns the error of `commit`, also on the second (or later) Close.
//
// Writes after Close fail with ErrClosed.
func CommitOnClose(commit func([]byte) error) io.WriteCloser {
	return &committingWriter{commit: commit}
}

func (cw *committingWriter) Write(p []byte) (int, error) {
	if cw.closed {
		return 0, ErrClosed
	}
	return cw.buf.Write(p)
}

func (cw *committingWriter) Close() error {
	cw.once.Do(func() {
		cw.closed = true
		cw.err = cw.commit(cw.buf.Bytes())
	})
	return cw.err
}
