// Package commandline provides a flarc.Commandline for tests of subcommands.
package commandline

import (
	"bytes"
	"io"
	"strings"

	"github.com/youta-t/flarc"
)

// Mock is a flarc.Commandline with fixed flags and arguments.
//
// Stdout and Stderr are captured in buffers.
type Mock[T any] struct {
	Name string

	In  io.Reader
	Out bytes.Buffer
	Err bytes.Buffer

	Flag T
	Arg  map[string][]string
}

var _ flarc.Commandline[struct{}] = &Mock[struct{}]{}

// New creates a Mock with flags and no arguments or stdin.
func New[T any](name string, flags T) *Mock[T] {
	return &Mock[T]{
		Name: name,
		In:   strings.NewReader(""),
		Flag: flags,
		Arg:  map[string][]string{},
	}
}

func (m *Mock[T]) Fullname() string {
	return m.Name
}

func (m *Mock[T]) Stdin() io.Reader {
	return m.In
}

func (m *Mock[T]) Stdout() io.Writer {
	return &m.Out
}

func (m *Mock[T]) Stderr() io.Writer {
	return &m.Err
}

func (m *Mock[T]) Flags() T {
	return m.Flag
}

func (m *Mock[T]) Args() map[string][]string {
	return m.Arg
}
