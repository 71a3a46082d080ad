package logger

import (
	"io"
	"log"
)

// Null is a logger writing nowhere.
func Null() *log.Logger {
	return log.New(io.Discard, "", log.LstdFlags)
}

func Default() *log.Logger {
	return log.Default()
}
