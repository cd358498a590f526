package export

import (
	"fmt"
	"os"
	"path/filepath"
)

// Sink delivers a finished file to the user.
type Sink interface {
	Deliver(name, mimeType string, data []byte) error
}

// DirSink writes files into a directory. A file only appears under its
// final name once it is completely written.
type DirSink struct {
	Dir string
}

func (s DirSink) Deliver(name, mimeType string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(s.Dir, ".export-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("could not write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, filepath.Join(s.Dir, filepath.Base(name))); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(name, mimeType string, data []byte) error

func (f SinkFunc) Deliver(name, mimeType string, data []byte) error {
	return f(name, mimeType, data)
}
