// Package tee duplicates a process's console streams into one shared,
// append-only, size-rotated file.
package tee

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/DeRuina/timberjack"
	"github.com/charmbracelet/x/ansi"
)

// Options configures the backing file and the streams being duplicated.
type Options struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	Stdout io.Writer
	Stderr io.Writer
}

// Tee forwards console writes to their original destination and, line by line, to a shared file.
// Terminal escape sequences reach the console untouched but are stripped from the file.
type Tee struct {
	mu      sync.Mutex
	file    io.WriteCloser
	pending []byte
	closed  bool
	once    sync.Once
	err     error

	stdout *stream
	stderr *stream
}

type stream struct {
	tee  *Tee
	orig io.Writer
}

// Open creates the shared file writer. The file itself is opened in append mode on first write.
func Open(opts Options) (*Tee, error) {
	if opts.Path == "" {
		return nil, errors.New("tee: path must not be empty")
	}
	if dir := filepath.Dir(opts.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	rotating := &timberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
		LocalTime:  true,
	}
	return newTee(rotating, stdout, stderr), nil
}

func newTee(file io.WriteCloser, stdout, stderr io.Writer) *Tee {
	t := &Tee{file: file}
	t.stdout = &stream{tee: t, orig: stdout}
	t.stderr = &stream{tee: t, orig: stderr}
	return t
}

// Stdout returns the writer standing in for the process's standard output.
func (t *Tee) Stdout() io.Writer { return t.stdout }

// Stderr returns the writer standing in for the process's standard error.
func (t *Tee) Stderr() io.Writer { return t.stderr }

func (s *stream) Write(p []byte) (int, error) {
	t := s.tee
	t.mu.Lock()
	defer t.mu.Unlock()

	n, err := s.orig.Write(p)
	if !t.closed {
		t.bufferLocked(p)
	}
	return n, err
}

// bufferLocked appends p to the pending line and writes every completed line to the file.
func (t *Tee) bufferLocked(p []byte) {
	t.pending = append(t.pending, p...)
	idx := bytes.LastIndexByte(t.pending, '\n')
	if idx < 0 {
		return
	}
	t.writeFileLocked(t.pending[:idx+1])
	t.pending = append(t.pending[:0], t.pending[idx+1:]...)
}

func (t *Tee) writeFileLocked(p []byte) {
	if len(p) == 0 {
		return
	}
	plain := ansi.Strip(string(p))
	if plain == "" {
		return
	}
	if _, err := io.WriteString(t.file, plain); err != nil && t.err == nil {
		t.err = err
	}
}

// Flush writes any pending partial line to the file.
func (t *Tee) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.writeFileLocked(t.pending)
	t.pending = t.pending[:0]
	return t.err
}

// Err reports the first file write failure, if any.
func (t *Tee) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Close flushes and closes the file exactly once. Subsequent calls return nil and
// later writes reach only the original streams.
func (t *Tee) Close() error {
	var closeErr error
	t.once.Do(func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.writeFileLocked(t.pending)
		t.pending = nil
		t.closed = true
		closeErr = t.file.Close()
	})
	return closeErr
}
