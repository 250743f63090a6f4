package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"msgsync/models"
)

// Reporter surfaces remote failures to the user.
//
// Implementations must not panic and must not touch client state.
type Reporter interface {
	Report(models.APIError)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(models.APIError)

// Report calls f, swallowing any panic.
func (f ReporterFunc) Report(payload models.APIError) {
	if f == nil {
		return
	}
	defer func() { _ = recover() }()
	f(payload)
}

// LogReporter writes reports as warnings through a structured logger.
type LogReporter struct {
	Log logrus.FieldLogger
}

// Report logs the payload.
func (r LogReporter) Report(payload models.APIError) {
	if r.Log == nil {
		return
	}
	defer func() { _ = recover() }()
	r.Log.WithFields(logrus.Fields{
		"error":   payload.Error,
		"message": payload.Message,
	}).Warn("remote operation failed")
}

// WriterReporter prints "<error>: <message>" lines, like an alert box would show.
type WriterReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriterReporter returns a reporter that writes to out.
func NewWriterReporter(out io.Writer) *WriterReporter {
	return &WriterReporter{out: out}
}

// Report writes the payload. Write errors are ignored.
func (r *WriterReporter) Report(payload models.APIError) {
	if r == nil || r.out == nil {
		return
	}
	defer func() { _ = recover() }()

	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.out, "%s\n", payload.String())
}

// MultiReporter fans one report out to several reporters.
type MultiReporter []Reporter

// Report forwards payload to every non-nil reporter.
func (m MultiReporter) Report(payload models.APIError) {
	for _, r := range m {
		if r == nil {
			continue
		}
		func() {
			defer func() { _ = recover() }()
			r.Report(payload)
		}()
	}
}

// SyncWriter serializes writes to w. The terminal and a WriterReporter that
// share one output should both write through the same SyncWriter.
func SyncWriter(w io.Writer) io.Writer {
	if sw, ok := w.(*syncWriter); ok {
		return sw
	}
	return &syncWriter{w: w}
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
