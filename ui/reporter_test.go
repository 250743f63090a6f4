package ui

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msgsync/models"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	panic("writer exploded")
}

func TestWriterReporterFormatsPayload(t *testing.T) {
	var out bytes.Buffer
	r := NewWriterReporter(&out)

	r.Report(models.APIError{Error: "Not Found", Message: "no such message"})
	assert.Equal(t, "Not Found: no such message\n", out.String())
}

func TestReportersNeverPanic(t *testing.T) {
	var nilWriter *WriterReporter
	reporters := []Reporter{
		ReporterFunc(func(models.APIError) { panic("boom") }),
		ReporterFunc(nil),
		NewWriterReporter(failingWriter{}),
		NewWriterReporter(nil),
		nilWriter,
		LogReporter{},
		MultiReporter{nil, ReporterFunc(func(models.APIError) { panic("boom") })},
	}
	for _, r := range reporters {
		assert.NotPanics(t, func() {
			r.Report(models.APIError{Error: "Error", Message: "x"})
		})
	}
}

func TestMultiReporterContinuesAfterPanic(t *testing.T) {
	var out bytes.Buffer
	m := MultiReporter{
		ReporterFunc(func(models.APIError) { panic("first") }),
		NewWriterReporter(&out),
	}

	m.Report(models.APIError{Error: "bad", Message: "oops"})
	assert.Equal(t, "bad: oops\n", out.String())
}

func TestLogReporterLogsWarning(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	r := LogReporter{Log: logger}

	r.Report(models.APIError{Error: "bad", Message: "oops"})

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "bad", entry.Data["error"])
	assert.Equal(t, "oops", entry.Data["message"])
}
