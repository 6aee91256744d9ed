package logger

import (
	"bytes"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, verboseMode bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseMode)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())
}

func TestBuildPhase_Verbose(t *testing.T) {
	buf := capture(t, true)

	Section("Build docs")
	Info("trained model on %d records, embedding size %d", 3, 12)
	Debug("upserting batch of %d", 2)

	assert.Equal(t, "\n=== Build docs ===\n"+
		"[INFO] trained model on 3 records, embedding size 12\n"+
		"[DEBUG] upserting batch of 2\n", buf.String())
}

func TestBuildPhase_Quiet(t *testing.T) {
	buf := capture(t, false)

	Section("Sync kb")
	Info("sync kb: %d unchanged", 2)
	Debug("scrolled %d points", 4)

	assert.Empty(t, buf.String())
}

func TestFailure_AlwaysPrinted(t *testing.T) {
	buf := capture(t, false)

	Failure("add", 4, "kb_answers", errors.New("connection reset"))

	assert.Equal(t, "[WARN] add: id 4 in kb_answers: connection reset\n", buf.String())
}

func TestWarn_AlwaysPrinted(t *testing.T) {
	buf := capture(t, false)

	Warn("skipping index %s: %v", "old", "manifest unreadable")

	assert.Equal(t, "[WARN] skipping index old: manifest unreadable\n", buf.String())
}

func TestConcurrentAccess(t *testing.T) {
	capture(t, false)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetVerbose(i%2 == 0)
			Debug("concurrent %d", i)
			Failure("sync", int64(i), "docs", errors.New("x"))
		}()
	}
	wg.Wait()
}
