package cli

import (
	"bytes"
	"os"
	"testing"
)

// captureStdout swaps os.Stdout for a pipe. The returned function puts
// stdout back and hands over everything written in between. The pipe is
// drained from a goroutine so writers never block on a full buffer.
func captureStdout(t *testing.T) func() string {
	t.Helper()

	pr, pw, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	orig := os.Stdout
	os.Stdout = pw

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = buf.ReadFrom(pr)
	}()

	return func() string {
		_ = pw.Close()
		<-done
		os.Stdout = orig
		return buf.String()
	}
}
