//go:build windows

package devserver

import (
	"bytes"
	"os/exec"
)

// diagnosticsCapture buffers the compiler's stderr. Windows builds have
// no pty, so compilers see a plain pipe and emit monochrome output.
type diagnosticsCapture struct {
	out *bytes.Buffer
}

func newDiagnosticsCapture(cmd *exec.Cmd) (*diagnosticsCapture, error) {
	d := &diagnosticsCapture{out: &bytes.Buffer{}}
	cmd.Stderr = d.out
	return d, nil
}

func (d *diagnosticsCapture) started() {}

func (d *diagnosticsCapture) abort() {}

// finish returns the compiler's stderr. Callers invoke it after Wait,
// which has already flushed the copying goroutine.
func (d *diagnosticsCapture) finish() []byte {
	return d.out.Bytes()
}
