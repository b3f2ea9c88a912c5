//go:build !windows

package devserver

import (
	"bytes"
	"os"
	"os/exec"

	"github.com/creack/pty"
)

// diagnosticsCapture reads the compiler's stderr through a pty so
// compilers that check for a terminal keep their color diagnostics.
type diagnosticsCapture struct {
	ptmx *os.File
	tty  *os.File
	out  bytes.Buffer
	done chan struct{}
}

func newDiagnosticsCapture(cmd *exec.Cmd) (*diagnosticsCapture, error) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, err
	}
	cmd.Stderr = tty
	d := &diagnosticsCapture{ptmx: ptmx, tty: tty, done: make(chan struct{})}
	go d.read()
	return d, nil
}

func (d *diagnosticsCapture) read() {
	defer close(d.done)
	buf := make([]byte, 4096)
	for {
		n, err := d.ptmx.Read(buf)
		if n > 0 {
			d.out.Write(buf[:n])
		}
		if err != nil {
			// the master reads EIO once every slave side is closed
			return
		}
	}
}

// started releases our copy of the slave side once the child holds its
// own. Keeping it open would stall read past the child's exit.
func (d *diagnosticsCapture) started() {
	_ = d.tty.Close()
}

func (d *diagnosticsCapture) abort() {
	_ = d.tty.Close()
	_ = d.ptmx.Close()
	<-d.done
}

// finish waits for the compiler's stderr to drain and returns it.
func (d *diagnosticsCapture) finish() []byte {
	<-d.done
	_ = d.ptmx.Close()
	return d.out.Bytes()
}
