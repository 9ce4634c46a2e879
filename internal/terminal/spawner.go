package terminal

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
)

// SpawnOptions configure one shell process.
type SpawnOptions struct {
	Shell      string
	WorkingDir string
	Env        map[string]string
	Cols       int
	Rows       int
}

// Proc is one running shell process attached to a terminal. Reads return
// the process's output stream; writes feed its input stream. Wait blocks
// until the process has exited and its output stream is closed.
type Proc interface {
	io.Reader
	io.Writer
	Resize(cols, rows int) error
	Kill() error
	Wait() error
	Shell() string
}

// Spawner starts shell processes. Available reports whether the platform
// can spawn at all; it is checked before every spawn attempt.
type Spawner interface {
	Available() error
	Spawn(opts SpawnOptions) (Proc, error)
}

// PTYSpawner spawns shells on a pseudo-terminal via creack/pty.
type PTYSpawner struct {
	probeOnce sync.Once
	probeErr  error
}

// NewPTYSpawner creates the default platform spawner.
func NewPTYSpawner() *PTYSpawner {
	return &PTYSpawner{}
}

// Available probes pty support once by opening and closing a pty pair.
func (s *PTYSpawner) Available() error {
	s.probeOnce.Do(func() {
		ptmx, tty, err := pty.Open()
		if err != nil {
			s.probeErr = err
			return
		}
		tty.Close()
		ptmx.Close()
	})
	if s.probeErr != nil {
		return fmt.Errorf("%w: %v", ErrCapabilityUnavailable, s.probeErr)
	}
	return nil
}

// Spawn starts the shell with the requested dimensions.
func (s *PTYSpawner) Spawn(opts SpawnOptions) (Proc, error) {
	shell := opts.Shell
	if shell == "" {
		shell = os.Getenv("SHELL")
		if shell == "" {
			shell = "/bin/bash"
		}
	}

	workingDir := opts.WorkingDir
	if workingDir == "" {
		workingDir = os.Getenv("HOME")
		if workingDir == "" {
			workingDir = "/tmp"
		}
	}

	cols, rows := opts.Cols, opts.Rows
	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}

	cmd := exec.Command(shell)
	cmd.Dir = workingDir
	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, "TERM=xterm-256color")
	for key, value := range opts.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return nil, &SpawnError{Err: err}
	}

	return &ptyProc{shell: shell, cmd: cmd, ptmx: ptmx}, nil
}

// ptyProc binds an exec.Cmd to its pty master.
type ptyProc struct {
	shell string
	cmd   *exec.Cmd
	ptmx  *os.File
}

func (p *ptyProc) Read(b []byte) (int, error)  { return p.ptmx.Read(b) }
func (p *ptyProc) Write(b []byte) (int, error) { return p.ptmx.Write(b) }

func (p *ptyProc) Resize(cols, rows int) error {
	return pty.Setsize(p.ptmx, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
}

func (p *ptyProc) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

// Wait reaps the process then closes the master side, which unblocks any
// pending Read with an error.
func (p *ptyProc) Wait() error {
	err := p.cmd.Wait()
	p.ptmx.Close()
	return err
}

func (p *ptyProc) Shell() string { return p.shell }
