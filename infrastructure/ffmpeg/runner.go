package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// CommandRunner defines the interface for running external commands
// This allows mocking exec.Command in tests
type CommandRunner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	Stream(ctx context.Context, name string, args ...string) (io.ReadCloser, error)
}

// ExecCommandRunner is the production implementation using os/exec
type ExecCommandRunner struct{}

// Output executes a command and returns its output
func (r *ExecCommandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, commandError(err, &stderr)
	}
	return out, nil
}

// Stream starts a command and returns its standard output. Closing the
// returned reader stops the command if it is still running and waits for it.
func (r *ExecCommandRunner) Stream(ctx context.Context, name string, args ...string) (io.ReadCloser, error) {
	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, name, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stream := &processStream{cmd: cmd, stdout: stdout, cancel: cancel}
	cmd.Stderr = &stream.stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, err
	}
	return stream, nil
}

// processStream is the stdout of a running command
type processStream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	cancel context.CancelFunc
	stderr bytes.Buffer
	eof    bool
}

func (p *processStream) Read(b []byte) (int, error) {
	n, err := p.stdout.Read(b)
	if errors.Is(err, io.EOF) {
		p.eof = true
	}
	return n, err
}

// Close stops the command unless it already finished writing, then reaps it.
// Exit errors only matter when the command ran to completion on its own.
func (p *processStream) Close() error {
	if !p.eof {
		p.cancel()
	}
	err := p.cmd.Wait()
	p.cancel()
	if err != nil && p.eof {
		return commandError(err, &p.stderr)
	}
	return nil
}

func commandError(err error, stderr *bytes.Buffer) error {
	msg := strings.TrimSpace(stderr.String())
	if msg == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, msg)
}
