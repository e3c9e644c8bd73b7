// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package stdioclient

import (
	"context"
	"io"
	"os"
	"os/exec"
	"time"

	"pgbridge/cli/internal/errors"
)

// Transport owns the child's input and output byte channels. The client is
// its only consumer: it writes framed lines to Writer and reads arbitrary
// chunks from Reader, relying on the framer for message boundaries - a read
// never has to deliver a full line at once.
type Transport interface {
	// Start brings up the transport (spawns the process, opens pipes).
	Start(ctx context.Context) error
	// Writer is the child's input channel.
	Writer() io.Writer
	// Reader is the child's output channel.
	Reader() io.Reader
	// Close tears the transport down, releasing the process if any.
	Close() error
}

// childWaitTimeout bounds how long Close waits for the child to exit on its
// own before killing it.
const childWaitTimeout = 3 * time.Second

// ChildProcess is the production transport: it spawns the stdio tool server
// as a child process and owns its pipes. The child's stderr passes through to
// ours, since the wire runs exclusively on stdout.
type ChildProcess struct {
	command string
	args    []string

	// Env holds extra environment entries appended to the parent environment.
	// The DSN travels here rather than on argv so it never shows up in
	// process listings.
	Env []string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

// NewChildProcess prepares (but does not start) a child transport.
func NewChildProcess(command string, args ...string) *ChildProcess {
	return &ChildProcess{command: command, args: args}
}

// Start spawns the child and wires its pipes.
func (c *ChildProcess) Start(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, c.command, c.args...)
	cmd.Stderr = os.Stderr
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errors.Wrap(errors.ChildStartFailed, "opening stdin pipe", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(errors.ChildStartFailed, "opening stdout pipe", err)
	}
	if err := cmd.Start(); err != nil {
		return errors.Wrap(errors.ChildStartFailed, "starting "+c.command, err)
	}

	c.cmd = cmd
	c.stdin = stdin
	c.stdout = stdout
	return nil
}

func (c *ChildProcess) Writer() io.Writer { return c.stdin }
func (c *ChildProcess) Reader() io.Reader { return c.stdout }

// Close closes the child's input channel and waits for it to exit, killing
// it after childWaitTimeout. The client sends the shutdown notification
// before calling Close, so a healthy child exits on its own.
func (c *ChildProcess) Close() error {
	if c.cmd == nil {
		return nil
	}
	_ = c.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- c.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(childWaitTimeout):
		_ = c.cmd.Process.Kill()
		return <-done
	}
}
