// Package internalexec runs helper executables on behalf of built-in plugins.
package internalexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Result captures the output of a finished command. Stdout is kept
// byte-exact because it may carry ciphertext.
type Result struct {
	Stdout []byte
	Stderr string
}

// Command describes one invocation.
type Command struct {
	Path  string
	Args  []string
	Stdin []byte
	// Timeout bounds the run when positive.
	Timeout time.Duration
}

// waitDelay bounds how long Run waits for output pipes after the process
// has been killed.
const waitDelay = time.Second

// ErrTimeout is returned when a command exceeds its Timeout.
var ErrTimeout = errors.New("command timed out")

// Run executes c and collects its output. A non-zero exit is reported as an
// error that includes the command's stderr.
func Run(ctx context.Context, c Command) (Result, error) {
	if c.Path == "" {
		return Result{}, errors.New("command path is empty")
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Stdin = bytes.NewReader(c.Stdin)
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	res := Result{
		Stdout: stdoutBuf.Bytes(),
		Stderr: strings.TrimSpace(stderrBuf.String()),
	}

	if err != nil {
		name := filepath.Base(c.Path)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && c.Timeout > 0 {
			return res, fmt.Errorf("%s: %w after %s", name, ErrTimeout, c.Timeout)
		}
		if out := PrimaryOutput(res); out != "" {
			return res, fmt.Errorf("%s: %w: %s", name, err, out)
		}
		return res, fmt.Errorf("%s: %w", name, err)
	}

	return res, nil
}

// PrimaryOutput returns stderr if present, otherwise stdout as text.
func PrimaryOutput(res Result) string {
	if res.Stderr != "" {
		return res.Stderr
	}
	return strings.TrimSpace(string(res.Stdout))
}
