package ruleset

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/joyautomation/tentacle-nftables/errors"
)

// DefaultReadTimeout bounds one ruleset read when the caller's context has
// no deadline of its own.
const DefaultReadTimeout = 10 * time.Second

// Reader acquires the current NAT ruleset by invoking an external command
// (typically the nftables CLI) and returning its raw text output.
//
// A failed read is a hard failure: it propagates to the caller, since no
// valid snapshot exists to publish. The reader never retries.
type Reader struct {
	command []string
	timeout time.Duration
}

// NewReader creates a reader for the given command line. The first element
// is the executable, the rest its arguments.
func NewReader(command []string, timeout time.Duration) *Reader {
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	return &Reader{
		command: command,
		timeout: timeout,
	}
}

// Read executes the configured command and returns its stdout as raw
// ruleset text. Spawn failures and non-zero exits wrap ErrRulesetRead with
// the command's stderr when available.
func (r *Reader) Read(ctx context.Context) (string, error) {
	if len(r.command) == 0 {
		return "", errors.WrapFatal(errors.ErrMissingConfig,
			"Reader", "Read", "ruleset command not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.command[0], r.command[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", errors.WrapTransient(
			fmt.Errorf("%w: %s: %s", errors.ErrRulesetRead, r.command[0], detail),
			"Reader", "Read", "execute ruleset command")
	}

	return stdout.String(), nil
}
