package makemkv

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"librarian/internal/services"
)

// Index MakeMKV treats as "enumerate all drives without opening a disc".
const driveEnumIndex = 9999

const defaultMinTitleSeconds = 600

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithMinTitleSeconds overrides the floor below which scanned titles
// are discarded as menus, trailers, or warnings.
func WithMinTitleSeconds(seconds int) Option {
	return func(c *Client) {
		if seconds >= 0 {
			c.minTitleSeconds = seconds
		}
	}
}

// Client wraps MakeMKV CLI interactions.
type Client struct {
	binary          string
	infoTimeout     time.Duration
	minTitleSeconds int
	exec            Executor
}

// New constructs a MakeMKV client.
func New(binary string, infoTimeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("makemkv binary required")
	}
	client := &Client{
		binary:          binary,
		infoTimeout:     time.Duration(infoTimeoutSeconds) * time.Second,
		minTitleSeconds: defaultMinTitleSeconds,
		exec:            commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Info runs a robot-mode info scan against the given disc index and
// returns the raw line-oriented output.
func (c *Client) Info(ctx context.Context, disc int) (string, error) {
	if c.infoTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.infoTimeout)
		defer cancel()
	}

	args := []string{"-r", "info", "disc:" + strconv.Itoa(disc)}
	var lines []string
	if err := c.exec.Run(ctx, c.binary, args, func(line string) {
		lines = append(lines, line)
	}); err != nil {
		marker := services.ErrExternalTool
		if errors.Is(err, context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return "", services.Wrap(marker, "makemkv", "info", fmt.Sprintf("disc %d", disc), err)
	}
	return strings.Join(lines, "\n"), nil
}

// ListDrives enumerates drives that currently hold recognised media.
func (c *Client) ListDrives(ctx context.Context) ([]Drive, error) {
	raw, err := c.Info(ctx, driveEnumIndex)
	if err != nil {
		return nil, err
	}
	return ParseDrives(raw), nil
}

// Scan reads the disc in the given drive and returns its main titles,
// longest first, filtered to the client's minimum length.
func (c *Client) Scan(ctx context.Context, disc int) (string, []Title, error) {
	raw, err := c.Info(ctx, disc)
	if err != nil {
		return "", nil, err
	}
	return raw, ParseTitles(raw, c.minTitleSeconds), nil
}

// DiscSignature fingerprints the disc currently in the given drive.
func (c *Client) DiscSignature(ctx context.Context, disc int) (string, error) {
	raw, err := c.Info(ctx, disc)
	if err != nil {
		return "", err
	}
	return Signature(raw), nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader, forward func(string)) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			forward(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	// The stdout and stderr readers share the callback, so calls into it
	// are serialized.
	var forwardMu sync.Mutex
	forward := func(line string) {
		if onStdout == nil {
			fmt.Fprintln(os.Stderr, line)
			return
		}
		forwardMu.Lock()
		onStdout(line)
		forwardMu.Unlock()
	}

	wg.Add(2)
	go scan(stdout, forward)
	go scan(stderr, forward)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}
