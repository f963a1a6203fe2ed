package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Compile-time checks that the ffmpeg types implement the engine interfaces.
var (
	_ Engine = (*FFmpegEngine)(nil)
	_ Scope  = (*FFmpegScope)(nil)
)

// FFmpegEngine implements Engine using the ffmpeg CLI. Scopes are private
// directories under baseDir; commands run with the scope directory as their
// working directory so buffer names map directly to file names.
type FFmpegEngine struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	// baseDir is where scope directories are created. Defaults to os.TempDir().
	baseDir string
}

// NewFFmpegEngine creates a new FFmpegEngine.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
// If baseDir is empty, the system temp directory is used.
func NewFFmpegEngine(ffmpegPath, baseDir string) *FFmpegEngine {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &FFmpegEngine{ffmpegPath: ffmpegPath, baseDir: baseDir}
}

// NewScope creates a private scope directory for one export invocation.
func (e *FFmpegEngine) NewScope(prefix string) (Scope, error) {
	if prefix == "" {
		prefix = "scope"
	}
	if err := os.MkdirAll(e.baseDir, 0750); err != nil {
		return nil, fmt.Errorf("%w: create base directory: %w", ErrStorageWrite, err)
	}
	dir, err := os.MkdirTemp(e.baseDir, prefix+"-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create scope directory: %w", ErrStorageWrite, err)
	}
	return &FFmpegScope{dir: dir, ffmpegPath: e.ffmpegPath}, nil
}

// FFmpegScope is a scope backed by a private directory.
type FFmpegScope struct {
	dir        string
	ffmpegPath string
}

// Dir returns the scope's backing directory.
func (s *FFmpegScope) Dir() string {
	return s.dir
}

// WriteBuffer stages data as a file inside the scope directory.
func (s *FFmpegScope) WriteBuffer(name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0600); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStorageWrite, name, err)
	}
	return nil
}

// ReadBuffer reads a named buffer from the scope directory.
func (s *FFmpegScope) ReadBuffer(name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name)) // #nosec G304 - name is validated above
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrBufferNotFound, name)
		}
		return nil, fmt.Errorf("read buffer %s: %w", name, err)
	}
	return data, nil
}

// Run executes ffmpeg with the given arguments inside the scope directory
// and returns an error containing stderr output if the command fails.
func (s *FFmpegScope) Run(ctx context.Context, args ...string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)
	cmd.Dir = s.dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Check if context was cancelled
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &CommandError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// Close removes the scope directory and every buffer inside it.
func (s *FFmpegScope) Close() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("remove scope directory: %w", err)
	}
	return nil
}

// Duration returns the duration in seconds of a named media buffer.
// It uses ffprobe to extract the duration metadata.
func (s *FFmpegScope) Duration(ctx context.Context, name string) (float64, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}

	// #nosec G204 - name is validated above
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		name,
	)
	cmd.Dir = s.dir

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return 0, fmt.Errorf("ffprobe %s: %w, stderr: %s", name, err, stderr.String())
	}

	var duration float64
	_, err = fmt.Sscanf(strings.TrimSpace(stdout.String()), "%f", &duration)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}

	return duration, nil
}

// validateName rejects buffer names that would escape the scope directory.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidBufferName, name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidBufferName, name)
	}
	return nil
}

// CommandError represents an error from running ffmpeg, including the stderr output.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
