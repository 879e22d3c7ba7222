// Rsync transfer layer for the local backend
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dmelton/deckhand/internal/shared"
)

// CommandRunner executes an external command and returns its stdout and
// stderr. Tests swap in a fake to avoid shelling out.
type CommandRunner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// ExecRunner runs commands with os/exec. It is the default runner.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// Rsync wraps rsync invocations against a single remote host.
type Rsync struct {
	host   string
	flags  []string
	logger *log.Logger
	run    CommandRunner
}

// NewRsync creates an rsync wrapper for the given host. Flags is the
// user-configured flag string (e.g., "-avz"), split on whitespace. A nil
// runner defaults to [ExecRunner].
func NewRsync(host, flags string, logger *log.Logger, run CommandRunner) *Rsync {
	if run == nil {
		run = ExecRunner
	}
	return &Rsync{
		host:   strings.TrimSpace(host),
		flags:  strings.Fields(flags),
		logger: logger,
		run:    run,
	}
}

// PullFile downloads a single remote file into localPath's directory.
func (r *Rsync) PullFile(ctx context.Context, remoteFile, localPath string) error {
	destDir := filepath.Dir(localPath)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}
	return r.transfer(ctx, r.remoteSpec(remoteFile), destDir+string(os.PathSeparator), false)
}

// PullDir downloads a remote directory's contents into localPath.
func (r *Rsync) PullDir(ctx context.Context, remotePath, localPath string, delete bool) error {
	if err := os.MkdirAll(localPath, 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}
	return r.transfer(ctx, r.remoteSpec(trailingSlash(remotePath)), trailingSlash(localPath), delete)
}

// PushDir uploads a local directory's contents to remotePath.
func (r *Rsync) PushDir(ctx context.Context, localPath, remotePath string, delete bool) error {
	return r.transfer(ctx, trailingSlash(localPath), r.remoteSpec(trailingSlash(remotePath)), delete)
}

func (r *Rsync) transfer(ctx context.Context, source, destination string, delete bool) error {
	if r.host == "" {
		return shared.ErrRemoteUnconfigured
	}

	args := append([]string{}, r.flags...)
	if delete {
		args = append(args, "--delete")
	}
	args = append(args, source, destination)

	if r.logger != nil {
		r.logger.Debug("running rsync", "source", source, "destination", destination)
	}

	stdout, stderr, err := r.run(ctx, "rsync", args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return shared.ErrRsyncUnavailable
		}
		detail := strings.TrimSpace(string(stderr))
		if detail == "" {
			detail = strings.TrimSpace(string(stdout))
		}
		if detail == "" {
			return fmt.Errorf("rsync failed: %w", err)
		}
		return fmt.Errorf("rsync failed: %s: %w", detail, err)
	}

	return nil
}

func (r *Rsync) remoteSpec(path string) string {
	return r.host + ":" + path
}

// trailingSlash ensures a directory path ends with a separator so rsync
// copies contents rather than the directory itself.
func trailingSlash(path string) string {
	if strings.HasSuffix(path, "/") {
		return path
	}
	return path + "/"
}
