// Package shell runs external commands on behalf of stash.
package shell

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/stash/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.DatasetProbe = (*Probe)(nil)

// Probe implements ports.DatasetProbe by running the dataset package's
// introspection command and reading key=value lines from its output.
type Probe struct {
	logger ports.Logger
}

// NewProbe creates a new Probe.
func NewProbe(logger ports.Logger) *Probe {
	return &Probe{logger: logger}
}

// Probe runs cfg.Command and extracts the version fields named by cfg.
// When the major.minor line is absent it is derived from the full version.
func (p *Probe) Probe(ctx context.Context, cfg domain.DatasetConfig) (string, string, error) {
	if len(cfg.Command) == 0 {
		return "", "", zerr.Wrap(domain.ErrDatasetVersionNotFound, "no dataset command configured")
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, cfg.Command[0], cfg.Command[1:]...) //nolint:gosec // operator provided command
	cmd.Stdout = &stdout
	cmd.Stderr = &logWriter{logger: p.logger}

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return "", "", zerr.With(
			zerr.With(zerr.Wrap(err, "dataset command failed"), "exit_code", exitCode),
			"command", strings.Join(cfg.Command, " "),
		)
	}

	return ParseVersions(stdout.String(), cfg.MajorMinorKey, cfg.FullKey)
}

// ParseVersions scans key=value lines for the two version keys.
func ParseVersions(output, majorMinorKey, fullKey string) (string, string, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		k, v, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		values[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	if err := scanner.Err(); err != nil {
		return "", "", zerr.Wrap(err, "failed to read dataset command output")
	}

	full, ok := values[fullKey]
	if !ok {
		return "", "", zerr.With(zerr.Wrap(domain.ErrDatasetVersionNotFound, "missing version line"), "key", fullKey)
	}

	majorMinor, ok := values[majorMinorKey]
	if !ok {
		majorMinor = majorMinorOf(full)
	}
	return majorMinor, full, nil
}

func majorMinorOf(version string) string {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return version
	}
	return parts[0] + "." + parts[1]
}

// logWriter forwards complete lines of a child's stderr to the logger.
type logWriter struct {
	logger ports.Logger
	buf    []byte
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		if line := strings.TrimSpace(string(w.buf[:i])); line != "" {
			w.logger.Warn(line)
		}
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}
