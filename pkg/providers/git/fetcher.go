package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/plugsync/plugsync/pkg/engine"
	"github.com/plugsync/plugsync/pkg/spec"
	"github.com/plugsync/plugsync/pkg/telemetry"
)

// Fetcher retrieves plugins by cloning git repositories under a local
// root directory. It satisfies engine.Fetcher.
//
// The destination path is root/<source>; the validator has already
// rejected traversal sequences and absolute paths in the source, so
// the join can never escape the root.
type Fetcher struct {
	bin     string
	baseURL string
	root    string
	logger  *telemetry.Logger
}

// NewFetcher creates a Fetcher that runs bin (normally "git"), resolves
// sources against baseURL, and installs under root.
func NewFetcher(bin, baseURL, root string, logger *telemetry.Logger) *Fetcher {
	if logger == nil {
		logger = telemetry.NewNopLogger()
	}
	return &Fetcher{
		bin:     bin,
		baseURL: strings.TrimRight(baseURL, "/"),
		root:    root,
		logger:  logger.NewComponentLogger("git"),
	}
}

// repoURL resolves a plugin source to its clone URL.
func (f *Fetcher) repoURL(s spec.Spec) string {
	return f.baseURL + "/" + s.Source
}

// Fetch clones the repository (or refreshes an existing clone), checks
// out the requested version if one was given, and reports the install
// path and the concrete commit that ended up checked out.
func (f *Fetcher) Fetch(ctx context.Context, s spec.Spec) (*engine.FetchResult, error) {
	dest := filepath.Join(f.root, filepath.FromSlash(s.Source))
	log := f.logger.WithSpec(s.String())

	if _, err := os.Stat(filepath.Join(dest, ".git")); err == nil {
		log.Debug("Refreshing existing clone")
		if _, err := f.run(ctx, dest, "fetch", "--tags", "origin"); err != nil {
			return nil, err
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create install directory: %w", err)
		}
		log.Debugf("Cloning %s", f.repoURL(s))
		if _, err := f.run(ctx, "", "clone", "--quiet", f.repoURL(s), dest); err != nil {
			return nil, err
		}
	}

	if s.Version != "" {
		if _, err := f.run(ctx, dest, "checkout", "--quiet", s.Version); err != nil {
			return nil, fmt.Errorf("version %q not found: %w", s.Version, err)
		}
	}

	resolved, err := f.run(ctx, dest, "rev-parse", "--short", "HEAD")
	if err != nil {
		return nil, err
	}

	installPath := dest
	if s.Subpath != "" {
		installPath = filepath.Join(dest, filepath.FromSlash(s.Subpath))
		if _, err := os.Stat(installPath); err != nil {
			return nil, fmt.Errorf("subpath %q does not exist in repository: %w", s.Subpath, err)
		}
	}

	return &engine.FetchResult{
		InstallPath:     installPath,
		ResolvedVersion: strings.TrimSpace(resolved),
	}, nil
}

// run executes one git command, optionally inside dir, and returns its
// stdout. Failures carry git's stderr so the user sees the real cause.
func (f *Fetcher) run(ctx context.Context, dir string, args ...string) (string, error) {
	if dir != "" {
		args = append([]string{"-C", dir}, args...)
	}

	cmd := exec.CommandContext(ctx, f.bin, args...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), msg)
	}

	return stdout.String(), nil
}
