// Package source resolves model and formula references into their contents.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/alexisbeaulieu97/atlcheck/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/atlcheck/internal/ports"
)

const (
	gitPrefix = "git::"
	// Stdin is the reference that reads from the loader's standard input.
	Stdin = "-"
)

// GitRef is a parsed git::URL//path?ref=name reference.
type GitRef struct {
	URL  string
	Path string
	Ref  string
}

// IsGitRef reports whether ref uses the git:: form.
func IsGitRef(ref string) bool {
	return strings.HasPrefix(ref, gitPrefix)
}

// ParseGitRef splits a git:: reference. The path inside the repository is
// separated from the repository URL by a double slash; the optional ref query
// names a branch, or a full reference when it starts with "refs/".
func ParseGitRef(ref string) (GitRef, error) {
	if !IsGitRef(ref) {
		return GitRef{}, fmt.Errorf("%q is not a git reference", ref)
	}
	rest := strings.TrimPrefix(ref, gitPrefix)

	var parsed GitRef
	if i := strings.LastIndex(rest, "?"); i >= 0 {
		query := rest[i+1:]
		rest = rest[:i]
		for _, pair := range strings.Split(query, "&") {
			key, value, _ := strings.Cut(pair, "=")
			if key != "ref" {
				return GitRef{}, fmt.Errorf("unsupported query parameter %q in %q", key, ref)
			}
			parsed.Ref = value
		}
	}

	start := 0
	if i := strings.Index(rest, "://"); i >= 0 {
		start = i + len("://")
	}
	sep := strings.Index(rest[start:], "//")
	if sep < 0 {
		return GitRef{}, fmt.Errorf("git reference %q must name a file with //path", ref)
	}
	parsed.URL = rest[:start+sep]
	parsed.Path = strings.Trim(rest[start+sep+2:], "/")
	if parsed.URL == "" || parsed.Path == "" {
		return GitRef{}, fmt.Errorf("git reference %q must name a repository and a file", ref)
	}
	return parsed, nil
}

func (r GitRef) referenceName() plumbing.ReferenceName {
	if strings.HasPrefix(r.Ref, "refs/") {
		return plumbing.ReferenceName(r.Ref)
	}
	return plumbing.NewBranchReferenceName(r.Ref)
}

// Loader reads references from the filesystem, standard input or git
// repositories. Git repositories are cloned into memory.
type Loader struct {
	logger ports.Logger
	stdin  io.Reader
}

// Option customises a Loader.
type Option func(*Loader)

// WithStdin sets the reader used for the "-" reference.
func WithStdin(r io.Reader) Option {
	return func(l *Loader) { l.stdin = r }
}

// NewLoader creates a Loader.
func NewLoader(logger ports.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = logging.Discard()
	}
	l := &Loader{logger: logger.With("component", "source"), stdin: os.Stdin}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var _ ports.SourceLoader = (*Loader)(nil)

// Load implements ports.SourceLoader.
func (l *Loader) Load(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch {
	case ref == "":
		return nil, errors.New("empty source reference")
	case ref == Stdin:
		data, err := io.ReadAll(l.stdin)
		if err != nil {
			return nil, fmt.Errorf("read standard input: %w", err)
		}
		return data, nil
	case IsGitRef(ref):
		return l.loadGit(ctx, ref)
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	l.logger.Debug(ctx, "source loaded", "ref", ref, "bytes", len(data))
	return data, nil
}

func (l *Loader) loadGit(ctx context.Context, ref string) ([]byte, error) {
	parsed, err := ParseGitRef(ref)
	if err != nil {
		return nil, err
	}

	cloneOpts := &git.CloneOptions{
		URL:        parsed.URL,
		NoCheckout: true,
	}
	if parsed.Ref != "" {
		cloneOpts.ReferenceName = parsed.referenceName()
		cloneOpts.SingleBranch = true
	}
	// The file transport serves full histories only.
	if endpoint, err := transport.NewEndpoint(parsed.URL); err == nil && endpoint.Protocol != "file" {
		cloneOpts.Depth = 1
	}

	repo, err := git.CloneContext(ctx, memory.NewStorage(), nil, cloneOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to clone %s: %w", parsed.URL, err)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD of %s: %w", parsed.URL, err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("read commit %s of %s: %w", head.Hash(), parsed.URL, err)
	}
	file, err := commit.File(parsed.Path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%s not found in %s at %s", parsed.Path, parsed.URL, head.Name().Short())
		}
		return nil, fmt.Errorf("read %s from %s: %w", parsed.Path, parsed.URL, err)
	}
	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("read %s from %s: %w", parsed.Path, parsed.URL, err)
	}

	l.logger.Info(ctx, "source cloned",
		"url", parsed.URL,
		"path", parsed.Path,
		"commit", head.Hash().String(),
		"bytes", len(contents),
	)
	return []byte(contents), nil
}
