// Package deploy holds the release helpers: a content hash used as the
// container image tag, and a lookup of that tag in Google Artifact Registry.
package deploy

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Runner executes an external command and returns its stdout.
type Runner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

// ExecRunner runs name in dir and returns its standard output.
func ExecRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// ImageTagOptions selects the files that feed the image tag.
type ImageTagOptions struct {
	// Root is the repository checkout.
	Root string
	// BaseFiles are always hashed, in order, before the tracked files.
	BaseFiles []string
	// TrackedPaths are expanded with git ls-files.
	TrackedPaths []string
}

// DefaultImageTagOptions hashes the service sources from the current directory.
func DefaultImageTagOptions() ImageTagOptions {
	return ImageTagOptions{
		Root:         ".",
		BaseFiles:    []string{"go.mod", "go.sum", "Dockerfile"},
		TrackedPaths: []string{"main.go", "config", "http", "logging", "ml", "checkpoints"},
	}
}

// ImageTag hashes the selected files and returns the first 16 hex digits.
// The hashed file list is written to diag.
func ImageTag(ctx context.Context, run Runner, opts ImageTagOptions, diag io.Writer) (string, error) {
	args := append([]string{"ls-files"}, opts.TrackedPaths...)
	out, err := run(ctx, opts.Root, "git", args...)
	if err != nil {
		return "", err
	}
	paths := append(append([]string(nil), opts.BaseFiles...), strings.Fields(string(out))...)

	fmt.Fprintln(diag, "Hashing files")
	for _, p := range paths {
		fmt.Fprintf(diag, "  %s\n", p)
	}

	h := md5.New()
	for _, p := range paths {
		data, err := os.ReadFile(filepath.Join(opts.Root, p))
		if err != nil {
			return "", err
		}
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil))[:16], nil
}

// TagQuery identifies a package in Artifact Registry.
type TagQuery struct {
	Tag        string
	Location   string
	Repository string
	Package    string
}

// TagAvailable reports whether no existing tag in the package matches
// q.Tag. Matching resources are written to diag.
func TagAvailable(ctx context.Context, run Runner, q TagQuery, diag io.Writer) (bool, error) {
	out, err := run(ctx, "", "gcloud",
		"artifacts", "tags", "list",
		"--location", q.Location,
		"--repository", q.Repository,
		"--package", q.Package,
		"--filter", q.Tag,
		"--format=json",
	)
	if err != nil {
		return false, err
	}

	var resources []json.RawMessage
	if len(bytes.TrimSpace(out)) > 0 {
		if err := json.Unmarshal(out, &resources); err != nil {
			return false, fmt.Errorf("decode gcloud output: %w", err)
		}
	}
	if len(resources) == 0 {
		return true, nil
	}

	fmt.Fprintln(diag, "Following resources match:")
	for _, r := range resources {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, r, "  ", "  "); err != nil {
			pretty.Write(r)
		}
		fmt.Fprintf(diag, "  %s\n", pretty.String())
	}
	return false, nil
}
