// Package fsroot validates the storage root once at startup and builds
// target paths beneath it.
package fsroot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourname/ufs/internal/models"
)

var (
	ErrNotFound     = errors.New("no such directory")
	ErrNotDirectory = errors.New("not a directory")
)

// PathError reports why a candidate root was rejected.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid fs_root %q: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// Root is a validated storage directory. It is never mutated after Validate,
// so copies can be handed to every connection without locking.
type Root struct {
	path string
}

// Validate returns path unchanged as a Root if it exists and is a directory.
func Validate(path string) (Root, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Root{}, &PathError{Path: path, Err: ErrNotFound}
		}
		return Root{}, &PathError{Path: path, Err: err}
	}
	if !info.IsDir() {
		return Root{}, &PathError{Path: path, Err: ErrNotDirectory}
	}

	return Root{path: path}, nil
}

// String returns the root path as it was validated.
func (r Root) String() string { return r.path }

// Join builds root/subdir/name. An empty subdir places the file directly
// under the root. Components that would leave the root are rejected.
func (r Root) Join(subdir, name string) (string, error) {
	if r.path == "" {
		return "", fmt.Errorf("%w: root not validated", models.ErrInvalidPath)
	}
	if !validComponent(name) {
		return "", fmt.Errorf("%w: filename %q", models.ErrInvalidPath, name)
	}
	if subdir != "" && !validComponent(subdir) {
		return "", fmt.Errorf("%w: subdir %q", models.ErrInvalidPath, subdir)
	}

	return filepath.Join(r.path, subdir, name), nil
}

func validComponent(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\`) && !strings.ContainsRune(s, 0)
}
