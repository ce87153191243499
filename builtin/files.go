package builtin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/mcp-toolbox/middleware"
)

// MaxFileBytes caps how much of a file the file capabilities return.
const MaxFileBytes = 4 * middleware.MB

// FileRoot reads files below a directory. Paths that leave the directory,
// including through symlinks, are refused.
type FileRoot struct {
	dir string
}

// NewFileRoot creates a FileRoot for dir.
func NewFileRoot(dir string) *FileRoot {
	return &FileRoot{dir: dir}
}

// ReadFile returns the content of name, relative to the root. Failures
// are plain errors; callers report them as execution failures.
func (r *FileRoot) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if name == "" {
		return nil, errors.New("path is required")
	}
	if !filepath.IsLocal(name) {
		return nil, fmt.Errorf("path %q is outside the file root", name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := os.OpenRoot(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open file root: %w", err)
	}
	defer root.Close()

	f, err := root.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file not found: %s: %w", name, fs.ErrNotExist)
		}
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", name)
	}

	data, err := io.ReadAll(io.LimitReader(f, MaxFileBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxFileBytes {
		return nil, fmt.Errorf("file %s exceeds %d bytes", name, MaxFileBytes)
	}
	return data, nil
}
