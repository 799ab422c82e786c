package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/zeebo/xxh3"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// kongVar returns the interpolation variable name of the running kong
// application, or "" if there is none.
func kongVar(ctx context.Context, name string) string {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return ""
	}

	return ktx.Model.Vars()[name]
}

type searchPathKey struct{}

// WithSearchPath returns a new context.Context containing the directories
// searched for relative script and bindings file names.
func WithSearchPath(ctx context.Context, dirs []string) context.Context {
	return context.WithValue(ctx, searchPathKey{}, dirs)
}

func searchPathFrom(ctx context.Context) []string {
	dirs, _ := ctx.Value(searchPathKey{}).([]string)

	return dirs
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// resolvePath returns the file that name refers to. Names that exist
// relative to the working directory, absolute names, and "-" are returned
// unchanged. Otherwise the search path is consulted in order, and name is
// returned unchanged if no directory contains it.
func resolvePath(ctx context.Context, name string) string {
	if name == stdinSource || filepath.IsAbs(name) {
		return name
	}

	if _, err := os.Stat(name); err == nil {
		return name
	}

	for _, dir := range searchPathFrom(ctx) {
		candidate := filepath.Join(dir, name)

		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}

	return name
}

// source is an opened input along with the name used in diagnostics.
type source struct {
	io.ReadCloser

	name string
}

// openSource opens a single input, resolving name through the search path.
// The name "-" refers to stdin, which is not closed.
func openSource(ctx context.Context, name string) (source, error) {
	if name == stdinSource || name == "" {
		return source{ReadCloser: io.NopCloser(os.Stdin), name: stdinSource}, nil
	}

	path := resolvePath(ctx, name)

	file, err := os.Open(path)
	if err != nil {
		return source{}, ErrOpenSource.Wrap(err)
	}

	return source{ReadCloser: file, name: path}, nil
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// openUnique opens each of the named files through the search path, skipping
// any that refer to a file already opened. All occurrences of "-" are
// replaced with a single stdin source placed last so it reads after all
// regular files.
//
// On error, every source opened so far is closed.
func openUnique(ctx context.Context, names []string) (srcs []source, err error) {
	defer func() {
		if err != nil {
			for _, s := range srcs {
				s.Close()
			}

			srcs = nil
		}
	}()

	seen := make(map[fileKey]struct{})

	stdinKey, hasStdinKey := fileKey{}, false
	if info, err := os.Stdin.Stat(); err == nil {
		stdinKey, hasStdinKey = makeFileKey(info)
	}

	wantStdin := false

	for _, name := range names {
		if name == stdinSource {
			wantStdin = true

			continue
		}

		path := resolvePath(ctx, name)

		key, err := statKey(path)
		if err != nil {
			return srcs, ErrOpenSource.Wrap(err)
		}

		if hasStdinKey && key == stdinKey {
			wantStdin = true

			continue
		}

		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}

		file, err := os.Open(path)
		if err != nil {
			return srcs, ErrOpenSource.Wrap(err)
		}

		srcs = append(srcs, source{ReadCloser: file, name: path})
	}

	if wantStdin {
		srcs = append(srcs, source{ReadCloser: io.NopCloser(os.Stdin), name: stdinSource})
	}

	return srcs, nil
}

// statKey resolves symlinks in path and returns the identity of the file it
// refers to.
func statKey(path string) (fileKey, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fileKey{}, err
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return fileKey{}, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return fileKey{}, err
	}

	key, ok := makeFileKey(info)
	if !ok {
		// No inode information; fall back to the resolved path.
		return fileKey{dev: ^uint64(0), ino: xxh3.HashString(resolved)}, nil
	}

	return key, nil
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}
