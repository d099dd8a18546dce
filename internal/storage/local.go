package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local answers for a backup tree rooted at BasePath. Keys are
// slash-separated paths relative to the root, mirroring the layout of
// the source tree they were copied from.
type Local struct {
	BasePath string
}

func NewLocal(path string) *Local {
	return &Local{BasePath: path}
}

// EnsureRoot creates the backup root if it is absent.
func (l *Local) EnsureRoot() error {
	if err := os.MkdirAll(l.BasePath, 0o750); err != nil {
		return fmt.Errorf("create backup root: %w", err)
	}
	return nil
}

// Path returns the filesystem location of key inside the tree.
func (l *Local) Path(key string) string {
	return filepath.Join(l.BasePath, filepath.FromSlash(key))
}

func (l *Local) Exists(key string) (bool, error) {
	_, err := os.Stat(l.Path(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// CopyFrom copies the file at src to key inside the tree, creating any
// missing parent directories. The source's permission bits and
// modification time are applied to the copy. Returns the number of
// bytes written.
func (l *Local) CopyFrom(src, key string) (int64, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}

	target := l.Path(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return 0, fmt.Errorf("create directories: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return written, fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return written, err
	}

	// The open mode only applies to newly created files and is subject
	// to the umask; restate it so overwrites track the source too.
	if err := os.Chmod(target, info.Mode().Perm()); err != nil {
		return written, fmt.Errorf("preserve mode for %s: %w", target, err)
	}
	if err := os.Chtimes(target, info.ModTime(), info.ModTime()); err != nil {
		return written, fmt.Errorf("preserve mod time for %s: %w", target, err)
	}
	return written, nil
}
