// Package storage provides key-addressed file storage beneath a single root
// directory. Writes are atomic: content is written to a temporary file in the
// destination directory and renamed into place.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/JaimeStill/stamper/pkg/lifecycle"
)

const (
	tempPrefix  = ".stamper-"
	tempSuffix  = ".tmp"
	tempPattern = tempPrefix + "*" + tempSuffix
	dirMode     = 0o755
)

// System manages file storage operations and lifecycle coordination.
type System interface {
	// Start creates the root directory and registers a startup hook that
	// removes temporary files left behind by interrupted writes.
	Start(lc *lifecycle.Coordinator) error
	// Ensure creates the directory at key, including parents.
	Ensure(ctx context.Context, key string) error
	// Write atomically replaces the file at key with data.
	Write(ctx context.Context, key string, data []byte) error
	// Read returns the content of the file at key.
	// Returns ErrNotFound if the file does not exist.
	Read(ctx context.Context, key string) ([]byte, error)
	// Delete removes the file at key. Returns ErrNotFound if the file does not exist.
	Delete(ctx context.Context, key string) error
	// Exists reports whether a file exists at key.
	Exists(ctx context.Context, key string) (bool, error)
	// List returns the names of regular files directly inside the directory
	// at key, sorted by name. An empty key lists the root.
	List(ctx context.Context, key string) ([]string, error)
}

type local struct {
	fs     afero.Fs
	root   string
	logger *slog.Logger
}

// New creates a storage system rooted at cfg.Root on the host filesystem.
// The root is not created until Start is called.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root %s: %w", cfg.Root, err)
	}

	return NewWithFs(afero.NewBasePathFs(afero.NewOsFs(), root), root, logger), nil
}

// NewWithFs creates a storage system over an existing filesystem whose
// root ("/") is the storage root. root is used for logging only.
func NewWithFs(fsys afero.Fs, root string, logger *slog.Logger) System {
	return &local{
		fs:     fsys,
		root:   root,
		logger: logger.With("system", "storage"),
	}
}

func (l *local) Start(lc *lifecycle.Coordinator) error {
	l.logger.Info("starting storage system", "root", l.root)

	if err := l.fs.MkdirAll(string(filepath.Separator), dirMode); err != nil {
		return fmt.Errorf("create storage root %s: %w", l.root, err)
	}

	lc.OnStartup(func() error {
		removed, err := l.sweep()
		if err != nil {
			l.logger.Error("temporary file sweep failed", "error", err)
			return err
		}

		l.logger.Info("storage ready", "root", l.root, "stale_temp_files", removed)
		return nil
	})

	return nil
}

func (l *local) Ensure(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := l.fs.MkdirAll(l.path(key), dirMode); err != nil {
		return fmt.Errorf("create directory %s: %w", key, err)
	}
	return nil
}

func (l *local) Write(ctx context.Context, key string, data []byte) (err error) {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	target := l.path(key)
	tmp, err := afero.TempFile(l.fs, filepath.Dir(target), tempPattern)
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()
			if rmErr := l.fs.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				l.logger.Warn("remove temp file failed", "file", tmpName, "error", rmErr)
			}
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", key, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err = l.fs.Rename(tmpName, target); err != nil {
		return fmt.Errorf("rename into %s: %w", key, err)
	}

	return nil
}

func (l *local) Read(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(l.fs, l.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	return data, nil
}

func (l *local) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p := l.path(key)
	info, err := l.fs.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("stat %s: %w", key, err)
	}
	if info.IsDir() {
		return fmt.Errorf("delete %s: %w", key, ErrIsDirectory)
	}

	if err := l.fs.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete %s: %w", key, err)
	}

	return nil
}

func (l *local) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := l.fs.Stat(l.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("check existence %s: %w", key, err)
	}

	return !info.IsDir(), nil
}

func (l *local) List(ctx context.Context, key string) ([]string, error) {
	if key != "" {
		if err := validateKey(key); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := afero.ReadDir(l.fs, l.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("list %s: %w", key, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || isTemp(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}

	return names, nil
}

func (l *local) sweep() (int, error) {
	var removed int
	err := afero.Walk(l.fs, string(filepath.Separator), func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isTemp(info.Name()) {
			return nil
		}
		if err := l.fs.Remove(p); err != nil {
			return fmt.Errorf("remove %s: %w", p, err)
		}
		removed++
		return nil
	})
	return removed, err
}

func (l *local) path(key string) string {
	return filepath.Join(string(filepath.Separator), filepath.FromSlash(key))
}

func isTemp(name string) bool {
	return strings.HasPrefix(name, tempPrefix) && strings.HasSuffix(name, tempSuffix)
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	return nil
}
