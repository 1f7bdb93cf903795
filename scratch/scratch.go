// Package scratch holds uploaded audio on disk for the duration of one
// transcription. Every file gets a unique name and is removed exactly once.
package scratch

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/kbukum/whisper-api/logger"
)

const filePrefix = "upload-"

// Dir creates scratch files inside one directory of an afero filesystem.
type Dir struct {
	fs   afero.Fs
	path string
	log  *logger.Logger
}

// NewDir returns a Dir rooted at path on fs. The directory must exist.
func NewDir(fs afero.Fs, path string, log *logger.Logger) *Dir {
	if log == nil {
		log = logger.NewNop()
	}
	return &Dir{fs: fs, path: path, log: log.WithComponent("scratch")}
}

// Path returns the directory scratch files are created in.
func (d *Dir) Path() string { return d.path }

// Check verifies the directory exists and is a directory.
func (d *Dir) Check() error {
	info, err := d.fs.Stat(d.path)
	if err != nil {
		return fmt.Errorf("scratch dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("scratch dir: %s is not a directory", d.path)
	}
	return nil
}

// Create streams r into a new file named upload-<uuid><ext>. The file is
// synced and closed before Create returns. On failure nothing is left behind.
func (d *Dir) Create(r io.Reader, ext string) (*File, error) {
	name := filepath.Join(d.path, filePrefix+uuid.NewString()+ext)

	f, err := d.fs.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	n, err := io.Copy(f, r)
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = d.fs.Remove(name)
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	return &File{fs: d.fs, path: name, ext: ext, size: n, log: d.log}, nil
}

// File is a fully written scratch file owned by one request.
type File struct {
	fs   afero.Fs
	path string
	ext  string
	size int64
	log  *logger.Logger

	once sync.Once
	err  error
}

// Path returns the file path.
func (f *File) Path() string { return f.path }

// Ext returns the validated extension the file was created with.
func (f *File) Ext() string { return f.ext }

// Size returns the number of bytes written.
func (f *File) Size() int64 { return f.size }

// Release removes the file. Only the first call acts; later calls return the
// first result. A file that is already gone is not an error.
func (f *File) Release() error {
	f.once.Do(func() {
		err := f.fs.Remove(f.path)
		switch {
		case err == nil:
		case errors.Is(err, fs.ErrNotExist):
			f.log.Debug("Temp file already removed, cleanup skipped", logger.Fields("path", f.path))
		default:
			f.err = fmt.Errorf("remove temp file: %w", err)
			f.log.Warn("Temp file cleanup failed", logger.Fields("path", f.path, logger.FieldError, err.Error()))
		}
	})
	return f.err
}
