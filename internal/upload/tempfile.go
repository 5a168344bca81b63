// Package upload persists an uploaded audio clip to a request-owned temp file.
package upload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

const audioSuffix = ".wav"

// TempAudio is a temp file exclusively owned by one request.
// Release must be deferred right after a successful Acquire.
type TempAudio struct {
	path string
	size int64
	once sync.Once
	err  error
}

// Acquire copies src into a new uniquely named file under dir.
// On any failure the partially written file is already removed.
func Acquire(dir string, src io.Reader) (*TempAudio, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "voice-"+uuid.NewString()+audioSuffix)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create temp audio: %w", err)
	}

	t := &TempAudio{path: path}

	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = t.Release()
		if copyErr != nil {
			return nil, fmt.Errorf("save temp audio: %w", copyErr)
		}
		return nil, fmt.Errorf("close temp audio: %w", closeErr)
	}

	t.size = n
	return t, nil
}

func (t *TempAudio) Path() string { return t.path }

func (t *TempAudio) Size() int64 { return t.size }

// Release removes the file. A file that is already gone is not an error,
// and calling Release more than once is safe.
func (t *TempAudio) Release() error {
	t.once.Do(func() {
		err := os.Remove(t.path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			t.err = fmt.Errorf("remove temp audio %s: %w", t.path, err)
		}
	})
	return t.err
}
