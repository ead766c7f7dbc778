// Package workdir provides the run's scratch directory: created once
// at process start, passed explicitly through every pipeline stage,
// and removed on every exit path.
package workdir

import (
	"os"
	"sync"

	"github.com/pkg/errors"
)

// Dir is an exclusively-owned temporary directory. Close is
// idempotent so it can be both deferred and invoked from a signal
// path without double-removal races.
type Dir struct {
	path string

	once sync.Once
	err  error
}

// New creates a scratch directory under the OS temp dir using the
// given name pattern (see os.MkdirTemp).
func New(pattern string) (*Dir, error) {
	path, err := os.MkdirTemp("", pattern)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create working directory")
	}
	return &Dir{path: path}, nil
}

// Path returns the directory's location on disk.
func (d *Dir) Path() string {
	return d.path
}

// Close removes the directory and everything in it. Safe to call more
// than once; later calls return the first result.
func (d *Dir) Close() error {
	d.once.Do(func() {
		d.err = os.RemoveAll(d.path)
	})
	return d.err
}
