package convert

import (
	"os"
	"sync"

	"github.com/shinji-kodama/xlsx2csv/internal/model"
)

// Workdir is the scoped temporary directory owning one invocation's
// intermediate converter output. It is created under the system temp root
// with a unique name, so concurrent invocations never interfere.
//
// Release is idempotent: the caller defers it for the normal path and the
// signal path may race it during unwind, but the directory is removed
// exactly once.
type Workdir struct {
	path string
	once sync.Once
}

// NewWorkdir creates the scoped temporary directory.
func NewWorkdir() (*Workdir, error) {
	dir, err := os.MkdirTemp("", "xlsx2csv-")
	if err != nil {
		return nil, model.WrapCLIError(model.KindGeneral,
			"failed to create temporary working directory", err)
	}
	return &Workdir{path: dir}, nil
}

// Path returns the directory's absolute path.
func (w *Workdir) Path() string {
	return w.path
}

// Release removes the directory and everything in it. Safe to call more
// than once; only the first call acts.
func (w *Workdir) Release() {
	w.once.Do(func() {
		_ = os.RemoveAll(w.path)
	})
}
