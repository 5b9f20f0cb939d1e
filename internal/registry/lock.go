// pattern: Imperative Shell

package registry

import (
	"fmt"
	"sync"

	"github.com/gofrs/flock"
)

// fileLock serializes access to the registry file across processes through
// a sibling "<registry>.lock" file. mu serializes holders within this
// process, since one flock handle cannot be held twice.
type fileLock struct {
	mu sync.Mutex
	fl *flock.Flock
}

func newFileLock(registryPath string) *fileLock {
	return &fileLock{fl: flock.New(registryPath + ".lock")}
}

// exclusive runs fn while holding the write lock.
func (l *fileLock) exclusive(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.fl.Lock(); err != nil {
		return fmt.Errorf("failed to acquire registry lock: %w", err)
	}
	defer func() { _ = l.fl.Unlock() }()
	return fn()
}

// shared runs fn while holding a read lock.
func (l *fileLock) shared(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.fl.RLock(); err != nil {
		return fmt.Errorf("failed to acquire registry lock: %w", err)
	}
	defer func() { _ = l.fl.Unlock() }()
	return fn()
}
