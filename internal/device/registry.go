package device

import "sync"

var (
	backendMu sync.RWMutex
	backend   Backend
)

// Register installs b as the process-wide backend. Passing nil restores the
// default CPU backend on the next call to Default.
func Register(b Backend) {
	backendMu.Lock()
	backend = b
	backendMu.Unlock()
}

// Default returns the registered backend, creating a CPU backend with
// DefaultCPUConfig on first use.
func Default() Backend {
	backendMu.RLock()
	b := backend
	backendMu.RUnlock()
	if b != nil {
		return b
	}

	backendMu.Lock()
	defer backendMu.Unlock()
	if backend == nil {
		backend = NewCPUBackend(DefaultCPUConfig())
	}
	return backend
}
