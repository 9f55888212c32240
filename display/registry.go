package display

import (
	"fmt"
	"sort"
	"sync"
)

// Backend names known to the registry.
const (
	BackendGLFW     = "glfw"
	BackendEbiten   = "ebiten"
	BackendSDL      = "sdl"
	BackendFBDev    = "fbdev"
	BackendHeadless = "headless"
)

// Factory returns the backend instance for a name. Backends hold
// process-wide state, so factories usually return a singleton.
type Factory func() Backend

var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// First registered backend in this list wins in Default.
	backendPriority = []string{BackendGLFW, BackendEbiten, BackendSDL, BackendFBDev, BackendHeadless}
)

// Register makes a backend available under name. It is called from the
// init functions of the backend packages; registering a name twice
// replaces the earlier factory.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend. Useful for tests.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the sorted names of registered backends.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the backend registered under name.
func Get(name string) (Backend, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrBackendNotAvailable, name, Available())
	}
	return factory(), nil
}

// Default returns the highest priority registered backend.
func Default() (Backend, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range backendPriority {
		if factory, ok := backends[name]; ok {
			return factory(), nil
		}
	}
	// Backends registered under custom names.
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, ErrBackendNotAvailable
	}
	sort.Strings(names)
	return backends[names[0]](), nil
}
