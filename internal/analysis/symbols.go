package analysis

import (
	"sync"
	"sync/atomic"

	"github.com/ianlancetaylor/demangle"
)

// demangleCache memoizes demangled symbol names. Details listings name the
// same function once per instruction, and the workers share the cache.
type demangleCache struct {
	mu      sync.RWMutex
	names   map[string]string
	hits    atomic.Int64
	enabled bool
}

var cache = &demangleCache{
	names:   make(map[string]string),
	enabled: true,
}

// SetDemangleCache turns the demangle cache on or off. Turning it off also
// drops the cached names.
func SetDemangleCache(enabled bool) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.enabled = enabled
	if !enabled {
		cache.names = make(map[string]string)
		cache.hits.Store(0)
	}
}

// CachedDemangle returns the demangled form of an Itanium C++ or Rust
// symbol, or the name unchanged when it is not mangled.
func CachedDemangle(mangled string) string {
	cache.mu.RLock()
	if !cache.enabled {
		cache.mu.RUnlock()
		return demangle.Filter(mangled, demangle.NoClones)
	}
	if d, ok := cache.names[mangled]; ok {
		cache.mu.RUnlock()
		cache.hits.Add(1)
		return d
	}
	cache.mu.RUnlock()

	d := demangle.Filter(mangled, demangle.NoClones)

	cache.mu.Lock()
	cache.names[mangled] = d
	cache.mu.Unlock()
	return d
}

// DemangleCacheStats reports the number of cached names and cache hits.
func DemangleCacheStats() (entries int, hits int64) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	return len(cache.names), cache.hits.Load()
}
