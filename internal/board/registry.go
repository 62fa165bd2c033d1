package board

import (
	"sort"
	"sync"

	"github.com/cortexsim/armboard/internal/simerr"
)

// Constructor builds a Board from a decoded configuration.
type Constructor func(cfg Config) (Board, error)

type registryEntry struct {
	ctor          Constructor
	defaultConfig []byte
}

// registry is the process-wide board name -> constructor map. Per
// §5's shared-resource policy, it is populated once at startup (by
// each board package's init) before any threads are spawned, and is
// read-only thereafter; the mutex exists only to make that discipline
// safe rather than to support ongoing concurrent writes.
type registry struct {
	mu      sync.Mutex
	entries map[string]registryEntry
}

var globalRegistry = &registry{entries: make(map[string]registryEntry)}

// Register installs a board constructor and its bundled default
// configuration under name. Board packages call this from their own
// init().
func Register(name string, ctor Constructor, defaultConfig []byte) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	if _, exists := globalRegistry.entries[name]; exists {
		panic(simerr.New(simerr.KindProgramming, "board %q registered twice", name))
	}
	globalRegistry.entries[name] = registryEntry{ctor: ctor, defaultConfig: defaultConfig}
}

// Get resolves name to its constructor.
func Get(name string) (Constructor, bool) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	e, ok := globalRegistry.entries[name]
	return e.ctor, ok
}

// DefaultConfig returns the bundled config.yaml bytes a board package
// embedded via go:embed, for launchers that omit --config.
func DefaultConfig(name string) ([]byte, bool) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	e, ok := globalRegistry.entries[name]
	return e.defaultConfig, ok
}

// Create resolves name and invokes its constructor with cfg.
func Create(name string, cfg Config) (Board, error) {
	ctor, ok := Get(name)
	if !ok {
		return nil, simerr.New(simerr.KindConfiguration, "unknown board %q", name)
	}
	return ctor(cfg)
}

// ListAvailable returns every registered board name, sorted for
// deterministic output.
func ListAvailable() []string {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	names := make([]string, 0, len(globalRegistry.entries))
	for name := range globalRegistry.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
