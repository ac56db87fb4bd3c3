package llm

import (
	"fmt"
	"slices"
	"sync"
)

// Dialect maps provider-neutral requests to one provider's HTTP API.
type Dialect interface {
	Name() string

	ChatPath() string
	BuildRequest(req CompletionRequest) (any, error)
	ParseResponse(body []byte) (*CompletionResponse, error)

	EmbeddingPath() string
	BuildEmbeddingRequest(req EmbeddingRequest) (any, error)
	ParseEmbeddingResponse(body []byte) ([]float32, error)

	// HealthPath is fetched with GET to probe the server. Empty disables
	// the probe.
	HealthPath() string
}

var (
	dialectsMu sync.RWMutex
	dialects   = map[string]Dialect{}
)

// RegisterDialect adds d under name, replacing any earlier registration.
// Dialect packages call it from init.
func RegisterDialect(name string, d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[name] = d
}

func GetDialect(name string) (Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[name]
	if !ok {
		return nil, fmt.Errorf("llm: unknown dialect %q (forgot to import driver?)", name)
	}
	return d, nil
}

// Dialects returns the registered dialect names, sorted.
func Dialects() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
