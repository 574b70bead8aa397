package i18n

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	yaml "go.yaml.in/yaml/v3"
)

// Overrides is a registry of per-gadget message replacements, applied on top
// of a catalog whenever a message view is built. Wikis use it to patch
// messages without redeploying the catalog.
type Overrides struct {
	mu     sync.RWMutex
	byName map[string]map[string]string
}

// NewOverrides creates an empty registry.
func NewOverrides() *Overrides {
	return &Overrides{byName: map[string]map[string]string{}}
}

// Set merges messages into the overrides registered for name.
func (o *Overrides) Set(name string, messages map[string]string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.byName[name] == nil {
		o.byName[name] = make(map[string]string, len(messages))
	}
	for key, value := range messages {
		o.byName[name][key] = value
	}
}

// Delete drops every override registered for name.
func (o *Overrides) Delete(name string) {
	o.mu.Lock()
	delete(o.byName, name)
	o.mu.Unlock()
}

// Lookup returns a copy of the overrides registered for name.
func (o *Overrides) Lookup(name string) map[string]string {
	if o == nil {
		return nil
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	entries := o.byName[name]
	if len(entries) == 0 {
		return nil
	}
	out := make(map[string]string, len(entries))
	for key, value := range entries {
		out[key] = value
	}
	return out
}

// LoadOverridesFile reads a YAML or JSON document mapping gadget names to
// message overrides.
func LoadOverridesFile(path string) (*Overrides, error) {
	overrides := NewOverrides()
	if strings.TrimSpace(path) == "" {
		return overrides, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides %s: %w", path, err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("unsupported overrides format %q", ext)
	}
	// JSON documents are valid YAML.
	var payload map[string]map[string]string
	if err := yaml.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode overrides %s: %w", path, err)
	}
	for name, messages := range payload {
		overrides.Set(name, messages)
	}
	return overrides, nil
}
