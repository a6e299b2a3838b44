package presets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Loader resolves presets by name against a list of search paths and
// caches validated results.
type Loader struct {
	cache       sync.Map
	validator   *Validator
	searchPaths []string
}

func NewLoader(searchPaths []string) (*Loader, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	return &Loader{
		validator:   validator,
		searchPaths: searchPaths,
	}, nil
}

// Load finds <name>.json in the search paths, validates it against the
// preset schema and unmarshals it.
func (l *Loader) Load(name string) (*Preset, error) {
	if cached, ok := l.cache.Load(name); ok {
		return cached.(*Preset), nil
	}

	var data []byte
	var err error
	var foundPath string

	for _, searchPath := range l.searchPaths {
		fullPath := filepath.Join(searchPath, name+".json")
		data, err = os.ReadFile(fullPath)
		if err == nil {
			foundPath = fullPath
			break
		}
	}

	if data == nil {
		return nil, fmt.Errorf("preset not found: %s (searched in: %v)", name, l.searchPaths)
	}

	if err := l.validator.ValidatePreset(data); err != nil {
		return nil, fmt.Errorf("validation failed for %s: %w", foundPath, err)
	}

	var preset Preset
	if err := json.Unmarshal(data, &preset); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preset: %w", err)
	}

	l.cache.Store(name, &preset)

	return &preset, nil
}

// List enumerates the preset names available across the search paths.
// Later paths do not shadow earlier ones; duplicates appear once.
func (l *Loader) List() ([]string, error) {
	seen := make(map[string]bool)
	var names []string
	for _, searchPath := range l.searchPaths {
		entries, err := os.ReadDir(searchPath)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
				continue
			}
			name := e.Name()[:len(e.Name())-len(".json")]
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names, nil
}

func (l *Loader) ClearCache() {
	l.cache.Range(func(key, value interface{}) bool {
		l.cache.Delete(key)
		return true
	})
}
