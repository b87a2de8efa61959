package word

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

//go:embed fallback.yaml
var seedYAML []byte

// Pool exposes the fallback words served when generation fails.
type Pool interface {
	List() []Wire
	Pick(excluded []string) Wire
}

// MemoryPool implements Pool with an in-memory slice.
type MemoryPool struct {
	items []Wire
}

type poolFile struct {
	Words []Wire `yaml:"words"`
}

// NewMemoryPool returns a MemoryPool preloaded with the usable entries of items.
func NewMemoryPool(items []Wire) *MemoryPool {
	usable := lo.Filter(items, func(w Wire, _ int) bool {
		return w.Validate() == nil
	})
	return &MemoryPool{items: usable}
}

// Seed returns the built-in fallback words.
func Seed() []Wire {
	items, err := parsePool(seedYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded fallback words are invalid: %v", err))
	}
	return items
}

// LoadPoolFile reads fallback words from a YAML file shaped like fallback.yaml.
func LoadPoolFile(path string) ([]Wire, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fallback words: %w", err)
	}
	items, err := parsePool(data)
	if err != nil {
		return nil, fmt.Errorf("parse fallback words %s: %w", path, err)
	}
	return items, nil
}

func parsePool(data []byte) ([]Wire, error) {
	var file poolFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Words) == 0 {
		return nil, fmt.Errorf("no words defined")
	}
	return file.Words, nil
}

// List returns the configured fallback words.
func (p *MemoryPool) List() []Wire {
	return append([]Wire(nil), p.items...)
}

// Pick returns the first word not present in excluded (case-insensitive). When every
// word was excluded the first one is reused.
func (p *MemoryPool) Pick(excluded []string) Wire {
	if len(p.items) == 0 {
		return Wire{}
	}

	seen := lo.SliceToMap(excluded, func(w string) (string, struct{}) {
		return strings.ToLower(strings.TrimSpace(w)), struct{}{}
	})

	if fresh, ok := lo.Find(p.items, func(w Wire) bool {
		_, recent := seen[strings.ToLower(w.CleanWord)]
		return !recent
	}); ok {
		return fresh
	}
	return p.items[0]
}
