package strategy

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/erp/perishables/internal/domain/shared"
	"github.com/erp/perishables/internal/domain/shared/strategy"
)

// StrategyInfo describes a registered strategy for listings
type StrategyInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Default     bool   `json:"default"`
}

// StrategyRegistry holds the batch selection strategies the allocation
// service can be configured with. It is safe for concurrent use.
type StrategyRegistry struct {
	mu         sync.RWMutex
	strategies map[string]strategy.BatchSelectionStrategy
	defaultKey string
}

// NewStrategyRegistry creates an empty registry
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		strategies: make(map[string]strategy.BatchSelectionStrategy),
	}
}

// RegisterBatchStrategy adds s under its name
func (r *StrategyRegistry) RegisterBatchStrategy(s strategy.BatchSelectionStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.strategies[name]; exists {
		return fmt.Errorf("%w: batch strategy '%s' already registered", shared.ErrAlreadyExists, name)
	}
	r.strategies[name] = s
	return nil
}

// GetBatchStrategy returns a batch strategy by name, or the default if name is empty
func (r *StrategyRegistry) GetBatchStrategy(name string) (strategy.BatchSelectionStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		if r.defaultKey == "" {
			return nil, fmt.Errorf("%w: no default batch strategy set", shared.ErrNotFound)
		}
		name = r.defaultKey
	}

	s, exists := r.strategies[name]
	if !exists {
		return nil, fmt.Errorf("%w: batch strategy '%s' not found (known: %s)",
			shared.ErrNotFound, name, strings.Join(r.sortedNames(), ", "))
	}
	return s, nil
}

// SetDefault selects the strategy returned for an empty name
func (r *StrategyRegistry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.strategies[name]; !exists {
		return fmt.Errorf("%w: batch strategy '%s' not found", shared.ErrNotFound, name)
	}
	r.defaultKey = name
	return nil
}

// Default returns the default strategy name, empty when none is set
func (r *StrategyRegistry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultKey
}

// Names returns the registered strategy names in sorted order
func (r *StrategyRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames()
}

// sortedNames expects r.mu to be held
func (r *StrategyRegistry) sortedNames() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe lists every registered strategy in name order
func (r *StrategyRegistry) Describe() []StrategyInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]StrategyInfo, 0, len(r.strategies))
	for name, s := range r.strategies {
		infos = append(infos, StrategyInfo{
			Name:        name,
			Description: s.Description(),
			Default:     name == r.defaultKey,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
