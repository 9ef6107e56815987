package strategy

import (
	"github.com/erp/perishables/internal/domain/shared/strategy"
	"github.com/erp/perishables/internal/infrastructure/strategy/batch"
)

// NewRegistryWithDefaults registers FEFO and FIFO. FEFO is the default unless
// defaultBatch names another registered strategy.
func NewRegistryWithDefaults(defaultBatch string) (*StrategyRegistry, error) {
	r := NewStrategyRegistry()

	builtins := []strategy.BatchSelectionStrategy{
		batch.NewFEFOBatchStrategy(),
		batch.NewFIFOBatchStrategy(),
	}
	for _, s := range builtins {
		if err := r.RegisterBatchStrategy(s); err != nil {
			return nil, err
		}
	}

	if defaultBatch == "" {
		defaultBatch = builtins[0].Name()
	}
	if err := r.SetDefault(defaultBatch); err != nil {
		return nil, err
	}
	return r, nil
}
