package inventory

import (
	"fmt"
	"strings"

	"github.com/erp/perishables/internal/domain/shared"
)

// BatchState is the lifecycle state of a production batch
type BatchState string

const (
	BatchStateInProduction BatchState = "IN_PRODUCTION"
	BatchStateAvailable    BatchState = "AVAILABLE"
	BatchStateExhausted    BatchState = "EXHAUSTED"
	BatchStateBlocked      BatchState = "BLOCKED"
)

// batchTransitions lists every legal state change. Anything absent is rejected.
var batchTransitions = map[BatchState][]BatchState{
	BatchStateInProduction: {BatchStateAvailable, BatchStateBlocked},
	BatchStateAvailable:    {BatchStateExhausted, BatchStateBlocked},
	BatchStateBlocked:      {BatchStateAvailable, BatchStateExhausted},
	BatchStateExhausted:    {},
}

// String returns the string representation of the state
func (s BatchState) String() string {
	return string(s)
}

// IsValid returns true if s is one of the known states
func (s BatchState) IsValid() bool {
	_, ok := batchTransitions[s]
	return ok
}

// IsAllocatable reports whether stock may be drawn from a batch in this state
func (s BatchState) IsAllocatable() bool {
	return s == BatchStateAvailable
}

// CanTransitionTo reports whether the transition table allows s -> to
func (s BatchState) CanTransitionTo(to BatchState) bool {
	for _, allowed := range batchTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllBatchStates returns every state in lifecycle order
func AllBatchStates() []BatchState {
	return []BatchState{
		BatchStateInProduction,
		BatchStateAvailable,
		BatchStateExhausted,
		BatchStateBlocked,
	}
}

// ParseBatchState converts a case-insensitive name into a BatchState
func ParseBatchState(s string) (BatchState, error) {
	state := BatchState(strings.ToUpper(strings.TrimSpace(s)))
	if !state.IsValid() {
		return "", shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("unknown batch state %q", s))
	}
	return state, nil
}
