package strategy

// Named is implemented by every pluggable strategy
type Named interface {
	// Name is the key the strategy is registered and configured under
	Name() string
	Description() string
}

// Descriptor carries the name and description of a strategy.
// Embed it to satisfy Named.
type Descriptor struct {
	name        string
	description string
}

// NewDescriptor creates a Descriptor
func NewDescriptor(name, description string) Descriptor {
	return Descriptor{name: name, description: description}
}

// Name returns the strategy name
func (d Descriptor) Name() string {
	return d.name
}

// Description returns a human-readable description
func (d Descriptor) Description() string {
	return d.description
}
