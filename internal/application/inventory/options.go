package inventory

import (
	"time"

	"github.com/erp/perishables/internal/domain/inventory"
	"github.com/erp/perishables/internal/domain/shared"
)

// DefaultLowStockThreshold is the low-stock threshold used when callers pass none
const DefaultLowStockThreshold = 10

// Options tunes the inventory services
type Options struct {
	// NearExpiryDays is the threshold for the near-expiry flag on batch views
	NearExpiryDays int
	// AdjustMaxRetries bounds how many times a conflicting write is retried.
	// Zero means the default; a negative value disables retries.
	AdjustMaxRetries int
	// AdjustInitialBackoff is the first wait between retries
	AdjustInitialBackoff time.Duration
	// AdjustMaxBackoff caps the wait between retries
	AdjustMaxBackoff time.Duration
	// IdempotencyTTL is how long AdjustOnce remembers a request key
	IdempotencyTTL time.Duration
	// Clock supplies "today" for expiry checks
	Clock shared.Clock
}

// DefaultOptions returns the default service options
func DefaultOptions() Options {
	return Options{
		NearExpiryDays:       inventory.DefaultNearExpiryDays,
		AdjustMaxRetries:     5,
		AdjustInitialBackoff: 10 * time.Millisecond,
		AdjustMaxBackoff:     500 * time.Millisecond,
		IdempotencyTTL:       24 * time.Hour,
		Clock:                shared.SystemClock{},
	}
}

// withDefaults fills zero values from DefaultOptions
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.NearExpiryDays <= 0 {
		o.NearExpiryDays = d.NearExpiryDays
	}
	if o.AdjustMaxRetries < 0 {
		o.AdjustMaxRetries = 0
	} else if o.AdjustMaxRetries == 0 {
		o.AdjustMaxRetries = d.AdjustMaxRetries
	}
	if o.AdjustInitialBackoff <= 0 {
		o.AdjustInitialBackoff = d.AdjustInitialBackoff
	}
	if o.AdjustMaxBackoff <= 0 {
		o.AdjustMaxBackoff = d.AdjustMaxBackoff
	}
	if o.IdempotencyTTL <= 0 {
		o.IdempotencyTTL = d.IdempotencyTTL
	}
	if o.Clock == nil {
		o.Clock = d.Clock
	}
	return o
}

// today returns the current civil date
func (o Options) today() time.Time {
	return inventory.CivilDate(o.Clock.Now())
}
