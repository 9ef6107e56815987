package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/perishables/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	// AggregateTypeBatch is the aggregate type name used in events
	AggregateTypeBatch = "Batch"

	// MaxCodeLength bounds the batch code length
	MaxCodeLength = 50

	// DefaultNearExpiryDays is the default threshold for IsNearExpiry
	DefaultNearExpiryDays = 60

	notesSeparator = " | "
)

// Batch is a production lot of a single product with its own dates and stock
type Batch struct {
	shared.BaseAggregateRoot
	Code         string
	ProductID    uuid.UUID
	ProducedOn   time.Time
	ExpiresOn    time.Time
	ProducedQty  int
	AvailableQty int
	State        BatchState
	Notes        string
}

// NewBatch creates a batch in IN_PRODUCTION with no available stock.
// today is the caller's civil date, used to reject future production dates.
func NewBatch(code string, productID uuid.UUID, producedOn, expiresOn time.Time, producedQty int, notes string, today time.Time) (*Batch, error) {
	code = strings.TrimSpace(code)
	if err := validateCode(code); err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Product ID cannot be empty")
	}
	if producedQty < 1 {
		return nil, shared.NewDomainError(CodeInvalidQuantity, "Produced quantity must be at least 1")
	}
	producedOn = CivilDate(producedOn)
	expiresOn = CivilDate(expiresOn)
	if !expiresOn.After(producedOn) {
		return nil, ErrInvalidDateRange
	}
	if producedOn.After(CivilDate(today)) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Production date cannot be in the future")
	}

	b := &Batch{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		ProductID:         productID,
		ProducedOn:        producedOn,
		ExpiresOn:         expiresOn,
		ProducedQty:       producedQty,
		AvailableQty:      0,
		State:             BatchStateInProduction,
		Notes:             strings.TrimSpace(notes),
	}
	b.AddDomainEvent(NewBatchCreatedEvent(b))
	return b, nil
}

func validateCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_INPUT", "Batch code cannot be empty")
	}
	if len(code) > MaxCodeLength {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Batch code cannot exceed %d characters", MaxCodeLength))
	}
	return nil
}

// SoldQty is the quantity drawn from the batch so far
func (b *Batch) SoldQty() int {
	return b.ProducedQty - b.AvailableQty
}

// HasStock returns true if the batch has available quantity
func (b *Batch) HasStock() bool {
	return b.AvailableQty > 0
}

// DaysToExpire returns whole days from today until expiration (negative once expired)
func (b *Batch) DaysToExpire(today time.Time) int {
	return DaysBetween(today, b.ExpiresOn)
}

// IsExpired is true strictly after the expiration date
func (b *Batch) IsExpired(today time.Time) bool {
	return CivilDate(today).After(b.ExpiresOn)
}

// IsNearExpiry is true when fewer than threshold days remain
func (b *Batch) IsNearExpiry(today time.Time, threshold int) bool {
	return b.DaysToExpire(today) < threshold
}

// IsAllocatable reports whether FEFO may draw from this batch today
func (b *Batch) IsAllocatable(today time.Time) bool {
	return b.State.IsAllocatable() && b.HasStock() && b.ExpiresOn.After(CivilDate(today))
}

// transitionTo moves the batch to a new state through the transition table
func (b *Batch) transitionTo(to BatchState) error {
	if !b.State.CanTransitionTo(to) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Batch cannot move from %s to %s", b.State, to))
	}
	from := b.State
	b.State = to
	b.AddDomainEvent(NewBatchStateChangedEvent(b, from, to))
	return nil
}

func (b *Batch) appendNote(note string) {
	if b.Notes == "" {
		b.Notes = note
		return
	}
	b.Notes = b.Notes + notesSeparator + note
}

// Receive registers the batch in the warehouse: the whole production becomes available
func (b *Batch) Receive(today time.Time) error {
	if b.State != BatchStateInProduction {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Only batches in %s can be received, batch is %s", BatchStateInProduction, b.State))
	}
	if b.IsExpired(today) {
		return ErrBatchExpired
	}
	if err := b.transitionTo(BatchStateAvailable); err != nil {
		return err
	}
	b.AvailableQty = b.ProducedQty
	b.IncrementVersion()
	b.Touch()
	return nil
}

// Block takes the batch out of circulation
func (b *Batch) Block(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_INPUT", "A reason is required to block a batch")
	}
	switch b.State {
	case BatchStateBlocked:
		return ErrAlreadyBlocked
	case BatchStateExhausted:
		return ErrCannotBlockExhausted
	}
	if err := b.transitionTo(BatchStateBlocked); err != nil {
		return err
	}
	b.appendNote("BLOCKED: " + reason)
	b.IncrementVersion()
	b.Touch()
	return nil
}

// Unblock returns a blocked batch to circulation, or to EXHAUSTED if it holds no stock
func (b *Batch) Unblock(today time.Time) error {
	if b.State != BatchStateBlocked {
		return ErrNotBlocked
	}
	if b.IsExpired(today) {
		return ErrBatchExpired
	}
	target := BatchStateAvailable
	if !b.HasStock() {
		target = BatchStateExhausted
	}
	if err := b.transitionTo(target); err != nil {
		return err
	}
	b.IncrementVersion()
	b.Touch()
	return nil
}

// Consume draws delta units from the batch. Reaching zero exhausts an available batch.
func (b *Batch) Consume(delta int) error {
	if delta <= 0 {
		return ErrInvalidAdjustment
	}
	if b.State == BatchStateBlocked {
		return ErrBatchBlocked
	}
	if delta > b.AvailableQty {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Insufficient stock in batch %s: requested %d, available %d", b.Code, delta, b.AvailableQty))
	}
	b.AvailableQty -= delta
	if b.AvailableQty == 0 && b.State.CanTransitionTo(BatchStateExhausted) {
		if err := b.transitionTo(BatchStateExhausted); err != nil {
			return err
		}
	}
	b.AddDomainEvent(NewBatchStockAdjustedEvent(b, -delta))
	b.IncrementVersion()
	b.Touch()
	return nil
}

// SetAvailableQty overwrites the available quantity without touching the state
func (b *Batch) SetAvailableQty(qty int) error {
	if qty < 0 {
		return shared.NewDomainError(CodeInvalidQuantity, "Available quantity cannot be negative")
	}
	if qty > b.ProducedQty {
		return ErrInconsistentQuantities
	}
	if b.State == BatchStateExhausted && qty > 0 {
		return shared.NewDomainError("INVALID_STATE", "Exhausted batches cannot hold stock")
	}
	delta := qty - b.AvailableQty
	b.AvailableQty = qty
	b.AddDomainEvent(NewBatchStockAdjustedEvent(b, delta))
	b.IncrementVersion()
	b.Touch()
	return nil
}

// CanDelete checks the deletion rules: never sold from and not currently available
func (b *Batch) CanDelete() error {
	if b.AvailableQty < b.ProducedQty {
		return ErrBatchHasSales
	}
	if b.State == BatchStateAvailable {
		return ErrBatchCurrentlyAvailable
	}
	return nil
}

// BatchPatch carries a partial update. Nil fields are left untouched.
type BatchPatch struct {
	Code         *string
	ProductID    *uuid.UUID
	ProducedOn   *time.Time
	ExpiresOn    *time.Time
	ProducedQty  *int
	AvailableQty *int
	Notes        *string
	// Reason is appended to the notes as a correction record
	Reason string
}

// IsEmpty reports whether the patch changes nothing
func (p BatchPatch) IsEmpty() bool {
	return p.Code == nil && p.ProductID == nil && p.ProducedOn == nil && p.ExpiresOn == nil &&
		p.ProducedQty == nil && p.AvailableQty == nil && p.Notes == nil && strings.TrimSpace(p.Reason) == ""
}

// ApplyPatch merges p into the batch after validating the merged result.
// The batch is left unchanged when validation fails.
func (b *Batch) ApplyPatch(p BatchPatch) error {
	if p.IsEmpty() {
		return nil
	}

	merged := *b
	if p.Code != nil {
		code := strings.TrimSpace(*p.Code)
		if err := validateCode(code); err != nil {
			return err
		}
		merged.Code = code
	}
	if p.ProductID != nil {
		if *p.ProductID == uuid.Nil {
			return shared.NewDomainError("INVALID_INPUT", "Product ID cannot be empty")
		}
		merged.ProductID = *p.ProductID
	}
	if p.ProducedOn != nil {
		merged.ProducedOn = CivilDate(*p.ProducedOn)
	}
	if p.ExpiresOn != nil {
		merged.ExpiresOn = CivilDate(*p.ExpiresOn)
	}
	if p.ProducedQty != nil {
		if *p.ProducedQty < 1 {
			return shared.NewDomainError(CodeInvalidQuantity, "Produced quantity must be at least 1")
		}
		merged.ProducedQty = *p.ProducedQty
	}
	if p.AvailableQty != nil {
		if *p.AvailableQty < 0 {
			return shared.NewDomainError(CodeInvalidQuantity, "Available quantity cannot be negative")
		}
		merged.AvailableQty = *p.AvailableQty
	}
	if p.Notes != nil {
		merged.Notes = strings.TrimSpace(*p.Notes)
	}

	if !merged.ExpiresOn.After(merged.ProducedOn) {
		return ErrInvalidDateRange
	}
	if merged.AvailableQty > merged.ProducedQty {
		return ErrInconsistentQuantities
	}
	if merged.State == BatchStateExhausted && merged.AvailableQty > 0 {
		return shared.NewDomainError("INVALID_STATE", "Exhausted batches cannot hold stock")
	}
	if reason := strings.TrimSpace(p.Reason); reason != "" {
		merged.appendNote("CORRECTION: " + reason)
	}

	*b = merged
	b.AddDomainEvent(NewBatchUpdatedEvent(b))
	b.IncrementVersion()
	b.Touch()
	return nil
}
