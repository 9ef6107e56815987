package inventory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erp/perishables/internal/domain/inventory"
	"github.com/erp/perishables/internal/domain/shared"
	"github.com/erp/perishables/internal/domain/shared/strategy"
	batchstrategy "github.com/erp/perishables/internal/infrastructure/strategy/batch"
	"github.com/google/uuid"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// testClock is a settable clock shared by services under test
type testClock struct {
	mu sync.Mutex
	at time.Time
}

func newTestClock(at time.Time) *testClock {
	return &testClock{at: at}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *testClock) Set(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = at
}

// memBatchRepository is an in-memory BatchRepository with real version checks
type memBatchRepository struct {
	mu      sync.Mutex
	batches map[uuid.UUID]inventory.Batch
	order   []uuid.UUID

	// injectConflicts makes the next N SaveWithLock calls fail with a conflict
	injectConflicts int
	saveCalls       int

	// onFind runs once, after the next FindByID has taken its copy
	onFind func(id uuid.UUID)
}

func newMemBatchRepository() *memBatchRepository {
	return &memBatchRepository{batches: make(map[uuid.UUID]inventory.Batch)}
}

func detach(b inventory.Batch) inventory.Batch {
	b.ClearDomainEvents()
	return b
}

func (r *memBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	r.mu.Lock()
	b, ok := r.batches[id]
	hook := r.onFind
	r.onFind = nil
	r.mu.Unlock()

	if hook != nil {
		hook(id)
	}
	if !ok {
		return nil, shared.ErrNotFound
	}
	b = detach(b)
	return &b, nil
}

func (r *memBatchRepository) FindByCode(ctx context.Context, code string) (*inventory.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		if b := r.batches[id]; b.Code == code {
			b = detach(b)
			return &b, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memBatchRepository) ExistsByCode(ctx context.Context, code string, excludeID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, b := range r.batches {
		if b.Code == code && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memBatchRepository) collect(keep func(inventory.Batch) bool) []inventory.Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.Batch, 0)
	for _, id := range r.order {
		if b, ok := r.batches[id]; ok && keep(b) {
			out = append(out, detach(b))
		}
	}
	return out
}

func (r *memBatchRepository) FindAll(ctx context.Context, filter inventory.BatchFilter) ([]inventory.Batch, int64, error) {
	all := r.collect(func(b inventory.Batch) bool {
		if filter.ProductID != nil && b.ProductID != *filter.ProductID {
			return false
		}
		if filter.State != nil && b.State != *filter.State {
			return false
		}
		if filter.InStock && b.AvailableQty <= 0 {
			return false
		}
		if filter.Search != "" && !strings.Contains(b.Code, filter.Search) {
			return false
		}
		return true
	})
	total := int64(len(all))
	start := filter.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + filter.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *memBatchRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]inventory.Batch, error) {
	return r.collect(func(b inventory.Batch) bool { return b.ProductID == productID }), nil
}

func (r *memBatchRepository) FindByState(ctx context.Context, state inventory.BatchState) ([]inventory.Batch, error) {
	return r.collect(func(b inventory.Batch) bool { return b.State == state }), nil
}

func (r *memBatchRepository) FindAllocatable(ctx context.Context, productID uuid.UUID, after time.Time) ([]inventory.Batch, error) {
	return r.collect(func(b inventory.Batch) bool {
		return b.ProductID == productID && b.State == inventory.BatchStateAvailable &&
			b.AvailableQty > 0 && b.ExpiresOn.After(after)
	}), nil
}

func (r *memBatchRepository) FindExpiringBefore(ctx context.Context, before time.Time) ([]inventory.Batch, error) {
	batches := r.collect(func(b inventory.Batch) bool {
		return b.State == inventory.BatchStateAvailable && b.AvailableQty > 0 && b.ExpiresOn.Before(before)
	})
	sort.SliceStable(batches, func(i, j int) bool { return batches[i].ExpiresOn.Before(batches[j].ExpiresOn) })
	return batches, nil
}

func (r *memBatchRepository) ListAll(ctx context.Context) ([]inventory.Batch, error) {
	return r.collect(func(inventory.Batch) bool { return true }), nil
}

func (r *memBatchRepository) Create(ctx context.Context, batch *inventory.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.batches {
		if b.Code == batch.Code {
			return inventory.ErrDuplicateCode
		}
	}
	r.batches[batch.ID] = detach(*batch)
	r.order = append(r.order, batch.ID)
	return nil
}

func (r *memBatchRepository) SaveWithLock(ctx context.Context, batch *inventory.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveCalls++
	if r.injectConflicts > 0 {
		r.injectConflicts--
		return shared.ErrConcurrencyConflict
	}
	stored, ok := r.batches[batch.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != batch.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.batches[batch.ID] = detach(*batch)
	return nil
}

func (r *memBatchRepository) DeleteWithLock(ctx context.Context, id uuid.UUID, version int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.batches[id]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != version {
		return shared.ErrConcurrencyConflict
	}
	delete(r.batches, id)
	return nil
}

// afterNextFind installs a hook that simulates a write landing between a
// service's read and its write
func (r *memBatchRepository) afterNextFind(fn func(id uuid.UUID)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFind = fn
}

func (r *memBatchRepository) exists(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.batches[id]
	return ok
}

func (r *memBatchRepository) stored(id uuid.UUID) inventory.Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches[id]
}

func (r *memBatchRepository) saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveCalls
}

var _ inventory.BatchRepository = (*memBatchRepository)(nil)

// memProductCatalog is an in-memory ProductCatalog that counts its calls
type memProductCatalog struct {
	mu         sync.RWMutex
	products   map[uuid.UUID]string
	nameCalls  atomic.Int64
	batchCalls atomic.Int64
}

func newMemProductCatalog() *memProductCatalog {
	return &memProductCatalog{products: make(map[uuid.UUID]string)}
}

func (c *memProductCatalog) add(name string) uuid.UUID {
	id := uuid.New()
	c.mu.Lock()
	c.products[id] = name
	c.mu.Unlock()
	return id
}

func (c *memProductCatalog) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.products[id]
	return ok, nil
}

func (c *memProductCatalog) GetName(ctx context.Context, id uuid.UUID) (string, error) {
	c.nameCalls.Add(1)
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.products[id]
	if !ok {
		return "", shared.ErrNotFound
	}
	return name, nil
}

func (c *memProductCatalog) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]inventory.Product, error) {
	c.batchCalls.Add(1)
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]inventory.Product, 0, len(ids))
	for _, id := range ids {
		if name, ok := c.products[id]; ok {
			out = append(out, inventory.Product{ID: id, Name: name})
		}
	}
	return out, nil
}

var _ inventory.ProductCatalog = (*memProductCatalog)(nil)

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// memIdempotencyStore is a minimal in-memory IdempotencyStore
type memIdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{keys: make(map[string]struct{})}
}

func (s *memIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return false, nil
	}
	s.keys[key] = struct{}{}
	return true, nil
}

func (s *memIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok, nil
}

func (s *memIdempotencyStore) Forget(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

func (s *memIdempotencyStore) Close() error { return nil }

// testEnv wires all services over shared in-memory collaborators
type testEnv struct {
	repo       *memBatchRepository
	catalog    *memProductCatalog
	clock      *testClock
	publisher  *recordingPublisher
	batches    *BatchService
	allocation *AllocationService
	adjustment *AdjustmentService
	reports    *ReportService
}

func testOptions(clock shared.Clock) Options {
	return Options{
		NearExpiryDays:       60,
		AdjustMaxRetries:     20,
		AdjustInitialBackoff: time.Millisecond,
		AdjustMaxBackoff:     5 * time.Millisecond,
		IdempotencyTTL:       time.Hour,
		Clock:                clock,
	}
}

func newTestEnv(today time.Time) *testEnv {
	env := &testEnv{
		repo:      newMemBatchRepository(),
		catalog:   newMemProductCatalog(),
		clock:     newTestClock(today),
		publisher: &recordingPublisher{},
	}
	opts := testOptions(env.clock)

	env.batches = NewBatchService(env.repo, env.catalog, opts)
	env.batches.SetEventPublisher(env.publisher)
	env.allocation = NewAllocationService(env.repo, env.catalog, newFEFOForTest(), opts)
	env.adjustment = NewAdjustmentService(env.repo, opts)
	env.adjustment.SetEventPublisher(env.publisher)
	env.adjustment.SetIdempotencyStore(newMemIdempotencyStore())
	env.reports = NewReportService(env.repo, env.catalog, opts)
	return env
}

func newFEFOForTest() strategy.BatchSelectionStrategy {
	return batchstrategy.NewFEFOBatchStrategy()
}
