package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/erp/perishables/internal/domain/inventory"
	"github.com/erp/perishables/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// productNameResolver looks up product display names. Concurrent lookups for the
// same key share one catalog call. The shared call is detached from the caller
// that started it; a caller whose context ends stops waiting without failing
// the others.
type productNameResolver struct {
	catalog inventory.ProductCatalog
	group   singleflight.Group
}

func newProductNameResolver(catalog inventory.ProductCatalog) *productNameResolver {
	return &productNameResolver{catalog: catalog}
}

// Name returns the product name, or UnknownProductName when the catalog has no such product
func (r *productNameResolver) Name(ctx context.Context, id uuid.UUID) (string, error) {
	v, err := r.do(ctx, "name:"+id.String(), func(flightCtx context.Context) (interface{}, error) {
		return r.catalog.GetName(flightCtx, id)
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return UnknownProductName, nil
		}
		return "", fmt.Errorf("resolve product name: %w", err)
	}
	return v.(string), nil
}

// Names resolves many products with a single catalog query.
// Every requested ID is present in the result.
func (r *productNameResolver) Names(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	unique := uniqueIDs(ids)
	if len(unique) == 0 {
		return map[uuid.UUID]string{}, nil
	}

	keys := make([]string, len(unique))
	for i, id := range unique {
		keys[i] = id.String()
	}
	v, err := r.do(ctx, "names:"+strings.Join(keys, ","), func(flightCtx context.Context) (interface{}, error) {
		return r.catalog.FindByIDs(flightCtx, unique)
	})
	if err != nil {
		return nil, fmt.Errorf("resolve product names: %w", err)
	}

	names := make(map[uuid.UUID]string, len(unique))
	for _, id := range unique {
		names[id] = UnknownProductName
	}
	for _, p := range v.([]inventory.Product) {
		names[p.ID] = p.Name
	}
	return names, nil
}

// do joins or starts the flight for key and waits for it or for ctx
func (r *productNameResolver) do(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	flightCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key, func() (interface{}, error) {
		return fn(flightCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// uniqueIDs returns the distinct IDs in string order
func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
