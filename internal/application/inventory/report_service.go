package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/erp/perishables/internal/domain/inventory"
	"github.com/erp/perishables/internal/domain/shared"
	"github.com/erp/perishables/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ReportService answers read-only stock questions. Totals are always derived
// from the batches; there is no stored per-product counter.
type ReportService struct {
	repo    inventory.BatchRepository
	catalog inventory.ProductCatalog
	names   *productNameResolver
	metrics *telemetry.BatchMetrics
	opts    Options
}

// NewReportService creates a new ReportService
func NewReportService(repo inventory.BatchRepository, catalog inventory.ProductCatalog, opts Options) *ReportService {
	return &ReportService{
		repo:    repo,
		catalog: catalog,
		names:   newProductNameResolver(catalog),
		opts:    opts.withDefaults(),
	}
}

// SetMetrics publishes the low-stock and expiring counts of each report as gauges
func (s *ReportService) SetMetrics(metrics *telemetry.BatchMetrics) {
	s.metrics = metrics
}

// DashboardReport bundles the reports shown on the inventory dashboard
type DashboardReport struct {
	Summaries []ProductSummary `json:"summaries"`
	LowStock  []ProductAlert   `json:"low_stock"`
	Expiring  []ExpiryAlert    `json:"expiring"`
}

// SummarizeByProduct aggregates all batches per product, sorted by product name
func (s *ReportService) SummarizeByProduct(ctx context.Context) ([]ProductSummary, error) {
	batches, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, batches)
}

func (s *ReportService) summarize(ctx context.Context, batches []inventory.Batch) ([]ProductSummary, error) {
	type acc struct {
		total   int
		count   int
		nearest time.Time
	}
	byProduct := make(map[uuid.UUID]*acc)
	ids := make([]uuid.UUID, 0)
	for _, b := range batches {
		a, ok := byProduct[b.ProductID]
		if !ok {
			a = &acc{nearest: b.ExpiresOn}
			byProduct[b.ProductID] = a
			ids = append(ids, b.ProductID)
		}
		a.total += b.AvailableQty
		a.count++
		if b.ExpiresOn.Before(a.nearest) {
			a.nearest = b.ExpiresOn
		}
	}

	names, err := s.names.Names(ctx, ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]ProductSummary, 0, len(ids))
	for _, id := range ids {
		a := byProduct[id]
		summaries = append(summaries, ProductSummary{
			ProductID:         id,
			ProductName:       names[id],
			TotalAvailableQty: a.total,
			BatchCount:        a.count,
			NearestExpiration: a.nearest.Format(inventory.DateLayout),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].ProductName != summaries[j].ProductName {
			return summaries[i].ProductName < summaries[j].ProductName
		}
		return summaries[i].ProductID.String() < summaries[j].ProductID.String()
	})
	return summaries, nil
}

// StockByBatch lists one row per batch of the product in retrieval order
func (s *ReportService) StockByBatch(ctx context.Context, productID uuid.UUID) ([]BatchStockRow, error) {
	exists, err := s.catalog.Exists(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, productNotFound(productID)
	}

	batches, err := s.repo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	rows := make([]BatchStockRow, len(batches))
	for i, b := range batches {
		rows[i] = BatchStockRow{
			Code:         b.Code,
			AvailableQty: b.AvailableQty,
			ExpiresOn:    b.ExpiresOn.Format(inventory.DateLayout),
			State:        b.State.String(),
		}
	}
	return rows, nil
}

// LowStock returns the products whose total available stock is under threshold.
// Only products with at least one batch are considered.
func (s *ReportService) LowStock(ctx context.Context, threshold int) ([]ProductAlert, error) {
	if threshold <= 0 {
		return nil, shared.NewDomainError(inventory.CodeInvalidQuantity, "Threshold must be positive")
	}
	summaries, err := s.SummarizeByProduct(ctx)
	if err != nil {
		return nil, err
	}
	alerts := lowStockFrom(summaries, threshold)
	s.metrics.RecordLowStockCount(ctx, len(alerts))
	return alerts, nil
}

func lowStockFrom(summaries []ProductSummary, threshold int) []ProductAlert {
	alerts := make([]ProductAlert, 0)
	for _, sum := range summaries {
		if sum.TotalAvailableQty < threshold {
			alerts = append(alerts, ProductAlert{
				ProductID:         sum.ProductID,
				ProductName:       sum.ProductName,
				TotalAvailableQty: sum.TotalAvailableQty,
				Threshold:         threshold,
			})
		}
	}
	return alerts
}

// ExpiringWithin lists sellable batches expiring before today+days, soonest first
func (s *ReportService) ExpiringWithin(ctx context.Context, days int) ([]ExpiryAlert, error) {
	if days < 0 {
		return nil, shared.NewDomainError(inventory.CodeInvalidQuantity, "Days cannot be negative")
	}

	today := s.opts.today()
	batches, err := s.repo.FindExpiringBefore(ctx, today.AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}

	eligible := make([]inventory.Batch, 0, len(batches))
	ids := make([]uuid.UUID, 0, len(batches))
	for _, b := range batches {
		if b.State != inventory.BatchStateAvailable || !b.HasStock() {
			continue
		}
		eligible = append(eligible, b)
		ids = append(ids, b.ProductID)
	}

	names, err := s.names.Names(ctx, ids)
	if err != nil {
		return nil, err
	}

	alerts := make([]ExpiryAlert, len(eligible))
	for i := range eligible {
		b := &eligible[i]
		alerts[i] = ExpiryAlert{
			BatchID:      b.ID,
			Code:         b.Code,
			ProductID:    b.ProductID,
			ProductName:  names[b.ProductID],
			ExpiresOn:    b.ExpiresOn.Format(inventory.DateLayout),
			AvailableQty: b.AvailableQty,
			DaysToExpire: b.DaysToExpire(today),
		}
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].DaysToExpire != alerts[j].DaysToExpire {
			return alerts[i].DaysToExpire < alerts[j].DaysToExpire
		}
		return alerts[i].Code < alerts[j].Code
	})
	s.metrics.RecordExpiringCount(ctx, len(alerts))
	return alerts, nil
}

// AvailableStock sums the stock FEFO could draw from for a product
func (s *ReportService) AvailableStock(ctx context.Context, productID uuid.UUID) (*AvailableStockResponse, error) {
	exists, err := s.catalog.Exists(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, productNotFound(productID)
	}

	batches, err := s.repo.FindAllocatable(ctx, productID, s.opts.today())
	if err != nil {
		return nil, err
	}
	resp := &AvailableStockResponse{ProductID: productID}
	for _, b := range batches {
		resp.AvailableQty += b.AvailableQty
		resp.BatchCount++
	}
	return resp, nil
}

// Dashboard computes the summary, low-stock and expiry reports concurrently
func (s *ReportService) Dashboard(ctx context.Context, threshold, days int) (*DashboardReport, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	if days < 0 {
		return nil, shared.NewDomainError(inventory.CodeInvalidQuantity, "Days cannot be negative")
	}

	report := &DashboardReport{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summaries, err := s.SummarizeByProduct(gctx)
		if err != nil {
			return err
		}
		report.Summaries = summaries
		report.LowStock = lowStockFrom(summaries, threshold)
		return nil
	})
	g.Go(func() error {
		expiring, err := s.ExpiringWithin(gctx, days)
		if err != nil {
			return err
		}
		report.Expiring = expiring
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.metrics.RecordLowStockCount(ctx, len(report.LowStock))
	return report, nil
}
