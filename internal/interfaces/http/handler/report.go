package handler

import (
	inventoryapp "github.com/erp/perishables/internal/application/inventory"
	"github.com/gin-gonic/gin"
)

// ReportHandler handles inventory report endpoints
type ReportHandler struct {
	BaseHandler
	reportService *inventoryapp.ReportService
	defaults      ReportDefaults
}

// ReportDefaults hold the thresholds used when a request does not name its own
type ReportDefaults struct {
	LowStockThreshold int
	ExpiryWindowDays  int
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *inventoryapp.ReportService, defaults ReportDefaults) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		defaults:      defaults,
	}
}

// LowStockQuery holds the query parameters of the low-stock report
type LowStockQuery struct {
	Threshold *int `form:"threshold" binding:"omitempty,min=1"`
}

// ExpiringQuery holds the query parameters of the expiration report
type ExpiringQuery struct {
	Days *int `form:"days" binding:"omitempty,min=0,max=3650"`
}

// DashboardQuery holds the query parameters of the dashboard
type DashboardQuery struct {
	Threshold *int `form:"threshold" binding:"omitempty,min=1"`
	Days      *int `form:"days" binding:"omitempty,min=0,max=3650"`
}

// Summary godoc
// @ID           getInventorySummary
// @Summary      Stock per product
// @Description  Total available quantity, batch count and nearest expiration per product
// @Tags         reports
// @Produce      json
// @Success      200 {object} APIResponse[[]inventoryapp.ProductSummary]
// @Router       /inventory/reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	summaries, err := h.reportService.SummarizeByProduct(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summaries)
}

// StockByBatch godoc
// @ID           getStockByBatch
// @Summary      Stock of a product broken down by batch
// @Tags         reports
// @Produce      json
// @Param        product_id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[[]inventoryapp.BatchStockRow]
// @Failure      400 {object} ErrorResponse
// @Router       /inventory/reports/products/{product_id}/batches [get]
func (h *ReportHandler) StockByBatch(c *gin.Context) {
	productID, ok := h.ParseUUIDParam(c, "product_id")
	if !ok {
		return
	}

	rows, err := h.reportService.StockByBatch(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, rows)
}

// AvailableStock godoc
// @ID           getAvailableStock
// @Summary      Sellable stock of a product
// @Tags         reports
// @Produce      json
// @Param        product_id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.AvailableStockResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /inventory/reports/products/{product_id}/available [get]
func (h *ReportHandler) AvailableStock(c *gin.Context) {
	productID, ok := h.ParseUUIDParam(c, "product_id")
	if !ok {
		return
	}

	stock, err := h.reportService.AvailableStock(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stock)
}

// LowStock godoc
// @ID           getLowStock
// @Summary      Products under a stock threshold
// @Tags         reports
// @Produce      json
// @Param        threshold query int false "Minimum healthy stock"
// @Success      200 {object} APIResponse[[]inventoryapp.ProductAlert]
// @Failure      400 {object} ErrorResponse
// @Router       /inventory/reports/low-stock [get]
func (h *ReportHandler) LowStock(c *gin.Context) {
	var query LowStockQuery
	if !h.BindQuery(c, &query) {
		return
	}

	alerts, err := h.reportService.LowStock(c.Request.Context(), intOr(query.Threshold, h.defaults.LowStockThreshold))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, alerts)
}

// Expiring godoc
// @ID           getExpiringBatches
// @Summary      Sellable batches expiring soon
// @Tags         reports
// @Produce      json
// @Param        days query int false "Window in days"
// @Success      200 {object} APIResponse[[]inventoryapp.ExpiryAlert]
// @Failure      400 {object} ErrorResponse
// @Router       /inventory/reports/expiring [get]
func (h *ReportHandler) Expiring(c *gin.Context) {
	var query ExpiringQuery
	if !h.BindQuery(c, &query) {
		return
	}

	alerts, err := h.reportService.ExpiringWithin(c.Request.Context(), intOr(query.Days, h.defaults.ExpiryWindowDays))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, alerts)
}

// Dashboard godoc
// @ID           getInventoryDashboard
// @Summary      Inventory dashboard
// @Description  Product summaries, low-stock alerts and expiring batches in one response
// @Tags         reports
// @Produce      json
// @Param        threshold query int false "Minimum healthy stock"
// @Param        days      query int false "Expiration window in days"
// @Success      200 {object} APIResponse[inventoryapp.DashboardReport]
// @Failure      400 {object} ErrorResponse
// @Router       /inventory/reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	var query DashboardQuery
	if !h.BindQuery(c, &query) {
		return
	}

	report, err := h.reportService.Dashboard(
		c.Request.Context(),
		intOr(query.Threshold, h.defaults.LowStockThreshold),
		intOr(query.Days, h.defaults.ExpiryWindowDays),
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
