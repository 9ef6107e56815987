package handler

import (
	"strings"

	inventoryapp "github.com/erp/perishables/internal/application/inventory"
	"github.com/erp/perishables/internal/domain/inventory"
	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader carries a client-chosen key that makes an adjustment apply at most once
const IdempotencyKeyHeader = "Idempotency-Key"

// StockHandler handles stock movements and batch selection
type StockHandler struct {
	BaseHandler
	adjustmentService *inventoryapp.AdjustmentService
	allocationService *inventoryapp.AllocationService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(
	adjustmentService *inventoryapp.AdjustmentService,
	allocationService *inventoryapp.AllocationService,
) *StockHandler {
	return &StockHandler{
		adjustmentService: adjustmentService,
		allocationService: allocationService,
	}
}

// Adjust godoc
// @ID           adjustBatchStock
// @Summary      Consume stock from a batch
// @Description  Subtracts quantity from the batch. With an Idempotency-Key header a repeated request is rejected with 409.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        id              path   string                          true  "Batch ID" format(uuid)
// @Param        Idempotency-Key header string                          false "Request key"
// @Param        request         body   inventoryapp.AdjustStockRequest true  "Quantity to consume"
// @Success      200 {object} APIResponse[inventoryapp.AdjustmentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /batches/{id}/adjust [post]
func (h *StockHandler) Adjust(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req inventoryapp.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))

	var batch *inventory.Batch
	var err error
	if key != "" {
		batch, err = h.adjustmentService.AdjustOnce(ctx, key, id, req.Quantity)
	} else {
		batch, err = h.adjustmentService.Adjust(ctx, id, req.Quantity)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, inventoryapp.ToAdjustmentResponse(batch))
}

// SetAvailableQty godoc
// @ID           setBatchAvailableQty
// @Summary      Overwrite the available quantity of a batch
// @Description  Audit correction. The batch state is left unchanged.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        id      path string                              true "Batch ID" format(uuid)
// @Param        request body inventoryapp.SetAvailableQtyRequest true "New available quantity"
// @Success      200 {object} APIResponse[inventoryapp.AdjustmentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /batches/{id}/available-qty [put]
func (h *StockHandler) SetAvailableQty(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req inventoryapp.SetAvailableQtyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	batch, err := h.adjustmentService.SetAvailableQty(c.Request.Context(), id, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, inventoryapp.ToAdjustmentResponse(batch))
}

// SelectBatch godoc
// @ID           selectBatch
// @Summary      Choose the batch that serves a quantity
// @Description  Returns the single batch the configured strategy picks. Stock is never split across batches.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.SelectBatchRequest true "Product and quantity"
// @Success      200 {object} APIResponse[inventoryapp.BatchRef]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /batches/select [post]
func (h *StockHandler) SelectBatch(c *gin.Context) {
	var req inventoryapp.SelectBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ref, err := h.allocationService.SelectBatch(c.Request.Context(), req.ProductID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ref)
}
