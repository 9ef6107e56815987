package handler

import (
	inventoryapp "github.com/erp/perishables/internal/application/inventory"
	"github.com/gin-gonic/gin"
)

// BatchHandler handles batch lifecycle endpoints
type BatchHandler struct {
	BaseHandler
	batchService *inventoryapp.BatchService
}

// NewBatchHandler creates a new BatchHandler
func NewBatchHandler(batchService *inventoryapp.BatchService) *BatchHandler {
	return &BatchHandler{
		batchService: batchService,
	}
}

// Create godoc
// @ID           createBatch
// @Summary      Register a batch
// @Description  Registers a new production batch in the IN_PRODUCTION state
// @Tags         batches
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.CreateBatchRequest true "Batch creation request"
// @Success      201 {object} APIResponse[inventoryapp.BatchResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /batches [post]
func (h *BatchHandler) Create(c *gin.Context) {
	var req inventoryapp.CreateBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	batch, err := h.batchService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, batch)
}

// GetByID godoc
// @ID           getBatch
// @Summary      Get a batch by ID
// @Tags         batches
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.BatchResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /batches/{id} [get]
func (h *BatchHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	batch, err := h.batchService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batch)
}

// GetByCode godoc
// @ID           getBatchByCode
// @Summary      Get a batch by code
// @Tags         batches
// @Produce      json
// @Param        code path string true "Batch code"
// @Success      200 {object} APIResponse[inventoryapp.BatchResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /batches/code/{code} [get]
func (h *BatchHandler) GetByCode(c *gin.Context) {
	batch, err := h.batchService.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batch)
}

// List godoc
// @ID           listBatches
// @Summary      List batches
// @Description  Paginated batch list, filterable by product, state and code search
// @Tags         batches
// @Produce      json
// @Param        search     query string false "Code search"
// @Param        product_id query string false "Product ID" format(uuid)
// @Param        state      query string false "State" Enums(IN_PRODUCTION, AVAILABLE, BLOCKED, EXHAUSTED)
// @Param        page       query int    false "Page number" default(1)
// @Param        page_size  query int    false "Page size" default(20) maximum(100)
// @Param        order_by   query string false "Sort field" default(expires_on)
// @Param        order_dir  query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]inventoryapp.BatchResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /batches [get]
func (h *BatchHandler) List(c *gin.Context) {
	var filter inventoryapp.BatchListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	batches, total, err := h.batchService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, batches, total, filter.Page, filter.PageSize)
}

// ListByProduct godoc
// @ID           listBatchesByProduct
// @Summary      List the batches of a product
// @Tags         batches
// @Produce      json
// @Param        product_id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[[]inventoryapp.BatchResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /batches/product/{product_id} [get]
func (h *BatchHandler) ListByProduct(c *gin.Context) {
	productID, ok := h.ParseUUIDParam(c, "product_id")
	if !ok {
		return
	}

	batches, err := h.batchService.ListByProduct(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batches)
}

// ListByState godoc
// @ID           listBatchesByState
// @Summary      List the batches in a state
// @Tags         batches
// @Produce      json
// @Param        state path string true "State" Enums(IN_PRODUCTION, AVAILABLE, BLOCKED, EXHAUSTED)
// @Success      200 {object} APIResponse[[]inventoryapp.BatchResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /batches/state/{state} [get]
func (h *BatchHandler) ListByState(c *gin.Context) {
	batches, err := h.batchService.ListByState(c.Request.Context(), c.Param("state"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batches)
}

// ListAvailable godoc
// @ID           listAvailableBatches
// @Summary      List sellable batches
// @Description  AVAILABLE batches with stock that have not expired, earliest expiration first
// @Tags         batches
// @Produce      json
// @Success      200 {object} APIResponse[[]inventoryapp.BatchResponse]
// @Router       /batches/available [get]
func (h *BatchHandler) ListAvailable(c *gin.Context) {
	batches, err := h.batchService.ListAvailable(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batches)
}

// Update godoc
// @ID           updateBatch
// @Summary      Correct a batch
// @Description  Applies a partial correction; omitted fields are left untouched
// @Tags         batches
// @Accept       json
// @Produce      json
// @Param        id      path string                          true "Batch ID" format(uuid)
// @Param        request body inventoryapp.UpdateBatchRequest true "Batch correction"
// @Success      200 {object} APIResponse[inventoryapp.BatchResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /batches/{id} [put]
func (h *BatchHandler) Update(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req inventoryapp.UpdateBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	batch, err := h.batchService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batch)
}

// Delete godoc
// @ID           deleteBatch
// @Summary      Delete a batch
// @Description  Only batches without sales that are not currently on sale can be deleted
// @Tags         batches
// @Param        id path string true "Batch ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /batches/{id} [delete]
func (h *BatchHandler) Delete(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.batchService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Receive godoc
// @ID           receiveBatch
// @Summary      Receive a batch into the warehouse
// @Description  Moves an IN_PRODUCTION batch to AVAILABLE
// @Tags         batches
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.BatchResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /batches/{id}/receive [post]
func (h *BatchHandler) Receive(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	batch, err := h.batchService.ReceiveIntoWarehouse(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batch)
}

// Block godoc
// @ID           blockBatch
// @Summary      Put a batch on hold
// @Tags         batches
// @Accept       json
// @Produce      json
// @Param        id      path string                         true "Batch ID" format(uuid)
// @Param        request body inventoryapp.BlockBatchRequest true "Block reason"
// @Success      200 {object} APIResponse[inventoryapp.BatchResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /batches/{id}/block [post]
func (h *BatchHandler) Block(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req inventoryapp.BlockBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	batch, err := h.batchService.Block(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batch)
}

// Unblock godoc
// @ID           unblockBatch
// @Summary      Release a blocked batch
// @Tags         batches
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.BatchResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /batches/{id}/unblock [post]
func (h *BatchHandler) Unblock(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	batch, err := h.batchService.Unblock(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batch)
}
