package router

import (
	"github.com/erp/perishables/internal/interfaces/http/handler"
)

// Handlers bundles the HTTP handlers of the batch inventory API
type Handlers struct {
	Batch  *handler.BatchHandler
	Stock  *handler.StockHandler
	Report *handler.ReportHandler
	System *handler.SystemHandler
}

// RegisterInventory declares the batch, stock, report and system routes.
// Static segments are registered before the :id routes they sit next to.
func RegisterInventory(r *Router, h Handlers) *Router {
	batches := NewDomainGroup("batches", "/batches")
	batches.POST("", h.Batch.Create).
		GET("", h.Batch.List).
		GET("/available", h.Batch.ListAvailable).
		GET("/code/:code", h.Batch.GetByCode).
		GET("/product/:product_id", h.Batch.ListByProduct).
		GET("/state/:state", h.Batch.ListByState).
		POST("/select", h.Stock.SelectBatch).
		GET("/:id", h.Batch.GetByID).
		PUT("/:id", h.Batch.Update).
		DELETE("/:id", h.Batch.Delete).
		POST("/:id/receive", h.Batch.Receive).
		POST("/:id/block", h.Batch.Block).
		POST("/:id/unblock", h.Batch.Unblock).
		POST("/:id/adjust", h.Stock.Adjust).
		PUT("/:id/available-qty", h.Stock.SetAvailableQty)

	inventory := NewDomainGroup("inventory", "/inventory")
	inventory.Group("reports", "/reports").
		GET("/summary", h.Report.Summary).
		GET("/low-stock", h.Report.LowStock).
		GET("/expiring", h.Report.Expiring).
		GET("/dashboard", h.Report.Dashboard).
		GET("/products/:product_id/batches", h.Report.StockByBatch).
		GET("/products/:product_id/available", h.Report.AvailableStock)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo).
		GET("/ping", h.System.Ping)

	return r.Register(batches).
		Register(inventory).
		Register(system)
}
