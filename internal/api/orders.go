package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"autorepair/internal/models"
	"autorepair/internal/service"

	"github.com/gin-gonic/gin"
)

func queryDate(c *gin.Context, name string) (*models.Date, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return &d, nil
}

func queryLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return limit, nil
}

func (h *Handler) searchOrders(c *gin.Context) {
	filter := models.OrderFilter{
		CustomerName: c.Query("customer"),
		Status:       models.OrderStatus(c.Query("status")),
	}

	var err error
	if filter.From, err = queryDate(c, "from"); err != nil {
		badRequest(c, "Invalid query", err)
		return
	}
	if filter.To, err = queryDate(c, "to"); err != nil {
		badRequest(c, "Invalid query", err)
		return
	}
	if filter.Limit, err = queryLimit(c); err != nil {
		badRequest(c, "Invalid query", err)
		return
	}

	orders, err := h.svc.Orders.SearchOrders(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "Failed to search repair orders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// createRepairOrder handles repair order creation
func (h *Handler) createRepairOrder(c *gin.Context) {
	var req service.CreateRepairOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	h.createOnce(c, "repair-order", "Failed to create repair order", func(ctx context.Context) (interface{}, error) {
		return h.svc.Orders.CreateRepairOrder(ctx, &req)
	})
}

func (h *Handler) getRepairOrder(c *gin.Context) {
	details, err := h.svc.Orders.GetOrder(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.respondError(c, "Repair order not found", err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *Handler) updateRepairOrder(c *gin.Context) {
	var req service.UpdateRepairOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	order, err := h.svc.Orders.UpdateOrderDetails(c.Request.Context(), c.Param("number"), &req)
	if err != nil {
		h.respondError(c, "Failed to update repair order", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) completeRepairOrder(c *gin.Context) {
	order, err := h.svc.Orders.CompleteOrder(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.respondError(c, "Failed to complete repair order", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) cancelRepairOrder(c *gin.Context) {
	order, err := h.svc.Orders.CancelOrder(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.respondError(c, "Failed to cancel repair order", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) listPurchaseOrders(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		badRequest(c, "Invalid query", err)
		return
	}

	orders, err := h.svc.Purchases.ListPurchaseOrders(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, "Failed to list purchase orders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

func (h *Handler) createPurchaseOrder(c *gin.Context) {
	var req service.CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	h.createOnce(c, "purchase-order", "Failed to create purchase order", func(ctx context.Context) (interface{}, error) {
		return h.svc.Purchases.CreatePurchaseOrder(ctx, &req)
	})
}

func (h *Handler) getPurchaseOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	details, err := h.svc.Purchases.GetPurchaseOrder(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Purchase order not found", err)
		return
	}
	c.JSON(http.StatusOK, details)
}
